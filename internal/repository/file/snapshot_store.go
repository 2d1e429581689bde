package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/NordCoder/Linkerus/internal/domain/snapshot"
	"github.com/NordCoder/Linkerus/internal/obs"
)

var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// SnapshotStore keeps the run snapshot as an indented JSON document. Mirrors
// receive a copy of every saved snapshot.
type SnapshotStore struct {
	Path    string
	Mirrors []string

	log *zap.Logger
}

var _ snapshot.Store = (*SnapshotStore)(nil)

func NewSnapshotStore(path string, mirrors []string, log *zap.Logger) *SnapshotStore {
	return &SnapshotStore{Path: path, Mirrors: mirrors, log: obs.Component(log, "file.snapshot")}
}

func (s *SnapshotStore) Load(ctx context.Context) (*snapshot.RunSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot.RunSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, s.Path, err)
	}
	return &snap, nil
}

// Save writes the primary file atomically. Mirror failures are logged only.
func (s *SnapshotStore) Save(ctx context.Context, snap *snapshot.RunSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := encodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := writeAtomic(s.Path, b); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	for _, m := range s.Mirrors {
		if m == "" || m == s.Path {
			continue
		}
		if err := writeAtomic(m, b); err != nil {
			s.log.Warn("mirror write failed", zap.String("path", m), zap.Error(err))
		}
	}
	s.log.Debug("snapshot saved", zap.String("path", s.Path), zap.Int("bytes", len(b)))
	return nil
}

// writeAtomic replaces path with data via a synced temp file and rename, so
// readers see either the old or the new document.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// encodeSnapshot writes 2-space indented JSON with a trailing newline.
// Bucket labels such as "<1s" are kept literal, not \u003c escaped.
func encodeSnapshot(snap *snapshot.RunSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
