package snapshot

import "context"

type Store interface {
	// Load returns nil without error when no snapshot was persisted yet.
	Load(ctx context.Context) (*RunSnapshot, error)
	Save(ctx context.Context, s *RunSnapshot) error
}
