package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/Linkerus/internal/domain/run"
)

var _ run.Repo = (*RunRepoImpl)(nil)

type RunRepoImpl struct {
	db *DB
	tx Transactor
}

func NewRunRepo(db *DB, tx Transactor) *RunRepoImpl { return &RunRepoImpl{db: db, tx: tx} }

const (
	qRunInsert = `
INSERT INTO link_runs (id, started_at, finished_at, total_urls, broken_links, success_rate, total_runs)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	qRunsRecent = `
SELECT id, started_at, finished_at, total_urls, broken_links, success_rate, total_runs
FROM link_runs
ORDER BY finished_at DESC
LIMIT $1;
`
)

var outcomeColumns = []string{
	"run_id", "url", "locale", "status_code", "error_type",
	"latency_ms", "is_deep_check", "source", "text", "last_checked",
}

// Insert stores the run header and all of its outcomes in one transaction.
func (r *RunRepoImpl) Insert(ctx context.Context, rn *run.Run) error {
	return r.tx.WithTx(ctx, func(ctx context.Context) error {
		ctx, cancel := r.db.withTimeout(ctx)
		defer cancel()

		eq := r.db.execQueryer(ctx)
		if _, err := eq.Exec(ctx, qRunInsert,
			rn.ID, rn.StartedAt, rn.FinishedAt, rn.TotalURLs, rn.BrokenLinks, rn.SuccessRate, rn.TotalRuns,
		); err != nil {
			return fmt.Errorf("insert run: %w", mapPgErr(err))
		}

		if len(rn.Outcomes) == 0 {
			return nil
		}
		n, err := eq.CopyFrom(ctx, pgx.Identifier{"link_outcomes"}, outcomeColumns,
			pgx.CopyFromSlice(len(rn.Outcomes), func(i int) ([]any, error) {
				o := rn.Outcomes[i]
				return []any{
					rn.ID, o.URL, o.Locale, o.StatusCode.String(), string(o.ErrorType),
					o.Latency, o.IsDeepCheck, o.Source, o.Text, o.LastChecked,
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy outcomes: %w", mapPgErr(err))
		}
		if int(n) != len(rn.Outcomes) {
			return fmt.Errorf("copy outcomes: wrote %d of %d rows", n, len(rn.Outcomes))
		}
		return nil
	})
}

func (r *RunRepoImpl) ListRecent(ctx context.Context, limit int) ([]*run.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qRunsRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := make([]*run.Run, 0, limit)
	for rows.Next() {
		var rr run.Run
		if err := rows.Scan(&rr.ID, &rr.StartedAt, &rr.FinishedAt, &rr.TotalURLs, &rr.BrokenLinks, &rr.SuccessRate, &rr.TotalRuns); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, &rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
