package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/Revaldoo24/govai-platform/internal/domain/journal"
)

type JournalRepository struct{ db *sql.DB }

func NewJournalRepository(db *sql.DB) *JournalRepository { return &JournalRepository{db: db} }

const createJournalTable = `
CREATE TABLE IF NOT EXISTS gateway_access_log (
  id              UUID         PRIMARY KEY,
  request_id      VARCHAR(128) NOT NULL,
  tenant_id       VARCHAR(128) NOT NULL,
  operation       VARCHAR(32)  NOT NULL,
  decision_id     VARCHAR(128) NOT NULL,
  status_code     INTEGER      NOT NULL,
  upstream_status INTEGER      NOT NULL,
  error_kind      VARCHAR(32)  NOT NULL,
  duration_ms     BIGINT       NOT NULL,
  created_at      TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_access_tenant_created ON gateway_access_log (tenant_id, created_at DESC);`

func (r *JournalRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createJournalTable)
	return err
}

// Save appends one entry.
func (r *JournalRepository) Save(ctx context.Context, e *domain.Entry) error {
	const q = `
INSERT INTO gateway_access_log
(id, request_id, tenant_id, operation, decision_id, status_code, upstream_status, error_kind, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		e.ID, stringOrDash(domain.FitKey(e.RequestID)), stringOrDash(domain.FitKey(e.TenantID)), e.Operation, stringOrDash(domain.FitKey(e.DecisionID)),
		e.StatusCode, e.UpstreamStatus, stringOrDash(e.ErrorKind), e.DurationMS, created,
	)
	return err
}

// ListByTenant returns the newest entries first.
func (r *JournalRepository) ListByTenant(ctx context.Context, tenant string, limit int) ([]*domain.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	const q = `
SELECT id, request_id, tenant_id, operation, decision_id, status_code, upstream_status, error_kind, duration_ms, created_at
FROM gateway_access_log
WHERE tenant_id=$1 ORDER BY created_at DESC, id DESC
LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.TenantID, &e.Operation, &e.DecisionID,
			&e.StatusCode, &e.UpstreamStatus, &e.ErrorKind, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.RequestID = dashToEmpty(e.RequestID)
		e.DecisionID = dashToEmpty(e.DecisionID)
		e.ErrorKind = dashToEmpty(e.ErrorKind)
		out = append(out, &e)
	}
	return out, rows.Err()
}
