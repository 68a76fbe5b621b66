package journal

import (
	"context"
	"time"
	"unicode/utf8"
)

// MaxKeyLen is the stored width of request_id, tenant_id and decision_id.
const MaxKeyLen = 128

// FitKey cuts s to MaxKeyLen bytes without splitting a UTF-8 sequence.
// Ids are client supplied and the journal must not fail on long ones.
func FitKey(s string) string {
	if len(s) <= MaxKeyLen {
		return s
	}
	cut := MaxKeyLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Entry is one proxied request as seen by the gateway.
// It never carries prompts, answers or decision payloads.
type Entry struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id"`
	TenantID       string    `json:"tenant_id"`
	Operation      string    `json:"operation"`
	DecisionID     string    `json:"decision_id,omitempty"`
	StatusCode     int       `json:"status_code"`
	UpstreamStatus int       `json:"upstream_status"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	DurationMS     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// Repository port (append-only access journal).
type Repository interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, e *Entry) error
	ListByTenant(ctx context.Context, tenant string, limit int) ([]*Entry, error)
}
