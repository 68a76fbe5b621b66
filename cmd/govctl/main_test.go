package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Revaldoo24/govai-platform/internal/config"
	"github.com/Revaldoo24/govai-platform/internal/domain/decisions"
	"github.com/Revaldoo24/govai-platform/internal/domain/journal"
	"github.com/Revaldoo24/govai-platform/internal/infra/db/mysql"
)

func TestRunCommandRouting(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := run(nil, &out); err == nil {
		t.Fatal("expected error when command is missing")
	}
	if !strings.Contains(out.String(), "govctl commands") {
		t.Fatalf("expected usage output, got %q", out.String())
	}

	out.Reset()
	if err := run([]string{"unknown"}, &out); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(out.String(), "govctl commands") {
		t.Fatalf("expected usage output for unknown command, got %q", out.String())
	}
}

func TestRequiredFlags(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{"list"},
		{"detail"},
		{"review", "--id", "d-1"},
		{"generate", "--tenant", "t"},
		{"generate", "--tenant", "t", "--prompt", "p", "--policy-mode", "strict"},
		{"journal"},
		{"list", "--bogus"},
	} {
		if err := run(args, io.Discard); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func gateway(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/decisions":
			_, _ = io.WriteString(w, `{"unexpected":"shape"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/decisions/d-1":
			_, _ = io.WriteString(w, `{"decision":{"id":"d-1","status":"pending"},"audit":{}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/decisions/d-done":
			_, _ = io.WriteString(w, `{"decision":{"id":"d-done","status":"approved"},"audit":{}}`)
		case r.Method == http.MethodPost && r.URL.Path == "/decisions/d-done":
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"detail":"Decision already finalized"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/decisions/d-1":
			_, _ = io.WriteString(w, `{"status":"updated","decision_id":"d-1"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/generate":
			_, _ = io.WriteString(w, `{"answer":"14 days","governance":{"status":"approved","decision_id":"d-2"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Not Found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestListPrintsEmptyArrayForNonArray(t *testing.T) {
	srv := gateway(t)
	var out bytes.Buffer
	if err := run([]string{"list", "--gateway", srv.URL, "--tenant", "gov-dept-a"}, &out); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", out.String())
	}
}

func TestDetailReviewGenerate(t *testing.T) {
	srv := gateway(t)

	var out bytes.Buffer
	if err := run([]string{"detail", "--gateway", srv.URL, "--id", "d-1"}, &out); err != nil {
		t.Fatalf("detail failed: %v", err)
	}
	if !strings.Contains(out.String(), `"pending"`) {
		t.Fatalf("unexpected detail output %s", out.String())
	}

	out.Reset()
	if err := run([]string{"review", "--gateway", srv.URL, "--id", "d-1", "--status", "approved", "--reviewer", "auditor-1"}, &out); err != nil {
		t.Fatalf("review failed: %v", err)
	}
	var res struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil || res.Status != "updated" {
		t.Fatalf("unexpected review output %s", out.String())
	}

	out.Reset()
	if err := run([]string{"generate", "--gateway", srv.URL, "--tenant", "gov-dept-a", "--prompt", "how long?"}, &out); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.Contains(out.String(), "14 days") {
		t.Fatalf("unexpected generate output %s", out.String())
	}
}

func TestGatewayErrorSurfaced(t *testing.T) {
	srv := gateway(t)
	err := run([]string{"detail", "--gateway", srv.URL, "--id", "missing"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestReviewChecksLifecycleFirst(t *testing.T) {
	srv := gateway(t)

	err := run([]string{"review", "--gateway", srv.URL, "--id", "d-done", "--status", "rejected", "--reviewer", "r"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "already approved") {
		t.Fatalf("expected terminal decision refusal, got %v", err)
	}

	err = run([]string{"review", "--gateway", srv.URL, "--id", "d-1", "--status", "escalated", "--reviewer", "r"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "escalated") {
		t.Fatalf("expected unknown target status refusal, got %v", err)
	}

	// --force skips the check and surfaces the upstream verdict
	err = run([]string{"review", "--gateway", srv.URL, "--id", "d-done", "--status", "rejected", "--reviewer", "r", "--force"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "409") {
		t.Fatalf("expected forwarded 409, got %v", err)
	}
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to decisions.Status
		ok       bool
	}{
		{decisions.StatusPending, decisions.StatusApproved, true},
		{decisions.StatusPending, decisions.StatusPending, true},
		{decisions.StatusApproved, decisions.StatusRejected, false},
		{decisions.StatusRejected, decisions.StatusPending, false},
		{decisions.StatusPending, "escalated", false},
	}
	for _, tt := range tests {
		if err := checkTransition(tt.from, tt.to); (err == nil) != tt.ok {
			t.Fatalf("%s -> %s: unexpected result %v", tt.from, tt.to, err)
		}
	}
}

func TestJournalListsTenantEntries(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM gateway_access_log").
		WithArgs("gov-dept-a", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "request_id", "tenant_id", "operation", "decision_id",
			"status_code", "upstream_status", "error_kind", "duration_ms", "created_at"}).
			AddRow("e-1", "req-1", "gov-dept-a", "list_decisions", "-", 200, 200, "-", int64(4), created))
	mock.ExpectClose()

	orig := openJournal
	t.Cleanup(func() { openJournal = orig })
	openJournal = func(context.Context, *config.Config) (journal.Repository, *sql.DB, error) {
		return mysql.NewJournalRepository(conn), conn, nil
	}

	var out bytes.Buffer
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	if err := run([]string{"journal", "--config", cfgPath, "--tenant", "gov-dept-a", "--limit", "20"}, &out); err != nil {
		t.Fatalf("journal failed: %v", err)
	}
	var entries []journal.Entry
	if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(entries) != 1 || entries[0].RequestID != "req-1" || entries[0].DecisionID != "" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestJournalDisabledDriver(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	t.Setenv("JOURNAL_DRIVER", "")
	err := run([]string{"journal", "--config", cfgPath, "--tenant", "gov-dept-a"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("expected disabled journal error, got %v", err)
	}
}
