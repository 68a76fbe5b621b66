package consoleclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Revaldoo24/govai-platform/internal/domain/decisions"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", srv.Client())
}

func TestListDecisions(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/decisions" || q.Get("tenant_id") != "gov-dept-a" || q.Get("status") != "pending" || q.Get("limit") != "5" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = io.WriteString(w, `[{"id":"d-1","status":"pending","reasons":["low confidence"],"policy_hits":[],"created_at":"2026-03-01T10:00:00Z","updated_at":null}]`)
	})

	list, err := c.ListDecisions(context.Background(), "gov-dept-a", decisions.StatusPending, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].ID != "d-1" || list[0].Status != decisions.StatusPending || list[0].UpdatedAt != nil {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestListDecisionsDegradesNonArray(t *testing.T) {
	for _, payload := range []string{`{}`, `{"items":[{"id":"d-1"}]}`, `null`, `"oops"`} {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, payload)
		})
		list, err := c.ListDecisions(context.Background(), "gov-dept-a", "", 0)
		if err != nil {
			t.Fatalf("payload %s: unexpected error %v", payload, err)
		}
		if list == nil || len(list) != 0 {
			t.Fatalf("payload %s: expected empty non-nil list, got %#v", payload, list)
		}
	}
}

func TestAPIErrorCarriesDetail(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Missing tenant_id"}`)
	})
	_, err := c.ListDecisions(context.Background(), "", "", 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Detail != "Missing tenant_id" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestAPIErrorStructuredDetail(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":[{"loc":["body","status"],"msg":"invalid"}]}`)
	})
	_, err := c.SubmitReview(context.Background(), "d-1", ReviewSubmission{Status: "escalated"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Detail == "" {
		t.Fatalf("expected structured detail, got %v", err)
	}
}

func TestSubmitReview(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.EscapedPath() != "/decisions/d%2F42" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.EscapedPath())
		}
		var sub ReviewSubmission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			t.Errorf("decode: %v", err)
		}
		if sub.Status != decisions.StatusApproved || sub.Reviewer != "auditor-1" || sub.Notes != "ok" {
			t.Errorf("unexpected submission %+v", sub)
		}
		_, _ = io.WriteString(w, `{"status":"updated","decision_id":"d/42"}`)
	})

	res, err := c.SubmitReview(context.Background(), "d/42", ReviewSubmission{Status: decisions.StatusApproved, Reviewer: "auditor-1", Notes: "ok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != "updated" || res.DecisionID != "d/42" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDecisionDetail(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"decision":{"id":"d-1","status":"rejected","reasons":[],"policy_hits":[],"reviewer":"r-1","review_notes":null,"created_at":"x","updated_at":"y"},"audit":{"tenant_id":null,"confidence":0.4}}`)
	})
	d, err := c.DecisionDetail(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Decision.Status != decisions.StatusRejected || d.Decision.Reviewer == nil || *d.Decision.Reviewer != "r-1" {
		t.Fatalf("unexpected decision %+v", d.Decision)
	}
	if d.Audit.TenantID != nil || d.Audit.Confidence == nil || *d.Audit.Confidence != 0.4 {
		t.Fatalf("unexpected audit %+v", d.Audit)
	}
}

func TestGenerateKeepsUnknownFields(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.TenantID != "gov-dept-a" || req.TopK != 4 {
			t.Errorf("unexpected request %+v", req)
		}
		_, _ = io.WriteString(w, `{"answer":"a","confidence":0.9,"governance":{"status":"approved","decision_id":"d-1"},"model_version":"m-3"}`)
	})
	res, err := c.Generate(context.Background(), GenerateRequest{TenantID: "gov-dept-a", UserID: "u", Prompt: "p", TopK: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Governance.Status != decisions.StatusApproved {
		t.Fatalf("unexpected governance %+v", res.Governance)
	}
	if _, ok := res.Extra["model_version"]; !ok {
		t.Fatalf("expected unknown field kept, got %v", res.Extra)
	}
}
