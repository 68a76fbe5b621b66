package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Revaldoo24/govai-platform/internal/application"
	"github.com/Revaldoo24/govai-platform/internal/domain/decisions"
	"github.com/Revaldoo24/govai-platform/internal/domain/gateway"
	"github.com/Revaldoo24/govai-platform/internal/domain/journal"
	"github.com/Revaldoo24/govai-platform/internal/metrics"
)

// Operation names, shared by metrics, logs and the journal.
const (
	OpGenerate       = "generate"
	OpListDecisions  = "list_decisions"
	OpDecisionDetail = "decision_detail"
	OpSubmitReview   = "submit_review"
)

// Settings is the upstream configuration, resolved once at start.
type Settings struct {
	PipelineURL   string
	GovernanceURL string
	APIKey        string
}

// Service implements the proxy use-cases.
// It keeps no per-request state and is safe for concurrent use.
type Service struct {
	Upstream gateway.Upstream
	Settings Settings
	Journal  journal.Repository // optional
	Clock    application.Clock
}

// Generate forwards a pipeline invocation. body is sent as received.
func (s *Service) Generate(ctx context.Context, body []byte) (*gateway.Response, error) {
	start := s.now()
	req, err := validateGenerate(s.Settings, body)
	if err != nil {
		s.finish(ctx, start, journal.Entry{Operation: OpGenerate, TenantID: req.TenantID}, nil, err)
		return nil, err
	}

	resp, err := s.Upstream.Do(ctx, gateway.Call{
		Target:    gateway.TargetPipeline,
		Operation: OpGenerate,
		Method:    http.MethodPost,
		URL:       join(s.Settings.PipelineURL, "/generate"),
		Headers: map[string]string{
			"X-API-Key":   s.Settings.APIKey,
			"X-Tenant-Id": req.TenantID,
		},
		Body: body,
	})
	if err == nil && isSuccess(resp.StatusCode) {
		observeGovernance(ctx, req, resp.Body)
	}
	s.finish(ctx, start, journal.Entry{Operation: OpGenerate, TenantID: req.TenantID}, resp, err)
	return resp, err
}

// ListDecisions forwards a tenant's decision listing.
func (s *Service) ListDecisions(ctx context.Context, q ListQuery) (*gateway.Response, error) {
	start := s.now()
	entry := journal.Entry{Operation: OpListDecisions, TenantID: q.TenantID}
	if err := validateList(s.Settings, q); err != nil {
		s.finish(ctx, start, entry, nil, err)
		return nil, err
	}

	qs := url.Values{}
	qs.Set("tenant_id", q.TenantID)
	if q.Status != "" {
		qs.Set("status", q.Status)
	}
	if q.Limit != "" {
		qs.Set("limit", q.Limit)
	}

	resp, err := s.Upstream.Do(ctx, gateway.Call{
		Target:    gateway.TargetGovernance,
		Operation: OpListDecisions,
		Method:    http.MethodGet,
		URL:       join(s.Settings.GovernanceURL, "/decisions") + "?" + qs.Encode(),
	})
	s.finish(ctx, start, entry, resp, err)
	return resp, err
}

// DecisionDetail forwards a detail read for one decision.
func (s *Service) DecisionDetail(ctx context.Context, decisionID string) (*gateway.Response, error) {
	start := s.now()
	entry := journal.Entry{Operation: OpDecisionDetail, DecisionID: decisionID}
	if err := validateDecisionID(s.Settings, decisionID); err != nil {
		s.finish(ctx, start, entry, nil, err)
		return nil, err
	}

	resp, err := s.Upstream.Do(ctx, gateway.Call{
		Target:    gateway.TargetGovernance,
		Operation: OpDecisionDetail,
		Method:    http.MethodGet,
		URL:       join(s.Settings.GovernanceURL, "/decisions/"+url.PathEscape(decisionID)+"/detail"),
	})
	s.finish(ctx, start, entry, resp, err)
	return resp, err
}

// SubmitReview forwards one review action. The reviewer's status, identity
// and notes go upstream byte for byte; the governance service is the only
// place the transition is enforced.
func (s *Service) SubmitReview(ctx context.Context, decisionID string, body []byte) (*gateway.Response, error) {
	start := s.now()
	entry := journal.Entry{Operation: OpSubmitReview, DecisionID: decisionID}
	sub, err := validateReview(s.Settings, decisionID, body)
	if err != nil {
		s.finish(ctx, start, entry, nil, err)
		return nil, err
	}

	label := string(sub.Status)
	if !sub.Status.IsKnown() {
		label = "other"
		log.Ctx(ctx).Warn().
			Str("decision_id", decisionID).
			Str("status", string(sub.Status)).
			Msg("review status outside lifecycle, forwarding for upstream to decide")
	}
	metrics.RecordReviewSubmission(label)

	resp, err := s.Upstream.Do(ctx, gateway.Call{
		Target:    gateway.TargetGovernance,
		Operation: OpSubmitReview,
		Method:    http.MethodPost,
		URL:       join(s.Settings.GovernanceURL, "/decisions/"+url.PathEscape(decisionID)),
		Headers:   map[string]string{"Content-Type": "application/json"},
		Body:      body,
	})
	if err == nil {
		log.Ctx(ctx).Info().
			Str("decision_id", decisionID).
			Str("status", string(sub.Status)).
			Str("reviewer", sub.Reviewer).
			Int("upstream_status", resp.StatusCode).
			Msg("review submitted")
	}
	s.finish(ctx, start, entry, resp, err)
	return resp, err
}

// observeGovernance logs the governance outcome of a generate call.
// The relayed bytes are not touched.
func observeGovernance(ctx context.Context, req decisions.GenerateRequest, body []byte) {
	var out decisions.GenerateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("generate response does not match the known shape")
		return
	}
	status := string(out.Governance.Status)
	if !out.Governance.Status.IsKnown() {
		status = "other"
	}
	metrics.RecordGovernanceOutcome(status)
	log.Ctx(ctx).Info().
		Str("tenant", req.TenantID).
		Str("decision_id", out.Governance.DecisionID).
		Str("governance_status", string(out.Governance.Status)).
		Float64("confidence", out.Confidence).
		Msg("generate completed")
}

func isSuccess(code int) bool { return code >= 200 && code < 300 }

func join(base, path string) string {
	return strings.TrimSuffix(base, "/") + path
}
