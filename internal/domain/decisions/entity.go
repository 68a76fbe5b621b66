package decisions

// Status enum for a governance decision.
// The authoritative state machine lives in the governance service; this copy
// only describes the contract the gateway must not violate.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsKnown reports whether s is one of the three lifecycle states.
func (s Status) IsKnown() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no review action leads out of s.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether a review moving a decision from -> to is legal.
// pending -> pending is the explicit "keep pending" action.
func CanTransition(from, to Status) bool {
	if from != StatusPending {
		return false
	}
	return to.IsKnown()
}

// ReviewSubmission is what a human operator sends for one review action.
// It is forwarded as-is; the gateway never rewrites any of its fields.
type ReviewSubmission struct {
	Status   Status `json:"status"`
	Reviewer string `json:"reviewer"`
	Notes    string `json:"notes"`
}

// ReviewResult is the governance service's answer to a review submission.
type ReviewResult struct {
	Status     string `json:"status"`
	DecisionID string `json:"decision_id"`
}

// Summary is one row of the decision list.
type Summary struct {
	ID         string           `json:"id"`
	Status     Status           `json:"status"`
	Reasons    []string         `json:"reasons"`
	PolicyHits []map[string]any `json:"policy_hits"`
	CreatedAt  string           `json:"created_at"`
	UpdatedAt  *string          `json:"updated_at"`
}

// Record is the decision half of a detail response.
type Record struct {
	ID          string           `json:"id"`
	Status      Status           `json:"status"`
	Reasons     []string         `json:"reasons"`
	PolicyHits  []map[string]any `json:"policy_hits"`
	Reviewer    *string          `json:"reviewer"`
	ReviewNotes *string          `json:"review_notes"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   *string          `json:"updated_at"`
}

// Audit is the pipeline invocation that produced the decision.
// Every field is nullable upstream when the audit row is missing.
type Audit struct {
	TenantID       *string  `json:"tenant_id"`
	UserID         *string  `json:"user_id"`
	Prompt         *string  `json:"prompt"`
	Answer         *string  `json:"answer"`
	Confidence     *float64 `json:"confidence"`
	BiasScore      *float64 `json:"bias_score"`
	ModelID        *string  `json:"model_id"`
	DecisionStatus *string  `json:"decision_status"`
	CreatedAt      *string  `json:"created_at"`
}

// Detail is the body of GET /decisions/{id}/detail.
type Detail struct {
	Decision Record `json:"decision"`
	Audit    Audit  `json:"audit"`
}
