package decisions

import "encoding/json"

// PolicyMode values understood by the pipeline.
const (
	PolicyModeEnforce  = "enforce"
	PolicyModeAdvisory = "advisory"
)

// GenerateRequest is a pipeline invocation.
// top_k is not bounded here; the pipeline decides.
type GenerateRequest struct {
	TenantID   string `json:"tenant_id"`
	UserID     string `json:"user_id"`
	Prompt     string `json:"prompt"`
	TopK       int    `json:"top_k"`
	PolicyMode string `json:"policy_mode,omitempty"`
}

type Evidence struct {
	ConsistencyScore float64  `json:"consistency_score"`
	MinSourceScore   float64  `json:"min_source_score"`
	Flags            []string `json:"flags"`
}

type Bias struct {
	BiasScore    float64        `json:"bias_score"`
	RiskLevel    string         `json:"risk_level"`
	FlaggedTerms []string       `json:"flagged_terms"`
	Metrics      map[string]any `json:"metrics,omitempty"`
}

type Governance struct {
	Status     Status           `json:"status"`
	Reasons    []string         `json:"reasons"`
	PolicyHits []map[string]any `json:"policy_hits"`
	DecisionID string           `json:"decision_id"`
}

type Explainability struct {
	Explanation map[string]any `json:"explanation"`
}

type Source struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// GenerateResponse is a typed view over the pipeline payload.
// Fields it does not model are kept in Extra and written back by MarshalJSON,
// so decoding and re-encoding never loses upstream data.
type GenerateResponse struct {
	Answer         string         `json:"answer"`
	Confidence     float64        `json:"confidence"`
	ModelID        string         `json:"model_id"`
	Evidence       Evidence       `json:"evidence"`
	Bias           Bias           `json:"bias"`
	Governance     Governance     `json:"governance"`
	Explainability Explainability `json:"explainability"`
	Sources        []Source       `json:"sources"`

	Extra map[string]json.RawMessage `json:"-"`
}

type generateResponseFields GenerateResponse

var knownGenerateFields = []string{
	"answer", "confidence", "model_id", "evidence",
	"bias", "governance", "explainability", "sources",
}

func (g *GenerateResponse) UnmarshalJSON(b []byte) error {
	var known generateResponseFields
	if err := json.Unmarshal(b, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range knownGenerateFields {
		delete(all, k)
	}
	*g = GenerateResponse(known)
	g.Extra = nil
	if len(all) > 0 {
		g.Extra = all
	}
	return nil
}

func (g GenerateResponse) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(generateResponseFields(g))
	if err != nil || len(g.Extra) == 0 {
		return b, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for k, v := range g.Extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}
