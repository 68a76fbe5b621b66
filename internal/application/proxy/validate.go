package proxy

import (
	"encoding/json"
	"strings"

	"github.com/Revaldoo24/govai-platform/internal/domain/decisions"
	"github.com/Revaldoo24/govai-platform/internal/domain/gateway"
)

// Route validators. Pure functions of the inbound request: nothing here
// touches the network, so a rejected request never reaches upstream.

// ListQuery is the decision-list filter as received.
type ListQuery struct {
	TenantID string
	Status   string
	Limit    string
}

func requireSetting(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return gateway.MissingSetting(name)
	}
	return nil
}

// validateGenerate checks the pipeline base and the body's tenant_id. The
// rest of the body is the pipeline's to judge, so only tenant_id is decoded
// strictly; the returned request is best effort, for logging.
func validateGenerate(s Settings, body []byte) (decisions.GenerateRequest, error) {
	var req decisions.GenerateRequest
	if err := requireSetting(s.PipelineURL, gateway.SettingPipelineURL); err != nil {
		return req, err
	}
	if !json.Valid(body) {
		return req, gateway.Validation(gateway.ErrInvalidBody)
	}
	var head struct {
		TenantID json.RawMessage `json:"tenant_id"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return req, gateway.Validation(gateway.ErrInvalidBody)
	}
	var tenant string
	if len(head.TenantID) > 0 && json.Unmarshal(head.TenantID, &tenant) != nil {
		tenant = ""
	}
	if tenant == "" {
		return req, gateway.Validation(gateway.ErrMissingTenant)
	}

	_ = json.Unmarshal(body, &req)
	req.TenantID = tenant
	return req, nil
}

// validateList requires tenant_id; status and limit go upstream unchecked.
func validateList(s Settings, q ListQuery) error {
	if err := requireSetting(s.GovernanceURL, gateway.SettingGovernanceURL); err != nil {
		return err
	}
	if q.TenantID == "" {
		return gateway.Validation(gateway.ErrMissingTenant)
	}
	return nil
}

func validateDecisionID(s Settings, id string) error {
	if err := requireSetting(s.GovernanceURL, gateway.SettingGovernanceURL); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return gateway.Validation(gateway.ErrMissingDecisionID)
	}
	// dot segments survive path escaping and resolve upstream
	if id == "." || id == ".." {
		return gateway.Validation(gateway.ErrInvalidDecisionID)
	}
	return nil
}

// validateReview only requires a JSON body. Field values, including
// status, are the governance service's to accept or reject.
func validateReview(s Settings, id string, body []byte) (decisions.ReviewSubmission, error) {
	var sub decisions.ReviewSubmission
	if err := validateDecisionID(s, id); err != nil {
		return sub, err
	}
	if !json.Valid(body) {
		return sub, gateway.Validation(gateway.ErrInvalidBody)
	}
	// best effort, for logging only
	_ = json.Unmarshal(body, &sub)
	return sub, nil
}
