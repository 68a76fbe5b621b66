package gateway

import (
	"errors"
	"net/http"
)

// Kind classifies a gateway failure.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindValidation    Kind = "validation"
	KindUpstream      Kind = "upstream"
	KindTransport     Kind = "transport"
	KindTimeout       Kind = "timeout"
)

// Settings names, also used as environment variable names.
const (
	SettingPipelineURL   = "GOVAI_GATEWAY_URL"
	SettingGovernanceURL = "GOVAI_GOV_URL"
	SettingAPIKey        = "GOVAI_API_KEY"
)

// Fixed client-facing messages for failures whose cause is not actionable.
const (
	DetailProxyError = "Proxy error"
	DetailTimeout    = "Upstream timeout"
)

var (
	ErrMissingTenant     = errors.New("Missing tenant_id")
	ErrMissingDecisionID = errors.New("Missing decision_id")
	ErrInvalidDecisionID = errors.New("Invalid decision_id")
	ErrInvalidBody       = errors.New("Invalid JSON body")
	ErrNonJSONResponse   = errors.New("upstream returned a non-JSON body")
)

// Error is a failure resolved by the gateway itself. Upstream non-2xx
// responses are not errors: they are relayed.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Detail + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus is the client-facing status for this failure.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindTransport:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// MissingSetting reports an absent base URL. Never defaulted.
func MissingSetting(name string) *Error {
	return &Error{Kind: KindConfiguration, Detail: "Missing " + name}
}

func Validation(err error) *Error {
	return &Error{Kind: KindValidation, Detail: err.Error(), Err: err}
}

func Transport(err error) *Error {
	return &Error{Kind: KindTransport, Detail: DetailProxyError, Err: err}
}

func Timeout(err error) *Error {
	return &Error{Kind: KindTimeout, Detail: DetailTimeout, Err: err}
}

// KindOf returns the kind of err, or KindTransport for foreign errors.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindTransport
}

// StatusOf returns the client-facing status for err.
func StatusOf(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.HTTPStatus()
	}
	return http.StatusBadGateway
}

// DetailOf returns the client-facing detail for err.
func DetailOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Detail
	}
	return DetailProxyError
}
