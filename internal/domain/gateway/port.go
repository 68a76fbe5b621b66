package gateway

import "context"

// Target names the upstream a call goes to.
type Target string

const (
	TargetPipeline   Target = "pipeline"
	TargetGovernance Target = "governance"
)

// Call is one outbound request.
type Call struct {
	Target    Target
	Operation string
	Method    string
	URL       string
	Headers   map[string]string
	Body      []byte
}

// Response is an upstream answer, body kept as received.
type Response struct {
	StatusCode int
	Body       []byte
}

// Upstream port (interface to the governance backend and pipeline gateway).
type Upstream interface {
	Do(ctx context.Context, call Call) (*Response, error)
}

type requestIDKey struct{}

// WithRequestID attaches the inbound request id so outbound calls can carry it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
