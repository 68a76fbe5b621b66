package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appproxy "github.com/Revaldoo24/govai-platform/internal/application/proxy"
	"github.com/Revaldoo24/govai-platform/internal/domain/gateway"
	"github.com/Revaldoo24/govai-platform/internal/metrics"
	"github.com/Revaldoo24/govai-platform/internal/middleware"
)

// Proxy is the set of use-cases behind the console routes.
type Proxy interface {
	Generate(ctx context.Context, body []byte) (*gateway.Response, error)
	ListDecisions(ctx context.Context, q appproxy.ListQuery) (*gateway.Response, error)
	DecisionDetail(ctx context.Context, decisionID string) (*gateway.Response, error)
	SubmitReview(ctx context.Context, decisionID string, body []byte) (*gateway.Response, error)
}

// Options configures the surrounding HTTP surface. Zero values are usable.
type Options struct {
	Logger         *zerolog.Logger
	AllowedOrigins []string
	MaxBodyBytes   int64
	Metrics        bool
	Readiness      map[string]middleware.HealthChecker
	Tracing        func(http.Handler) http.Handler
}

const defaultMaxBodyBytes = 1 << 20

type Router struct {
	proxy        Proxy
	maxBodyBytes int64
}

func NewRouter(proxy Proxy, opts Options) http.Handler {
	r := &Router{proxy: proxy, maxBodyBytes: opts.MaxBodyBytes}
	if r.maxBodyBytes <= 0 {
		r.maxBodyBytes = defaultMaxBodyBytes
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	if opts.Tracing != nil {
		mux.Use(opts.Tracing)
	}
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Logging(logger))
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Metrics)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/health/ready", middleware.ReadinessHandler(opts.Readiness))
	if opts.Metrics {
		mux.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	mux.Post("/generate", r.wrap(r.handleGenerate))
	mux.Route("/decisions", func(rt chi.Router) {
		rt.Get("/", r.wrap(r.handleList))
		rt.Get("/{id}", r.wrap(r.handleDetail))
		rt.Post("/{id}", r.wrap(r.handleReview))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps gateway errors to {"detail"} responses. Upstream failures never
// get here: they come back as a Response and are relayed.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			writeDetail(w, gateway.StatusOf(err), gateway.DetailOf(err))
		}
	}
}

// POST /generate
// Body is forwarded to the pipeline as received.
func (r *Router) handleGenerate(w http.ResponseWriter, req *http.Request) error {
	body, err := r.readBody(w, req)
	if err != nil {
		return err
	}
	resp, err := r.proxy.Generate(req.Context(), body)
	if err != nil {
		return err
	}
	relay(w, req, resp)
	return nil
}

// GET /decisions?tenant_id=&status=&limit=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	resp, err := r.proxy.ListDecisions(req.Context(), appproxy.ListQuery{
		TenantID: q.Get("tenant_id"),
		Status:   q.Get("status"),
		Limit:    q.Get("limit"),
	})
	if err != nil {
		return err
	}
	relay(w, req, resp)
	return nil
}

// GET /decisions/{id}
func (r *Router) handleDetail(w http.ResponseWriter, req *http.Request) error {
	resp, err := r.proxy.DecisionDetail(req.Context(), decisionID(req))
	if err != nil {
		return err
	}
	relay(w, req, resp)
	return nil
}

// POST /decisions/{id}
// Body: {"status": "...", "reviewer": "...", "notes": "..."}
func (r *Router) handleReview(w http.ResponseWriter, req *http.Request) error {
	body, err := r.readBody(w, req)
	if err != nil {
		return err
	}
	resp, err := r.proxy.SubmitReview(req.Context(), decisionID(req), body)
	if err != nil {
		return err
	}
	relay(w, req, resp)
	return nil
}

func (r *Router) readBody(w http.ResponseWriter, req *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, r.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, gateway.Validation(gateway.ErrInvalidBody)
	}
	return body, nil
}

// decisionID returns the {id} segment decoded once. chi matches on the
// escaped path when the URL carries encoded separators.
func decisionID(req *http.Request) string {
	id := chi.URLParam(req, "id")
	if req.URL.RawPath == "" {
		return id
	}
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}
