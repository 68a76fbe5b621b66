package telemetry

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const defaultServiceName = "govai-gateway"

// Options for the global tracer provider. An empty Endpoint keeps tracing
// local: spans are created and propagated but never exported.
type Options struct {
	ServiceName string
	Endpoint    string
	Insecure    bool
	SampleRatio float64
	Timeout     time.Duration
}

// Init configures global OpenTelemetry tracing and returns its shutdown.
// Exporter setup failures never stop the gateway.
func Init(ctx context.Context, opts Options) func(context.Context) error {
	name := serviceName(opts.ServiceName)
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", name),
	))
	if err != nil {
		res = resource.Default()
	}
	sampler := parseSampler(opts.SampleRatio)
	tpOpts := []trace.TracerProviderOption{trace.WithResource(res), trace.WithSampler(sampler)}

	if endpoint := strings.TrimSpace(opts.Endpoint); endpoint != "" {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		expOpts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithTimeout(timeout),
		}
		if opts.Insecure {
			expOpts = append(expOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, expOpts...)
		if err != nil {
			log.Warn().Err(err).Str("endpoint", endpoint).Msg("otel exporter disabled")
		} else {
			tpOpts = append(tpOpts, trace.WithBatcher(exporter))
		}
	}

	tp := trace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp.Shutdown
}

// parseSampler clamps ratio to [0,1]. Parent decisions are honoured.
func parseSampler(ratio float64) trace.Sampler {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return trace.ParentBased(trace.TraceIDRatioBased(ratio))
}

// HTTPMiddleware instruments inbound HTTP handlers.
func HTTPMiddleware(name string) func(http.Handler) http.Handler {
	return otelhttp.NewMiddleware(serviceName(name))
}

// InstrumentClient wraps an HTTP client with OTel transport so trace
// context reaches the upstream services.
func InstrumentClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{}
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client.Transport = otelhttp.NewTransport(base)
	return client
}

func serviceName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultServiceName
	}
	return name
}
