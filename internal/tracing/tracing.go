// Package tracing builds the OpenTelemetry tracer provider of the API.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names accepted by NewProvider.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Options configures NewProvider.
type Options struct {
	ServiceName string
	// Exporter is ExporterNone or ExporterStdout.
	Exporter string
	// SampleRatio is the fraction of root spans sampled. Child spans follow
	// their parent's decision.
	SampleRatio float64
	// Output receives stdout-exported spans. Nil means os.Stdout.
	Output io.Writer
}

// NewProvider returns a tracer provider that tags spans with the service name
// and samples them by ratio. With ExporterNone spans are recorded but not
// exported. Call Shutdown on the provider to flush pending spans.
func NewProvider(opts Options) (*sdktrace.TracerProvider, error) {
	res := resource.NewSchemaless(attribute.String("service.name", opts.ServiceName))

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
	}

	switch opts.Exporter {
	case ExporterNone, "":
	case ExporterStdout:
		var exOpts []stdouttrace.Option
		if opts.Output != nil {
			exOpts = append(exOpts, stdouttrace.WithWriter(opts.Output))
		}
		exp, err := stdouttrace.New(exOpts...)
		if err != nil {
			return nil, fmt.Errorf("tracing.NewProvider: stdout exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	default:
		return nil, fmt.Errorf("tracing.NewProvider: unknown exporter %q", opts.Exporter)
	}

	return sdktrace.NewTracerProvider(tpOpts...), nil
}

// Shutdown flushes and stops tp, ignoring a nil provider.
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracing.Shutdown: %w", err)
	}
	return nil
}
