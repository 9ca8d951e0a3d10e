package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/SscSPs/mma_ledger/internal/core/domain"
	"github.com/SscSPs/mma_ledger/internal/core/ports"
	"github.com/SscSPs/mma_ledger/internal/platform/logging"
)

const instrumentationName = "github.com/SscSPs/mma_ledger/internal/core/services"

// serviceOptions holds collaborators shared by the ledger services.
type serviceOptions struct {
	clock          ports.Clock
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	minorUnitScale int32
	activityPage   int
	postTimeout    time.Duration
}

// ServiceOption is a functional option for configuring the ledger services
type ServiceOption func(*serviceOptions)

// WithClock sets the clock used for timestamps and default entry dates.
func WithClock(clock ports.Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) ServiceOption {
	return func(o *serviceOptions) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithMeterProvider overrides the global OpenTelemetry meter provider.
func WithMeterProvider(mp metric.MeterProvider) ServiceOption {
	return func(o *serviceOptions) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// WithMinorUnitScale sets how many decimal places posted amounts may carry.
func WithMinorUnitScale(scale int32) ServiceOption {
	return func(o *serviceOptions) {
		if scale >= 0 {
			o.minorUnitScale = scale
		}
	}
}

// WithActivityPageSize sets how many lines Activity fetches per round trip.
func WithActivityPageSize(n int) ServiceOption {
	return func(o *serviceOptions) {
		if n > 0 {
			o.activityPage = n
		}
	}
}

// WithPostTimeout bounds each posting transaction. Zero disables the bound.
func WithPostTimeout(d time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		if d >= 0 {
			o.postTimeout = d
		}
	}
}

func newServiceOptions(opts []ServiceOption) serviceOptions {
	o := serviceOptions{
		clock:          ports.SystemClock{},
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		minorUnitScale: domain.DefaultMinorUnitScale,
		activityPage:   500,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// BaseService provides common functionality for all services
type BaseService struct {
	tracer trace.Tracer
}

func newBaseService(o serviceOptions) BaseService {
	return BaseService{tracer: o.tracerProvider.Tracer(instrumentationName)}
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).ErrorContext(ctx, msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).WarnContext(ctx, msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).InfoContext(ctx, msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).DebugContext(ctx, msg, keyvals...)
}

// startSpan opens a span named after the ledger operation.
func (s *BaseService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on the span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
