package main

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/matheusmosca/furniture-marketplace/internal/config"
)

func newResource(ctx context.Context, cfg *config.Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceNamespace("furniture-marketplace"),
			semconv.ServiceVersion("1.0.0"),
		),
	)
}

func initTracer(ctx context.Context, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	otel.SetTracerProvider(tp)

	return tp, nil
}

// metricViews restringe os atributos dos instrumentos do marketplace
// para manter a cardinalidade limitada.
func metricViews() []sdkmetric.View {
	return []sdkmetric.View{
		sdkmetric.NewView(
			sdkmetric.Instrument{Name: "payment_confirmation_failures_total"},
			sdkmetric.Stream{AttributeFilter: attribute.NewAllowKeysFilter("kind")},
		),
		sdkmetric.NewView(
			sdkmetric.Instrument{Name: "payment_confirmation_duration_seconds"},
			sdkmetric.Stream{AttributeFilter: attribute.NewAllowKeysFilter("outcome")},
		),
		sdkmetric.NewView(
			sdkmetric.Instrument{Name: "inventory_units_deducted_total"},
			sdkmetric.Stream{AttributeFilter: attribute.NewAllowKeysFilter("category")},
		),
		sdkmetric.NewView(
			sdkmetric.Instrument{Name: "idea_transitions_total"},
			sdkmetric.Stream{AttributeFilter: attribute.NewAllowKeysFilter("state")},
		),
	}
}

func initMetrics(ctx context.Context, cfg *config.Config) (*sdkmetric.MeterProvider, error) {
	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
		sdkmetric.WithView(metricViews()...),
	)

	otel.SetMeterProvider(mp)

	return mp, nil
}
