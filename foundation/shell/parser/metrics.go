// File: metrics.go
// Title: Parser Telemetry
// Description: OpenTelemetry spans and metrics for parse runs. Without a
//              configured provider the global no-op implementations are
//              used, so the parser pays only for the attribute setup.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-02
// Modified: 2026-10-10
//
// Change History:
// - 2026-10-02 v0.1.0: Initial implementation

package parser

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/msto63/shcst/foundation/shell/dialect"
)

const instrumentationName = "github.com/msto63/shcst/foundation/shell/parser"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)
)

var (
	parseDuration   metric.Float64Histogram
	parseTotal      metric.Int64Counter
	parseErrorNodes metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		parseDuration, err = meter.Float64Histogram(
			"shcst_parse_duration_seconds",
			metric.WithDescription("Duration of shell parses"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		parseTotal, err = meter.Int64Counter(
			"shcst_parse_total",
			metric.WithDescription("Total shell parses"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		parseErrorNodes, err = meter.Int64Counter(
			"shcst_parse_error_nodes_total",
			metric.WithDescription("Error nodes produced by shell parses"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func startParseSpan(ctx context.Context, root Root, v dialect.Version, size int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Parser.Parse",
		trace.WithAttributes(
			attribute.String("parse.root", root.String()),
			attribute.String("parse.dialect", v.String()),
			attribute.Int("parse.bytes", size),
		),
	)
}

func setParseSpanResult(span trace.Span, tokens, errorNodes int, err error) {
	span.SetAttributes(
		attribute.Int("parse.tokens", tokens),
		attribute.Int("parse.error_nodes", errorNodes),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func recordParseMetrics(ctx context.Context, dur time.Duration, v dialect.Version, errorNodes int, cancelled bool) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("dialect", v.String()),
		attribute.Bool("cancelled", cancelled),
	)
	parseDuration.Record(ctx, dur.Seconds(), attrs)
	parseTotal.Add(ctx, 1, attrs)
	if errorNodes > 0 {
		parseErrorNodes.Add(ctx, int64(errorNodes), attrs)
	}
}
