package telemetry

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom metrics for the state layer
type Metrics struct {
	// Backend API client metrics
	APIRequestsTotal metric.Int64Counter
	APIDurationMs    metric.Float64Histogram

	// Business metrics
	PrescriptionTotal  metric.Int64Counter
	TransactionTotal   metric.Int64Counter
	PaymentOutcomeTotal metric.Int64Counter

	// UI state metrics
	DialogShownTotal metric.Int64Counter
}

// InitMetrics initializes all custom metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/medipal-health/appstate-service")

	apiRequestsTotal, err := meter.Int64Counter(
		"api_client_requests_total",
		metric.WithDescription("Total number of backend API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	apiDurationMs, err := meter.Float64Histogram(
		"api_client_duration_milliseconds",
		metric.WithDescription("Backend API request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	prescriptionTotal, err := meter.Int64Counter(
		"prescription_total",
		metric.WithDescription("Total number of prescription operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	transactionTotal, err := meter.Int64Counter(
		"transaction_total",
		metric.WithDescription("Total number of transaction operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	paymentOutcomeTotal, err := meter.Int64Counter(
		"payment_outcome_total",
		metric.WithDescription("Total number of resolved payment redirects"),
		metric.WithUnit("{outcome}"),
	)
	if err != nil {
		return nil, err
	}

	dialogShownTotal, err := meter.Int64Counter(
		"dialog_shown_total",
		metric.WithDescription("Total number of confirm dialogs shown"),
		metric.WithUnit("{dialog}"),
	)
	if err != nil {
		return nil, err
	}

	log.Println("✓ Custom metrics initialized")

	return &Metrics{
		APIRequestsTotal:    apiRequestsTotal,
		APIDurationMs:       apiDurationMs,
		PrescriptionTotal:   prescriptionTotal,
		TransactionTotal:    transactionTotal,
		PaymentOutcomeTotal: paymentOutcomeTotal,
		DialogShownTotal:    dialogShownTotal,
	}, nil
}

// RecordAPIRequest records one backend API request
func (m *Metrics) RecordAPIRequest(ctx context.Context, method, route string, statusCode int, durationMs float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http_method", method),
		attribute.String("http_route", route),
		attribute.Int("http_status_code", statusCode),
	}

	m.APIRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.APIDurationMs.Record(ctx, durationMs, metric.WithAttributes(attrs...))
}

// RecordPrescriptionOperation records a prescription operation metric
func (m *Metrics) RecordPrescriptionOperation(ctx context.Context, operation string) {
	m.PrescriptionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordTransactionOperation records a transaction operation metric
func (m *Metrics) RecordTransactionOperation(ctx context.Context, operation string) {
	m.TransactionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordPaymentOutcome records a resolved payment redirect
func (m *Metrics) RecordPaymentOutcome(ctx context.Context, outcome string) {
	m.PaymentOutcomeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordDialogShown records a confirm dialog presentation
func (m *Metrics) RecordDialogShown(ctx context.Context, severity string) {
	m.DialogShownTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("severity", severity),
	))
}
