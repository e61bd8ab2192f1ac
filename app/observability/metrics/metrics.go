package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "shophub-api"

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	SignupRequestsTotal    metric.Int64Counter
	SignupDurationSeconds  metric.Float64Histogram
	LoginRequestsTotal     metric.Int64Counter
	LoginDurationSeconds   metric.Float64Histogram
	AuthFailuresTotal      metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
	HTTPRequestsTotal      metric.Int64Counter
	HTTPDurationSeconds    metric.Float64Histogram
	UploadBytesTotal       metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once, from the global MeterProvider.
// Until a real provider is installed the instruments are no-ops.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter(meterName)
		m := &AppMetrics{}
		var err error

		m.SignupRequestsTotal, err = meter.Int64Counter("signup_requests_total",
			metric.WithDescription("Total number of signup requests by outcome"),
			metric.WithUnit("{request}"))
		must(err, "signup_requests_total")

		m.SignupDurationSeconds, err = meter.Float64Histogram("signup_duration_seconds",
			metric.WithDescription("Duration of signup requests in seconds"),
			metric.WithUnit("s"))
		must(err, "signup_duration_seconds")

		m.LoginRequestsTotal, err = meter.Int64Counter("login_requests_total",
			metric.WithDescription("Total number of login requests by outcome"),
			metric.WithUnit("{request}"))
		must(err, "login_requests_total")

		m.LoginDurationSeconds, err = meter.Float64Histogram("login_duration_seconds",
			metric.WithDescription("Duration of login requests in seconds"),
			metric.WithUnit("s"))
		must(err, "login_duration_seconds")

		m.AuthFailuresTotal, err = meter.Int64Counter("auth_failures_total",
			metric.WithDescription("Rejected bearer tokens by internal reason"),
			metric.WithUnit("{request}"))
		must(err, "auth_failures_total")

		m.DbQueryDurationSeconds, err = meter.Float64Histogram("db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"))
		must(err, "db_query_duration_seconds")

		m.DbQueryErrorsTotal, err = meter.Int64Counter("db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"))
		must(err, "db_query_errors_total")

		m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
			metric.WithDescription("Total number of HTTP requests"),
			metric.WithUnit("{request}"))
		must(err, "http_requests_total")

		m.HTTPDurationSeconds, err = meter.Float64Histogram("http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"))
		must(err, "http_request_duration_seconds")

		m.UploadBytesTotal, err = meter.Int64Counter("upload_bytes_total",
			metric.WithDescription("Bytes written to object storage"),
			metric.WithUnit("By"))
		must(err, "upload_bytes_total")

		appMetrics = m
	})
}

// Get returns the instruments, creating them on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

// RecordQuery records one database round trip.
func (m *AppMetrics) RecordQuery(ctx context.Context, op string, d time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("db.operation", op))
	m.DbQueryDurationSeconds.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordSignup records a finished signup with its outcome label.
func (m *AppMetrics) RecordSignup(ctx context.Context, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.SignupRequestsTotal.Add(ctx, 1, attrs)
	m.SignupDurationSeconds.Record(ctx, d.Seconds(), attrs)
}

// RecordLogin records a finished login with its outcome label.
func (m *AppMetrics) RecordLogin(ctx context.Context, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.LoginRequestsTotal.Add(ctx, 1, attrs)
	m.LoginDurationSeconds.Record(ctx, d.Seconds(), attrs)
}

// RecordAuthFailure counts a rejected bearer token. The reason stays internal.
func (m *AppMetrics) RecordAuthFailure(ctx context.Context, reason string) {
	m.AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordUpload counts bytes accepted by object storage.
func (m *AppMetrics) RecordUpload(ctx context.Context, bytes int64) {
	m.UploadBytesTotal.Add(ctx, bytes)
}

// RecordHTTPRequest records one served request under its route pattern.
func (m *AppMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPDurationSeconds.Record(ctx, d.Seconds(), attrs)
}

func must(err error, name string) {
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
}
