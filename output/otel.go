package output

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"hashvet/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otelLog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

// otelLogger ships one log record per verdict to an OTLP/HTTP logs
// endpoint so findings can land in a SIEM alongside other telemetry.
type otelLogger struct {
	provider *sdklog.LoggerProvider
	logger   otelLog.Logger
	timeout  time.Duration
}

// newOtelLogger returns (nil, nil) when no endpoint is configured.
func newOtelLogger(cfg *config.Config) (*otelLogger, error) {
	if cfg == nil {
		return nil, nil
	}
	endpoint := resolveOtelEndpoint(cfg)
	if endpoint == "" {
		return nil, nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("otel endpoint must include scheme (http or https)")
	}

	opts := []otlploghttp.Option{otlploghttp.WithEndpointURL(endpoint)}
	if len(cfg.OtelHeaders) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(cfg.OtelHeaders))
	}
	if cfg.OtelTimeout > 0 {
		opts = append(opts, otlploghttp.WithTimeout(cfg.OtelTimeout))
	}

	exp, err := otlploghttp.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.OtelServiceName),
	)
	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
		sdklog.WithResource(res),
	)

	return &otelLogger{
		provider: provider,
		logger:   provider.Logger("hashvet"),
		timeout:  cfg.OtelTimeout,
	}, nil
}

func resolveOtelEndpoint(cfg *config.Config) string {
	if endpoint := strings.TrimSpace(cfg.OtelEndpoint); endpoint != "" {
		return endpoint
	}
	if !cfg.OtelFromEnv {
		return ""
	}
	if endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT")); endpoint != "" {
		return endpoint
	}
	return strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
}

// EmitVerdict exports one verdict record. Paths are deliberately not
// exported; the digest is enough to pivot on and file paths can carry
// sensitive names.
func (o *otelLogger) EmitVerdict(rec EntityRecord) {
	if o == nil || o.logger == nil {
		return
	}

	var record otelLog.Record
	now := time.Now()
	record.SetTimestamp(now)
	record.SetObservedTimestamp(now)
	record.SetEventName("hashvet.verdict")
	record.AddAttributes(
		otelLog.String("schema_version", SchemaVersion),
		otelLog.String("digest", rec.Digest),
		otelLog.String("digest_algorithm", rec.Algorithm),
		otelLog.String("verdict", rec.Verdict),
		otelLog.Int("positives", rec.Positives),
		otelLog.Int("total_scanners", rec.TotalScanners),
		otelLog.Int("path_count", len(rec.Paths)),
	)
	if rec.MimeType != "" {
		record.AddAttributes(otelLog.String("mime_type", rec.MimeType))
	}
	if rec.ScanDate != "" {
		record.AddAttributes(otelLog.String("scan_date", rec.ScanDate))
	}
	record.SetBody(otelLog.StringValue(
		fmt.Sprintf("%s verdict for %s (%d/%d engines)", rec.Verdict, rec.Digest, rec.Positives, rec.TotalScanners),
	))

	o.logger.Emit(context.Background(), record)
}

func (o *otelLogger) Shutdown() {
	if o == nil || o.provider == nil {
		return
	}
	timeout := o.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = o.provider.Shutdown(ctx)
}
