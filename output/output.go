package output

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"

	"hashvet/config"
	"hashvet/logger"
	"hashvet/registry"
	"hashvet/systeminfo"
	"hashvet/version"
)

// SchemaVersion tags report records so downstream consumers can detect
// layout changes.
const SchemaVersion = "1.0"

type Metrics struct {
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	TotalFiles    int    `json:"total_files"`
	FilesHashed   int    `json:"files_hashed"`
	FilesSkipped  int    `json:"files_skipped"`
	UniqueDigests int    `json:"unique_digests"`
	QueriesIssued int    `json:"queries_issued"`
	QueryFailures int    `json:"query_failures"`
	Malicious     int    `json:"malicious"`
	Benign        int    `json:"benign"`
	Unknown       int    `json:"unknown"`
}

type headerRecord struct {
	RecordType    string               `json:"record_type"`
	SchemaVersion string               `json:"schema_version"`
	Tool          string               `json:"tool"`
	ToolVersion   string               `json:"tool_version"`
	Algorithm     string               `json:"digest_algorithm"`
	Threshold     float64              `json:"malicious_threshold"`
	StartTime     string               `json:"start_time"`
	Host          *systeminfo.HostInfo `json:"host,omitempty"`
}

// EntityRecord is one report line per unique digest.
type EntityRecord struct {
	RecordType    string            `json:"record_type"`
	Digest        string            `json:"digest"`
	Algorithm     string            `json:"digest_algorithm"`
	Paths         []string          `json:"paths"`
	Size          int64             `json:"size,omitempty"`
	MimeType      string            `json:"mime_type,omitempty"`
	ModTime       string            `json:"mod_time,omitempty"`
	CreateTime    string            `json:"creation_time,omitempty"`
	FuzzyHashes   map[string]string `json:"fuzzy_hashes,omitempty"`
	Verdict       string            `json:"verdict"`
	Positives     int               `json:"positives"`
	TotalScanners int               `json:"total_scanners"`
	Ratio         float64           `json:"ratio"`
	ScanDate      string            `json:"scan_date,omitempty"`
	RawResult     json.RawMessage   `json:"raw_result,omitempty"`
}

type metricsRecord struct {
	RecordType string  `json:"record_type"`
	Metrics    Metrics `json:"metrics"`
}

func newEntityRecord(e *registry.Entity, algorithm string, threshold float64) EntityRecord {
	rec := EntityRecord{
		RecordType:    "entity",
		Digest:        e.Digest,
		Algorithm:     algorithm,
		Paths:         e.Paths,
		Size:          e.Size,
		MimeType:      e.MimeType,
		ModTime:       e.ModTime,
		CreateTime:    e.CreateTime,
		FuzzyHashes:   e.FuzzyHashes,
		Verdict:       e.Reputation.Verdict(threshold).String(),
		Positives:     e.Reputation.Positives(),
		TotalScanners: e.Reputation.TotalScanners(),
		Ratio:         e.Reputation.Ratio(),
		ScanDate:      e.Reputation.ScanDate(),
	}
	if raw := e.Reputation.Raw(); len(raw) > 0 && json.Valid(raw) {
		rec.RawResult = json.RawMessage(raw)
	}
	return rec
}

// Writer emits the ndjson report and mirrors verdicts to the OTLP
// exporter when one is configured. A Writer with no output file still
// serves the exporter.
type Writer struct {
	mu        sync.Mutex
	file      *os.File
	buf       *bufio.Writer
	otel      *otelLogger
	metrics   Metrics
	algorithm string
	threshold float64
}

func New(cfg *config.Config, hostInfo *systeminfo.HostInfo, m *Metrics) (*Writer, error) {
	w := &Writer{
		algorithm: cfg.DigestAlgorithm,
		threshold: cfg.Threshold,
	}
	if m != nil {
		w.metrics = *m
	}

	otel, err := newOtelLogger(cfg)
	if err != nil {
		logger.Warnf("OTEL export disabled: %v", err)
	} else {
		w.otel = otel
	}

	if cfg.OutputFileName == "" {
		return w, nil
	}

	f, err := os.OpenFile(cfg.OutputFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}
	w.file = f
	w.buf = bufio.NewWriterSize(f, 64*1024)

	header := headerRecord{
		RecordType:    "header",
		SchemaVersion: SchemaVersion,
		Tool:          "hashvet",
		ToolVersion:   version.Version,
		Algorithm:     cfg.DigestAlgorithm,
		Threshold:     cfg.Threshold,
		Host:          hostInfo,
	}
	if m != nil {
		header.StartTime = m.StartTime
	}
	if err := w.writeRecord(header); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// WriteEntity appends one report record for a unique digest.
func (w *Writer) WriteEntity(e *registry.Entity) {
	rec := newEntityRecord(e, w.algorithm, w.threshold)

	w.mu.Lock()
	if w.buf != nil {
		if err := w.writeRecord(rec); err != nil {
			logger.Warnf("Failed to write report record for %s: %v", rec.Digest, err)
		}
	}
	w.mu.Unlock()

	if w.otel != nil {
		w.otel.EmitVerdict(rec)
	}
}

// SetMetrics stores the final run metrics; they are written as the
// report's closing record.
func (w *Writer) SetMetrics(m Metrics) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.metrics = m
}

func (w *Writer) writeRecord(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.buf.Write(data); err != nil {
		return err
	}
	return w.buf.WriteByte('\n')
}

// Close writes the metrics record, flushes the report, and shuts down
// the OTLP exporter.
func (w *Writer) Close() error {
	w.mu.Lock()
	var err error
	if w.buf != nil {
		if werr := w.writeRecord(metricsRecord{RecordType: "metrics", Metrics: w.metrics}); werr != nil {
			err = werr
		}
		if ferr := w.buf.Flush(); ferr != nil && err == nil {
			err = ferr
		}
		if cerr := w.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		w.buf = nil
		w.file = nil
	}
	w.mu.Unlock()

	if w.otel != nil {
		w.otel.Shutdown()
	}
	return err
}
