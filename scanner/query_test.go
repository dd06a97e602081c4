package scanner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"hashvet/logger"
	"hashvet/output"
	"hashvet/registry"
	"hashvet/reputation"
)

type fakeFetcher struct {
	responses map[string]reputation.Report
	failing   map[string]bool
	calls     []string
}

func (f *fakeFetcher) FileReport(ctx context.Context, digest string) ([]byte, reputation.Report, error) {
	f.calls = append(f.calls, digest)
	if f.failing[digest] {
		return nil, reputation.Report{}, errors.New("connection reset")
	}
	rep, ok := f.responses[digest]
	if !ok {
		rep = reputation.Report{ResponseCode: 0, VerboseMsg: "not present"}
	}
	raw := []byte(fmt.Sprintf(`{"response_code":%d,"total":%d,"positives":%d}`, rep.ResponseCode, rep.Total, rep.Positives))
	return raw, rep, nil
}

type countingPacer struct {
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return ctx.Err()
}

func populated(t *testing.T, contents ...string) *registry.Registry {
	t.Helper()
	reg := newReg(t)
	root := t.TempDir()
	files := map[string][]byte{}
	for i, c := range contents {
		files[fmt.Sprintf("f%d", i)] = []byte(c)
	}
	writeTree(t, root, files)
	if err := PopulateRegistry(context.Background(), testConfig(root), reg, &output.Metrics{}); err != nil {
		t.Fatalf("populate: %v", err)
	}
	return reg
}

func TestQueryReputationsOnePerEntity(t *testing.T) {
	logger.Init("error")
	reg := populated(t, "one", "two", "three", "two") // "two" written twice under distinct names

	entities := reg.Entities()
	fetcher := &fakeFetcher{responses: map[string]reputation.Report{
		entities[0].Digest: {ResponseCode: 1, Total: 60, Positives: 30},
		entities[1].Digest: {ResponseCode: 1, Total: 60, Positives: 0},
	}}
	pacer := &countingPacer{}

	cfg := testConfig(".")
	if err := QueryReputations(context.Background(), cfg, reg, fetcher, pacer, &output.Metrics{}); err != nil {
		t.Fatalf("query: %v", err)
	}

	if len(fetcher.calls) != reg.Count() {
		t.Fatalf("expected one query per unique digest, got %d for %d", len(fetcher.calls), reg.Count())
	}
	if pacer.waits != reg.Count() {
		t.Fatalf("expected pacer gating each query, got %d waits", pacer.waits)
	}

	if entities[0].Reputation.Verdict(cfg.Threshold) != reputation.VerdictMalicious {
		t.Error("expected first entity malicious")
	}
	if entities[1].Reputation.Verdict(cfg.Threshold) != reputation.VerdictBenign {
		t.Error("expected second entity benign")
	}
	// Third entity got the unknown-hash response: defaults retained.
	if entities[2].Reputation.Verdict(cfg.Threshold) != reputation.VerdictUnknown {
		t.Error("expected third entity unknown")
	}
	if entities[2].Reputation.TotalScanners() != 1 || entities[2].Reputation.Positives() != 0 {
		t.Error("unknown-hash response must leave default counts")
	}
}

func TestQueryReputationsIsolatesFailures(t *testing.T) {
	logger.Init("error")
	reg := populated(t, "alpha", "beta")
	entities := reg.Entities()

	fetcher := &fakeFetcher{
		responses: map[string]reputation.Report{
			entities[1].Digest: {ResponseCode: 1, Total: 50, Positives: 25},
		},
		failing: map[string]bool{entities[0].Digest: true},
	}
	metrics := &output.Metrics{}
	cfg := testConfig(".")
	if err := QueryReputations(context.Background(), cfg, reg, fetcher, &countingPacer{}, metrics); err != nil {
		t.Fatalf("one failed query must not abort the batch: %v", err)
	}

	if metrics.QueryFailures != 1 || metrics.QueriesIssued != 1 {
		t.Fatalf("unexpected metrics: failures=%d issued=%d", metrics.QueryFailures, metrics.QueriesIssued)
	}
	if entities[0].Reputation.Verdict(cfg.Threshold) != reputation.VerdictUnknown {
		t.Error("failed query must leave verdict unknown")
	}
	if entities[1].Reputation.Verdict(cfg.Threshold) != reputation.VerdictMalicious {
		t.Error("later entity must still be queried")
	}
}

func TestQueryReputationsStopsOnCancel(t *testing.T) {
	logger.Init("error")
	reg := populated(t, "alpha", "beta")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := QueryReputations(ctx, testConfig("."), reg, &fakeFetcher{}, &countingPacer{}, &output.Metrics{})
	if err == nil {
		t.Fatal("expected error from canceled context")
	}
}

func TestQueryReputationsEmptyRegistry(t *testing.T) {
	logger.Init("error")
	reg := newReg(t)
	pacer := &countingPacer{}
	if err := QueryReputations(context.Background(), testConfig("."), reg, &fakeFetcher{}, pacer, &output.Metrics{}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if pacer.waits != 0 {
		t.Fatal("no waits expected for an empty registry")
	}
}
