package scanner

import (
	"context"

	"hashvet/config"
	"hashvet/logger"
	"hashvet/output"
	"hashvet/registry"
	"hashvet/reputation"

	"github.com/schollz/progressbar/v3"
)

// ReportFetcher is the slice of the reputation client the query loop
// needs; tests substitute a canned responder.
type ReportFetcher interface {
	FileReport(ctx context.Context, digest string) ([]byte, reputation.Report, error)
}

// QueryReputations issues one reputation query per unique entity, in
// first-seen order, pacing each query through the pacer. A failed
// query is logged and leaves that entity's verdict unknown; only
// context cancellation stops the loop.
func QueryReputations(ctx context.Context, cfg *config.Config, reg *registry.Registry, client ReportFetcher, pacer reputation.Pacer, metrics *output.Metrics) error {
	entities := reg.Entities()
	if len(entities) == 0 {
		logger.Info("No unique digests to query")
		return nil
	}

	logger.Infof("Querying reputation for %d unique digests", len(entities))
	bar := progressbar.NewOptions(len(entities),
		progressbar.OptionSetDescription("Querying reputation"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetVisibility(progressVisible()),
		progressbar.OptionFullWidth(),
	)

	for _, entity := range entities {
		if err := pacer.Wait(ctx); err != nil {
			return err
		}

		raw, report, err := client.FileReport(ctx, entity.Digest)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warnf("Reputation query failed for %s: %v", entity.Digest, err)
			metrics.QueryFailures++
			_ = bar.Add(1)
			continue
		}
		metrics.QueriesIssued++

		entity.Reputation.Record(raw, report)
		logger.Debugf("Flagging ratio for %s: %d/%d = %.3f",
			entity.Digest,
			entity.Reputation.Positives(),
			entity.Reputation.TotalScanners(),
			entity.Reputation.Ratio(),
		)
		_ = bar.Add(1)
	}
	return nil
}
