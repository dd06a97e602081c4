package scanner

import (
	"context"
	"io/fs"
	"os"

	"hashvet/config"
	"hashvet/logger"
	"hashvet/output"
	"hashvet/registry"
	"hashvet/utils"

	"github.com/schollz/progressbar/v3"
)

// PopulateRegistry enumerates every regular file under the configured
// start paths and folds each one into the registry. Files that cannot
// be read are logged and skipped; the run continues. This phase
// completes fully before any reputation query is issued.
func PopulateRegistry(ctx context.Context, cfg *config.Config, reg *registry.Registry, metrics *output.Metrics) error {
	matcher := utils.NewPatternMatcher(cfg.IncludePatterns, cfg.ExcludePatterns)
	w := depthFirstWalker{}

	var bar *progressbar.ProgressBar
	if cfg.SkipCount {
		logger.Info("Skipping total file count")
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Hashing files"),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetVisibility(progressVisible()),
			progressbar.OptionFullWidth(),
		)
	} else {
		logger.Info("Counting total number of files...")
		totalFiles := 0
		for _, startPath := range cfg.StartPaths {
			count, err := countTotalFiles(ctx, w, startPath, cfg, matcher)
			if err != nil {
				logger.Warnf("Failed to count files in %s: %v", startPath, err)
				continue
			}
			totalFiles += count
		}
		logger.Infof("Total files to hash: %d", totalFiles)
		metrics.TotalFiles = totalFiles

		bar = progressbar.NewOptions(totalFiles,
			progressbar.OptionSetDescription("Hashing files"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetVisibility(progressVisible()),
			progressbar.OptionFullWidth(),
		)
	}

	for _, startPath := range cfg.StartPaths {
		err := w.Walk(ctx, startPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warnf("Failed to access %s: %v", path, err)
				return nil
			}
			if d == nil || d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			if !matcher.ShouldInclude(path) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				logger.Warnf("Failed to stat %s: %v", path, err)
				metrics.FilesSkipped++
				return nil
			}
			if cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize {
				logger.Debugf("Skipping large file %s", path)
				metrics.FilesSkipped++
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			entity, created, err := reg.AddFile(path)
			if err != nil {
				logger.Warnf("Failed to hash %s: %v", path, err)
				metrics.FilesSkipped++
				return nil
			}
			metrics.FilesHashed++
			if created {
				collectEntityDetails(entity, path, info, cfg)
			}
			_ = bar.Add(1)
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warnf("Error walking path %s: %v", startPath, err)
		}
	}

	metrics.UniqueDigests = reg.Count()
	if cfg.SkipCount {
		metrics.TotalFiles = metrics.FilesHashed + metrics.FilesSkipped
	}
	logger.Infof("Registered %d unique digests across %d files", reg.Count(), metrics.FilesHashed)
	return nil
}

func countTotalFiles(ctx context.Context, w walker, startPath string, cfg *config.Config, matcher *utils.PatternMatcher) (int, error) {
	var total int
	err := w.Walk(ctx, startPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warnf("Failed to access %s: %v", path, err)
			return nil
		}
		if d == nil || d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !matcher.ShouldInclude(path) {
			return nil
		}
		if cfg.MaxFileSize > 0 {
			if info, err := d.Info(); err == nil && info.Size() > cfg.MaxFileSize {
				return nil
			}
		}
		total++
		return nil
	})
	return total, err
}

func progressVisible() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
