package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hashvet/config"
	"hashvet/hasher"
	"hashvet/logger"
	"hashvet/output"
	"hashvet/registry"
	"hashvet/reputation"
	"hashvet/scanner"
	"hashvet/systeminfo"
	"hashvet/update"
	"hashvet/version"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.LogLevel)

	if cfg.CheckUpdates {
		if latest, notes, newer, err := update.CheckForUpdate(version.Version); err == nil && newer {
			if strings.Contains(strings.ToLower(notes), "security") {
				logger.Warnf("Update available: %s -> %s (security fixes included)", version.Version, latest)
			} else {
				logger.Infof("Update available: %s -> %s", version.Version, latest)
			}
		}
	}

	// Record start time
	startTime := time.Now()
	metrics := output.Metrics{
		StartTime: startTime.Format(time.RFC3339),
	}

	// Gather host context if requested
	var hostInfo *systeminfo.HostInfo
	if cfg.CollectHostInfo {
		hostInfo, err = systeminfo.Collect()
		if err != nil {
			logger.Warnf("Host context degraded: %v", err)
		}
	}

	// Prepare report output
	writer, err := output.New(cfg, hostInfo, &metrics)
	if err != nil {
		logger.Fatalf("Failed to initialize output: %v", err)
	}
	defer writer.Close()

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go handleSignalEvent(cancel, &metrics, writer, sigChan)

	// Phase 1+2: enumerate files and populate the registry
	reg, err := registry.New(cfg.DigestAlgorithm, hasher.Options{
		ReadMode:    cfg.ContentReadMode,
		MmapMinSize: cfg.MmapMinSize,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize registry: %v", err)
	}
	if err := scanner.PopulateRegistry(ctx, cfg, reg, &metrics); err != nil {
		logger.Fatalf("Scanning failed: %v", err)
	}

	// Phase 3: one reputation query per unique digest, paced
	client := reputation.NewClient(cfg.APIKey, cfg.APIBaseURL, cfg.RequestTimeout)
	pacer := reputation.NewPacer(reg.Count(), cfg.FreeQuota, cfg.QueryInterval)
	if err := scanner.QueryReputations(ctx, cfg, reg, client, pacer, &metrics); err != nil {
		logger.Fatalf("Reputation queries failed: %v", err)
	}

	// Phase 4: verdicts
	for _, entity := range reg.Entities() {
		output.PrintVerdict(os.Stdout, entity, cfg.Threshold)
		writer.WriteEntity(entity)
		switch entity.Reputation.Verdict(cfg.Threshold) {
		case reputation.VerdictMalicious:
			metrics.Malicious++
		case reputation.VerdictBenign:
			metrics.Benign++
		default:
			metrics.Unknown++
		}
	}

	metrics.EndTime = time.Now().Format(time.RFC3339)
	writer.SetMetrics(metrics)

	logger.Infof("Run completed: %d unique digests, %d potentially malicious.", metrics.UniqueDigests, metrics.Malicious)
}

func handleSignalEvent(cancelFunc context.CancelFunc, metrics *output.Metrics, w *output.Writer, sigChan chan os.Signal) {
	<-sigChan
	logger.Info("Interrupt signal received. Shutting down...")

	// Record end time upon interruption
	metrics.EndTime = time.Now().Format(time.RFC3339)
	w.SetMetrics(*metrics)

	cancelFunc()
}
