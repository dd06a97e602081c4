package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"hashvet/hasher"
	"hashvet/version"
)

type Config struct {
	APIKey          string            `json:"api_key"`
	APIBaseURL      string            `json:"api_base_url"`
	StartPaths      []string          `json:"start_paths"`
	IncludePatterns []string          `json:"include_patterns"`
	ExcludePatterns []string          `json:"exclude_patterns"`
	MaxFileSize     int64             `json:"max_file_size"`
	DigestAlgorithm string            `json:"digest_algorithm"`
	ContentReadMode string            `json:"content_read_mode"`
	MmapMinSize     int64             `json:"mmap_min_size"`
	FuzzyHash       bool              `json:"fuzzy_hash"`
	FuzzyAlgorithms []string          `json:"fuzzy_algorithms"`
	FuzzyMinSize    int64             `json:"fuzzy_min_size"`
	FuzzyMaxSize    int64             `json:"fuzzy_max_size"`
	Threshold       float64           `json:"malicious_threshold"`
	FreeQuota       int               `json:"query_free_quota"`
	QueryInterval   time.Duration     `json:"query_interval"`
	RequestTimeout  time.Duration     `json:"request_timeout"`
	OutputFileName  string            `json:"output_file_name"`
	CollectHostInfo bool              `json:"collect_host_info"`
	SkipCount       bool              `json:"skip_count"`
	CheckUpdates    bool              `json:"check_updates"`
	LogLevel        string            `json:"log_level"`
	OtelEndpoint    string            `json:"otel_endpoint"`
	OtelFromEnv     bool              `json:"otel_from_env"`
	OtelHeaders     map[string]string `json:"otel_headers"`
	OtelServiceName string            `json:"otel_service_name"`
	OtelTimeout     time.Duration     `json:"otel_timeout"`
	ConfigFile      string            `json:"config_file"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		StartPaths:      []string{"."},
		IncludePatterns: []string{},
		ExcludePatterns: []string{},
		MaxFileSize:     0,
		DigestAlgorithm: "sha256",
		ContentReadMode: "stream",
		MmapMinSize:     128 * 1024,
		FuzzyAlgorithms: []string{},
		FuzzyMinSize:    256,
		FuzzyMaxSize:    20 * 1024 * 1024,
		Threshold:       0.10,
		FreeQuota:       4,
		QueryInterval:   15 * time.Second,
		RequestTimeout:  0,
		OutputFileName:  "",
		CollectHostInfo: true,
		SkipCount:       false,
		CheckUpdates:    true,
		LogLevel:        "info",
		OtelHeaders:     map[string]string{},
		OtelServiceName: "hashvet",
		OtelTimeout:     5 * time.Second,
	}

	apiKey := flag.String("api-key", "", "Reputation service API key (default: none, required unless set in config file).")
	apiBaseURL := flag.String("api-base-url", cfg.APIBaseURL, "Reputation service base URL (default: public endpoint).")
	startPath := flag.String("path", strings.Join(cfg.StartPaths, ","), fmt.Sprintf("Comma-separated list of start paths to scan (default: %s).", strings.Join(cfg.StartPaths, ",")))
	includes := flag.String("include", "", "Comma-separated list of include patterns (default: none).")
	excludes := flag.String("exclude", "", "Comma-separated list of exclude patterns (default: none).")
	maxFileSize := flag.Int64("max-file-size", cfg.MaxFileSize, "Maximum file size to digest in bytes (default: 0, unlimited).")
	algorithm := flag.String("digest", cfg.DigestAlgorithm, fmt.Sprintf("Digest algorithm: md5, sha1, sha256, blake3, or xxh64 (default: %s).", cfg.DigestAlgorithm))
	readMode := flag.String("content-read-mode", cfg.ContentReadMode, "Content read mode: stream, mmap, or auto (default: stream).")
	mmapMinSize := flag.Int64("mmap-min-size", cfg.MmapMinSize, fmt.Sprintf("Minimum file size in bytes for the mmap read path in auto mode (default: %d).", cfg.MmapMinSize))
	fuzzyHash := flag.Bool("fuzzy-hash", cfg.FuzzyHash, fmt.Sprintf("Fuzzy-hash each unique file for similarity triage (default: %t).", cfg.FuzzyHash))
	fuzzyAlgorithms := flag.String("fuzzy-algorithms", strings.Join(cfg.FuzzyAlgorithms, ","), "Comma-separated list of fuzzy hash algorithms (default: tlsh when fuzzy hashing enabled).")
	fuzzyMinSize := flag.Int64("fuzzy-min-size", cfg.FuzzyMinSize, fmt.Sprintf("Minimum file size in bytes for fuzzy hashing (default: %d).", cfg.FuzzyMinSize))
	fuzzyMaxSize := flag.Int64("fuzzy-max-size", cfg.FuzzyMaxSize, fmt.Sprintf("Maximum file size in bytes for fuzzy hashing (default: %d).", cfg.FuzzyMaxSize))
	threshold := flag.Float64("threshold", cfg.Threshold, fmt.Sprintf("Flagging-engine ratio at and above which content is deemed malicious (default: %.2f).", cfg.Threshold))
	freeQuota := flag.Int("query-free-quota", cfg.FreeQuota, fmt.Sprintf("Unique-digest count at or under which queries run unpaced (default: %d).", cfg.FreeQuota))
	queryInterval := flag.Duration("query-interval", cfg.QueryInterval, "Spacing between reputation queries above the free quota (default: 15s).")
	requestTimeout := flag.Duration("request-timeout", cfg.RequestTimeout, "Per-request timeout for reputation queries (default: 0, none).")
	output := flag.String("output", cfg.OutputFileName, "Report file name, ndjson (default: none, console only).")
	collectHostInfo := flag.Bool("collect-host-info", cfg.CollectHostInfo, fmt.Sprintf("Record host context in the report header (default: %t).", cfg.CollectHostInfo))
	skipCount := flag.Bool("skip-count", cfg.SkipCount, "Skip initial file counting to start scanning immediately.")
	checkUpdates := flag.Bool("check-updates", cfg.CheckUpdates, fmt.Sprintf("Check for a newer release on startup (default: %t).", cfg.CheckUpdates))
	logLevel := flag.String("log-level", cfg.LogLevel, fmt.Sprintf("Log level: debug, info, warn, error, fatal, or panic (default: %s).", cfg.LogLevel))
	otelEndpoint := flag.String("otel-endpoint", cfg.OtelEndpoint, "OTLP/HTTP logs endpoint for verdict export (default: none).")
	otelFromEnv := flag.Bool("otel-from-env", cfg.OtelFromEnv, "Allow OTEL endpoint fallback from OTEL environment variables (default: false).")
	otelHeaders := flag.String("otel-headers", "", "Comma-separated OTEL headers (key=value) for export (default: none).")
	otelServiceName := flag.String("otel-service-name", cfg.OtelServiceName, "OTEL service name for export (default: hashvet).")
	otelTimeout := flag.Duration("otel-timeout", cfg.OtelTimeout, "OTEL export timeout (default: 5s).")
	configFile := flag.String("config", "", "Path to JSON configuration file (default: none).")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = displayHelp
	flag.Parse()

	if *showVersion {
		fmt.Printf("hashvet version %s\n", version.Version)
		os.Exit(0)
	}

	if *configFile != "" {
		cfg.ConfigFile = *configFile
		if err := cfg.loadFromFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "api-key":
			cfg.APIKey = *apiKey
		case "api-base-url":
			cfg.APIBaseURL = strings.TrimSpace(*apiBaseURL)
		case "path":
			cfg.StartPaths = parseCommaSeparated(*startPath)
		case "include":
			cfg.IncludePatterns = parseCommaSeparated(*includes)
		case "exclude":
			cfg.ExcludePatterns = parseCommaSeparated(*excludes)
		case "max-file-size":
			cfg.MaxFileSize = *maxFileSize
		case "digest":
			cfg.DigestAlgorithm = strings.ToLower(strings.TrimSpace(*algorithm))
		case "content-read-mode":
			cfg.ContentReadMode = strings.ToLower(strings.TrimSpace(*readMode))
		case "mmap-min-size":
			cfg.MmapMinSize = *mmapMinSize
		case "fuzzy-hash":
			cfg.FuzzyHash = *fuzzyHash
		case "fuzzy-algorithms":
			cfg.FuzzyAlgorithms = parseCommaSeparated(*fuzzyAlgorithms)
		case "fuzzy-min-size":
			cfg.FuzzyMinSize = *fuzzyMinSize
		case "fuzzy-max-size":
			cfg.FuzzyMaxSize = *fuzzyMaxSize
		case "threshold":
			cfg.Threshold = *threshold
		case "query-free-quota":
			cfg.FreeQuota = *freeQuota
		case "query-interval":
			cfg.QueryInterval = *queryInterval
		case "request-timeout":
			cfg.RequestTimeout = *requestTimeout
		case "output":
			cfg.OutputFileName = *output
		case "collect-host-info":
			cfg.CollectHostInfo = *collectHostInfo
		case "skip-count":
			cfg.SkipCount = *skipCount
		case "check-updates":
			cfg.CheckUpdates = *checkUpdates
		case "log-level":
			cfg.LogLevel = *logLevel
		case "otel-endpoint":
			cfg.OtelEndpoint = strings.TrimSpace(*otelEndpoint)
		case "otel-from-env":
			cfg.OtelFromEnv = *otelFromEnv
		case "otel-headers":
			cfg.OtelHeaders = parseHeaders(*otelHeaders)
		case "otel-service-name":
			cfg.OtelServiceName = strings.TrimSpace(*otelServiceName)
		case "otel-timeout":
			cfg.OtelTimeout = *otelTimeout
		}
	})

	cfg.DigestAlgorithm = strings.ToLower(strings.TrimSpace(cfg.DigestAlgorithm))
	cfg.ContentReadMode = strings.ToLower(strings.TrimSpace(cfg.ContentReadMode))
	if cfg.DigestAlgorithm == "" {
		cfg.DigestAlgorithm = "sha256"
	}
	if cfg.ContentReadMode == "" {
		cfg.ContentReadMode = "stream"
	}
	cfg.FuzzyAlgorithms = normalizeAlgorithms(cfg.FuzzyAlgorithms)
	if cfg.FuzzyHash && len(cfg.FuzzyAlgorithms) == 0 {
		cfg.FuzzyAlgorithms = []string{"tlsh"}
	}
	if len(cfg.FuzzyAlgorithms) > 0 {
		cfg.FuzzyHash = true
	}
	if cfg.FuzzyMaxSize > 0 && cfg.FuzzyMaxSize < cfg.FuzzyMinSize {
		cfg.FuzzyMaxSize = cfg.FuzzyMinSize
	}
	if len(cfg.StartPaths) == 0 {
		cfg.StartPaths = []string{"."}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func displayHelp() {
	fmt.Println("hashvet - Recursive Hash Reputation Scanner")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  hashvet [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  hashvet --api-key KEY --path \"/srv/uploads\"")
	fmt.Println("  hashvet --config hashvet.json --path \"/home,/var\" --exclude \"*.log\"")
	fmt.Println("  hashvet --api-key KEY --fuzzy-hash --output findings.ndjson")
}

func (cfg *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %v", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid config file format: %v", err)
	}
	return nil
}

func (cfg *Config) validate() error {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return fmt.Errorf("an API key is required (--api-key or api_key in the config file)")
	}
	if len(cfg.StartPaths) == 0 {
		return fmt.Errorf("at least one start path must be specified")
	}
	if !hasher.Supported(cfg.DigestAlgorithm) {
		return fmt.Errorf("unsupported digest algorithm: %s", cfg.DigestAlgorithm)
	}
	if cfg.ContentReadMode != "stream" && cfg.ContentReadMode != "mmap" && cfg.ContentReadMode != "auto" {
		return fmt.Errorf("invalid content-read-mode value: %s", cfg.ContentReadMode)
	}
	if cfg.MaxFileSize < 0 {
		return fmt.Errorf("max-file-size must be zero or positive")
	}
	if cfg.MmapMinSize < 0 {
		return fmt.Errorf("mmap-min-size must be zero or positive")
	}
	if cfg.FuzzyMinSize < 0 || cfg.FuzzyMaxSize < 0 {
		return fmt.Errorf("fuzzy size limits must be zero or positive")
	}
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1]")
	}
	if cfg.FreeQuota < 0 {
		return fmt.Errorf("query-free-quota must be zero or positive")
	}
	if cfg.QueryInterval <= 0 {
		return fmt.Errorf("query-interval must be positive")
	}
	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("request-timeout must be zero or positive")
	}
	if cfg.OtelTimeout < 0 {
		return fmt.Errorf("otel-timeout must be zero or positive")
	}
	if cfg.OtelEndpoint != "" {
		if !strings.HasPrefix(cfg.OtelEndpoint, "http://") && !strings.HasPrefix(cfg.OtelEndpoint, "https://") {
			return fmt.Errorf("otel-endpoint must include scheme (http or https)")
		}
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" &&
		cfg.LogLevel != "error" && cfg.LogLevel != "fatal" && cfg.LogLevel != "panic" {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	return nil
}

func parseCommaSeparated(input string) []string {
	if input == "" {
		return []string{}
	}
	items := strings.Split(input, ",")
	for i, item := range items {
		items[i] = strings.TrimSpace(item)
	}
	return items
}

func parseHeaders(input string) map[string]string {
	headers := make(map[string]string)
	if input == "" {
		return headers
	}
	for _, item := range strings.Split(input, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(parts[1])
	}
	return headers
}

func normalizeAlgorithms(items []string) []string {
	normalized := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		normalized = append(normalized, item)
	}
	return normalized
}
