// Package config builds a typed Config from environment variables
// using the fallback-chain convention the rest of this module's
// ambient stack follows: a canonical BILLINGFOCUS_ name checked first,
// then one or more legacy names for compatibility with deployments
// that configured the teacher SDK's own plugin process directly.
//
// There is no global singleton. Load returns a value; callers thread
// it explicitly into coordinator.New and cmd/billingfocusd's wiring.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variable names. Each has a canonical BILLINGFOCUS_ form
// and, where the teacher SDK defines an equivalent, a fallback chain
// ending in the teacher's own names so a plugin-process deployment
// that already sets FINFOCUS_LOG_LEVEL/PULUMICOST_LOG_LEVEL keeps
// working unchanged.
const (
	EnvDatabaseURL = "BILLINGFOCUS_DATABASE_URL"

	EnvWorkerCount         = "BILLINGFOCUS_WORKER_COUNT"
	EnvWorkerCountFallback = "PULUMICOST_PLUGIN_WORKERS"

	EnvLogLevel           = "BILLINGFOCUS_LOG_LEVEL"
	EnvLogLevelFinFocus   = "FINFOCUS_LOG_LEVEL"
	EnvLogLevelPulumiCost = "PULUMICOST_LOG_LEVEL"
	EnvLogLevelFallback   = "LOG_LEVEL"

	EnvLogFormat         = "BILLINGFOCUS_LOG_FORMAT"
	EnvLogFormatFinFocus = "FINFOCUS_LOG_FORMAT"
	EnvLogFormatFallback = "PULUMICOST_LOG_FORMAT"

	EnvLogFile         = "BILLINGFOCUS_LOG_FILE"
	EnvLogFileFallback = "FINFOCUS_LOG_FILE"

	EnvMetricsPort         = "BILLINGFOCUS_METRICS_PORT"
	EnvMetricsPortFallback = "FINFOCUS_PLUGIN_PORT"

	EnvDefaultWindowDays = "BILLINGFOCUS_DEFAULT_WINDOW_DAYS"

	EnvEncryptionKey = "BILLINGFOCUS_ENCRYPTION_KEY"

	EnvTraceID         = "BILLINGFOCUS_TRACE_ID"
	EnvTraceIDFallback = "FINFOCUS_TRACE_ID"

	// EnvScheduledProviderIDs is a comma-separated list of provider ids
	// billingfocusd triggers a scheduled run for on its sync interval.
	// store.Store exposes no provider enumeration (spec.md §6), so the
	// schedule is driven from here rather than a store query.
	EnvScheduledProviderIDs = "BILLINGFOCUS_SCHEDULED_PROVIDER_IDS"

	// EnvConfigFile points at an optional YAML overlay file (see
	// LoadFile) applied on top of the environment-derived Config.
	EnvConfigFile = "BILLINGFOCUS_CONFIG_FILE"
)

const (
	defaultWorkerCount      = 4
	defaultMetricsPort      = 9090
	defaultDefaultWindowDay = 7
	defaultLogLevel         = "info"
	defaultLogFormat        = "json"
)

// Config is the full set of process-wide settings read from the
// environment. The zero value is not valid; use Load.
type Config struct {
	DatabaseURL string

	WorkerCount int

	LogLevel  string
	LogFormat string
	LogFile   string

	MetricsPort int

	DefaultWindowDays int

	// EncryptionKey, if set, is a raw 32-byte key handed to
	// encryptor.New. Empty means the caller must supply a key some
	// other way; Load does not generate one.
	EncryptionKey string

	TraceID string

	// ScheduledProviderIDs lists the providers billingfocusd syncs on
	// its fixed interval. Empty means the daemon runs no scheduled
	// syncs (an operator drives every run through billingfocusctl).
	ScheduledProviderIDs []string
}

// Load reads every setting from getenv (ordinarily os.Getenv; tests
// pass a map-backed stand-in). It returns an error only when a set
// value fails to parse as its expected type; unset values fall back
// to defaults rather than erroring.
func Load(getenv func(string) string) (Config, error) {
	cfg := Config{
		DatabaseURL:          getenv(EnvDatabaseURL),
		LogLevel:             firstNonEmpty(getenv, defaultLogLevel, EnvLogLevel, EnvLogLevelFinFocus, EnvLogLevelPulumiCost, EnvLogLevelFallback),
		LogFormat:            firstNonEmpty(getenv, defaultLogFormat, EnvLogFormat, EnvLogFormatFinFocus, EnvLogFormatFallback),
		LogFile:              firstNonEmpty(getenv, "", EnvLogFile, EnvLogFileFallback),
		EncryptionKey:        getenv(EnvEncryptionKey),
		TraceID:              firstNonEmpty(getenv, "", EnvTraceID, EnvTraceIDFallback),
		WorkerCount:          defaultWorkerCount,
		MetricsPort:          defaultMetricsPort,
		DefaultWindowDays:    defaultDefaultWindowDay,
		ScheduledProviderIDs: splitCSV(getenv(EnvScheduledProviderIDs)),
	}

	workerCount, err := parseIntFallback(getenv, EnvWorkerCount, EnvWorkerCountFallback, defaultWorkerCount)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", EnvWorkerCount, err)
	}
	if workerCount > 0 {
		cfg.WorkerCount = workerCount
	}

	metricsPort, err := parseIntFallback(getenv, EnvMetricsPort, EnvMetricsPortFallback, defaultMetricsPort)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", EnvMetricsPort, err)
	}
	if metricsPort > 0 {
		cfg.MetricsPort = metricsPort
	}

	windowDays, err := parseIntFallback(getenv, EnvDefaultWindowDays, "", defaultDefaultWindowDay)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", EnvDefaultWindowDays, err)
	}
	if windowDays > 0 {
		cfg.DefaultWindowDays = windowDays
	}

	return cfg, nil
}

// LoadFromEnviron calls Load with os.Getenv, then applies the YAML
// overlay named by EnvConfigFile if set. This is the production entry
// point used by cmd/billingfocusd and cmd/billingfocusctl.
func LoadFromEnviron() (Config, error) {
	cfg, err := Load(os.Getenv)
	if err != nil {
		return Config{}, err
	}
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-controlled path
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return ApplyFileOverlay(cfg, data)
}

// fileOverlay is the YAML shape LoadFromEnviron's optional config file
// takes: every field is a pointer so an absent key leaves the
// environment-derived value untouched, mirroring the teacher's own
// manifest loader's "file fills gaps env didn't set" precedence.
type fileOverlay struct {
	DatabaseURL          *string  `yaml:"database_url"`
	WorkerCount          *int     `yaml:"worker_count"`
	LogLevel             *string  `yaml:"log_level"`
	LogFormat            *string  `yaml:"log_format"`
	LogFile              *string  `yaml:"log_file"`
	MetricsPort          *int     `yaml:"metrics_port"`
	DefaultWindowDays    *int     `yaml:"default_window_days"`
	EncryptionKey        *string  `yaml:"encryption_key"`
	TraceID              *string  `yaml:"trace_id"`
	ScheduledProviderIDs []string `yaml:"scheduled_provider_ids"`
}

// ApplyFileOverlay parses a YAML document in fileOverlay's shape and
// layers its values onto base, leaving any key the document omits
// unchanged. A key the file does set overrides base's value, so an
// operator-authored config file takes precedence over the
// environment-derived defaults it's layered on top of.
func ApplyFileOverlay(base Config, yamlDoc []byte) (Config, error) {
	var overlay fileOverlay
	if err := yaml.Unmarshal(yamlDoc, &overlay); err != nil {
		return Config{}, fmt.Errorf("config: parse overlay: %w", err)
	}

	out := base
	if overlay.DatabaseURL != nil {
		out.DatabaseURL = *overlay.DatabaseURL
	}
	if overlay.WorkerCount != nil {
		out.WorkerCount = *overlay.WorkerCount
	}
	if overlay.LogLevel != nil {
		out.LogLevel = *overlay.LogLevel
	}
	if overlay.LogFormat != nil {
		out.LogFormat = *overlay.LogFormat
	}
	if overlay.LogFile != nil {
		out.LogFile = *overlay.LogFile
	}
	if overlay.MetricsPort != nil {
		out.MetricsPort = *overlay.MetricsPort
	}
	if overlay.DefaultWindowDays != nil {
		out.DefaultWindowDays = *overlay.DefaultWindowDays
	}
	if overlay.EncryptionKey != nil {
		out.EncryptionKey = *overlay.EncryptionKey
	}
	if overlay.TraceID != nil {
		out.TraceID = *overlay.TraceID
	}
	if len(overlay.ScheduledProviderIDs) > 0 {
		out.ScheduledProviderIDs = overlay.ScheduledProviderIDs
	}
	return out, nil
}

func firstNonEmpty(getenv func(string) string, fallback string, names ...string) string {
	for _, name := range names {
		if v := getenv(name); v != "" {
			return v
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

func parseIntFallback(getenv func(string) string, primary, secondary string, def int) (int, error) {
	v := getenv(primary)
	if v == "" && secondary != "" {
		v = getenv(secondary)
	}
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", v, err)
	}
	return n, nil
}
