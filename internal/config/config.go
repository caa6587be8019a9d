package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

type ServerConfig struct {
	Address       string
	ScrapeAddress string
	ScrapePath    string
	MetricOrigin  string
	DatabaseDSN   string
	AuditFile     string
	AuditURL      string
	OTLPEndpoint  string
	OTLPInterval  time.Duration
	KickTimeout   time.Duration
	LogLevel      string
	Hostname      string
}

// NewServerConfig builds the server configuration from command-line flags,
// then lets environment variables override them.
func NewServerConfig(args []string) (*ServerConfig, error) {
	config := &ServerConfig{
		Address:       ":8080",
		ScrapeAddress: ":8081",
		ScrapePath:    "/metrics",
		MetricOrigin:  DefaultOrigin,
		OTLPInterval:  10 * time.Second,
		KickTimeout:   2 * time.Second,
		LogLevel:      "info",
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	address := fs.String("a", config.Address, "API address")
	scrapeAddress := fs.String("s", config.ScrapeAddress, "prometheus scrape address")
	scrapePath := fs.String("scrape-path", config.ScrapePath, "prometheus scrape path")
	origin := fs.String("o", config.MetricOrigin, "value of the metricOrigin label")
	databaseDSN := fs.String("d", config.DatabaseDSN, "database dsn, in-memory storage when empty")
	auditFile := fs.String("audit-file", config.AuditFile, "path to audit log file")
	auditURL := fs.String("audit-url", config.AuditURL, "URL receiving audit events")
	otlpEndpoint := fs.String("otlp-endpoint", config.OTLPEndpoint, "OTLP/HTTP collector endpoint, disabled when empty")
	otlpInterval := fs.Int("otlp-interval", int(config.OTLPInterval/time.Second), "OTLP push interval in seconds")
	kickTimeout := fs.Int("kick-timeout", int(config.KickTimeout/time.Second), "per-agent kick timeout in seconds")
	logLevel := fs.String("l", config.LogLevel, "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envVars := map[string]*string{
		"ADDRESS":        address,
		"SCRAPE_ADDRESS": scrapeAddress,
		"SCRAPE_PATH":    scrapePath,
		"METRIC_ORIGIN":  origin,
		"DATABASE_DSN":   databaseDSN,
		"AUDIT_FILE":     auditFile,
		"AUDIT_URL":      auditURL,
		"OTLP_ENDPOINT":  otlpEndpoint,
		"LOG_LEVEL":      logLevel,
	}

	for envVar, flag := range envVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			*flag = envValue
		}
	}

	envIntVars := map[string]*int{
		"OTLP_PUSH_INTERVAL": otlpInterval,
		"KICK_TIMEOUT":       kickTimeout,
	}

	for envVar, flag := range envIntVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			value, err := strconv.Atoi(envValue)
			if err != nil {
				return nil, err
			}
			*flag = value
		}
	}

	durations := map[string]int{
		"OTLP push interval": *otlpInterval,
		"kick timeout":       *kickTimeout,
	}
	for name, seconds := range durations {
		if seconds <= 0 {
			return nil, fmt.Errorf("%s must be a positive number of seconds, got %d", name, seconds)
		}
	}

	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}

	config.Address = *address
	config.ScrapeAddress = *scrapeAddress
	config.ScrapePath = *scrapePath
	config.MetricOrigin = *origin
	config.DatabaseDSN = *databaseDSN
	config.AuditFile = *auditFile
	config.AuditURL = *auditURL
	config.OTLPEndpoint = *otlpEndpoint
	config.OTLPInterval = time.Duration(*otlpInterval) * time.Second
	config.KickTimeout = time.Duration(*kickTimeout) * time.Second
	config.LogLevel = *logLevel
	config.Hostname = hostname

	return config, nil
}
