package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/pkg/errors"

	"github.com/metermill/rateplan-console/rateplanio"
	"github.com/metermill/rateplan-console/usagecollector"
)

type Config struct {
	Logger            lager.Logger
	Store             rateplanio.AdminStore
	DatabaseURL       string
	DBConnMaxIdleTime time.Duration
	DBConnMaxLifetime time.Duration
	DBMaxIdleConns    int
	Collector         usagecollector.Config
	Feed              usagecollector.FeedConfig
	AuthSigningKey    string
	ServerPort        int
	ServerHost        string
	ListenAddr        string
	Processor         ProcessorConfig
}

type ProcessorConfig struct {
	PeriodicMetricsSchedule time.Duration
}

func NewConfigFromEnv() (cfg Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprintf("%v", r))
		}
	}()

	cfg = Config{
		Logger:            lager.NewLogger("default"),
		DatabaseURL:       getEnvWithDefaultString("DATABASE_URL", "postgres://postgres:@localhost:5432/"),
		DBConnMaxIdleTime: getEnvWithDefaultDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		DBConnMaxLifetime: getEnvWithDefaultDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		DBMaxIdleConns:    getEnvWithDefaultInt("DB_MAX_IDLE_CONNS", 1),
		Collector: usagecollector.Config{
			Schedule:    getEnvWithDefaultDuration("COLLECTOR_SCHEDULE", 15*time.Minute),
			MinWaitTime: getEnvWithDefaultDuration("COLLECTOR_MIN_WAIT_TIME", 3*time.Second),
		},
		Feed: usagecollector.FeedConfig{
			FeedURL:    os.Getenv("USAGE_FEED_URL"),
			FetchLimit: getEnvWithDefaultInt("USAGE_FEED_FETCH_LIMIT", 50),
		},
		AuthSigningKey: os.Getenv("AUTH_SIGNING_KEY"),
		Processor: ProcessorConfig{
			PeriodicMetricsSchedule: getEnvWithDefaultDuration("PERIODIC_METRICS_SCHEDULE", 10*time.Second),
		},
		ServerPort: getEnvWithDefaultInt("PORT", 8881),
		ServerHost: getEnvWithDefaultString("LISTEN_HOST", ""),
	}
	cfg.ListenAddr = fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
	return cfg, nil
}

func getEnvWithDefaultDuration(k string, def time.Duration) time.Duration {
	v := getEnvWithDefaultString(k, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	return d
}

func getEnvWithDefaultInt(k string, def int) int {
	v := getEnvWithDefaultString(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	return n
}

func getEnvWithDefaultString(k string, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getDefaultLogger() lager.Logger {
	logger := lager.NewLogger("rateplan-console")
	logLevel := lager.INFO
	if strings.ToLower(os.Getenv("LOG_LEVEL")) == "debug" {
		logLevel = lager.DEBUG
	}
	logger.RegisterSink(lager.NewWriterSink(os.Stdout, logLevel))

	return logger
}
