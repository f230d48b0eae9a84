// Package rateplanstore persists the console's resources in Postgres
// and implements rateplanio.AdminStore.
package rateplanstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/gofrs/uuid"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/metermill/rateplan-console/rateplanio"
)

const (
	DefaultInitTimeout  = 5 * time.Minute
	DefaultStoreTimeout = 45 * time.Second
	DefaultQueryTimeout = 45 * time.Second
)

var _ rateplanio.AdminStore = &Store{}

var (
	tableRowsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rateplan_table_rows",
		Help: "Number of rows per console table.",
	}, []string{"table"})
	usageRecordsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rateplan_usage_records_ingested_total",
		Help: "Raw usage records accepted by the store.",
	})
)

type Store struct {
	db     *sql.DB
	logger lager.Logger
	ctx    context.Context
}

func New(ctx context.Context, db *sql.DB, logger lager.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
		ctx:    ctx,
	}
}

// Init creates the console tables in a single transaction. It is safe
// to call on every startup.
func (s *Store) Init() error {
	s.logger.Info("initializing")
	ctx, cancel := context.WithTimeout(s.ctx, DefaultInitTimeout)
	defer cancel()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(stmt); err != nil {
			return wrapPqError(err, "init schema")
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Info("initialized")
	return nil
}

func (s *Store) Ping() error {
	ctx, cancel := context.WithTimeout(s.ctx, DefaultQueryTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

// RecordPeriodicMetrics exports per-table row counts as gauges.
func (s *Store) RecordPeriodicMetrics() error {
	ctx, cancel := context.WithTimeout(s.ctx, DefaultQueryTimeout)
	defer cancel()
	for _, table := range []string{
		"products", "customers", "billable_metrics",
		"rate_plans", "subscriptions", "usage_records",
	} {
		var count int64
		q := fmt.Sprintf("select count(*) from %s", table)
		if err := s.db.QueryRowContext(ctx, q).Scan(&count); err != nil {
			return wrapPqError(err, "count "+table)
		}
		tableRowsGauge.WithLabelValues(table).Set(float64(count))
	}
	return nil
}

var schemaStatements = []string{
	`create table if not exists products (
		guid char(36) primary key,
		name text not null,
		description text not null default '',
		created_at timestamptz not null default now()
	)`,
	`create table if not exists customers (
		guid char(36) primary key,
		name text not null,
		email text not null,
		created_at timestamptz not null default now()
	)`,
	`create table if not exists billable_metrics (
		guid char(36) primary key,
		name text not null,
		unit text not null default '',
		aggregation text not null check (aggregation in ('count', 'sum', 'max')),
		created_at timestamptz not null default now()
	)`,
	`create table if not exists rate_plans (
		guid char(36) primary key,
		product_guid char(36) not null references products (guid),
		name text not null,
		status text not null default 'draft' check (status in ('draft', 'active')),
		model jsonb,
		extras jsonb,
		created_at timestamptz not null default now(),
		updated_at timestamptz not null default now()
	)`,
	`create table if not exists subscriptions (
		guid char(36) primary key,
		customer_guid char(36) not null references customers (guid),
		rateplan_guid char(36) not null references rate_plans (guid),
		start_date timestamptz not null,
		status text not null default 'active' check (status in ('active', 'cancelled'))
	)`,
	`create table if not exists usage_records (
		id serial,
		guid char(36) unique not null,
		subscription_guid char(36) not null references subscriptions (guid),
		metric_guid char(36) not null references billable_metrics (guid),
		quantity numeric not null check (quantity >= 0),
		recorded_at timestamptz not null
	)`,
	`create index if not exists usage_records_recorded_at_idx
		on usage_records (recorded_at)`,
}

func newGUID() string {
	return uuid.Must(uuid.NewV4()).String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func wrapPqError(err error, prefix string) error {
	msg := err.Error()
	if err, ok := err.(*pq.Error); ok {
		msg = err.Message
		if err.Detail != "" {
			msg += ": " + err.Detail
		}
		if err.Hint != "" {
			msg += ": " + err.Hint
		}
	}
	return fmt.Errorf("%s: %s", prefix, msg)
}
