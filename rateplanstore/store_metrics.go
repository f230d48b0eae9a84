package rateplanstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/metermill/rateplan-console/rateplanio"
)

func (s *Store) CreateMetric(ctx context.Context, m rateplanio.BillableMetric) (rateplanio.BillableMetric, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultStoreTimeout)
	defer cancel()
	switch m.Aggregation {
	case rateplanio.AggregateCount, rateplanio.AggregateSum, rateplanio.AggregateMax:
	default:
		return rateplanio.BillableMetric{}, fmt.Errorf("unknown aggregation type: %q", m.Aggregation)
	}
	if m.GUID == "" {
		m.GUID = newGUID()
	}
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, `
		insert into billable_metrics (
			guid, name, unit, aggregation
		) values (
			$1, $2, $3, $4
		)
		returning created_at
	`, m.GUID, m.Name, m.Unit, m.Aggregation).Scan(&createdAt)
	if err != nil {
		return rateplanio.BillableMetric{}, wrapPqError(err, "create metric")
	}
	m.CreatedAt = formatTime(createdAt)
	return m, nil
}

func (s *Store) GetMetric(ctx context.Context, guid string) (rateplanio.BillableMetric, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	var m rateplanio.BillableMetric
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, `
		select guid, name, unit, aggregation, created_at
		from billable_metrics
		where guid = $1
	`, guid).Scan(&m.GUID, &m.Name, &m.Unit, &m.Aggregation, &createdAt)
	if err == sql.ErrNoRows {
		return rateplanio.BillableMetric{}, errors.Wrapf(rateplanio.ErrNotFound, "metric %s", guid)
	}
	if err != nil {
		return rateplanio.BillableMetric{}, wrapPqError(err, "get metric")
	}
	m.CreatedAt = formatTime(createdAt)
	return m, nil
}

func (s *Store) ListMetrics(ctx context.Context) ([]rateplanio.BillableMetric, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
		select guid, name, unit, aggregation, created_at
		from billable_metrics
		order by created_at
	`)
	if err != nil {
		return nil, wrapPqError(err, "list metrics")
	}
	defer rows.Close()
	metrics := []rateplanio.BillableMetric{}
	for rows.Next() {
		var m rateplanio.BillableMetric
		var createdAt time.Time
		if err := rows.Scan(&m.GUID, &m.Name, &m.Unit, &m.Aggregation, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = formatTime(createdAt)
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}
