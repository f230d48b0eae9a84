package rateplanstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/metermill/rateplan-console/rateplanio"
)

// StoreUsage appends raw usage records in one transaction. Records with
// a GUID already present are skipped, so collector replays are safe.
func (s *Store) StoreUsage(ctx context.Context, records []rateplanio.UsageRecord) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultStoreTimeout)
	defer cancel()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	var stored int64
	for _, record := range records {
		if record.GUID == "" {
			record.GUID = newGUID()
		}
		recordedAt, err := rateplanio.ParseDate(record.RecordedAt)
		if err != nil {
			return err
		}
		result, err := tx.Exec(`
			insert into usage_records (
				guid, subscription_guid, metric_guid, quantity, recorded_at
			) values (
				$1, $2, $3, $4, $5
			)
			on conflict (guid) do nothing
		`, record.GUID, record.SubscriptionGUID, record.MetricGUID, record.Quantity, recordedAt)
		if err != nil {
			return wrapPqError(err, "store usage record")
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		stored += affected
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	usageRecordsIngested.Add(float64(stored))
	return nil
}

func (s *Store) GetUsageSummaries(ctx context.Context, filter rateplanio.UsageFilter) ([]rateplanio.UsageSummary, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	rangeStart, _ := rateplanio.ParseDate(filter.RangeStart)
	rangeStop, _ := rateplanio.ParseDate(filter.RangeStop)
	query := `
		select
			ur.subscription_guid,
			ur.metric_guid,
			case bm.aggregation
				when 'count' then count(*)::numeric
				when 'max' then max(ur.quantity)
				else sum(ur.quantity)
			end as total_quantity,
			count(*) as record_count
		from usage_records ur
		join billable_metrics bm on bm.guid = ur.metric_guid
		where ur.recorded_at >= $1 and ur.recorded_at < $2
	`
	args := []interface{}{rangeStart, rangeStop}
	if len(filter.SubscriptionGUIDs) > 0 {
		query += ` and ur.subscription_guid = any($3)`
		args = append(args, pq.Array(filter.SubscriptionGUIDs))
	}
	query += `
		group by ur.subscription_guid, ur.metric_guid, bm.aggregation
		order by ur.subscription_guid, ur.metric_guid
	`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapPqError(err, "usage summaries")
	}
	defer rows.Close()
	summaries := []rateplanio.UsageSummary{}
	for rows.Next() {
		var summary rateplanio.UsageSummary
		if err := rows.Scan(&summary.SubscriptionGUID, &summary.MetricGUID, &summary.TotalQuantity, &summary.RecordCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// GetLastUsageRecord returns the most recently recorded usage record,
// or nil when nothing has been ingested yet. The collector uses it as
// the resume cursor.
func (s *Store) GetLastUsageRecord(ctx context.Context) (*rateplanio.UsageRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	var record rateplanio.UsageRecord
	var recordedAt time.Time
	err := s.db.QueryRowContext(ctx, `
		select guid, subscription_guid, metric_guid, quantity, recorded_at
		from usage_records
		order by recorded_at desc, id desc
		limit 1
	`).Scan(&record.GUID, &record.SubscriptionGUID, &record.MetricGUID, &record.Quantity, &recordedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapPqError(err, "last usage record")
	}
	record.RecordedAt = formatTime(recordedAt)
	return &record, nil
}
