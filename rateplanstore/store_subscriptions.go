package rateplanstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/metermill/rateplan-console/rateplanio"
)

func (s *Store) CreateSubscription(ctx context.Context, sub rateplanio.Subscription) (rateplanio.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultStoreTimeout)
	defer cancel()
	if sub.GUID == "" {
		sub.GUID = newGUID()
	}
	if sub.Status == "" {
		sub.Status = rateplanio.SubscriptionActive
	}
	startDate, err := rateplanio.ParseDate(sub.StartDate)
	if err != nil {
		return rateplanio.Subscription{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into subscriptions (
			guid, customer_guid, rateplan_guid, start_date, status
		) values (
			$1, $2, $3, $4, $5
		)
	`, sub.GUID, sub.CustomerGUID, sub.RatePlanGUID, startDate, sub.Status)
	if err != nil {
		return rateplanio.Subscription{}, wrapPqError(err, "create subscription")
	}
	sub.StartDate = formatTime(startDate)
	return sub, nil
}

func (s *Store) GetSubscription(ctx context.Context, guid string) (rateplanio.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	var sub rateplanio.Subscription
	var startDate time.Time
	err := s.db.QueryRowContext(ctx, `
		select guid, customer_guid, rateplan_guid, start_date, status
		from subscriptions
		where guid = $1
	`, guid).Scan(&sub.GUID, &sub.CustomerGUID, &sub.RatePlanGUID, &startDate, &sub.Status)
	if err == sql.ErrNoRows {
		return rateplanio.Subscription{}, errors.Wrapf(rateplanio.ErrNotFound, "subscription %s", guid)
	}
	if err != nil {
		return rateplanio.Subscription{}, wrapPqError(err, "get subscription")
	}
	sub.StartDate = formatTime(startDate)
	return sub, nil
}

func (s *Store) ListSubscriptions(ctx context.Context, customerGUID string) ([]rateplanio.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	query := `
		select guid, customer_guid, rateplan_guid, start_date, status
		from subscriptions
	`
	args := []interface{}{}
	if customerGUID != "" {
		query += ` where customer_guid = $1`
		args = append(args, customerGUID)
	}
	query += ` order by start_date`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapPqError(err, "list subscriptions")
	}
	defer rows.Close()
	subs := []rateplanio.Subscription{}
	for rows.Next() {
		var sub rateplanio.Subscription
		var startDate time.Time
		if err := rows.Scan(&sub.GUID, &sub.CustomerGUID, &sub.RatePlanGUID, &startDate, &sub.Status); err != nil {
			return nil, err
		}
		sub.StartDate = formatTime(startDate)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
