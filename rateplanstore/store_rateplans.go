package rateplanstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/metermill/rateplan-console/pricing"
	"github.com/metermill/rateplan-console/rateplanio"
)

func (s *Store) CreateRatePlan(ctx context.Context, p rateplanio.RatePlan) (rateplanio.RatePlan, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultStoreTimeout)
	defer cancel()
	if p.GUID == "" {
		p.GUID = newGUID()
	}
	if p.Status == "" {
		p.Status = rateplanio.RatePlanDraft
	}
	modelJSON, extrasJSON, err := marshalPlanDocuments(p)
	if err != nil {
		return rateplanio.RatePlan{}, err
	}
	var createdAt, updatedAt time.Time
	err = s.db.QueryRowContext(ctx, `
		insert into rate_plans (
			guid, product_guid, name, status, model, extras
		) values (
			$1, $2, $3, $4, $5, $6
		)
		returning created_at, updated_at
	`, p.GUID, p.ProductGUID, p.Name, p.Status, modelJSON, extrasJSON).Scan(&createdAt, &updatedAt)
	if err != nil {
		return rateplanio.RatePlan{}, wrapPqError(err, "create rate plan")
	}
	p.CreatedAt = formatTime(createdAt)
	p.UpdatedAt = formatTime(updatedAt)
	return p, nil
}

func (s *Store) GetRatePlan(ctx context.Context, guid string) (rateplanio.RatePlan, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	return s.getRatePlan(ctx, guid)
}

func (s *Store) getRatePlan(ctx context.Context, guid string) (rateplanio.RatePlan, error) {
	var p rateplanio.RatePlan
	var modelJSON, extrasJSON []byte
	var createdAt, updatedAt time.Time
	err := s.db.QueryRowContext(ctx, `
		select guid, product_guid, name, status, model, extras, created_at, updated_at
		from rate_plans
		where guid = $1
	`, guid).Scan(&p.GUID, &p.ProductGUID, &p.Name, &p.Status, &modelJSON, &extrasJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return rateplanio.RatePlan{}, errors.Wrapf(rateplanio.ErrNotFound, "rate plan %s", guid)
	}
	if err != nil {
		return rateplanio.RatePlan{}, wrapPqError(err, "get rate plan")
	}
	if err := hydrateRatePlan(&p, modelJSON, extrasJSON); err != nil {
		return rateplanio.RatePlan{}, err
	}
	p.CreatedAt = formatTime(createdAt)
	p.UpdatedAt = formatTime(updatedAt)
	return p, nil
}

func (s *Store) ListRatePlans(ctx context.Context, productGUID string) ([]rateplanio.RatePlan, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	query := `
		select guid, product_guid, name, status, model, extras, created_at, updated_at
		from rate_plans
	`
	args := []interface{}{}
	if productGUID != "" {
		query += ` where product_guid = $1`
		args = append(args, productGUID)
	}
	query += ` order by created_at`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapPqError(err, "list rate plans")
	}
	defer rows.Close()
	plans := []rateplanio.RatePlan{}
	for rows.Next() {
		var p rateplanio.RatePlan
		var modelJSON, extrasJSON []byte
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&p.GUID, &p.ProductGUID, &p.Name, &p.Status, &modelJSON, &extrasJSON, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if err := hydrateRatePlan(&p, modelJSON, extrasJSON); err != nil {
			return nil, err
		}
		p.CreatedAt = formatTime(createdAt)
		p.UpdatedAt = formatTime(updatedAt)
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (s *Store) UpdateRatePlanStatus(ctx context.Context, guid string, status rateplanio.RatePlanStatus) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultStoreTimeout)
	defer cancel()
	result, err := s.db.ExecContext(ctx, `
		update rate_plans
		set status = $2, updated_at = now()
		where guid = $1
	`, guid, status)
	if err != nil {
		return wrapPqError(err, "update rate plan status")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.Wrapf(rateplanio.ErrNotFound, "rate plan %s", guid)
	}
	return nil
}

// AttachPricingModel replaces the plan's pricing model document. The
// model must already be validated by the caller.
func (s *Store) AttachPricingModel(ctx context.Context, guid string, model pricing.Model) (rateplanio.RatePlan, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultStoreTimeout)
	defer cancel()
	modelJSON, err := json.Marshal(model)
	if err != nil {
		return rateplanio.RatePlan{}, err
	}
	result, err := s.db.ExecContext(ctx, `
		update rate_plans
		set model = $2, updated_at = now()
		where guid = $1
	`, guid, modelJSON)
	if err != nil {
		return rateplanio.RatePlan{}, wrapPqError(err, "attach pricing model")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return rateplanio.RatePlan{}, err
	}
	if affected == 0 {
		return rateplanio.RatePlan{}, errors.Wrapf(rateplanio.ErrNotFound, "rate plan %s", guid)
	}
	return s.getRatePlan(ctx, guid)
}

// AttachExtras replaces the plan's extras document.
func (s *Store) AttachExtras(ctx context.Context, guid string, extras pricing.Extras) (rateplanio.RatePlan, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultStoreTimeout)
	defer cancel()
	extrasJSON, err := json.Marshal(extras)
	if err != nil {
		return rateplanio.RatePlan{}, err
	}
	result, err := s.db.ExecContext(ctx, `
		update rate_plans
		set extras = $2, updated_at = now()
		where guid = $1
	`, guid, extrasJSON)
	if err != nil {
		return rateplanio.RatePlan{}, wrapPqError(err, "attach extras")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return rateplanio.RatePlan{}, err
	}
	if affected == 0 {
		return rateplanio.RatePlan{}, errors.Wrapf(rateplanio.ErrNotFound, "rate plan %s", guid)
	}
	return s.getRatePlan(ctx, guid)
}

func (s *Store) DeleteRatePlan(ctx context.Context, guid string) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultStoreTimeout)
	defer cancel()
	result, err := s.db.ExecContext(ctx, `
		delete from rate_plans
		where guid = $1
	`, guid)
	if err != nil {
		return wrapPqError(err, "delete rate plan")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.Wrapf(rateplanio.ErrNotFound, "rate plan %s", guid)
	}
	return nil
}

func marshalPlanDocuments(p rateplanio.RatePlan) ([]byte, []byte, error) {
	modelJSON, err := json.Marshal(p.Model)
	if err != nil {
		return nil, nil, err
	}
	extrasJSON, err := json.Marshal(p.Extras)
	if err != nil {
		return nil, nil, err
	}
	return modelJSON, extrasJSON, nil
}

// hydrateRatePlan decodes the stored model and extras documents into
// the plan. All read paths go through here so drafts and saved plans
// hydrate identically.
func hydrateRatePlan(p *rateplanio.RatePlan, modelJSON, extrasJSON []byte) error {
	if len(modelJSON) > 0 {
		if err := json.Unmarshal(modelJSON, &p.Model); err != nil {
			return errors.Wrap(err, "corrupt pricing model document")
		}
	}
	if len(extrasJSON) > 0 {
		if err := json.Unmarshal(extrasJSON, &p.Extras); err != nil {
			return errors.Wrap(err, "corrupt extras document")
		}
	}
	return nil
}
