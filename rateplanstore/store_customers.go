package rateplanstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/metermill/rateplan-console/rateplanio"
)

func (s *Store) CreateCustomer(ctx context.Context, c rateplanio.Customer) (rateplanio.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultStoreTimeout)
	defer cancel()
	if c.GUID == "" {
		c.GUID = newGUID()
	}
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, `
		insert into customers (
			guid, name, email
		) values (
			$1, $2, $3
		)
		returning created_at
	`, c.GUID, c.Name, c.Email).Scan(&createdAt)
	if err != nil {
		return rateplanio.Customer{}, wrapPqError(err, "create customer")
	}
	c.CreatedAt = formatTime(createdAt)
	return c, nil
}

func (s *Store) GetCustomer(ctx context.Context, guid string) (rateplanio.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	var c rateplanio.Customer
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, `
		select guid, name, email, created_at
		from customers
		where guid = $1
	`, guid).Scan(&c.GUID, &c.Name, &c.Email, &createdAt)
	if err == sql.ErrNoRows {
		return rateplanio.Customer{}, errors.Wrapf(rateplanio.ErrNotFound, "customer %s", guid)
	}
	if err != nil {
		return rateplanio.Customer{}, wrapPqError(err, "get customer")
	}
	c.CreatedAt = formatTime(createdAt)
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]rateplanio.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
		select guid, name, email, created_at
		from customers
		order by created_at
	`)
	if err != nil {
		return nil, wrapPqError(err, "list customers")
	}
	defer rows.Close()
	customers := []rateplanio.Customer{}
	for rows.Next() {
		var c rateplanio.Customer
		var createdAt time.Time
		if err := rows.Scan(&c.GUID, &c.Name, &c.Email, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = formatTime(createdAt)
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) UpdateCustomer(ctx context.Context, c rateplanio.Customer) (rateplanio.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultStoreTimeout)
	defer cancel()
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, `
		update customers
		set name = $2, email = $3
		where guid = $1
		returning created_at
	`, c.GUID, c.Name, c.Email).Scan(&createdAt)
	if err == sql.ErrNoRows {
		return rateplanio.Customer{}, errors.Wrapf(rateplanio.ErrNotFound, "customer %s", c.GUID)
	}
	if err != nil {
		return rateplanio.Customer{}, wrapPqError(err, "update customer")
	}
	c.CreatedAt = formatTime(createdAt)
	return c, nil
}
