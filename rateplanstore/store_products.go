package rateplanstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/metermill/rateplan-console/rateplanio"
)

func (s *Store) CreateProduct(ctx context.Context, p rateplanio.Product) (rateplanio.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultStoreTimeout)
	defer cancel()
	if p.GUID == "" {
		p.GUID = newGUID()
	}
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, `
		insert into products (
			guid, name, description
		) values (
			$1, $2, $3
		)
		returning created_at
	`, p.GUID, p.Name, p.Description).Scan(&createdAt)
	if err != nil {
		return rateplanio.Product{}, wrapPqError(err, "create product")
	}
	p.CreatedAt = formatTime(createdAt)
	return p, nil
}

func (s *Store) GetProduct(ctx context.Context, guid string) (rateplanio.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	var p rateplanio.Product
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, `
		select guid, name, description, created_at
		from products
		where guid = $1
	`, guid).Scan(&p.GUID, &p.Name, &p.Description, &createdAt)
	if err == sql.ErrNoRows {
		return rateplanio.Product{}, errors.Wrapf(rateplanio.ErrNotFound, "product %s", guid)
	}
	if err != nil {
		return rateplanio.Product{}, wrapPqError(err, "get product")
	}
	p.CreatedAt = formatTime(createdAt)
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]rateplanio.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
		select guid, name, description, created_at
		from products
		order by created_at
	`)
	if err != nil {
		return nil, wrapPqError(err, "list products")
	}
	defer rows.Close()
	products := []rateplanio.Product{}
	for rows.Next() {
		var p rateplanio.Product
		var createdAt time.Time
		if err := rows.Scan(&p.GUID, &p.Name, &p.Description, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = formatTime(createdAt)
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) UpdateProduct(ctx context.Context, p rateplanio.Product) (rateplanio.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultStoreTimeout)
	defer cancel()
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, `
		update products
		set name = $2, description = $3
		where guid = $1
		returning created_at
	`, p.GUID, p.Name, p.Description).Scan(&createdAt)
	if err == sql.ErrNoRows {
		return rateplanio.Product{}, errors.Wrapf(rateplanio.ErrNotFound, "product %s", p.GUID)
	}
	if err != nil {
		return rateplanio.Product{}, wrapPqError(err, "update product")
	}
	p.CreatedAt = formatTime(createdAt)
	return p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, guid string) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultStoreTimeout)
	defer cancel()
	result, err := s.db.ExecContext(ctx, `
		delete from products
		where guid = $1
	`, guid)
	if err != nil {
		return wrapPqError(err, "delete product")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.Wrapf(rateplanio.ErrNotFound, "product %s", guid)
	}
	return nil
}
