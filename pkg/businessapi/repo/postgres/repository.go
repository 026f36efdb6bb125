// Package postgres provides a businessapi.Repository backed by PostgreSQL.
// Business and event documents are stored schema-less as JSONB rows:
//
//	CREATE TABLE businesses (
//	    id    uuid PRIMARY KEY DEFAULT gen_random_uuid(),
//	    attrs jsonb NOT NULL DEFAULT '{}'::jsonb
//	);
//	CREATE TABLE events (
//	    id    uuid PRIMARY KEY DEFAULT gen_random_uuid(),
//	    attrs jsonb NOT NULL DEFAULT '{}'::jsonb
//	);
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/discover-business/business-api/pkg/businessapi"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements businessapi.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func (r *Repository) handleError(op, id string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		err = fmt.Errorf("table does not exist - database migration required: %w", err)
	}
	return &businessapi.RepositoryError{Op: op, ID: id, Err: err}
}

func (r *Repository) CreateBusiness(ctx context.Context, fields businessapi.Fields) (*businessapi.Business, error) {
	attrs, err := json.Marshal(fields)
	if err != nil {
		return nil, r.handleError("create", "", err)
	}

	var id string
	err = r.db.QueryRow(ctx,
		`INSERT INTO businesses (attrs) VALUES ($1::jsonb) RETURNING id::text`,
		string(attrs)).Scan(&id)
	if err != nil {
		return nil, r.handleError("create", "", err)
	}

	return &businessapi.Business{ID: id, Fields: fields.Clone()}, nil
}

func (r *Repository) ListBusinesses(ctx context.Context) ([]*businessapi.Business, error) {
	rows, err := r.db.Query(ctx, `SELECT id::text, attrs FROM businesses`)
	if err != nil {
		return nil, r.handleError("list", "", err)
	}
	defer rows.Close()

	var result []*businessapi.Business
	for rows.Next() {
		var id string
		var attrs []byte
		if err := rows.Scan(&id, &attrs); err != nil {
			return nil, r.handleError("list", "", err)
		}
		fields, err := decodeAttrs(attrs)
		if err != nil {
			return nil, r.handleError("list", id, err)
		}
		result = append(result, &businessapi.Business{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, r.handleError("list", "", err)
	}
	return result, nil
}

func (r *Repository) GetBusiness(ctx context.Context, id string) (*businessapi.Business, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, businessapi.ErrBusinessNotFound
	}

	var attrs []byte
	err := r.db.QueryRow(ctx,
		`SELECT attrs FROM businesses WHERE id = $1::uuid`, id).Scan(&attrs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, businessapi.ErrBusinessNotFound
	}
	if err != nil {
		return nil, r.handleError("get", id, err)
	}

	fields, err := decodeAttrs(attrs)
	if err != nil {
		return nil, r.handleError("get", id, err)
	}
	return &businessapi.Business{ID: id, Fields: fields}, nil
}

// UpdateBusiness merges the supplied fields into the stored document using a
// JSONB concatenation, which keys the existence check and the write to the
// same statement.
func (r *Repository) UpdateBusiness(ctx context.Context, id string, fields businessapi.Fields) (*businessapi.Business, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, businessapi.ErrBusinessNotFound
	}

	patch, err := json.Marshal(fields)
	if err != nil {
		return nil, r.handleError("update", id, err)
	}

	var attrs []byte
	err = r.db.QueryRow(ctx,
		`UPDATE businesses SET attrs = attrs || $2::jsonb WHERE id = $1::uuid RETURNING attrs`,
		id, string(patch)).Scan(&attrs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, businessapi.ErrBusinessNotFound
	}
	if err != nil {
		return nil, r.handleError("update", id, err)
	}

	merged, err := decodeAttrs(attrs)
	if err != nil {
		return nil, r.handleError("update", id, err)
	}
	return &businessapi.Business{ID: id, Fields: merged}, nil
}

func (r *Repository) DeleteBusiness(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return businessapi.ErrBusinessNotFound
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM businesses WHERE id = $1::uuid`, id)
	if err != nil {
		return r.handleError("delete", id, err)
	}
	if tag.RowsAffected() == 0 {
		return businessapi.ErrBusinessNotFound
	}
	return nil
}

func (r *Repository) ListEvents(ctx context.Context) ([]*businessapi.Event, error) {
	rows, err := r.db.Query(ctx, `SELECT id::text, attrs FROM events`)
	if err != nil {
		return nil, r.handleError("list events", "", err)
	}
	defer rows.Close()

	var result []*businessapi.Event
	for rows.Next() {
		var id string
		var attrs []byte
		if err := rows.Scan(&id, &attrs); err != nil {
			return nil, r.handleError("list events", "", err)
		}
		fields, err := decodeAttrs(attrs)
		if err != nil {
			return nil, r.handleError("list events", id, err)
		}
		result = append(result, &businessapi.Event{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, r.handleError("list events", "", err)
	}
	return result, nil
}

func decodeAttrs(attrs []byte) (businessapi.Fields, error) {
	fields := make(businessapi.Fields)
	if len(attrs) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(attrs, &fields); err != nil {
		return nil, fmt.Errorf("decode attrs: %w", err)
	}
	return fields, nil
}
