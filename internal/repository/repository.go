// Copyright 2026 The authd authors
// Licensed under the EUPL-1.2

// Package repository holds all SQL access for users, refresh tokens,
// one-time tokens and provider connections. Every mutating use case runs
// through InTx so token rotation and its side effects commit atomically.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vinovest/sqlx"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// querier is satisfied by both *sqlx.DB and *sqlx.Tx so the same repository
// methods work inside and outside a transaction.
type querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Repository wraps sqlx for database operations.
type Repository struct {
	db   querier
	base *sqlx.DB
}

// New creates a new Repository instance.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db, base: db}
}

// InTx runs fn inside a single immediate transaction. The repository passed
// to fn is bound to that transaction; a nested call reuses the outer one.
func (r *Repository) InTx(ctx context.Context, fn func(*Repository) error) error {
	if r.base == nil {
		return fn(r)
	}

	tx, err := r.base.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&Repository{db: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// wrapError converts database/sql errors to repository errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
