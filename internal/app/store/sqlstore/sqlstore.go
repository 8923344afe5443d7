// internal/app/store/sqlstore/sqlstore.go

// Package sqlstore is the PostgreSQL backend, built on bun. It implements
// the same repositories as the MongoDB stores, with row locks in place of
// document transactions.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/mwanacheck/internal/app/system/apperr"
	"github.com/dalemusser/mwanacheck/internal/app/system/txn"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
)

// Pool defaults.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 10
	DefaultConnMaxLifetime = 5 * time.Minute
	DefaultConnMaxIdleTime = time.Minute
)

// Tables in creation order.
var tableModels = []any{
	(*schoolRow)(nil),
	(*userRow)(nil),
	(*studentRow)(nil),
	(*offenceRow)(nil),
	(*disciplineRecordRow)(nil),
	(*meritRow)(nil),
	(*paymentRow)(nil),
	(*auditRow)(nil),
}

// Tables lists the table names, for truncating between tests.
var Tables = []string{"schools", "users", "students", "offences", "discipline_records", "merits", "payments", "audit_events"}

type Store struct {
	db *bun.DB
}

func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn and sizes the pool.
func Open(ctx context.Context, dsn string, maxOpen int, logger *zap.Logger) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenConns
	}
	sqldb.SetMaxOpenConns(maxOpen)
	sqldb.SetMaxIdleConns(min(DefaultMaxIdleConns, maxOpen))
	sqldb.SetConnMaxLifetime(DefaultConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(DefaultConnMaxIdleTime)

	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL", zap.Int("max_open_conns", maxOpen))
	return db, nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates missing tables and indexes. It is idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, m := range tableModels {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}

	idx := []struct {
		model   any
		name    string
		columns []string
		unique  bool
	}{
		{(*userRow)(nil), "idx_users_school_nameci_id", []string{"school_id", "name_ci", "id"}, false},
		{(*studentRow)(nil), "idx_students_school_nameci_id", []string{"school_id", "name_ci", "id"}, false},
		{(*offenceRow)(nil), "uniq_offences_school_nameci", []string{"school_id", "name_ci"}, true},
		{(*disciplineRecordRow)(nil), "idx_dr_student_createdat_id", []string{"student_id", "created_at DESC", "id DESC"}, false},
		{(*disciplineRecordRow)(nil), "idx_dr_school", []string{"school_id"}, false},
		{(*meritRow)(nil), "idx_merits_student_createdat_id", []string{"student_id", "created_at DESC", "id DESC"}, false},
		{(*meritRow)(nil), "idx_merits_school", []string{"school_id"}, false},
		{(*paymentRow)(nil), "idx_payments_student_createdat_id", []string{"student_id", "created_at DESC", "id DESC"}, false},
		{(*auditRow)(nil), "idx_audit_school_timestamp", []string{"school_id", `"timestamp" DESC`}, false},
	}
	for _, ix := range idx {
		q := s.db.NewCreateIndex().Model(ix.model).Index(ix.name).IfNotExists()
		if ix.unique {
			q = q.Unique()
		}
		for _, c := range ix.columns {
			q = q.ColumnExpr(c)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", ix.name, err)
		}
	}
	return nil
}

// SQLSTATE codes the store reacts to.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func sqlState(err error) string {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C')
	}
	return ""
}

// mapErr translates driver errors into apperr kinds. what names the row for
// not-found and duplicate messages.
func mapErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound(what)
	}
	switch sqlState(err) {
	case codeUniqueViolation:
		return apperr.Conflict(what+" already exists", err)
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %w", txn.ErrConflict, err)
	}
	return err
}
