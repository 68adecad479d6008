package repository

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
)

// storeTables shared base for the per-entity record managers. Managers
// are stateless and constructed per request with the numeric store id;
// the only per-store state is the table name, which is pure string
// formatting.
type storeTables struct {
	db      *sql.DB
	storeID int64
	logger  *zap.Logger
}

// query runs a SELECT, lazily provisioning the store's tables and
// retrying once when they are absent (self-heal).
func (s *storeTables) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if isUndefinedTable(err) {
		if perr := Provision(ctx, s.db, s.storeID); perr != nil {
			return nil, perr
		}
		s.logger.Info("provisioned missing store tables", zap.Int64("store_id", s.storeID))
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	return rows, err
}

// exec runs an INSERT/UPDATE/DELETE with the same self-heal behavior.
func (s *storeTables) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if isUndefinedTable(err) {
		if perr := Provision(ctx, s.db, s.storeID); perr != nil {
			return nil, perr
		}
		s.logger.Info("provisioned missing store tables", zap.Int64("store_id", s.storeID))
		res, err = s.db.ExecContext(ctx, query, args...)
	}
	return res, err
}

// queryRowScan runs a single-value query (EXISTS, INSERT RETURNING) with
// self-heal, scanning into dest.
func (s *storeTables) queryRowScan(ctx context.Context, query string, args []any, dest ...any) error {
	err := s.db.QueryRowContext(ctx, query, args...).Scan(dest...)
	if isUndefinedTable(err) {
		if perr := Provision(ctx, s.db, s.storeID); perr != nil {
			return perr
		}
		s.logger.Info("provisioned missing store tables", zap.Int64("store_id", s.storeID))
		err = s.db.QueryRowContext(ctx, query, args...).Scan(dest...)
	}
	return err
}
