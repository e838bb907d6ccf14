package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"

	"github.com/vibast-solutions/ms-go-bankpay/app/entity"
)

// Schema is the DDL for the transactions table, applied out of band.
// The request_guard generated column carries the tracking number only
// for request-kind rows, so its unique index enforces at-most-one
// request per tracking number while verify and refund rows (guard NULL)
// can repeat.
const Schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	tracking_number BIGINT NOT NULL,
	kind TINYINT NOT NULL,
	succeeded TINYINT(1) NOT NULL,
	transaction_code VARCHAR(64) NOT NULL DEFAULT '',
	message VARCHAR(1024) NOT NULL DEFAULT '',
	amount BIGINT NOT NULL DEFAULT 0,
	gateway_name VARCHAR(64) NOT NULL,
	created_at DATETIME(6) NOT NULL,
	request_guard BIGINT AS (CASE WHEN kind = 1 THEN tracking_number ELSE NULL END) STORED,
	UNIQUE KEY uq_transactions_request_guard (request_guard),
	KEY idx_transactions_tracking_kind (tracking_number, kind, id)
)
`

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type MySQLStore struct {
	db DBTX
}

func NewMySQLStore(db DBTX) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) HasRequest(ctx context.Context, trackingNumber int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions WHERE tracking_number = ? AND kind = ?
		)
	`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, trackingNumber, entity.TransactionRequest).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *MySQLStore) Append(ctx context.Context, txn *entity.Transaction) error {
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO transactions (
			tracking_number, kind, succeeded, transaction_code, message,
			amount, gateway_name, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		txn.TrackingNumber,
		txn.Kind,
		txn.Succeeded,
		txn.TransactionCode,
		txn.Message,
		txn.Amount,
		txn.GatewayName,
		txn.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateRequest
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	txn.ID = uint64(id)
	return nil
}

func (s *MySQLStore) FindRequest(ctx context.Context, trackingNumber int64) (*entity.Transaction, error) {
	return s.queryOne(ctx, trackingNumber, entity.TransactionRequest, "ASC")
}

func (s *MySQLStore) LatestVerify(ctx context.Context, trackingNumber int64) (*entity.Transaction, error) {
	return s.queryOne(ctx, trackingNumber, entity.TransactionVerify, "DESC")
}

func (s *MySQLStore) LatestRefund(ctx context.Context, trackingNumber int64) (*entity.Transaction, error) {
	return s.queryOne(ctx, trackingNumber, entity.TransactionRefund, "DESC")
}

func (s *MySQLStore) queryOne(ctx context.Context, trackingNumber int64, kind entity.TransactionKind, order string) (*entity.Transaction, error) {
	query := `
		SELECT id, tracking_number, kind, succeeded, transaction_code, message,
			amount, gateway_name, created_at
		FROM transactions
		WHERE tracking_number = ? AND kind = ?
		ORDER BY id ` + order + `
		LIMIT 1
	`

	txn := &entity.Transaction{}
	err := s.db.QueryRowContext(ctx, query, trackingNumber, kind).Scan(
		&txn.ID,
		&txn.TrackingNumber,
		&txn.Kind,
		&txn.Succeeded,
		&txn.TransactionCode,
		&txn.Message,
		&txn.Amount,
		&txn.GatewayName,
		&txn.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func isDuplicateEntryError(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
