package store

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-bankpay/app/entity"
)

var ErrDuplicateRequest = errors.New("a request transaction already exists for this tracking number")

// TransactionStore is the append-only record of lifecycle events per
// tracking number and the authority for idempotency checks. Append must
// reject a second request-kind transaction for the same tracking number
// with ErrDuplicateRequest, atomically, so that concurrent duplicate
// requests store exactly one record.
type TransactionStore interface {
	HasRequest(ctx context.Context, trackingNumber int64) (bool, error)
	Append(ctx context.Context, txn *entity.Transaction) error
	FindRequest(ctx context.Context, trackingNumber int64) (*entity.Transaction, error)
	LatestVerify(ctx context.Context, trackingNumber int64) (*entity.Transaction, error)
	LatestRefund(ctx context.Context, trackingNumber int64) (*entity.Transaction, error)
}
