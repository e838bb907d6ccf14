package gateway

import (
	"context"

	"github.com/vibast-solutions/ms-go-bankpay/app/entity"
)

// CallbackParams reads an inbound callback parameter by the name the
// gateway defined for it. The HTTP layer supplies the accessor; ok
// reports whether the parameter was present at all.
type CallbackParams func(name string) (value string, ok bool)

// VerifyContext carries everything an adapter needs to confirm a payment
// with its gateway after the bank redirected the user back.
type VerifyContext struct {
	TrackingNumber int64
	Callback       *CallbackResult
}

// RefundContext targets a specific settled transaction instance, not
// merely a tracking number: TransactionCode is the settlement code
// captured at verify time.
type RefundContext struct {
	TrackingNumber  int64
	TransactionCode string
	Amount          int64
}

// Gateway is the contract every provider adapter satisfies. Business
// failures are returned as populated failure results; Go errors are
// reserved for transport problems and fatal configuration mistakes, which
// are raised before any transaction record is written.
type Gateway interface {
	Name() string
	Request(ctx context.Context, invoice *entity.Invoice) (*PaymentRequestResult, error)
	ParseCallback(params CallbackParams) *CallbackResult
	Verify(ctx context.Context, vctx *VerifyContext) (*PaymentVerifyResult, error)
	Refund(ctx context.Context, rctx *RefundContext) (*PaymentRefundResult, error)
}
