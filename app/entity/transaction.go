package entity

import "time"

type TransactionKind int32

const (
	TransactionRequest TransactionKind = 1
	TransactionVerify  TransactionKind = 2
	TransactionRefund  TransactionKind = 3
)

func (k TransactionKind) String() string {
	switch k {
	case TransactionRequest:
		return "request"
	case TransactionVerify:
		return "verify"
	case TransactionRefund:
		return "refund"
	default:
		return "unknown"
	}
}

// Transaction is one lifecycle event for a tracking number. Records are
// append-only and never mutated after write.
type Transaction struct {
	ID uint64

	TrackingNumber int64
	Kind           TransactionKind
	Succeeded      bool

	// TransactionCode is the gateway reference for the event: the
	// reference id at request time, the settlement code at verify and
	// refund time.
	TransactionCode string
	Message         string

	Amount      int64
	GatewayName string

	CreatedAt time.Time
}
