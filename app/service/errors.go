package service

import "errors"

var (
	ErrDuplicateTrackingNumber = errors.New("a payment with this tracking number has already been requested")
	ErrPaymentNotFound         = errors.New("no payment request found for this tracking number")
	ErrGatewayUnsupported      = errors.New("gateway is not supported")
	ErrRefundNotVerified       = errors.New("refund requires a successful verification on record")
	ErrRefundAmountExceeded    = errors.New("refund amount exceeds the original payment amount")
)
