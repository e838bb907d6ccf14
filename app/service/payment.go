package service

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-bankpay/app/entity"
	"github.com/vibast-solutions/ms-go-bankpay/app/gateway"
	"github.com/vibast-solutions/ms-go-bankpay/app/store"
)

// PaymentService drives the payment lifecycle: request, verify after the
// bank's callback, and refund. It resolves the adapter for each invoice,
// enforces lifecycle ordering through the transaction store, and owns no
// mutable state of its own beyond the per-tracking-number locks.
type PaymentService struct {
	txnStore store.TransactionStore
	gateways *gateway.Registry
	locks    *trackingLocks
}

func NewPaymentService(txnStore store.TransactionStore, gateways *gateway.Registry) *PaymentService {
	return &PaymentService{
		txnStore: txnStore,
		gateways: gateways,
		locks:    newTrackingLocks(),
	}
}

// Request initiates a payment at the invoice's gateway and returns the
// transporter describing how to hand the browser to the bank. Transport
// and configuration failures leave no transaction record; everything the
// gateway actually answered is appended, success or not.
func (s *PaymentService) Request(ctx context.Context, invoice *entity.Invoice) (*gateway.PaymentRequestResult, error) {
	unlock := s.locks.lock(invoice.TrackingNumber)
	defer unlock()

	exists, err := s.txnStore.HasRequest(ctx, invoice.TrackingNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateTrackingNumber
	}

	gw, err := s.gateways.Get(invoice.GatewayName)
	if err != nil {
		if errors.Is(err, gateway.ErrGatewayNotSupported) {
			return nil, ErrGatewayUnsupported
		}
		return nil, err
	}

	result, err := gw.Request(ctx, invoice)
	if err != nil {
		return nil, err
	}

	txn := &entity.Transaction{
		TrackingNumber:  invoice.TrackingNumber,
		Kind:            entity.TransactionRequest,
		Succeeded:       result.Succeeded,
		TransactionCode: result.ReferenceID,
		Message:         result.Message,
		Amount:          invoice.Amount,
		GatewayName:     gw.Name(),
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.txnStore.Append(ctx, txn); err != nil {
		if errors.Is(err, store.ErrDuplicateRequest) {
			return nil, ErrDuplicateTrackingNumber
		}
		return nil, err
	}

	return result, nil
}

// Verify confirms a payment after the bank redirected the user back.
// Once a verify has succeeded for a tracking number, subsequent calls
// return that stored outcome without touching the gateway again, so
// duplicate callback delivery cannot settle twice.
func (s *PaymentService) Verify(ctx context.Context, trackingNumber int64, params gateway.CallbackParams) (*gateway.PaymentVerifyResult, error) {
	unlock := s.locks.lock(trackingNumber)
	defer unlock()

	request, err := s.txnStore.FindRequest(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrPaymentNotFound
	}

	latest, err := s.txnStore.LatestVerify(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.Succeeded {
		return &gateway.PaymentVerifyResult{
			Succeeded:       true,
			TransactionCode: latest.TransactionCode,
			Message:         latest.Message,
		}, nil
	}

	gw, err := s.gateways.Get(request.GatewayName)
	if err != nil {
		if errors.Is(err, gateway.ErrGatewayNotSupported) {
			return nil, ErrGatewayUnsupported
		}
		return nil, err
	}

	callback := gw.ParseCallback(params)

	var result *gateway.PaymentVerifyResult
	if !callback.Succeeded {
		result = &gateway.PaymentVerifyResult{
			TransactionCode: callback.TransactionCode,
			Message:         callback.Message,
		}
	} else {
		result, err = gw.Verify(ctx, &gateway.VerifyContext{
			TrackingNumber: trackingNumber,
			Callback:       callback,
		})
		if err != nil {
			return nil, err
		}
	}

	txn := &entity.Transaction{
		TrackingNumber:  trackingNumber,
		Kind:            entity.TransactionVerify,
		Succeeded:       result.Succeeded,
		TransactionCode: result.TransactionCode,
		Message:         result.Message,
		Amount:          request.Amount,
		GatewayName:     request.GatewayName,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.txnStore.Append(ctx, txn); err != nil {
		return nil, err
	}

	return result, nil
}

// Refund reverses a settled payment, fully when the refund invoice
// carries no amount. It refuses to run without a successful verify on
// record because the reversal call targets the settlement code captured
// at verify time.
func (s *PaymentService) Refund(ctx context.Context, invoice *entity.RefundInvoice) (*gateway.PaymentRefundResult, error) {
	unlock := s.locks.lock(invoice.TrackingNumber)
	defer unlock()

	request, err := s.txnStore.FindRequest(ctx, invoice.TrackingNumber)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrPaymentNotFound
	}

	verify, err := s.txnStore.LatestVerify(ctx, invoice.TrackingNumber)
	if err != nil {
		return nil, err
	}
	if verify == nil || !verify.Succeeded {
		return nil, ErrRefundNotVerified
	}

	amount := invoice.Amount
	if amount == 0 {
		amount = request.Amount
	}
	if amount > request.Amount {
		return nil, ErrRefundAmountExceeded
	}

	gw, err := s.gateways.Get(request.GatewayName)
	if err != nil {
		if errors.Is(err, gateway.ErrGatewayNotSupported) {
			return nil, ErrGatewayUnsupported
		}
		return nil, err
	}

	result, err := gw.Refund(ctx, &gateway.RefundContext{
		TrackingNumber:  invoice.TrackingNumber,
		TransactionCode: verify.TransactionCode,
		Amount:          amount,
	})
	if err != nil {
		return nil, err
	}

	txn := &entity.Transaction{
		TrackingNumber:  invoice.TrackingNumber,
		Kind:            entity.TransactionRefund,
		Succeeded:       result.Succeeded,
		TransactionCode: verify.TransactionCode,
		Message:         result.Message,
		Amount:          amount,
		GatewayName:     request.GatewayName,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.txnStore.Append(ctx, txn); err != nil {
		return nil, err
	}

	return result, nil
}
