package entity

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Invoice describes one payment to be requested from a gateway. Amounts
// are whole minor currency units. Instances are produced by
// InvoiceBuilder so an Invoice with missing or invalid required fields
// cannot exist.
type Invoice struct {
	TrackingNumber int64
	Amount         int64
	CallbackURL    string
	GatewayName    string

	AdditionalData map[string]string
	SplitAccounts  []SplitAccount
}

// SplitAccount routes a share of a cumulative payment to one gateway
// sub-account.
type SplitAccount struct {
	SubServiceID int64
	Amount       int64
	PayerID      int64
}

// RefundInvoice asks for a reversal of a previously settled payment.
// Amount zero means the full original amount.
type RefundInvoice struct {
	TrackingNumber int64
	Amount         int64
}

func NewRefundInvoice(trackingNumber, amount int64) (*RefundInvoice, error) {
	if trackingNumber <= 0 {
		return nil, errors.New("tracking number must be positive")
	}
	if amount < 0 {
		return nil, errors.New("refund amount cannot be negative")
	}
	return &RefundInvoice{TrackingNumber: trackingNumber, Amount: amount}, nil
}

type InvoiceBuilder struct {
	invoice Invoice
}

func NewInvoiceBuilder() *InvoiceBuilder {
	return &InvoiceBuilder{
		invoice: Invoice{AdditionalData: map[string]string{}},
	}
}

// SetTrackingNumber assigns the caller-chosen identifier for this payment.
// It must be unique across the lifetime of unresolved invoices.
func (b *InvoiceBuilder) SetTrackingNumber(trackingNumber int64) *InvoiceBuilder {
	b.invoice.TrackingNumber = trackingNumber
	return b
}

// SetAmount sets the payment amount. Fractional minor units are
// truncated, not rounded, to match the gateway wire contract.
func (b *InvoiceBuilder) SetAmount(amount float64) *InvoiceBuilder {
	b.invoice.Amount = int64(amount)
	return b
}

func (b *InvoiceBuilder) SetCallbackURL(callbackURL string) *InvoiceBuilder {
	b.invoice.CallbackURL = strings.TrimSpace(callbackURL)
	return b
}

func (b *InvoiceBuilder) SetGateway(name string) *InvoiceBuilder {
	b.invoice.GatewayName = strings.ToLower(strings.TrimSpace(name))
	return b
}

func (b *InvoiceBuilder) AddData(key, value string) *InvoiceBuilder {
	b.invoice.AdditionalData[key] = value
	return b
}

func (b *InvoiceBuilder) AddSplitAccount(account SplitAccount) *InvoiceBuilder {
	b.invoice.SplitAccounts = append(b.invoice.SplitAccounts, account)
	return b
}

// Build validates the accumulated fields and returns the immutable
// invoice value.
func (b *InvoiceBuilder) Build() (*Invoice, error) {
	if b.invoice.TrackingNumber <= 0 {
		return nil, errors.New("tracking number must be positive")
	}
	if b.invoice.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if b.invoice.CallbackURL == "" {
		return nil, errors.New("callback URL is required")
	}
	parsed, err := url.Parse(b.invoice.CallbackURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return nil, fmt.Errorf("callback URL %q is not an absolute URL", b.invoice.CallbackURL)
	}
	if b.invoice.GatewayName == "" {
		return nil, errors.New("gateway is required")
	}
	for _, account := range b.invoice.SplitAccounts {
		if account.Amount <= 0 {
			return nil, errors.New("split account amount must be positive")
		}
	}

	invoice := b.invoice
	invoice.AdditionalData = make(map[string]string, len(b.invoice.AdditionalData))
	for k, v := range b.invoice.AdditionalData {
		invoice.AdditionalData[k] = v
	}
	invoice.SplitAccounts = append([]SplitAccount(nil), b.invoice.SplitAccounts...)

	return &invoice, nil
}
