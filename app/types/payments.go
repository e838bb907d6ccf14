package types

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

type CreatePaymentRequest struct {
	TrackingNumber int64                 `json:"tracking_number"`
	Amount         float64               `json:"amount"`
	CallbackUrl    string                `json:"callback_url"`
	Gateway        string                `json:"gateway"`
	AdditionalData map[string]string     `json:"additional_data,omitempty"`
	SplitAccounts  []SplitAccountRequest `json:"split_accounts,omitempty"`
}

type SplitAccountRequest struct {
	SubServiceId int64 `json:"sub_service_id"`
	Amount       int64 `json:"amount"`
	PayerId      int64 `json:"payer_id,omitempty"`
}

type RefundPaymentRequest struct {
	TrackingNumber int64   `json:"-"`
	Amount         float64 `json:"amount"`
}

type VerifyPaymentRequest struct {
	TrackingNumber int64
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type TransporterResponse struct {
	Method string            `json:"method"`
	Url    string            `json:"url"`
	Fields map[string]string `json:"fields,omitempty"`
}

type PaymentRequestResponse struct {
	Succeeded      bool                 `json:"succeeded"`
	TrackingNumber int64                `json:"tracking_number"`
	ReferenceId    string               `json:"reference_id,omitempty"`
	Message        string               `json:"message,omitempty"`
	Transporter    *TransporterResponse `json:"transporter,omitempty"`
}

type PaymentVerifyResponse struct {
	Succeeded       bool   `json:"succeeded"`
	TrackingNumber  int64  `json:"tracking_number"`
	TransactionCode string `json:"transaction_code,omitempty"`
	Message         string `json:"message,omitempty"`
}

type PaymentRefundResponse struct {
	Succeeded      bool   `json:"succeeded"`
	TrackingNumber int64  `json:"tracking_number"`
	Message        string `json:"message,omitempty"`
}

func NewCreatePaymentRequestFromContext(ctx echo.Context) (*CreatePaymentRequest, error) {
	var body CreatePaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.CallbackUrl = strings.TrimSpace(body.CallbackUrl)
	body.Gateway = strings.ToLower(strings.TrimSpace(body.Gateway))

	return &body, nil
}

func (r *CreatePaymentRequest) Validate() error {
	if r.TrackingNumber <= 0 {
		return errors.New("tracking_number must be > 0")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be > 0")
	}
	if r.CallbackUrl == "" {
		return errors.New("callback_url is required")
	}
	if r.Gateway == "" {
		return errors.New("gateway is required")
	}
	for _, account := range r.SplitAccounts {
		if account.SubServiceId <= 0 {
			return errors.New("split account sub_service_id must be > 0")
		}
		if account.Amount <= 0 {
			return errors.New("split account amount must be > 0")
		}
	}
	return nil
}

func NewVerifyPaymentRequestFromContext(ctx echo.Context) (*VerifyPaymentRequest, error) {
	trackingNumber, err := strconv.ParseInt(ctx.Param("trackingNumber"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &VerifyPaymentRequest{TrackingNumber: trackingNumber}, nil
}

func (r *VerifyPaymentRequest) Validate() error {
	if r.TrackingNumber <= 0 {
		return errors.New("invalid tracking number")
	}
	return nil
}

func NewRefundPaymentRequestFromContext(ctx echo.Context) (*RefundPaymentRequest, error) {
	trackingNumber, err := strconv.ParseInt(ctx.Param("trackingNumber"), 10, 64)
	if err != nil {
		return nil, err
	}

	var body RefundPaymentRequest
	if err = ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.TrackingNumber = trackingNumber

	return &body, nil
}

func (r *RefundPaymentRequest) Validate() error {
	if r.TrackingNumber <= 0 {
		return errors.New("invalid tracking number")
	}
	if r.Amount < 0 {
		return errors.New("amount must be >= 0")
	}
	return nil
}
