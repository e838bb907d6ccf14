package mapper

import (
	"github.com/vibast-solutions/ms-go-bankpay/app/entity"
	"github.com/vibast-solutions/ms-go-bankpay/app/gateway"
	"github.com/vibast-solutions/ms-go-bankpay/app/types"
)

func RequestResultToResponse(trackingNumber int64, result *gateway.PaymentRequestResult) *types.PaymentRequestResponse {
	if result == nil {
		return nil
	}

	return &types.PaymentRequestResponse{
		Succeeded:      result.Succeeded,
		TrackingNumber: trackingNumber,
		ReferenceId:    result.ReferenceID,
		Message:        result.Message,
		Transporter:    transporterToResponse(result.Transporter),
	}
}

func VerifyResultToResponse(trackingNumber int64, result *gateway.PaymentVerifyResult) *types.PaymentVerifyResponse {
	if result == nil {
		return nil
	}

	return &types.PaymentVerifyResponse{
		Succeeded:       result.Succeeded,
		TrackingNumber:  trackingNumber,
		TransactionCode: result.TransactionCode,
		Message:         result.Message,
	}
}

func RefundResultToResponse(trackingNumber int64, result *gateway.PaymentRefundResult) *types.PaymentRefundResponse {
	if result == nil {
		return nil
	}

	return &types.PaymentRefundResponse{
		Succeeded:      result.Succeeded,
		TrackingNumber: trackingNumber,
		Message:        result.Message,
	}
}

func CreateRequestToInvoice(req *types.CreatePaymentRequest) (*entity.Invoice, error) {
	builder := entity.NewInvoiceBuilder().
		SetTrackingNumber(req.TrackingNumber).
		SetAmount(req.Amount).
		SetCallbackURL(req.CallbackUrl).
		SetGateway(req.Gateway)

	for key, value := range req.AdditionalData {
		builder.AddData(key, value)
	}
	for _, account := range req.SplitAccounts {
		builder.AddSplitAccount(entity.SplitAccount{
			SubServiceID: account.SubServiceId,
			Amount:       account.Amount,
			PayerID:      account.PayerId,
		})
	}

	return builder.Build()
}

func transporterToResponse(transporter *gateway.Transporter) *types.TransporterResponse {
	if transporter == nil {
		return nil
	}

	fields := make(map[string]string, len(transporter.Fields))
	for k, v := range transporter.Fields {
		fields[k] = v
	}

	return &types.TransporterResponse{
		Method: transporter.Method,
		Url:    transporter.URL,
		Fields: fields,
	}
}
