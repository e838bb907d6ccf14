package controller

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-bankpay/app/entity"
	"github.com/vibast-solutions/ms-go-bankpay/app/factory"
	"github.com/vibast-solutions/ms-go-bankpay/app/gateway"
	"github.com/vibast-solutions/ms-go-bankpay/app/mapper"
	"github.com/vibast-solutions/ms-go-bankpay/app/service"
	"github.com/vibast-solutions/ms-go-bankpay/app/types"
)

type PaymentController struct {
	paymentService *service.PaymentService
	logger         logrus.FieldLogger
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		logger:         factory.NewModuleLogger("bankpay-controller"),
	}
}

func (c *PaymentController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *PaymentController) RequestPayment(ctx echo.Context) error {
	req, err := types.NewCreatePaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	invoice, err := mapper.CreateRequestToInvoice(req)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.paymentService.Request(ctx.Request().Context(), invoice)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateTrackingNumber):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrGatewayUnsupported):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Request payment failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusCreated, mapper.RequestResultToResponse(invoice.TrackingNumber, result))
}

// HandleGatewayCallback receives the bank's redirect of the user's
// browser. Banks send no request id, so a generated correlation id ties
// the log lines of one callback together.
func (c *PaymentController) HandleGatewayCallback(ctx echo.Context) error {
	req, err := types.NewVerifyPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid tracking number")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	logger := c.logger.WithFields(logrus.Fields{
		"callback_id":     uuid.NewString(),
		"tracking_number": req.TrackingNumber,
	})

	params, err := callbackParamsFromContext(ctx)
	if err != nil {
		logger.WithError(err).Warn("Malformed callback payload")
		return c.writeError(ctx, http.StatusBadRequest, "malformed callback payload")
	}

	result, err := c.paymentService.Verify(ctx.Request().Context(), req.TrackingNumber, params)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			return c.writeError(ctx, http.StatusNotFound, "payment not found")
		case errors.Is(err, service.ErrGatewayUnsupported):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			logger.WithError(err).Error("Verify payment failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	logger.WithFields(logrus.Fields{
		"succeeded":        result.Succeeded,
		"transaction_code": result.TransactionCode,
	}).Info("Gateway callback processed")

	return ctx.JSON(http.StatusOK, mapper.VerifyResultToResponse(req.TrackingNumber, result))
}

func (c *PaymentController) RefundPayment(ctx echo.Context) error {
	req, err := types.NewRefundPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	invoice, err := entity.NewRefundInvoice(req.TrackingNumber, int64(req.Amount))
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.paymentService.Refund(ctx.Request().Context(), invoice)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			return c.writeError(ctx, http.StatusNotFound, "payment not found")
		case errors.Is(err, service.ErrRefundNotVerified), errors.Is(err, service.ErrRefundAmountExceeded), errors.Is(err, service.ErrGatewayUnsupported):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Refund payment failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, mapper.RefundResultToResponse(req.TrackingNumber, result))
}

// callbackParamsFromContext exposes form and query parameters through
// the accessor the adapters consume. Form values win over query values;
// presence is reported even for empty values so adapters can tell a
// missing parameter from a blank one.
func callbackParamsFromContext(ctx echo.Context) (gateway.CallbackParams, error) {
	request := ctx.Request()
	if err := request.ParseForm(); err != nil {
		return nil, err
	}
	form := request.Form

	return func(name string) (string, bool) {
		values, ok := form[name]
		if !ok || len(values) == 0 {
			return "", false
		}
		return values[0], true
	}, nil
}

func (c *PaymentController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
