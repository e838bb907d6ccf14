package gateway

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-bankpay/app/entity"
	"github.com/vibast-solutions/ms-go-bankpay/app/messages"
)

const (
	mellatOKCode              = "0"
	mellatDuplicateOrderCode  = "41"
	mellatAlreadyVerifiedCode = "43"
	mellatSettleSuccessCode   = "45"

	// The gateway rejects cumulative requests with more than ten
	// sub-accounts.
	mellatMaxSplitAccounts = 10

	// MellatPaymentPageURL is where the user's browser posts the
	// reference id to start the payment.
	MellatPaymentPageURL = "https://bpm.shaparak.ir/pgwchannel/startpay.mellat"

	mellatBaseServiceURL  = "https://bpm.shaparak.ir"
	mellatServicePath     = "/pgwchannel/services/pgw"
	mellatTestServicePath = "/pgwchannel/services/pgwtest"
)

type MellatConfig struct {
	Account entity.GatewayAccount

	// BaseURL overrides the production service host; used for tests.
	BaseURL     string
	HTTPTimeout time.Duration
}

// MellatGateway speaks the bank's SOAP web service: a pay request that
// yields a reference id for the redirect form, a two-phase
// verify-then-settle confirmation, and a reversal call for refunds.
type MellatGateway struct {
	cfg        MellatConfig
	client     *http.Client
	translator *messages.Translator
	now        func() time.Time
}

func NewMellatGateway(cfg MellatConfig, msgs messages.Messages) *MellatGateway {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if strings.TrimSpace(cfg.Account.Name) == "" {
		cfg.Account.Name = "mellat"
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = mellatBaseServiceURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &MellatGateway{
		cfg:        cfg,
		client:     &http.Client{Timeout: timeout},
		translator: messages.NewTranslator(msgs, mellatResultTable),
		now:        time.Now,
	}
}

func (g *MellatGateway) Name() string {
	return "mellat"
}

func (g *MellatGateway) Request(ctx context.Context, invoice *entity.Invoice) (*PaymentRequestResult, error) {
	if err := g.validateConfig(); err != nil {
		return nil, err
	}

	body, err := g.buildPayBody(invoice)
	if err != nil {
		return nil, err
	}

	value, err := g.call(ctx, body)
	if err != nil {
		return nil, err
	}

	// The pay response is "resCode" or "resCode,refId".
	resCode, refID := splitPayResponse(value)
	if resCode != mellatOKCode {
		// A duplicate order id is a caller error (reused tracking
		// number), not a gateway condition, so it gets the dedicated
		// message.
		if resCode == mellatDuplicateOrderCode {
			return RequestFailed(g.translator.Messages().DuplicateTrackingNumber), nil
		}
		return RequestFailed(g.translator.Translate(resCode)), nil
	}

	transporter := &Transporter{
		Method: TransportForm,
		URL:    MellatPaymentPageURL,
		Fields: map[string]string{"RefId": refID},
	}
	return RequestSucceeded(transporter, g.cfg.Account.Name, refID), nil
}

func (g *MellatGateway) ParseCallback(params CallbackParams) *CallbackResult {
	resCode, ok := params("ResCode")
	if !ok || strings.TrimSpace(resCode) == "" {
		return &CallbackResult{Message: g.translator.Messages().InvalidCallbackData}
	}
	resCode = strings.TrimSpace(resCode)

	refID, _ := params("RefId")
	saleReferenceID, _ := params("SaleReferenceId")

	result := &CallbackResult{
		ReferenceID:     strings.TrimSpace(refID),
		TransactionCode: strings.TrimSpace(saleReferenceID),
	}
	if resCode == mellatOKCode {
		result.Succeeded = true
		return result
	}

	result.Message = g.translator.Translate(resCode)
	return result
}

func (g *MellatGateway) Verify(ctx context.Context, vctx *VerifyContext) (*PaymentVerifyResult, error) {
	if err := g.validateConfig(); err != nil {
		return nil, err
	}
	if vctx == nil || vctx.Callback == nil {
		return nil, errors.New("verify requires the parsed callback result")
	}
	if !vctx.Callback.Succeeded {
		return &PaymentVerifyResult{
			TransactionCode: vctx.Callback.TransactionCode,
			Message:         vctx.Callback.Message,
		}, nil
	}

	verifyCode, err := g.call(ctx, mellatBody{Verify: g.confirmRequest(vctx.TrackingNumber, vctx.Callback.TransactionCode)})
	if err != nil {
		return nil, err
	}

	// Code 43 means a previous verify already went through; the
	// transaction is confirmed on the gateway side either way, so both
	// continue into the settle step.
	if verifyCode != mellatOKCode && verifyCode != mellatAlreadyVerifiedCode {
		return &PaymentVerifyResult{
			TransactionCode: vctx.Callback.TransactionCode,
			Message:         g.translator.Translate(verifyCode),
		}, nil
	}

	// Settle always follows a successful verify. Code 45 reports the
	// transaction as already settled, which is expected under duplicate
	// callback delivery and counts as success.
	settleCode, err := g.call(ctx, mellatBody{Settle: g.confirmRequest(vctx.TrackingNumber, vctx.Callback.TransactionCode)})
	if err != nil {
		return nil, err
	}

	if settleCode != mellatOKCode && settleCode != mellatSettleSuccessCode {
		// Confirmed but unsettled on the gateway side: report failure
		// with the settlement code intact so an operator can reconcile.
		return &PaymentVerifyResult{
			TransactionCode: vctx.Callback.TransactionCode,
			Message:         g.translator.Translate(settleCode),
		}, nil
	}

	return &PaymentVerifyResult{
		Succeeded:       true,
		TransactionCode: vctx.Callback.TransactionCode,
		Message:         g.translator.Messages().PaymentSucceeded,
	}, nil
}

func (g *MellatGateway) Refund(ctx context.Context, rctx *RefundContext) (*PaymentRefundResult, error) {
	if err := g.validateConfig(); err != nil {
		return nil, err
	}
	if rctx == nil || strings.TrimSpace(rctx.TransactionCode) == "" {
		return nil, errors.New("refund requires the settlement code captured at verify time")
	}

	code, err := g.call(ctx, mellatBody{Reversal: g.confirmRequest(rctx.TrackingNumber, rctx.TransactionCode)})
	if err != nil {
		return nil, err
	}

	return &PaymentRefundResult{
		Succeeded: code == mellatOKCode,
		Message:   g.translator.Translate(code),
	}, nil
}

func (g *MellatGateway) validateConfig() error {
	if g.cfg.Account.TerminalID <= 0 {
		return errors.New("mellat terminal id is not configured")
	}
	if strings.TrimSpace(g.cfg.Account.UserName) == "" || strings.TrimSpace(g.cfg.Account.UserPassword) == "" {
		return errors.New("mellat web service credentials are not configured")
	}
	return nil
}

func (g *MellatGateway) buildPayBody(invoice *entity.Invoice) (mellatBody, error) {
	now := g.now()
	pay := &mellatPayRequest{
		TerminalID:   g.cfg.Account.TerminalID,
		UserName:     g.cfg.Account.UserName,
		UserPassword: g.cfg.Account.UserPassword,
		OrderID:      invoice.TrackingNumber,
		Amount:       invoice.Amount,
		LocalDate:    now.Format("20060102"),
		LocalTime:    now.Format("150405"),
		CallbackURL:  invoice.CallbackURL,
	}

	if len(invoice.SplitAccounts) == 0 {
		pay.AdditionalData = encodeAdditionalData(invoice.AdditionalData)
		return mellatBody{Pay: pay}, nil
	}

	if len(invoice.SplitAccounts) > mellatMaxSplitAccounts {
		return mellatBody{}, fmt.Errorf("cannot use more than %d accounts for a cumulative payment request", mellatMaxSplitAccounts)
	}
	var total int64
	for _, account := range invoice.SplitAccounts {
		total += account.Amount
	}
	if total != invoice.Amount {
		return mellatBody{}, fmt.Errorf("split account amounts total %d but the invoice amount is %d", total, invoice.Amount)
	}

	pay.AdditionalData = encodeSplitAccounts(invoice.SplitAccounts)
	return mellatBody{CumulativePay: (*mellatCumulativePayRequest)(pay)}, nil
}

func (g *MellatGateway) confirmRequest(trackingNumber int64, saleReferenceID string) *mellatConfirmRequest {
	return &mellatConfirmRequest{
		TerminalID:      g.cfg.Account.TerminalID,
		UserName:        g.cfg.Account.UserName,
		UserPassword:    g.cfg.Account.UserPassword,
		OrderID:         trackingNumber,
		SaleOrderID:     trackingNumber,
		SaleReferenceID: saleReferenceID,
	}
}

func (g *MellatGateway) call(ctx context.Context, body mellatBody) (string, error) {
	payload, err := marshalEnvelope(body)
	if err != nil {
		return "", err
	}

	endpoint := g.cfg.BaseURL + mellatServicePath
	if g.cfg.Account.TestTerminal {
		endpoint = g.cfg.BaseURL + mellatTestServicePath
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("mellat web service call failed: status=%d body=%s", resp.StatusCode, string(responseBody))
	}

	return extractReturnValue(responseBody)
}

type mellatEnvelope struct {
	XMLName xml.Name   `xml:"soapenv:Envelope"`
	SoapNS  string     `xml:"xmlns:soapenv,attr"`
	IntNS   string     `xml:"xmlns:int,attr"`
	Header  struct{}   `xml:"soapenv:Header"`
	Body    mellatBody `xml:"soapenv:Body"`
}

type mellatBody struct {
	Pay           *mellatPayRequest           `xml:"int:bpPayRequest,omitempty"`
	CumulativePay *mellatCumulativePayRequest `xml:"int:bpCumulativeDynamicPayRequest,omitempty"`
	Verify        *mellatConfirmRequest       `xml:"int:bpVerifyRequest,omitempty"`
	Settle        *mellatConfirmRequest       `xml:"int:bpSettleRequest,omitempty"`
	Reversal      *mellatConfirmRequest       `xml:"int:bpReversalRequest,omitempty"`
}

type mellatPayRequest struct {
	TerminalID     int64  `xml:"terminalId"`
	UserName       string `xml:"userName"`
	UserPassword   string `xml:"userPassword"`
	OrderID        int64  `xml:"orderId"`
	Amount         int64  `xml:"amount"`
	LocalDate      string `xml:"localDate"`
	LocalTime      string `xml:"localTime"`
	AdditionalData string `xml:"additionalData"`
	CallbackURL    string `xml:"callBackUrl"`
	PayerID        int64  `xml:"payerId"`
}

type mellatCumulativePayRequest mellatPayRequest

// mellatConfirmRequest is the shared body of the verify, settle and
// reversal calls.
type mellatConfirmRequest struct {
	TerminalID      int64  `xml:"terminalId"`
	UserName        string `xml:"userName"`
	UserPassword    string `xml:"userPassword"`
	OrderID         int64  `xml:"orderId"`
	SaleOrderID     int64  `xml:"saleOrderId"`
	SaleReferenceID string `xml:"saleReferenceId"`
}

// marshalEnvelope serializes through encoding/xml so caller-supplied
// values (callback URL, additional data) are escaped; these fields are
// attacker-reachable via the invoice.
func marshalEnvelope(body mellatBody) ([]byte, error) {
	envelope := mellatEnvelope{
		SoapNS: "http://schemas.xmlsoap.org/soap/envelope/",
		IntNS:  "http://interfaces.core.sw.bps.com/",
		Body:   body,
	}
	out, err := xml.Marshal(envelope)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// extractReturnValue pulls the text of the first <return> element out of
// a web service response, ignoring envelope namespaces.
func extractReturnValue(response []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(response))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return "", errors.New("mellat response has no return element")
		}
		if err != nil {
			return "", err
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "return" {
			continue
		}
		var value string
		if err := decoder.DecodeElement(&value, &start); err != nil {
			return "", err
		}
		return strings.TrimSpace(value), nil
	}
}

func splitPayResponse(value string) (resCode, refID string) {
	parts := strings.SplitN(value, ",", 2)
	resCode = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		refID = strings.TrimSpace(parts[1])
	}
	return resCode, refID
}

func encodeSplitAccounts(accounts []entity.SplitAccount) string {
	var b strings.Builder
	for _, account := range accounts {
		fmt.Fprintf(&b, "%d,%d,%d;", account.SubServiceID, account.Amount, account.PayerID)
	}
	return b.String()
}

func encodeAdditionalData(data map[string]string) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s=%s;", key, data[key])
	}
	return b.String()
}
