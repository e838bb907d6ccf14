package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-bankpay/app/controller"
	"github.com/vibast-solutions/ms-go-bankpay/app/entity"
	"github.com/vibast-solutions/ms-go-bankpay/app/gateway"
	"github.com/vibast-solutions/ms-go-bankpay/app/messages"
	"github.com/vibast-solutions/ms-go-bankpay/app/service"
	"github.com/vibast-solutions/ms-go-bankpay/app/store"
	"github.com/vibast-solutions/ms-go-bankpay/app/types"
)

// fakeBank mimics the Mellat SOAP web service closely enough for a full
// payment lifecycle: pay, verify, settle, reversal.
type fakeBank struct {
	server *httptest.Server

	payCalls      int
	verifyCalls   int
	settleCalls   int
	reversalCalls int
}

func newFakeBank(t *testing.T) *fakeBank {
	t.Helper()

	bank := &fakeBank{}
	bank.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read request failed: %v", err)
		}

		var value string
		switch {
		case strings.Contains(string(body), "bpPayRequest"):
			bank.payCalls++
			value = "0,BANKREF42"
		case strings.Contains(string(body), "bpVerifyRequest"):
			bank.verifyCalls++
			value = "0"
		case strings.Contains(string(body), "bpSettleRequest"):
			bank.settleCalls++
			value = "0"
		case strings.Contains(string(body), "bpReversalRequest"):
			bank.reversalCalls++
			value = "0"
		default:
			t.Errorf("unexpected soap operation: %s", string(body))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <ns2:response xmlns:ns2="http://interfaces.core.sw.bps.com/">
      <return>%s</return>
    </ns2:response>
  </soapenv:Body>
</soapenv:Envelope>`, value)
	}))
	t.Cleanup(bank.server.Close)
	return bank
}

func newAppForTest(t *testing.T, bank *fakeBank) *httptest.Server {
	t.Helper()

	mellat := gateway.NewMellatGateway(gateway.MellatConfig{
		Account: entity.GatewayAccount{
			TerminalID:   1234567,
			UserName:     "merchant",
			UserPassword: "secret",
		},
		BaseURL: bank.server.URL,
	}, messages.Default())

	svc := service.NewPaymentService(store.NewMemoryStore(), gateway.NewRegistry(mellat))
	ctrl := controller.NewPaymentController(svc)

	e := echo.New()
	e.HideBanner = true
	e.GET("/health", ctrl.Health)
	e.POST("/payments", ctrl.RequestPayment)
	e.POST("/payments/:trackingNumber/refund", ctrl.RefundPayment)
	e.GET("/callbacks/gateways/:trackingNumber", ctrl.HandleGatewayCallback)
	e.POST("/callbacks/gateways/:trackingNumber", ctrl.HandleGatewayCallback)

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, client *http.Client, url string, body any) (*http.Response, []byte) {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", fmt.Sprintf("e2e-%d", time.Now().UnixNano()))

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	return resp, bodyBytes
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values) (*http.Response, []byte) {
	t.Helper()

	resp, err := client.Post(target, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	return resp, bodyBytes
}

func TestPaymentLifecycle(t *testing.T) {
	bank := newFakeBank(t)
	app := newAppForTest(t, bank)
	client := &http.Client{Timeout: 10 * time.Second}

	const trackingNumber = 9001

	t.Run("Health", func(t *testing.T) {
		resp, err := client.Get(app.URL + "/health")
		if err != nil {
			t.Fatalf("health request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("Request", func(t *testing.T) {
		resp, body := postJSON(t, client, app.URL+"/payments", map[string]any{
			"tracking_number": trackingNumber,
			"amount":          50000,
			"callback_url":    "https://shop.example/callback",
			"gateway":         "mellat",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", resp.StatusCode, string(body))
		}

		var payload types.PaymentRequestResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal failed: %v body=%s", err, string(body))
		}
		if !payload.Succeeded || payload.ReferenceId != "BANKREF42" {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		if payload.Transporter == nil || payload.Transporter.Fields["RefId"] != "BANKREF42" {
			t.Fatalf("unexpected transporter: %+v", payload.Transporter)
		}
	})

	t.Run("DuplicateRequest", func(t *testing.T) {
		resp, body := postJSON(t, client, app.URL+"/payments", map[string]any{
			"tracking_number": trackingNumber,
			"amount":          50000,
			"callback_url":    "https://shop.example/callback",
			"gateway":         "mellat",
		})
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %d body=%s", resp.StatusCode, string(body))
		}
		if bank.payCalls != 1 {
			t.Fatalf("duplicate request must not reach the bank, got %d pay calls", bank.payCalls)
		}
	})

	callbackURL := fmt.Sprintf("%s/callbacks/gateways/%d", app.URL, trackingNumber)
	callbackForm := url.Values{
		"ResCode":         {"0"},
		"RefId":           {"BANKREF42"},
		"SaleReferenceId": {"55667788"},
	}

	t.Run("Callback", func(t *testing.T) {
		resp, body := postForm(t, client, callbackURL, callbackForm)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
		}

		var payload types.PaymentVerifyResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal failed: %v body=%s", err, string(body))
		}
		if !payload.Succeeded || payload.TransactionCode != "55667788" {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		if bank.verifyCalls != 1 || bank.settleCalls != 1 {
			t.Fatalf("expected one verify and one settle, got %d/%d", bank.verifyCalls, bank.settleCalls)
		}
	})

	t.Run("DuplicateCallback", func(t *testing.T) {
		resp, body := postForm(t, client, callbackURL, callbackForm)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
		}

		var payload types.PaymentVerifyResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal failed: %v body=%s", err, string(body))
		}
		if !payload.Succeeded || payload.TransactionCode != "55667788" {
			t.Fatalf("expected stored outcome, got %+v", payload)
		}
		if bank.verifyCalls != 1 || bank.settleCalls != 1 {
			t.Fatalf("duplicate callback must not settle twice, got %d/%d", bank.verifyCalls, bank.settleCalls)
		}
	})

	t.Run("Refund", func(t *testing.T) {
		resp, body := postJSON(t, client, fmt.Sprintf("%s/payments/%d/refund", app.URL, trackingNumber), map[string]any{
			"amount": 20000,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
		}

		var payload types.PaymentRefundResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal failed: %v body=%s", err, string(body))
		}
		if !payload.Succeeded {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		if bank.reversalCalls != 1 {
			t.Fatalf("expected one reversal call, got %d", bank.reversalCalls)
		}
	})
}

func TestRefundBeforeVerifyRejected(t *testing.T) {
	bank := newFakeBank(t)
	app := newAppForTest(t, bank)
	client := &http.Client{Timeout: 10 * time.Second}

	resp, body := postJSON(t, client, app.URL+"/payments", map[string]any{
		"tracking_number": 42,
		"amount":          1000,
		"callback_url":    "https://shop.example/callback",
		"gateway":         "mellat",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", resp.StatusCode, string(body))
	}

	resp, body = postJSON(t, client, app.URL+"/payments/42/refund", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unverified refund, got %d body=%s", resp.StatusCode, string(body))
	}
	if bank.reversalCalls != 0 {
		t.Fatalf("unverified refund must not reach the bank, got %d calls", bank.reversalCalls)
	}
}
