package gateway

const (
	// TransportRedirect hands the browser to the bank with a GET.
	TransportRedirect = "redirect"
	// TransportForm hands the browser to the bank with an
	// auto-submitting POST form.
	TransportForm = "form"
)

// Transporter tells the presentation layer how to move the user's
// browser to the bank's payment page. Rendering it into an HTTP response
// is the caller's concern.
type Transporter struct {
	Method string
	URL    string
	Fields map[string]string
}

// PaymentRequestResult is the outcome of a payment request. Exactly one
// of Transporter and Message is populated.
type PaymentRequestResult struct {
	Succeeded   bool
	Transporter *Transporter
	AccountName string
	ReferenceID string
	Message     string
}

func RequestSucceeded(transporter *Transporter, accountName, referenceID string) *PaymentRequestResult {
	return &PaymentRequestResult{
		Succeeded:   true,
		Transporter: transporter,
		AccountName: accountName,
		ReferenceID: referenceID,
	}
}

func RequestFailed(message string) *PaymentRequestResult {
	return &PaymentRequestResult{Message: message}
}

// CallbackResult is the parsed inbound redirect data. When required
// fields are absent the failure variant is returned; it is never
// partially populated. ReferenceID and TransactionCode are carried
// through regardless of the outcome because Verify and Refund need them
// later.
type CallbackResult struct {
	Succeeded       bool
	ReferenceID     string
	TransactionCode string
	Message         string
}

type PaymentVerifyResult struct {
	Succeeded       bool
	TransactionCode string
	Message         string
}

type PaymentRefundResult struct {
	Succeeded bool
	Message   string
}
