package messages

import (
	"fmt"
	"strings"
)

// Messages holds the deployment-configured texts returned to callers.
// Empty fields fall back to the defaults, so a deployment only overrides
// what it wants to localize.
type Messages struct {
	PaymentSucceeded        string
	PaymentFailed           string
	DuplicateTrackingNumber string
	AlreadyVerified         string
	InvalidCallbackData     string

	// UnknownResultCode is a fmt verb string; the raw gateway code is
	// substituted so unknown codes are never silently swallowed.
	UnknownResultCode string
}

func Default() Messages {
	return Messages{
		PaymentSucceeded:        "Payment completed successfully.",
		PaymentFailed:           "Payment failed.",
		DuplicateTrackingNumber: "A payment with this tracking number has already been requested.",
		AlreadyVerified:         "This payment has already been verified.",
		InvalidCallbackData:     "Invalid data received from the gateway.",
		UnknownResultCode:       "The gateway returned an unknown result code: %s",
	}
}

// WithOverrides returns a copy of m with every non-empty field of
// overrides applied.
func (m Messages) WithOverrides(overrides Messages) Messages {
	apply := func(dst *string, src string) {
		if strings.TrimSpace(src) != "" {
			*dst = src
		}
	}
	apply(&m.PaymentSucceeded, overrides.PaymentSucceeded)
	apply(&m.PaymentFailed, overrides.PaymentFailed)
	apply(&m.DuplicateTrackingNumber, overrides.DuplicateTrackingNumber)
	apply(&m.AlreadyVerified, overrides.AlreadyVerified)
	apply(&m.InvalidCallbackData, overrides.InvalidCallbackData)
	apply(&m.UnknownResultCode, overrides.UnknownResultCode)
	return m
}

// Translator maps a gateway's raw result codes to human-readable
// messages. Adapters never compose message text themselves; they hold a
// Translator built from their own code table.
type Translator struct {
	messages Messages
	table    map[string]string
}

func NewTranslator(m Messages, table map[string]string) *Translator {
	if table == nil {
		table = map[string]string{}
	}
	return &Translator{messages: m, table: table}
}

func (t *Translator) Messages() Messages {
	return t.messages
}

// Translate resolves a raw result code. Unknown codes resolve to the
// fallback message with the raw code embedded for diagnostics.
func (t *Translator) Translate(code string) string {
	code = strings.TrimSpace(code)
	if message, ok := t.table[code]; ok {
		return message
	}
	return fmt.Sprintf(t.messages.UnknownResultCode, code)
}
