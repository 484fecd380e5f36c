package interpret

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/coverly/warranty-desk/internal/llm"
	"github.com/coverly/warranty-desk/internal/pkg/logger"
)

// Intent is the closed three-way classification of an email's purpose.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentPurchase
	IntentReturn
	IntentShipmentUpdate
)

// String returns the wire label for the intent.
func (i Intent) String() string {
	switch i {
	case IntentPurchase:
		return "PURCHASE"
	case IntentReturn:
		return "RETURN"
	case IntentShipmentUpdate:
		return "SHIPMENT_UPDATE"
	default:
		return "UNKNOWN"
	}
}

// ParseIntent maps a label back to an Intent. Unrecognized labels
// report false rather than inventing a value.
func ParseIntent(s string) (Intent, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PURCHASE":
		return IntentPurchase, true
	case "RETURN":
		return IntentReturn, true
	case "SHIPMENT_UPDATE":
		return IntentShipmentUpdate, true
	default:
		return IntentUnknown, false
	}
}

// ErrUnavailable signals that classification could not be performed.
// One bad completion must not crash the process; the caller surfaces
// this as an upstream failure without a partial result.
var ErrUnavailable = errors.New("interpret: classification unavailable")

// Classifier labels an email with one of the three intents via a
// single low-temperature completion.
type Classifier struct {
	completer Completer
}

// NewClassifier creates a Classifier backed by the given completer.
func NewClassifier(c Completer) *Classifier {
	return &Classifier{completer: c}
}

const classifySystemPrompt = `You classify retailer emails for a warranty tracking service.
Read the email and decide its purpose. Respond with ONLY a JSON object of the form
{"intent": "<LABEL>"} where <LABEL> is exactly one of:
- PURCHASE: an order confirmation or receipt for a new purchase
- RETURN: a return, refund, or exchange notification
- SHIPMENT_UPDATE: a shipping, tracking, or delivery status notification
No other fields, no prose.`

type classifyOutput struct {
	Intent string `json:"intent"`
}

// Classify returns the email's intent, or ErrUnavailable if the
// completion fails, is unparseable, or names a label outside the
// closed set. No retry is attempted beyond the shared client policy.
func (c *Classifier) Classify(ctx context.Context, msg EmailMessage) (Intent, error) {
	out, err := c.completer.Complete(ctx, llm.CompletionRequest{
		System:      classifySystemPrompt,
		User:        fmt.Sprintf("Subject: %s\n\n%s", msg.Subject, msg.TextBody),
		Temperature: 0.1,
		MaxTokens:   30,
	})
	if err != nil {
		logger.Warn("classification call failed", "err", err.Error())
		return IntentUnknown, ErrUnavailable
	}

	raw, ok := llm.ExtractJSONObject(out)
	if !ok {
		logger.Warn("classification returned no JSON object")
		return IntentUnknown, ErrUnavailable
	}

	var parsed classifyOutput
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		logger.Warn("classification output unparseable", "err", err.Error())
		return IntentUnknown, ErrUnavailable
	}

	intent, ok := ParseIntent(parsed.Intent)
	if !ok {
		logger.Warn("classification returned unrecognized label", "label", parsed.Intent)
		return IntentUnknown, ErrUnavailable
	}
	return intent, nil
}
