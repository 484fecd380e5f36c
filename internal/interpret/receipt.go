package interpret

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coverly/warranty-desk/internal/llm"
	"github.com/coverly/warranty-desk/internal/pkg/logger"
)

// degradedNameFallback prefixes the original subject when precise
// extraction fails. A purchase email always yields some record;
// downstream bookkeeping depends on having an entry.
const degradedNameFallback = "Email purchase: "

// degradedNotesLimit bounds the body excerpt carried in a degraded
// record's notes field.
const degradedNotesLimit = 500

// ReceiptExtractor maps purchase-intent emails to ExtractedProduct
// records under a fixed schema.
type ReceiptExtractor struct {
	completer Completer
}

// NewReceiptExtractor creates a ReceiptExtractor.
func NewReceiptExtractor(c Completer) *ReceiptExtractor {
	return &ReceiptExtractor{completer: c}
}

const receiptSystemPrompt = `You extract purchase details from retailer emails for a warranty tracking service.
Respond with ONLY a JSON object. Required field:
- "product_name": the purchased product's name (string, required)
Optional fields — include ONLY when you are confident; omit rather than guess:
- "brand", "model", "category", "serial_number", "condition", "currency", "purchase_location", "notes" (strings)
- "purchase_date": date in YYYY-MM-DD format
- "purchase_price": plain number, no currency symbols or thousands separators
No other fields, no prose, no markdown fences.`

// Extract returns a product record for the email. The second return
// is true when the record is the degraded fallback: the completion
// failed or produced no usable product_name, so the record carries the
// original subject as its name and a truncated body excerpt in notes.
// Extract never fails outright.
func (e *ReceiptExtractor) Extract(ctx context.Context, msg EmailMessage) (ExtractedProduct, bool) {
	out, err := e.completer.Complete(ctx, llm.CompletionRequest{
		System:      receiptSystemPrompt,
		User:        fmt.Sprintf("Subject: %s\n\n%s", msg.Subject, msg.TextBody),
		Temperature: 0.1,
		MaxTokens:   400,
	})
	if err != nil {
		logger.Warn("receipt extraction call failed", "err", err.Error())
		return degradedProduct(msg), true
	}

	raw, ok := llm.ExtractJSONObject(out)
	if !ok {
		logger.Warn("receipt extraction returned no JSON object")
		return degradedProduct(msg), true
	}

	var product ExtractedProduct
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		logger.Warn("receipt extraction output unparseable", "err", err.Error())
		return degradedProduct(msg), true
	}

	product.ProductName = strings.TrimSpace(product.ProductName)
	if product.ProductName == "" {
		logger.Warn("receipt extraction missing product_name")
		return degradedProduct(msg), true
	}

	return product, false
}

func degradedProduct(msg EmailMessage) ExtractedProduct {
	notes := msg.TextBody
	if len(notes) > degradedNotesLimit {
		notes = strings.ToValidUTF8(notes[:degradedNotesLimit], "")
	}
	return ExtractedProduct{
		ProductName: degradedNameFallback + msg.Subject,
		Notes:       notes + "...",
	}
}
