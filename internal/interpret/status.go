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

// ErrNoRecord signals that no status record could be extracted.
// Fabricating an order id or status risks misattributing a status
// change to the wrong order, so this pipeline fails closed instead of
// degrading.
var ErrNoRecord = errors.New("interpret: no status record extracted")

// StatusExtractor maps return and shipment emails to OrderStatusUpdate
// records.
type StatusExtractor struct {
	completer Completer
}

// NewStatusExtractor creates a StatusExtractor.
func NewStatusExtractor(c Completer) *StatusExtractor {
	return &StatusExtractor{completer: c}
}

const statusSystemPrompt = `You extract order status details from retailer emails for a warranty tracking service.
Respond with ONLY a JSON object. Required fields:
- "order_id": the retailer's order identifier (string, required)
- "status": one of shipped, delivered, out_for_delivery, returned, refunded, processing (required; pick the closest)
Optional fields — include ONLY when you are confident; omit rather than guess:
- "tracking_number": carrier tracking number (string)
- "estimated_delivery": date in YYYY-MM-DD format
- "notes": any other relevant detail (string)
No other fields, no prose, no markdown fences.`

// Extract returns a status record with both order_id and status
// present, or ErrNoRecord. It never returns a partial record.
func (e *StatusExtractor) Extract(ctx context.Context, msg EmailMessage) (*OrderStatusUpdate, error) {
	out, err := e.completer.Complete(ctx, llm.CompletionRequest{
		System:      statusSystemPrompt,
		User:        fmt.Sprintf("Subject: %s\n\n%s", msg.Subject, msg.TextBody),
		Temperature: 0.1,
		MaxTokens:   200,
	})
	if err != nil {
		logger.Warn("status extraction call failed", "err", err.Error())
		return nil, ErrNoRecord
	}

	raw, ok := llm.ExtractJSONObject(out)
	if !ok {
		logger.Warn("status extraction returned no JSON object")
		return nil, ErrNoRecord
	}

	var update OrderStatusUpdate
	if err := json.Unmarshal([]byte(raw), &update); err != nil {
		logger.Warn("status extraction output unparseable", "err", err.Error())
		return nil, ErrNoRecord
	}

	update.OrderID = strings.TrimSpace(update.OrderID)
	update.Status = strings.TrimSpace(update.Status)
	if update.OrderID == "" || update.Status == "" {
		logger.Warn("status extraction missing required field",
			"has_order_id", update.OrderID != "",
			"has_status", update.Status != "")
		return nil, ErrNoRecord
	}

	return &update, nil
}
