// Package interpret turns retailer emails into structured records via
// a two-stage pipeline: intent classification followed by
// intent-specific extraction.
package interpret

import (
	"context"

	"github.com/coverly/warranty-desk/internal/llm"
)

// Completer issues one completion per call. *llm.Client satisfies it;
// tests substitute fakes.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// EmailMessage is an immutable inbound email. Nothing here is
// persisted; each message lives for one request.
type EmailMessage struct {
	Sender    string
	Recipient string
	Subject   string
	TextBody  string
	HTMLBody  string
}

// ExtractedProduct is the record produced for purchase-intent emails.
// ProductName is always non-empty, even in degraded form.
type ExtractedProduct struct {
	ProductName      string   `json:"product_name"`
	Brand            string   `json:"brand,omitempty"`
	Model            string   `json:"model,omitempty"`
	Category         string   `json:"category,omitempty"`
	PurchaseDate     string   `json:"purchase_date,omitempty"`
	PurchasePrice    *float64 `json:"purchase_price,omitempty"`
	Currency         string   `json:"currency,omitempty"`
	PurchaseLocation string   `json:"purchase_location,omitempty"`
	SerialNumber     string   `json:"serial_number,omitempty"`
	Condition        string   `json:"condition,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

// OrderStatusUpdate is the record produced for return and shipment
// emails. Both OrderID and Status are always present when a record is
// returned at all.
type OrderStatusUpdate struct {
	OrderID           string `json:"order_id"`
	Status            string `json:"status"`
	TrackingNumber    string `json:"tracking_number,omitempty"`
	EstimatedDelivery string `json:"estimated_delivery,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

// Result is the outcome of a full interpretation. Exactly one of
// Product or Status is set, selected by Intent. Degraded marks a
// structurally valid but low-confidence fallback product record so
// callers cannot mistake it for a confident extraction.
type Result struct {
	Intent   Intent
	Product  *ExtractedProduct
	Degraded bool
	Status   *OrderStatusUpdate
}
