package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/coverly/warranty-desk/internal/calendar"
	"github.com/coverly/warranty-desk/internal/claimdoc"
	"github.com/coverly/warranty-desk/internal/interpret"
	"github.com/coverly/warranty-desk/internal/pkg/httputil"
	"github.com/coverly/warranty-desk/internal/pkg/logger"
	"github.com/coverly/warranty-desk/internal/wallet"
)

// Handlers holds the five operations' collaborators. Each handler
// validates required fields before touching any external capability.
type Handlers struct {
	pipeline *interpret.Pipeline
	renderer *claimdoc.Renderer
	composer *wallet.Composer
	signer   wallet.Signer
	encoder  calendar.Encoder
}

// NewHandlers wires the handlers to their collaborators.
func NewHandlers(
	pipeline *interpret.Pipeline,
	renderer *claimdoc.Renderer,
	composer *wallet.Composer,
	signer wallet.Signer,
	encoder calendar.Encoder,
) *Handlers {
	return &Handlers{
		pipeline: pipeline,
		renderer: renderer,
		composer: composer,
		signer:   signer,
		encoder:  encoder,
	}
}

type interpretRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	HTMLBody  string `json:"html_body,omitempty"`
}

type interpretResponse struct {
	Intent   string `json:"intent"`
	Degraded bool   `json:"degraded,omitempty"`
	Data     any    `json:"data"`
}

// Interpret classifies an email and extracts the matching structured
// record.
func (h *Handlers) Interpret(w http.ResponseWriter, r *http.Request) {
	var req interpretRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := requireFields(map[string]string{
		"sender":    req.Sender,
		"recipient": req.Recipient,
		"subject":   req.Subject,
		"body":      req.Body,
	}); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	result, err := h.pipeline.Interpret(r.Context(), interpret.EmailMessage{
		Sender:    req.Sender,
		Recipient: req.Recipient,
		Subject:   req.Subject,
		TextBody:  req.Body,
		HTMLBody:  req.HTMLBody,
	})
	switch {
	case errors.Is(err, interpret.ErrUnavailable):
		httputil.BadGateway(w, "classification unavailable")
		return
	case errors.Is(err, interpret.ErrNoRecord):
		httputil.UnprocessableEntity(w, "no order status could be extracted")
		return
	case err != nil:
		httputil.InternalError(w, err)
		return
	}

	logger.Info("email interpreted",
		"sender", req.Sender,
		"intent", result.Intent.String(),
		"degraded", result.Degraded)

	resp := interpretResponse{Intent: result.Intent.String(), Degraded: result.Degraded}
	if result.Product != nil {
		resp.Data = result.Product
	} else {
		resp.Data = result.Status
	}
	httputil.OK(w, resp)
}

// RenderClaimPacket produces the claim packet PDF.
func (h *Handlers) RenderClaimPacket(w http.ResponseWriter, r *http.Request) {
	var req claimdoc.ClaimRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := requireFields(map[string]string{
		"product.id":          req.Product.ID,
		"product.name":        req.Product.Name,
		"problem_description": req.Problem,
		"requester.name":      req.Requester.Name,
		"requester.email":     req.Requester.Email,
	}); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	doc, err := h.renderer.Render(req)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	logger.Info("claim packet rendered", "product_id", req.Product.ID)
	httputil.Binary(w, "application/pdf",
		fmt.Sprintf("claim-packet-%s.pdf", req.Product.ID), doc)
}

// ComposePass builds and signs the wallet pass.
func (h *Handlers) ComposePass(w http.ResponseWriter, r *http.Request) {
	var profile wallet.SubjectProfile
	if !httputil.Decode(w, r, &profile) {
		return
	}
	if err := requireFields(map[string]string{
		"id":    profile.ID,
		"email": profile.Email,
	}); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	pass := h.composer.Compose(profile)
	bundle, err := h.signer.Sign(r.Context(), pass)
	if err != nil {
		if errors.Is(err, wallet.ErrMissingCredential) {
			logger.Error("pass signing not configured")
			httputil.Error(w, http.StatusInternalServerError, "pass signing is not configured")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	logger.Info("pass composed", "subject_id", profile.ID)
	httputil.Binary(w, "application/vnd.apple.pkpass", "warranty.pkpass", bundle)
}

type calendarRequest struct {
	ID             string `json:"id"`
	ProductName    string `json:"product_name"`
	Retailer       string `json:"retailer,omitempty"`
	PurchaseDate   string `json:"purchase_date"`
	WarrantyMonths int    `json:"warranty_months"`
}

// EncodeCalendarEvent derives the warranty expiration reminder and
// returns it as an ICS document.
func (h *Handlers) EncodeCalendarEvent(w http.ResponseWriter, r *http.Request) {
	var req calendarRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := requireFields(map[string]string{
		"id":            req.ID,
		"product_name":  req.ProductName,
		"purchase_date": req.PurchaseDate,
	}); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	purchased, err := time.Parse("2006-01-02", req.PurchaseDate)
	if err != nil {
		httputil.BadRequest(w, "purchase_date must be YYYY-MM-DD")
		return
	}
	if req.WarrantyMonths <= 0 {
		httputil.BadRequest(w, "warranty_months must be positive")
		return
	}

	event, err := calendar.BuildExpirationEvent(calendar.WarrantyInput{
		ProductID:      req.ID,
		ProductName:    req.ProductName,
		Retailer:       req.Retailer,
		PurchaseDate:   purchased,
		WarrantyMonths: req.WarrantyMonths,
	})
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	ics, err := h.encoder.Encode(event)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	logger.Info("calendar event encoded", "product_id", req.ID,
		"expires", event.Start.Format("2006-01-02"))
	httputil.Binary(w, "text/calendar", "warranty-expiration.ics", ics)
}

// operationNames lists what the service can do, reported by the
// health probe.
var operationNames = []string{
	"classify-and-extract",
	"render-claim-packet",
	"compose-pass",
	"encode-calendar-event",
}

// Health reports service status and the supported operations.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status":     "ok",
		"service":    "warranty-desk",
		"operations": operationNames,
	})
}

// requireFields returns an error naming the blank fields, if any.
func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
}
