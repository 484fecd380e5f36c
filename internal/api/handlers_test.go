package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coverly/warranty-desk/internal/calendar"
	"github.com/coverly/warranty-desk/internal/claimdoc"
	"github.com/coverly/warranty-desk/internal/interpret"
	"github.com/coverly/warranty-desk/internal/llm"
	"github.com/coverly/warranty-desk/internal/wallet"
)

const testToken = "test-secret"

// scriptedCompleter returns canned completions in call order.
type scriptedCompleter struct {
	outputs []string
	errs    []error
	calls   int
}

func (s *scriptedCompleter) Complete(_ context.Context, _ llm.CompletionRequest) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var out string
	if i < len(s.outputs) {
		out = s.outputs[i]
	}
	return out, err
}

// stubSigner returns fixed bytes or a fixed error.
type stubSigner struct {
	out []byte
	err error
}

func (s *stubSigner) Sign(_ context.Context, _ wallet.Pass) ([]byte, error) {
	return s.out, s.err
}

func newTestRouter(completer interpret.Completer, signer wallet.Signer) http.Handler {
	h := NewHandlers(
		interpret.NewPipeline(completer),
		claimdoc.NewRenderer("Coverly"),
		wallet.NewComposer("pass.com.coverly.warranty", "COVERLY001", "Coverly"),
		signer,
		calendar.NewICalEncoder(""),
	)
	return SetupRoutes(h, testToken)
}

func postJSON(t *testing.T, router http.Handler, path string, body any, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validEmail() map[string]string {
	return map[string]string{
		"sender":    "orders@shop.example",
		"recipient": "jane@home.example",
		"subject":   "Your UltraBlend 3000 order",
		"body":      "Thanks for your purchase of the UltraBlend 3000 for $89.99.",
	}
}

func TestInterpretPurchase(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{
		`{"intent": "purchase"}`,
		`{"product_name": "UltraBlend 3000", "purchase_price": 89.99, "currency": "USD"}`,
	}}
	router := newTestRouter(completer, &stubSigner{})

	rec := postJSON(t, router, "/api/interpret", validEmail(), true)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Intent   string                     `json:"intent"`
		Degraded bool                       `json:"degraded"`
		Data     interpret.ExtractedProduct `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PURCHASE", resp.Intent)
	assert.False(t, resp.Degraded)
	assert.Equal(t, "UltraBlend 3000", resp.Data.ProductName)
	require.NotNil(t, resp.Data.PurchasePrice)
	assert.InDelta(t, 89.99, *resp.Data.PurchasePrice, 0.001)
	assert.Equal(t, 2, completer.calls)
}

func TestInterpretShipmentUpdate(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{
		`{"intent": "shipment_update"}`,
		`{"order_id": "A-1001", "status": "shipped", "tracking_number": "1Z999"}`,
	}}
	router := newTestRouter(completer, &stubSigner{})

	rec := postJSON(t, router, "/api/interpret", validEmail(), true)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Intent string                      `json:"intent"`
		Data   interpret.OrderStatusUpdate `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SHIPMENT_UPDATE", resp.Intent)
	assert.Equal(t, "A-1001", resp.Data.OrderID)
	assert.Equal(t, "shipped", resp.Data.Status)
}

func TestInterpretClassifierDown(t *testing.T) {
	completer := &scriptedCompleter{errs: []error{errors.New("connection refused")}}
	router := newTestRouter(completer, &stubSigner{})

	rec := postJSON(t, router, "/api/interpret", validEmail(), true)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "classification unavailable")
	assert.Equal(t, 1, completer.calls, "no extraction after failed classification")
}

func TestInterpretStatusAbsent(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{
		`{"intent": "return"}`,
		`{"status": "returned"}`,
	}}
	router := newTestRouter(completer, &stubSigner{})

	rec := postJSON(t, router, "/api/interpret", validEmail(), true)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestInterpretValidation(t *testing.T) {
	completer := &scriptedCompleter{}
	router := newTestRouter(completer, &stubSigner{})

	body := validEmail()
	delete(body, "subject")
	rec := postJSON(t, router, "/api/interpret", body, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "subject")
	assert.Equal(t, 0, completer.calls, "validation precedes external calls")
}

func TestInterpretRequiresAuth(t *testing.T) {
	completer := &scriptedCompleter{}
	router := newTestRouter(completer, &stubSigner{})

	rec := postJSON(t, router, "/api/interpret", validEmail(), false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, completer.calls, "auth precedes all processing")
}

func validClaim() map[string]any {
	return map[string]any{
		"product": map[string]any{
			"id":   "prod-1",
			"name": "UltraBlend 3000",
		},
		"problem_description": "Motor stopped after two weeks.",
		"requester": map[string]any{
			"name":  "Jane Doe",
			"email": "jane@home.example",
		},
	}
}

func TestRenderClaimPacket(t *testing.T) {
	router := newTestRouter(&scriptedCompleter{}, &stubSigner{})

	rec := postJSON(t, router, "/api/claims/packet", validClaim(), true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestRenderClaimPacketMissingRequesterEmail(t *testing.T) {
	router := newTestRouter(&scriptedCompleter{}, &stubSigner{})

	claim := validClaim()
	claim["requester"] = map[string]any{"name": "Jane Doe"}
	rec := postJSON(t, router, "/api/claims/packet", claim, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "requester.email")
	assert.NotContains(t, rec.Body.String(), "%PDF")
}

func TestComposePass(t *testing.T) {
	router := newTestRouter(&scriptedCompleter{}, &stubSigner{out: []byte("PKSIGNED")})

	rec := postJSON(t, router, "/api/passes", map[string]any{
		"id":    "sub-1",
		"email": "jane@home.example",
	}, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.apple.pkpass", rec.Header().Get("Content-Type"))
	assert.Equal(t, "PKSIGNED", rec.Body.String())
}

func TestComposePassSignerNotConfigured(t *testing.T) {
	router := newTestRouter(&scriptedCompleter{}, &stubSigner{err: wallet.ErrMissingCredential})

	rec := postJSON(t, router, "/api/passes", map[string]any{
		"id":    "sub-1",
		"email": "jane@home.example",
	}, true)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "not configured")
	assert.NotContains(t, rec.Body.String(), "PK", "no partial artifact bytes")
}

func TestEncodeCalendarEvent(t *testing.T) {
	router := newTestRouter(&scriptedCompleter{}, &stubSigner{})

	rec := postJSON(t, router, "/api/warranties/calendar", map[string]any{
		"id":              "prod-1",
		"product_name":    "UltraBlend 3000",
		"purchase_date":   "2024-01-15",
		"warranty_months": 12,
	}, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "DTSTART:20250115")
	assert.Contains(t, body, "TRIGGER:-P7D")
}

func TestEncodeCalendarEventValidation(t *testing.T) {
	router := newTestRouter(&scriptedCompleter{}, &stubSigner{})

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			"bad date format",
			map[string]any{"id": "p", "product_name": "TV", "purchase_date": "15/01/2024", "warranty_months": 12},
			"YYYY-MM-DD",
		},
		{
			"zero months",
			map[string]any{"id": "p", "product_name": "TV", "purchase_date": "2024-01-15", "warranty_months": 0},
			"warranty_months",
		},
		{
			"missing product name",
			map[string]any{"id": "p", "purchase_date": "2024-01-15", "warranty_months": 12},
			"product_name",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, router, "/api/warranties/calendar", tc.body, true)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestHealthOpen(t *testing.T) {
	router := newTestRouter(&scriptedCompleter{}, &stubSigner{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Status     string   `json:"status"`
		Service    string   `json:"service"`
		Operations []string `json:"operations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "warranty-desk", resp.Service)
	assert.Contains(t, resp.Operations, "classify-and-extract")
	assert.Len(t, resp.Operations, 4)
}

func TestInvalidJSONBody(t *testing.T) {
	router := newTestRouter(&scriptedCompleter{}, &stubSigner{})

	req := httptest.NewRequest(http.MethodPost, "/api/interpret", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
