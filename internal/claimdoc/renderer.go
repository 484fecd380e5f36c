// Package claimdoc renders warranty claim packets as single-page PDF
// documents using a cursor-based layout.
package claimdoc

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/coverly/warranty-desk/internal/sanitize"
)

// Product describes the item a claim is filed for. ID and Name are
// required; the rest render as empty rows when absent.
type Product struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand"`
	SerialNumber string  `json:"serial_number"`
	PurchaseDate string  `json:"purchase_date"`
	OrderNumber  string  `json:"order_number"`
	Retailer     string  `json:"retailer"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	Category     string  `json:"category"`
}

// Requester identifies who files the claim.
type Requester struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ClaimRequest is the validated input for one claim packet. Every text
// field is sanitized before measurement and drawing; the packet is
// composed fresh per request with no shared layout state.
type ClaimRequest struct {
	Product   Product   `json:"product"`
	Problem   string    `json:"problem_description"`
	Requester Requester `json:"requester"`
}

// Page geometry in points (A4 portrait).
const (
	marginLeft   = 50.0
	marginRight  = 50.0
	topBaseline  = 70.0
	footerY      = 790.0
	bottomMargin = 770.0

	lineHeight = 16.0
	sectionGap = 14.0

	titleSize   = 20.0
	headingSize = 13.0
	bodySize    = 11.0
	footerSize  = 8.0
)

// Renderer produces claim packet documents. It is stateless across
// requests; Organization appears in the header mark and footer
// attribution.
type Renderer struct {
	Organization string
	now          func() time.Time
}

// NewRenderer creates a Renderer for the given organization name.
func NewRenderer(organization string) *Renderer {
	return &Renderer{Organization: organization, now: time.Now}
}

// Render composes the claim packet and returns the finished document
// bytes. The layout is strictly single-page: content past the bottom
// margin is accepted, not an error.
func (r *Renderer) Render(req ClaimRequest) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()
	l := layout{
		y:      topBaseline,
		left:   marginLeft,
		right:  pageWidth - marginRight,
		bottom: bottomMargin,
	}

	clean := sanitize.Clean
	p := req.Product

	l = r.drawHeader(pdf, l)

	l = r.drawSectionHeading(pdf, l, "Requester")
	l = r.drawRow(pdf, l, "Name", clean(req.Requester.Name))
	l = r.drawRow(pdf, l, "Email", clean(req.Requester.Email))
	l = l.advance(sectionGap)

	l = r.drawSectionHeading(pdf, l, "Product Details")
	l = r.drawRow(pdf, l, "Product", clean(p.Name))
	l = r.drawRow(pdf, l, "Brand", clean(p.Brand))
	l = r.drawRow(pdf, l, "Serial Number", clean(p.SerialNumber))
	l = r.drawRow(pdf, l, "Category", clean(p.Category))
	l = l.advance(sectionGap)

	l = r.drawSectionHeading(pdf, l, "Purchase Information")
	l = r.drawRow(pdf, l, "Retailer", clean(p.Retailer))
	l = r.drawRow(pdf, l, "Order Number", clean(p.OrderNumber))
	l = r.drawRow(pdf, l, "Purchase Date", clean(p.PurchaseDate))
	l = r.drawRow(pdf, l, "Price", formatPrice(p.Price, clean(p.Currency)))
	l = l.advance(sectionGap)

	l = r.drawSectionHeading(pdf, l, "Problem Description")
	l = r.drawWrapped(pdf, l, clean(req.Problem), "I")
	l = l.advance(sectionGap)

	l = r.drawSectionHeading(pdf, l, "Supporting Evidence")
	r.drawWrapped(pdf, l, "Please attach copies of the purchase receipt and any "+
		"supporting evidence (photos, correspondence with the retailer) when "+
		"submitting this claim packet.", "")

	r.drawFooter(pdf, clean(p.ID))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("claimdoc: render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawHeader(pdf *fpdf.Fpdf, l layout) layout {
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.Text(l.left, l.y, "Warranty Claim Packet")

	mark := r.Organization
	pdf.SetFont("Helvetica", "B", headingSize)
	markWidth := pdf.GetStringWidth(mark)
	pdf.Text(l.right-markWidth, l.y, mark)
	l = l.advance(12)

	pdf.SetDrawColor(60, 60, 60)
	pdf.SetLineWidth(1.2)
	pdf.Line(l.left, l.y, l.right, l.y)
	l = l.advance(lineHeight)

	pdf.SetFont("Helvetica", "", footerSize+1)
	pdf.SetTextColor(90, 90, 90)
	pdf.Text(l.left, l.y, "Generated "+r.now().UTC().Format("2006-01-02 15:04 UTC"))
	pdf.SetTextColor(0, 0, 0)
	return l.advance(lineHeight + sectionGap)
}

func (r *Renderer) drawSectionHeading(pdf *fpdf.Fpdf, l layout, title string) layout {
	pdf.SetFont("Helvetica", "B", headingSize)
	pdf.Text(l.left, l.y, title)
	return l.advance(lineHeight + 2)
}

// drawRow draws one "Label:  value" line at the body size.
func (r *Renderer) drawRow(pdf *fpdf.Fpdf, l layout, label, value string) layout {
	pdf.SetFont("Helvetica", "B", bodySize)
	pdf.Text(l.left, l.y, label+":")

	pdf.SetFont("Helvetica", "", bodySize)
	if value == "" {
		value = "-"
	}
	pdf.Text(l.left+120, l.y, value)
	return l.advance(lineHeight)
}

// drawWrapped draws free text greedily word-wrapped to the usable
// width, measured at the body font size.
func (r *Renderer) drawWrapped(pdf *fpdf.Fpdf, l layout, text, style string) layout {
	pdf.SetFont("Helvetica", style, bodySize)
	lines := wrapWords(text, l.usableWidth(), pdf.GetStringWidth)
	for _, line := range lines {
		pdf.Text(l.left, l.y, line)
		l = l.advance(lineHeight)
	}
	return l
}

func (r *Renderer) drawFooter(pdf *fpdf.Fpdf, productID string) {
	docID := fmt.Sprintf("WD-%s-%d", productID, r.now().UTC().Unix())

	pdf.SetFont("Helvetica", "", footerSize)
	pdf.SetTextColor(120, 120, 120)
	pdf.Text(marginLeft, footerY, "Generated by "+r.Organization+" Warranty Desk")

	idText := "Document ID: " + docID
	pageWidth, _ := pdf.GetPageSize()
	pdf.Text(pageWidth-marginRight-pdf.GetStringWidth(idText), footerY, idText)
	pdf.SetTextColor(0, 0, 0)
}

func formatPrice(price float64, currency string) string {
	if price == 0 {
		return ""
	}
	if currency == "" {
		return fmt.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.2f %s", price, currency)
}
