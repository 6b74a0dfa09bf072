// Package pdf renders invoices as PDF documents.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/artpar/invoicer/domain/invoice"
	"github.com/artpar/invoicer/ports"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const dateLayout = "Jan 2, 2006"

// Renderer renders A4 invoices using the core PDF fonts.
type Renderer struct {
	CompanyName    string
	CompanyAddress string
}

// RenderPDF renders inv and its payments into a PDF document.
func (r Renderer) RenderPDF(inv invoice.Invoice, payments []invoice.Payment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+inv.Number, true)
	pdf.SetCreator(r.CompanyName, true)
	pdf.AddPage()

	// Core fonts are cp1252; symbols outside it degrade to '.'.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	money := func(d decimal.Decimal) string {
		return tr(invoice.FormatAmount(d, inv.Currency))
	}

	// Header
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(120, 10, tr(r.CompanyName), "", 0, "L", false, 0, "")
	pdf.CellFormat(70, 10, "INVOICE", "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if r.CompanyAddress != "" {
		pdf.MultiCell(120, 5, tr(r.CompanyAddress), "", "L", false)
	}
	pdf.Ln(4)

	// Invoice metadata
	meta := [][2]string{
		{"Invoice Number", inv.Number},
		{"Status", string(inv.Status)},
		{"Issued", inv.CreatedAt.Format(dateLayout)},
	}
	if !inv.DueDate.IsZero() {
		meta = append(meta, [2]string{"Due Date", inv.DueDate.Format(dateLayout)})
	}
	for _, m := range meta {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(35, 6, m[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(m[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Bill to
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, "Bill To", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 5, tr(inv.ClientName), "", 1, "L", false, 0, "")
	if inv.ClientEmail != "" {
		pdf.CellFormat(0, 5, tr(inv.ClientEmail), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Line items
	widths := []float64{95, 25, 35, 35}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"Description", "Qty", "Unit Price", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, item := range inv.Items {
		pdf.CellFormat(widths[0], 7, tr(item.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, item.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, money(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, money(invoice.RoundCents(item.Amount())), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Totals
	totals := [][2]string{
		{"Subtotal", money(inv.Subtotal)},
		{fmt.Sprintf("Tax (%s%%)", inv.TaxRate.String()), money(inv.TaxAmount)},
	}
	if !inv.DiscountAmount.IsZero() {
		totals = append(totals, [2]string{fmt.Sprintf("Discount (%s%%)", inv.DiscountRate.String()), "-" + money(inv.DiscountAmount)})
	}
	totals = append(totals, [2]string{"Total", money(inv.Total)})
	if !inv.AmountPaid.IsZero() {
		totals = append(totals,
			[2]string{"Paid", money(inv.AmountPaid)},
			[2]string{"Balance Due", money(inv.Remaining())},
		)
	}
	for _, t := range totals {
		style := ""
		if t[0] == "Total" || t[0] == "Balance Due" {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(155, 7, t[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, t[1], "", 1, "R", false, 0, "")
	}

	// Payment history
	if len(payments) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 6, "Payments", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, p := range payments {
			line := fmt.Sprintf("%s  %s  %s", p.PaidAt.Format(dateLayout), p.Method, p.Reference)
			pdf.CellFormat(155, 6, tr(line), "", 0, "L", false, 0, "")
			pdf.CellFormat(35, 6, money(p.Amount), "", 1, "R", false, 0, "")
		}
	}

	if inv.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, tr(inv.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Ensure interface compliance.
var _ ports.InvoiceRenderer = Renderer{}
