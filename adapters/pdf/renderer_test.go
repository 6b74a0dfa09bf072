package pdf_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/artpar/invoicer/adapters/pdf"
	"github.com/artpar/invoicer/domain/invoice"
	"github.com/shopspring/decimal"
)

func sampleInvoice() invoice.Invoice {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	return invoice.New("inv-1", "INV-202401-0001", invoice.Draft{
		UserID:     "user-1",
		ClientName: "Jane Client",
		Currency:   "EUR",
		Items: []invoice.LineItem{
			{Description: "Consulting", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100)},
			{Description: "Café & croissants", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("9.50")},
		},
		TaxRate:      decimal.NewFromInt(10),
		DiscountRate: decimal.NewFromInt(5),
		DueDate:      now.AddDate(0, 0, 30),
		Notes:        "Thanks for your business.",
	}, now)
}

func TestRenderPDF(t *testing.T) {
	tests := []struct {
		name     string
		renderer pdf.Renderer
		payments []invoice.Payment
	}{
		{"minimal", pdf.Renderer{}, nil},
		{"with company", pdf.Renderer{CompanyName: "Acme Ltd", CompanyAddress: "1 Main St\nSpringfield"}, nil},
		{"with payments", pdf.Renderer{CompanyName: "Acme Ltd"}, []invoice.Payment{{
			ID:        "pay-1",
			Amount:    decimal.NewFromInt(50),
			Method:    invoice.MethodBankTransfer,
			Reference: "TX-42",
			PaidAt:    time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := sampleInvoice()
			inv.AmountPaid = invoice.SumPayments(tt.payments)

			out, err := tt.renderer.RenderPDF(inv, tt.payments)
			if err != nil {
				t.Fatalf("RenderPDF error: %v", err)
			}
			if !bytes.HasPrefix(out, []byte("%PDF-")) {
				t.Errorf("output does not start with %%PDF-: %q", out[:min(len(out), 8)])
			}
			if len(out) < 500 {
				t.Errorf("len(output) = %d, suspiciously small", len(out))
			}
		})
	}
}
