package http

import (
	"net/http"

	"github.com/artpar/invoicer/domain/invoice"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TotalsRequest is the body of POST /api/totals.
type TotalsRequest struct {
	Items        []invoice.LineItem `json:"items"`
	TaxRate      decimal.Decimal    `json:"tax_rate" swaggertype:"string" example:"10"`
	DiscountRate decimal.Decimal    `json:"discount_rate" swaggertype:"string" example:"5"`
	CostPrice    decimal.Decimal    `json:"cost_price" swaggertype:"string" example:"150"`
	AmountPaid   decimal.Decimal    `json:"amount_paid" swaggertype:"string" example:"0"`
}

// TotalsResponse holds the computed amounts.
type TotalsResponse struct {
	invoice.Totals
	Profit    invoice.Profit  `json:"profit"`
	Remaining decimal.Decimal `json:"remaining" swaggertype:"string"`
}

// TotalsHandler computes invoice totals without storing anything.
type TotalsHandler struct {
	logger zerolog.Logger
}

// NewTotalsHandler creates a new totals handler.
func NewTotalsHandler(logger zerolog.Logger) *TotalsHandler {
	return &TotalsHandler{logger: logger}
}

// Calculate computes subtotal, tax, discount, total, profit and balance.
//
//	@Summary		Calculate totals
//	@Description	Tax and discount both apply to the subtotal; amounts are rounded half away from zero to cents
//	@Tags			Calculations
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TotalsRequest	true	"Line items and rates"
//	@Success		200		{object}	TotalsResponse
//	@Failure		400		{object}	ErrorResponseBody
//	@Router			/api/totals [post]
func (h *TotalsHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req TotalsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !invoice.ValidateItems(req.Items) {
		writeError(w, h.logger, badRequest("items: at least one item with a description, positive quantity and non-negative price is required"))
		return
	}
	if req.TaxRate.IsNegative() || req.DiscountRate.IsNegative() {
		writeError(w, h.logger, badRequest("rates must not be negative"))
		return
	}

	totals := invoice.CalculateTotals(req.Items, req.TaxRate, req.DiscountRate)
	writeJSON(w, http.StatusOK, TotalsResponse{
		Totals:    totals,
		Profit:    invoice.CalculateProfitMargin(totals.Total, req.CostPrice),
		Remaining: invoice.CalculateRemainingAmount(totals.Total, req.AmountPaid),
	})
}
