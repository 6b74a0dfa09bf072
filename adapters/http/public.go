package http

import (
	"net/http"

	"github.com/artpar/invoicer/app"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// PublicHandler serves invoices to clients holding a view token.
type PublicHandler struct {
	service *app.InvoiceService
	logger  zerolog.Logger
}

// NewPublicHandler creates a new public invoice handler.
func NewPublicHandler(service *app.InvoiceService, logger zerolog.Logger) *PublicHandler {
	return &PublicHandler{service: service, logger: logger}
}

// View returns the invoice behind a view token and records the view.
//
//	@Summary		View invoice as client
//	@Description	Marks the invoice viewed on first access. Cost, profit and client email are not shown.
//	@Tags			Public
//	@Produce		json
//	@Param			token	path		string	true	"View token"
//	@Success		200		{object}	InvoiceResponse
//	@Failure		404		{object}	ErrorResponseBody
//	@Router			/public/invoices/{token} [get]
func (h *PublicHandler) View(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.ViewByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Debug().Str("invoice_id", inv.ID).Msg("invoice viewed by client")
	writeJSON(w, http.StatusOK, publicInvoice(inv))
}
