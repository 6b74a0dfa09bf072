package http

import (
	"net/http"
	"time"

	"github.com/artpar/invoicer/app"
	"github.com/artpar/invoicer/domain/gateway"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// GatewayHandler serves per-user payment gateway settings.
type GatewayHandler struct {
	service *app.GatewaySettingsService
	logger  zerolog.Logger
}

// NewGatewayHandler creates a new gateway settings handler.
func NewGatewayHandler(service *app.GatewaySettingsService, logger zerolog.Logger) *GatewayHandler {
	return &GatewayHandler{service: service, logger: logger}
}

// Routes mounts the gateway endpoints.
func (h *GatewayHandler) Routes(r chi.Router) {
	r.Get("/gateways", h.List)
	r.Get("/gateways/{gateway}", h.Get)
	r.Put("/gateways/{gateway}", h.Put)
	r.Delete("/gateways/{gateway}", h.Delete)
}

// GatewaySettingsRequest is the body of PUT /api/gateways/{gateway}.
type GatewaySettingsRequest struct {
	Mode          string `json:"mode,omitempty" example:"test"`
	Enabled       bool   `json:"enabled"`
	PublicKey     string `json:"public_key,omitempty" example:"pk_test_123"`
	SecretKey     string `json:"secret_key,omitempty" example:"sk_test_abc"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// GatewaySettingsResponse shows settings with secrets masked.
type GatewaySettingsResponse struct {
	Gateway       gateway.Name `json:"gateway" example:"stripe"`
	Mode          gateway.Mode `json:"mode" example:"test"`
	Enabled       bool         `json:"enabled"`
	PublicKey     string       `json:"public_key,omitempty"`
	SecretKey     string       `json:"secret_key,omitempty" example:"********_abc"`
	WebhookSecret string       `json:"webhook_secret,omitempty"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func toGatewayResponse(s gateway.Settings) GatewaySettingsResponse {
	return GatewaySettingsResponse{
		Gateway:       s.Gateway,
		Mode:          s.Mode,
		Enabled:       s.Enabled,
		PublicKey:     s.PublicKey,
		SecretKey:     s.SecretKey,
		WebhookSecret: s.WebhookSecret,
		UpdatedAt:     s.UpdatedAt,
	}
}

// List lists the tenant's configured gateways.
//
//	@Summary		List gateway settings
//	@Tags			Gateways
//	@Produce		json
//	@Param			X-User-ID	header	string	true	"Tenant"
//	@Success		200			{array}	GatewaySettingsResponse
//	@Router			/api/gateways [get]
func (h *GatewayHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := make([]GatewaySettingsResponse, 0, len(all))
	for _, s := range all {
		resp = append(resp, toGatewayResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one gateway's settings, masked.
//
//	@Summary		Get gateway settings
//	@Tags			Gateways
//	@Produce		json
//	@Param			X-User-ID	header		string	true	"Tenant"
//	@Param			gateway		path		string	true	"Gateway"	Enums(stripe, paypal, razorpay, bank_transfer)
//	@Success		200			{object}	GatewaySettingsResponse
//	@Failure		404			{object}	ErrorResponseBody
//	@Router			/api/gateways/{gateway} [get]
func (h *GatewayHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, err := gatewayKey(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	settings, err := h.service.GetMasked(r.Context(), key)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toGatewayResponse(settings))
}

// Put saves one gateway's settings.
//
//	@Summary		Save gateway settings
//	@Description	Secrets are sealed before they are stored and returned masked
//	@Tags			Gateways
//	@Accept			json
//	@Produce		json
//	@Param			X-User-ID	header		string					true	"Tenant"
//	@Param			gateway		path		string					true	"Gateway"
//	@Param			body		body		GatewaySettingsRequest	true	"Settings"
//	@Success		200			{object}	GatewaySettingsResponse
//	@Failure		400			{object}	ErrorResponseBody
//	@Router			/api/gateways/{gateway} [put]
func (h *GatewayHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req GatewaySettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	saved, err := h.service.Save(r.Context(), gateway.Settings{
		UserID:        userID(r),
		Gateway:       gateway.Name(chi.URLParam(r, "gateway")),
		Mode:          gateway.Mode(req.Mode),
		Enabled:       req.Enabled,
		PublicKey:     req.PublicKey,
		SecretKey:     req.SecretKey,
		WebhookSecret: req.WebhookSecret,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toGatewayResponse(saved))
}

// Delete removes one gateway's settings.
//
//	@Summary		Delete gateway settings
//	@Tags			Gateways
//	@Param			X-User-ID	header	string	true	"Tenant"
//	@Param			gateway		path	string	true	"Gateway"
//	@Success		204
//	@Failure		404	{object}	ErrorResponseBody
//	@Router			/api/gateways/{gateway} [delete]
func (h *GatewayHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key, err := gatewayKey(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.service.Delete(r.Context(), key); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func gatewayKey(r *http.Request) (gateway.Key, error) {
	uid := userID(r)
	if uid == "" {
		return gateway.Key{}, app.ErrMissingUser
	}
	name, err := gateway.ParseName(chi.URLParam(r, "gateway"))
	if err != nil {
		return gateway.Key{}, err
	}
	return gateway.Key{UserID: uid, Gateway: name}, nil
}
