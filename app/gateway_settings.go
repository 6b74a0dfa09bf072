package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/artpar/invoicer/domain/gateway"
	"github.com/artpar/invoicer/ports"
	"github.com/rs/zerolog"
)

// GatewaySettingsService stores per-user payment gateway credentials with
// secrets sealed at rest.
type GatewaySettingsService struct {
	store  ports.GatewaySettingsStore
	sealer ports.Sealer
	clock  ports.Clock
	logger zerolog.Logger
}

// NewGatewaySettingsService creates a new gateway settings service.
func NewGatewaySettingsService(
	store ports.GatewaySettingsStore,
	sealer ports.Sealer,
	clock ports.Clock,
	logger zerolog.Logger,
) *GatewaySettingsService {
	return &GatewaySettingsService{
		store:  store,
		sealer: sealer,
		clock:  clock,
		logger: logger,
	}
}

// Save validates and stores settings, replacing any previous ones for the
// same user and gateway. It returns the stored settings masked.
func (s *GatewaySettingsService) Save(ctx context.Context, settings gateway.Settings) (gateway.Settings, error) {
	name, err := gateway.ParseName(string(settings.Gateway))
	if err != nil {
		return gateway.Settings{}, err
	}
	settings.Gateway = name
	settings.PublicKey = strings.TrimSpace(settings.PublicKey)
	settings = settings.WithDefaults()
	if err := settings.Validate(); err != nil {
		return gateway.Settings{}, err
	}
	settings.UpdatedAt = s.clock.Now()

	sealed := settings
	if sealed.SecretKey, err = s.sealer.Seal(settings.SecretKey); err != nil {
		return gateway.Settings{}, fmt.Errorf("seal secret key: %w", err)
	}
	if sealed.WebhookSecret, err = s.sealer.Seal(settings.WebhookSecret); err != nil {
		return gateway.Settings{}, fmt.Errorf("seal webhook secret: %w", err)
	}

	if err := s.store.Save(ctx, sealed); err != nil {
		return gateway.Settings{}, fmt.Errorf("save gateway settings: %w", err)
	}

	s.logger.Info().
		Str("user_id", settings.UserID).
		Str("gateway", string(settings.Gateway)).
		Str("mode", string(settings.Mode)).
		Bool("enabled", settings.Enabled).
		Msg("gateway settings saved")

	return settings.Masked(), nil
}

// Get returns settings with secrets in plaintext, for use by gateway integrations.
func (s *GatewaySettingsService) Get(ctx context.Context, key gateway.Key) (gateway.Settings, error) {
	sealed, err := s.store.Get(ctx, key)
	if err != nil {
		return gateway.Settings{}, err
	}
	return s.open(sealed)
}

// GetMasked returns settings safe to display.
func (s *GatewaySettingsService) GetMasked(ctx context.Context, key gateway.Key) (gateway.Settings, error) {
	settings, err := s.Get(ctx, key)
	if err != nil {
		return gateway.Settings{}, err
	}
	return settings.Masked(), nil
}

// List returns every gateway the user configured, secrets masked.
func (s *GatewaySettingsService) List(ctx context.Context, userID string) ([]gateway.Settings, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	all, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]gateway.Settings, 0, len(all))
	for _, sealed := range all {
		settings, err := s.open(sealed)
		if err != nil {
			return nil, err
		}
		result = append(result, settings.Masked())
	}
	return result, nil
}

// Delete removes the settings for one gateway.
func (s *GatewaySettingsService) Delete(ctx context.Context, key gateway.Key) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	s.logger.Info().
		Str("user_id", key.UserID).
		Str("gateway", string(key.Gateway)).
		Msg("gateway settings deleted")
	return nil
}

func (s *GatewaySettingsService) open(sealed gateway.Settings) (gateway.Settings, error) {
	settings := sealed
	var err error
	if settings.SecretKey, err = s.sealer.Open(sealed.SecretKey); err != nil {
		return gateway.Settings{}, fmt.Errorf("open secret key: %w", err)
	}
	if settings.WebhookSecret, err = s.sealer.Open(sealed.WebhookSecret); err != nil {
		return gateway.Settings{}, fmt.Errorf("open webhook secret: %w", err)
	}
	return settings, nil
}
