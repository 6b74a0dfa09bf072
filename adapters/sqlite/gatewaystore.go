package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artpar/invoicer/domain/gateway"
	"github.com/artpar/invoicer/ports"
)

// GatewaySettingsStore implements ports.GatewaySettingsStore using SQLite.
// Secrets are persisted exactly as given; sealing happens above the store.
type GatewaySettingsStore struct {
	db *DB
}

// NewGatewaySettingsStore creates a new gateway settings store.
func NewGatewaySettingsStore(db *DB) *GatewaySettingsStore {
	return &GatewaySettingsStore{db: db}
}

// Get retrieves settings for one user and gateway.
func (s *GatewaySettingsStore) Get(ctx context.Context, key gateway.Key) (gateway.Settings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, gateway, mode, enabled, public_key, secret_key, webhook_secret, updated_at
		FROM gateway_settings
		WHERE user_id = ? AND gateway = ?
	`, key.UserID, string(key.Gateway))
	return scanGatewaySettings(row)
}

// Save creates or replaces settings.
func (s *GatewaySettingsStore) Save(ctx context.Context, gs gateway.Settings) error {
	if gs.UpdatedAt.IsZero() {
		gs.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gateway_settings (user_id, gateway, mode, enabled, public_key, secret_key, webhook_secret, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, gateway) DO UPDATE SET
			mode = excluded.mode,
			enabled = excluded.enabled,
			public_key = excluded.public_key,
			secret_key = excluded.secret_key,
			webhook_secret = excluded.webhook_secret,
			updated_at = excluded.updated_at
	`,
		gs.UserID, string(gs.Gateway), string(gs.Mode), gs.Enabled,
		nullString(gs.PublicKey), nullString(gs.SecretKey), nullString(gs.WebhookSecret),
		gs.UpdatedAt.UTC(),
	)
	return err
}

// ListByUser returns every gateway configured by a user, ordered by gateway.
func (s *GatewaySettingsStore) ListByUser(ctx context.Context, userID string) ([]gateway.Settings, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, gateway, mode, enabled, public_key, secret_key, webhook_secret, updated_at
		FROM gateway_settings
		WHERE user_id = ?
		ORDER BY gateway
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []gateway.Settings
	for rows.Next() {
		gs, err := scanGatewaySettings(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, gs)
	}
	return result, rows.Err()
}

// Delete removes settings for one user and gateway.
func (s *GatewaySettingsStore) Delete(ctx context.Context, key gateway.Key) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM gateway_settings WHERE user_id = ? AND gateway = ?`,
		key.UserID, string(key.Gateway),
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func scanGatewaySettings(row rowScanner) (gateway.Settings, error) {
	var gs gateway.Settings
	var name, mode string
	var publicKey, secretKey, webhookSecret sql.NullString

	err := row.Scan(&gs.UserID, &name, &mode, &gs.Enabled, &publicKey, &secretKey, &webhookSecret, &gs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return gateway.Settings{}, ErrNotFound
	}
	if err != nil {
		return gateway.Settings{}, err
	}

	gs.Gateway = gateway.Name(name)
	gs.Mode = gateway.Mode(mode)
	gs.PublicKey = publicKey.String
	gs.SecretKey = secretKey.String
	gs.WebhookSecret = webhookSecret.String
	return gs, nil
}

// Ensure interface compliance.
var _ ports.GatewaySettingsStore = (*GatewaySettingsStore)(nil)
