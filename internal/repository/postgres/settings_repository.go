package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mitaict-site/internal/domain"
)

const (
	settingAbout        = "about"
	settingIntegrations = "social_integrations"

	getSettingQuery  = `SELECT value, updated_at FROM site_settings WHERE key = $1`
	saveSettingQuery = `
		INSERT INTO site_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING updated_at`
)

// SettingsRepository keeps singleton documents as JSONB rows keyed by name.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) get(ctx context.Context, key string, dest any) (time.Time, error) {
	var raw []byte
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, getSettingQuery, key).Scan(&raw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, domain.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode setting %s: %w", key, err)
	}
	return updatedAt, nil
}

func (r *SettingsRepository) save(ctx context.Context, key string, value any) (time.Time, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	var updatedAt time.Time
	if err := r.db.QueryRowContext(ctx, saveSettingQuery, key, raw).Scan(&updatedAt); err != nil {
		return time.Time{}, fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return updatedAt, nil
}

func (r *SettingsRepository) GetAbout(ctx context.Context) (*domain.AboutContent, error) {
	about := &domain.AboutContent{}
	updatedAt, err := r.get(ctx, settingAbout, about)
	if err != nil {
		return nil, err
	}
	about.UpdatedAt = updatedAt
	return about, nil
}

func (r *SettingsRepository) SaveAbout(ctx context.Context, about *domain.AboutContent) error {
	updatedAt, err := r.save(ctx, settingAbout, about)
	if err != nil {
		return err
	}
	about.UpdatedAt = updatedAt
	return nil
}

func (r *SettingsRepository) GetIntegrations(ctx context.Context) (*domain.SocialIntegrations, error) {
	integrations := &domain.SocialIntegrations{}
	if _, err := r.get(ctx, settingIntegrations, integrations); err != nil {
		return nil, err
	}
	return integrations, nil
}

func (r *SettingsRepository) SaveIntegrations(ctx context.Context, integrations *domain.SocialIntegrations) error {
	_, err := r.save(ctx, settingIntegrations, integrations)
	return err
}
