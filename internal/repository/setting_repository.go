package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edutrack-api/internal/models"
)

const settingUpsert = `INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

// SettingBatch is an ordered list of key/value upserts applied as one unit.
type SettingBatch struct {
	entries []models.Setting
}

// NewSettingBatch starts an empty batch.
func NewSettingBatch() *SettingBatch {
	return &SettingBatch{}
}

// Set queues an upsert. A key set twice keeps its last value and first position.
func (b *SettingBatch) Set(key, value string) *SettingBatch {
	for i := range b.entries {
		if b.entries[i].Key == key {
			b.entries[i].Value = value
			return b
		}
	}
	b.entries = append(b.entries, models.Setting{Key: key, Value: value})
	return b
}

// Len returns the number of queued keys.
func (b *SettingBatch) Len() int {
	return len(b.entries)
}

// Keys returns the queued keys in order.
func (b *SettingBatch) Keys() []string {
	keys := make([]string, len(b.entries))
	for i, entry := range b.entries {
		keys[i] = entry.Key
	}
	return keys
}

// SettingRepository persists key/value settings.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository constructs the repository.
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// ListByKeys returns settings whose key is in the provided slice.
func (r *SettingRepository) ListByKeys(ctx context.Context, keys []string) ([]models.Setting, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT key, value, updated_at FROM settings WHERE key IN (%s) ORDER BY key ASC`, placeholders(len(keys)))
	args := make([]interface{}, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	var settings []models.Setting
	if err := r.db.SelectContext(ctx, &settings, query, args...); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// Apply upserts every entry of the batch inside one transaction. Either all
// keys are written or none.
func (r *SettingRepository) Apply(ctx context.Context, batch *SettingBatch) error {
	if batch == nil || batch.Len() == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings tx: %w", err)
	}
	for _, entry := range batch.entries {
		if _, err := tx.ExecContext(ctx, settingUpsert, entry.Key, entry.Value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert setting %s: %w", entry.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings tx: %w", err)
	}
	return nil
}
