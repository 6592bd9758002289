package repository

import (
	"context"
	"time"

	"fundrouter/internal/models"

	"gorm.io/gorm"
)

// ConfigRepository reads and writes the mutable runtime configuration rows:
// the executor contract address and the circuit breaker mode.
type ConfigRepository interface {
	GetExecutorAddress(ctx context.Context) (string, error)
	SetExecutorAddress(ctx context.Context, address, updatedBy string) error
	GetEmergencyMode(ctx context.Context) (bool, error)
	SetEmergencyMode(ctx context.Context, paused bool, updatedBy string) error
}

type configRepository struct {
	db *gorm.DB
}

// NewConfigRepository creates a new ConfigRepository instance.
func NewConfigRepository(db *gorm.DB) ConfigRepository {
	return &configRepository{db: db}
}

func (r *configRepository) GetExecutorAddress(ctx context.Context) (string, error) {
	return r.getValue(ctx, models.ConfigKeyExecutorAddress)
}

func (r *configRepository) SetExecutorAddress(ctx context.Context, address, updatedBy string) error {
	return r.setValue(ctx, models.ConfigKeyExecutorAddress, address, updatedBy)
}

func (r *configRepository) GetEmergencyMode(ctx context.Context) (bool, error) {
	value, err := r.getValue(ctx, models.ConfigKeyEmergencyMode)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

func (r *configRepository) SetEmergencyMode(ctx context.Context, paused bool, updatedBy string) error {
	value := "false"
	if paused {
		value = "true"
	}
	return r.setValue(ctx, models.ConfigKeyEmergencyMode, value, updatedBy)
}

func (r *configRepository) getValue(ctx context.Context, key string) (string, error) {
	var row models.GlobalConfig
	err := r.db.WithContext(ctx).Where("config_key = ?", key).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.ConfigValue, nil
}

func (r *configRepository) setValue(ctx context.Context, key, value, updatedBy string) error {
	var row models.GlobalConfig
	err := r.db.WithContext(ctx).Where("config_key = ?", key).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		row = models.GlobalConfig{
			ConfigKey:   key,
			ConfigValue: value,
			UpdatedBy:   updatedBy,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		return r.db.WithContext(ctx).Create(&row).Error
	}
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&row).Updates(map[string]interface{}{
		"config_value": value,
		"updated_by":   updatedBy,
		"updated_at":   time.Now(),
	}).Error
}
