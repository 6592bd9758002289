package db

import (
	"fmt"
	"time"

	"fundrouter/internal/config"
	"fundrouter/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB connects to Postgres, migrates the schema and seeds the mutable
// global configuration rows.
func InitDB() error {
	if config.AppConfig == nil || config.AppConfig.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	var err error
	DB, err = gorm.Open(postgres.Open(config.AppConfig.Database.DSN), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	if err := DB.AutoMigrate(
		&models.DepositBalance{},
		&models.FeeBalance{},
		&models.GlobalConfig{},
		&models.OrderReceipt{},
		&models.WithdrawalReceipt{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	if err := seedGlobalConfig(DB); err != nil {
		return fmt.Errorf("failed to seed global config: %w", err)
	}

	logrus.Info("database connected and schema migrated")
	return nil
}

// seedGlobalConfig creates the executor address and emergency mode rows when
// missing. The executor address falls back to the static config value; the
// breaker starts in normal mode.
func seedGlobalConfig(db *gorm.DB) error {
	seeds := []models.GlobalConfig{
		{
			ConfigKey:   models.ConfigKeyExecutorAddress,
			ConfigValue: config.AppConfig.Blockchain.ExecutorAddress,
			Description: "Downstream order-execution service contract address",
			UpdatedBy:   "system",
		},
		{
			ConfigKey:   models.ConfigKeyEmergencyMode,
			ConfigValue: "false",
			Description: "Circuit breaker state: true = paused",
			UpdatedBy:   "system",
		},
	}

	for _, seed := range seeds {
		var existing models.GlobalConfig
		err := db.Where("config_key = ?", seed.ConfigKey).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		seed.CreatedAt = time.Now()
		seed.UpdatedAt = time.Now()
		if err := db.Create(&seed).Error; err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"key":   seed.ConfigKey,
			"value": seed.ConfigValue,
		}).Info("seeded global config")
	}
	return nil
}
