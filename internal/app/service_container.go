package app

import (
	"context"
	"fmt"

	"fundrouter/internal/breaker"
	"fundrouter/internal/config"
	"fundrouter/internal/db"
	"fundrouter/internal/events"
	"fundrouter/internal/gateway"
	"fundrouter/internal/guard"
	"fundrouter/internal/repository"
	"fundrouter/internal/services"

	"gorm.io/gorm"
)

// ServiceContainer wires repositories, gateways and services together. One
// container per process.
type ServiceContainer struct {
	DB *gorm.DB

	LedgerRepo repository.LedgerRepository
	ConfigRepo repository.ConfigRepository

	Gateway  gateway.TokenGateway
	Executor gateway.ExecutionClient

	Breaker    *breaker.Breaker
	EntryGuard *guard.EntryGuard
	Notifier   *events.Notifier
	Push       *services.PushService

	OrderService      *services.OrderService
	SettlementService *services.SettlementService
	TreasuryService   *services.TreasuryService
	LedgerService     *services.LedgerService
}

// NewServiceContainer builds the full service graph from the loaded config
// and the initialized database.
func NewServiceContainer(ctx context.Context) (*ServiceContainer, error) {
	cfg := config.AppConfig
	if cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	if db.DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	ledgerRepo := repository.NewLedgerRepository(db.DB)
	configRepo := repository.NewConfigRepository(db.DB)

	gw, err := gateway.NewERC20Gateway(
		cfg.Blockchain.RPCEndpoints,
		cfg.Blockchain.PrivateKey,
		cfg.Blockchain.ChainID,
		cfg.Blockchain.GasLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token gateway: %w", err)
	}
	executor, err := gateway.NewExecutionClient(gw)
	if err != nil {
		return nil, fmt.Errorf("failed to create execution client: %w", err)
	}

	brk := breaker.New(configRepo)
	if err := brk.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load breaker state: %w", err)
	}

	push := services.NewPushService()
	notifier, err := events.NewNotifier(cfg.NATS, push)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	entryGuard := guard.New()

	return &ServiceContainer{
		DB:         db.DB,
		LedgerRepo: ledgerRepo,
		ConfigRepo: configRepo,
		Gateway:    gw,
		Executor:   executor,
		Breaker:    brk,
		EntryGuard: entryGuard,
		Notifier:   notifier,
		Push:       push,

		OrderService:      services.NewOrderService(ledgerRepo, configRepo, gw, executor, brk, entryGuard, notifier),
		SettlementService: services.NewSettlementService(ledgerRepo, gw, brk, entryGuard, notifier),
		TreasuryService:   services.NewTreasuryService(ledgerRepo, configRepo, gw, brk, entryGuard, notifier),
		LedgerService:     services.NewLedgerService(ledgerRepo),
	}, nil
}

// Close releases the container's external connections.
func (c *ServiceContainer) Close() {
	c.Notifier.Close()
}
