package services

import (
	"context"
	"fmt"
	"math/big"

	"fundrouter/internal/breaker"
	"fundrouter/internal/config"
	"fundrouter/internal/events"
	"fundrouter/internal/gateway"
	"fundrouter/internal/guard"
	"fundrouter/internal/metrics"
	"fundrouter/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// TreasuryService is the administrative surface: fee sweeps, the circuit
// breaker, emergency recovery and execution-service rotation. Caller
// authorization happens in the admin middleware before any of these run.
type TreasuryService struct {
	ledger   repository.LedgerRepository
	configs  repository.ConfigRepository
	gateway  gateway.TokenGateway
	breaker  *breaker.Breaker
	guard    *guard.EntryGuard
	notifier *events.Notifier
}

func NewTreasuryService(
	ledger repository.LedgerRepository,
	configs repository.ConfigRepository,
	gw gateway.TokenGateway,
	brk *breaker.Breaker,
	entryGuard *guard.EntryGuard,
	notifier *events.Notifier,
) *TreasuryService {
	return &TreasuryService{
		ledger:   ledger,
		configs:  configs,
		gateway:  gw,
		breaker:  brk,
		guard:    entryGuard,
		notifier: notifier,
	}
}

// WithdrawFees sweeps the full accumulated fee balance for the asset to the
// owner and zeroes it. Available in both breaker states.
func (s *TreasuryService) WithdrawFees(ctx context.Context, assetKey, adminID string) (swept string, txHash string, err error) {
	if !s.guard.TryAcquire() {
		metrics.ReentrantRejections.Inc()
		return "", "", ErrReentrant
	}
	defer s.guard.Release()

	asset, err := config.GetAsset(assetKey)
	if err != nil {
		return "", "", err
	}
	owner := config.AppConfig.Blockchain.OwnerAddress

	var amount *big.Int
	err = s.ledger.Transaction(ctx, func(tx repository.LedgerRepository) error {
		fees, err := tx.GetFees(ctx, assetKey)
		if err != nil {
			return err
		}
		if fees.Sign() == 0 {
			return ErrNoFees
		}
		amount = fees

		txHash, err = s.gateway.PushTo(ctx, asset.Address, owner, fees)
		if err != nil {
			return fmt.Errorf("sweep fees: %w", err)
		}
		return tx.SetFees(ctx, assetKey, big.NewInt(0))
	})
	if err != nil {
		return "", "", err
	}

	s.notifier.FeeWithdrawn(assetKey, amount.String())
	metrics.FeeSweepsTotal.WithLabelValues(assetKey).Inc()

	logrus.WithFields(logrus.Fields{
		"asset":  assetKey,
		"amount": amount.String(),
		"by":     adminID,
	}).Info("fees swept to owner")
	return amount.String(), txHash, nil
}

// EmergencyWithdraw sweeps the entire custody balance of the asset to the
// owner. It bypasses per-user ledger accounting entirely and is only
// permitted while the breaker is paused.
func (s *TreasuryService) EmergencyWithdraw(ctx context.Context, assetKey, adminID string) (swept string, txHash string, err error) {
	if !s.guard.TryAcquire() {
		metrics.ReentrantRejections.Inc()
		return "", "", ErrReentrant
	}
	defer s.guard.Release()

	if !s.breaker.Paused() {
		return "", "", ErrOperationNotPaused
	}

	asset, err := config.GetAsset(assetKey)
	if err != nil {
		return "", "", err
	}
	owner := config.AppConfig.Blockchain.OwnerAddress

	balance, err := s.gateway.CustodyBalance(ctx, asset.Address)
	if err != nil {
		return "", "", err
	}
	if balance.Sign() == 0 {
		return "", "", fmt.Errorf("no custody balance for asset %s", assetKey)
	}

	txHash, err = s.gateway.PushTo(ctx, asset.Address, owner, balance)
	if err != nil {
		return "", "", fmt.Errorf("emergency withdraw: %w", err)
	}

	s.notifier.EmergencyWithdrawal(assetKey, balance.String())
	metrics.EmergencyWithdrawalsTotal.WithLabelValues(assetKey).Inc()

	logrus.WithFields(logrus.Fields{
		"asset":  assetKey,
		"amount": balance.String(),
		"by":     adminID,
	}).Warn("emergency withdrawal executed")
	return balance.String(), txHash, nil
}

// ActivateEmergencyMode pauses the breaker.
func (s *TreasuryService) ActivateEmergencyMode(ctx context.Context, adminID string) error {
	if err := s.breaker.Pause(ctx, adminID); err != nil {
		return err
	}
	s.notifier.EmergencyModeActivated(adminID)
	return nil
}

// DeactivateEmergencyMode resumes normal operation.
func (s *TreasuryService) DeactivateEmergencyMode(ctx context.Context, adminID string) error {
	if err := s.breaker.Resume(ctx, adminID); err != nil {
		return err
	}
	s.notifier.EmergencyModeDeactivated(adminID)
	return nil
}

// UpdateExecutionService rotates the downstream execution service address.
func (s *TreasuryService) UpdateExecutionService(ctx context.Context, newAddress, adminID string) error {
	if !common.IsHexAddress(newAddress) || common.HexToAddress(newAddress) == (common.Address{}) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, newAddress)
	}
	if err := s.configs.SetExecutorAddress(ctx, newAddress, adminID); err != nil {
		return err
	}
	s.notifier.ServiceUpdated(newAddress)
	logrus.WithFields(logrus.Fields{
		"address": newAddress,
		"by":      adminID,
	}).Info("execution service address rotated")
	return nil
}
