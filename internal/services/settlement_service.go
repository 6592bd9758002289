package services

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"fundrouter/internal/breaker"
	"fundrouter/internal/config"
	"fundrouter/internal/events"
	"fundrouter/internal/gateway"
	"fundrouter/internal/guard"
	"fundrouter/internal/metrics"
	"fundrouter/internal/models"
	"fundrouter/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Settlement is the profit/fee breakdown of one withdrawal.
type Settlement struct {
	Profit *big.Int
	Fee    *big.Int
	Payout *big.Int
}

// ComputeSettlement derives profit, fee and payout from the requested
// amount and the recorded deposit. Profit never goes negative; the fee is
// floor(profit * rate / 100).
func ComputeSettlement(amount, initialDeposit *big.Int, feeRatePercent int) Settlement {
	profit := new(big.Int).Sub(amount, initialDeposit)
	if profit.Sign() < 0 {
		profit.SetInt64(0)
	}
	fee := new(big.Int).Mul(profit, big.NewInt(int64(feeRatePercent)))
	fee.Quo(fee, big.NewInt(100))
	payout := new(big.Int).Sub(amount, fee)
	return Settlement{Profit: profit, Fee: fee, Payout: payout}
}

// SettlementService processes withdrawals: it computes the profit-share
// fee, pays out the remainder and updates both ledger sides atomically.
type SettlementService struct {
	ledger   repository.LedgerRepository
	gateway  gateway.TokenGateway
	breaker  *breaker.Breaker
	guard    *guard.EntryGuard
	notifier *events.Notifier
}

func NewSettlementService(
	ledger repository.LedgerRepository,
	gw gateway.TokenGateway,
	brk *breaker.Breaker,
	entryGuard *guard.EntryGuard,
	notifier *events.Notifier,
) *SettlementService {
	return &SettlementService{
		ledger:   ledger,
		gateway:  gw,
		breaker:  brk,
		guard:    entryGuard,
		notifier: notifier,
	}
}

// ProcessWithdrawal settles a withdrawal of amount for (userAddress,
// assetKey). Withdrawing more than the recorded deposit realizes the excess
// as profit and zeroes the deposit; withdrawing less subtracts from it.
func (s *SettlementService) ProcessWithdrawal(ctx context.Context, userAddress, assetKey, requestedAmount string) (*models.WithdrawalReceipt, error) {
	if !s.guard.TryAcquire() {
		metrics.ReentrantRejections.Inc()
		return nil, ErrReentrant
	}
	defer s.guard.Release()

	start := time.Now()
	defer func() {
		metrics.OperationDuration.WithLabelValues("process_withdrawal").Observe(time.Since(start).Seconds())
	}()

	if s.breaker.Paused() {
		return nil, ErrOperationPaused
	}

	amount, err := parsePositiveAmount(requestedAmount)
	if err != nil {
		return nil, err
	}
	asset, err := config.GetAsset(assetKey)
	if err != nil {
		return nil, err
	}
	feeRate := config.AppConfig.Ledger.FeeRatePercent

	var receipt *models.WithdrawalReceipt
	var settlement Settlement

	err = s.ledger.Transaction(ctx, func(tx repository.LedgerRepository) error {
		initialDeposit, err := tx.GetDeposit(ctx, userAddress, assetKey)
		if err != nil {
			return err
		}
		if initialDeposit.Sign() == 0 {
			return ErrNoDeposit
		}

		// The requested amount is trusted as the externally realized
		// return unless custody verification is enabled.
		if config.AppConfig.Ledger.VerifyCustody {
			custody, err := s.gateway.CustodyBalance(ctx, asset.Address)
			if err != nil {
				return err
			}
			if custody.Cmp(amount) < 0 {
				return fmt.Errorf("%w: requested %s exceeds custody balance %s",
					ErrInvalidAmount, amount.String(), custody.String())
			}
		}

		settlement = ComputeSettlement(amount, initialDeposit, feeRate)

		txHash, err := s.gateway.PushTo(ctx, asset.Address, userAddress, settlement.Payout)
		if err != nil {
			return fmt.Errorf("pay out withdrawal: %w", err)
		}

		fees, err := tx.GetFees(ctx, assetKey)
		if err != nil {
			return err
		}
		if err := tx.SetFees(ctx, assetKey, new(big.Int).Add(fees, settlement.Fee)); err != nil {
			return err
		}

		remaining := big.NewInt(0)
		if amount.Cmp(initialDeposit) <= 0 {
			remaining = new(big.Int).Sub(initialDeposit, amount)
		}
		if err := tx.SetDeposit(ctx, userAddress, assetKey, remaining); err != nil {
			return err
		}

		receipt = &models.WithdrawalReceipt{
			ID:          uuid.NewString(),
			UserAddress: userAddress,
			AssetKey:    assetKey,
			Amount:      amount.String(),
			Profit:      settlement.Profit.String(),
			Fee:         settlement.Fee.String(),
			Payout:      settlement.Payout.String(),
			TxHash:      txHash,
			CreatedAt:   time.Now(),
		}
		return tx.CreateWithdrawalReceipt(ctx, receipt)
	})
	if err != nil {
		metrics.WithdrawalsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	s.notifier.WithdrawalProcessed(userAddress, assetKey, receipt.Amount, receipt.Profit, receipt.Fee)
	metrics.WithdrawalsTotal.WithLabelValues("success").Inc()

	logrus.WithFields(logrus.Fields{
		"user":   userAddress,
		"asset":  assetKey,
		"amount": receipt.Amount,
		"profit": receipt.Profit,
		"fee":    receipt.Fee,
		"payout": receipt.Payout,
	}).Info("withdrawal settled")
	return receipt, nil
}
