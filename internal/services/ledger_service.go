package services

import (
	"context"
	"math/big"

	"fundrouter/internal/models"
	"fundrouter/internal/repository"
)

// LedgerService exposes read-only ledger views to the HTTP layer.
type LedgerService struct {
	ledger repository.LedgerRepository
}

func NewLedgerService(ledger repository.LedgerRepository) *LedgerService {
	return &LedgerService{ledger: ledger}
}

func (s *LedgerService) GetDepositBalance(ctx context.Context, userAddress, assetKey string) (*big.Int, error) {
	return s.ledger.GetDeposit(ctx, userAddress, assetKey)
}

func (s *LedgerService) GetFeeBalance(ctx context.Context, assetKey string) (*big.Int, error) {
	return s.ledger.GetFees(ctx, assetKey)
}

func (s *LedgerService) ListOrders(ctx context.Context, userAddress string, page, limit int) ([]*models.OrderReceipt, int64, error) {
	return s.ledger.FindOrdersByUser(ctx, userAddress, page, limit)
}

func (s *LedgerService) ListWithdrawals(ctx context.Context, userAddress string, page, limit int) ([]*models.WithdrawalReceipt, int64, error) {
	return s.ledger.FindWithdrawalsByUser(ctx, userAddress, page, limit)
}
