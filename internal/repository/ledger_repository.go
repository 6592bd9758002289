package repository

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"fundrouter/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository is the data-access surface of the balance ledger:
// per-(user, asset) deposit balances, per-asset accumulated fees and the
// receipt journal. Transaction runs a function against a repository bound to
// a database transaction; any error rolls the whole unit back.
type LedgerRepository interface {
	Transaction(ctx context.Context, fn func(LedgerRepository) error) error

	GetDeposit(ctx context.Context, userAddress, assetKey string) (*big.Int, error)
	SetDeposit(ctx context.Context, userAddress, assetKey string, amount *big.Int) error

	GetFees(ctx context.Context, assetKey string) (*big.Int, error)
	SetFees(ctx context.Context, assetKey string, amount *big.Int) error

	CreateOrderReceipt(ctx context.Context, receipt *models.OrderReceipt) error
	CreateWithdrawalReceipt(ctx context.Context, receipt *models.WithdrawalReceipt) error
	FindOrdersByUser(ctx context.Context, userAddress string, page, limit int) ([]*models.OrderReceipt, int64, error)
	FindWithdrawalsByUser(ctx context.Context, userAddress string, page, limit int) ([]*models.WithdrawalReceipt, int64, error)
}

// ledgerRepository implements LedgerRepository over gorm.
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new LedgerRepository instance.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Transaction(ctx context.Context, fn func(LedgerRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx})
	})
}

func (r *ledgerRepository) GetDeposit(ctx context.Context, userAddress, assetKey string) (*big.Int, error) {
	var balance models.DepositBalance
	err := r.db.WithContext(ctx).
		Where("user_address = ? AND asset_key = ?", userAddress, assetKey).
		First(&balance).Error
	if err == gorm.ErrRecordNotFound {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	return parseAmount(balance.Amount)
}

func (r *ledgerRepository) SetDeposit(ctx context.Context, userAddress, assetKey string, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("deposit balance must not be negative: %s", amount.String())
	}

	var balance models.DepositBalance
	err := r.db.WithContext(ctx).
		Where("user_address = ? AND asset_key = ?", userAddress, assetKey).
		First(&balance).Error
	if err == gorm.ErrRecordNotFound {
		balance = models.DepositBalance{
			UserAddress: userAddress,
			AssetKey:    assetKey,
			Amount:      amount.String(),
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		return r.db.WithContext(ctx).Create(&balance).Error
	}
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&balance).Updates(map[string]interface{}{
		"amount":     amount.String(),
		"updated_at": time.Now(),
	}).Error
}

func (r *ledgerRepository) GetFees(ctx context.Context, assetKey string) (*big.Int, error) {
	var balance models.FeeBalance
	err := r.db.WithContext(ctx).Where("asset_key = ?", assetKey).First(&balance).Error
	if err == gorm.ErrRecordNotFound {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	return parseAmount(balance.Amount)
}

func (r *ledgerRepository) SetFees(ctx context.Context, assetKey string, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("fee balance must not be negative: %s", amount.String())
	}

	var balance models.FeeBalance
	err := r.db.WithContext(ctx).Where("asset_key = ?", assetKey).First(&balance).Error
	if err == gorm.ErrRecordNotFound {
		balance = models.FeeBalance{
			AssetKey:  assetKey,
			Amount:    amount.String(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		return r.db.WithContext(ctx).Create(&balance).Error
	}
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&balance).Updates(map[string]interface{}{
		"amount":     amount.String(),
		"updated_at": time.Now(),
	}).Error
}

func (r *ledgerRepository) CreateOrderReceipt(ctx context.Context, receipt *models.OrderReceipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *ledgerRepository) CreateWithdrawalReceipt(ctx context.Context, receipt *models.WithdrawalReceipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *ledgerRepository) FindOrdersByUser(ctx context.Context, userAddress string, page, limit int) ([]*models.OrderReceipt, int64, error) {
	var receipts []*models.OrderReceipt
	var total int64

	query := r.db.WithContext(ctx).Model(&models.OrderReceipt{}).Where("user_address = ?", userAddress)
	query.Count(&total)

	offset := (page - 1) * limit
	err := query.Offset(offset).Limit(limit).Order("created_at DESC").Find(&receipts).Error
	if err != nil {
		return nil, 0, err
	}
	return receipts, total, nil
}

func (r *ledgerRepository) FindWithdrawalsByUser(ctx context.Context, userAddress string, page, limit int) ([]*models.WithdrawalReceipt, int64, error) {
	var receipts []*models.WithdrawalReceipt
	var total int64

	query := r.db.WithContext(ctx).Model(&models.WithdrawalReceipt{}).Where("user_address = ?", userAddress)
	query.Count(&total)

	offset := (page - 1) * limit
	err := query.Offset(offset).Limit(limit).Order("created_at DESC").Find(&receipts).Error
	if err != nil {
		return nil, 0, err
	}
	return receipts, total, nil
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed amount in ledger: %q", s)
	}
	return amount, nil
}
