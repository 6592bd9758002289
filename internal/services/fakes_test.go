package services

import (
	"context"
	"fmt"
	"math/big"

	"fundrouter/internal/config"
	"fundrouter/internal/models"
	"fundrouter/internal/repository"
	"fundrouter/internal/types"
)

// fakeLedger is an in-memory LedgerRepository. Transaction runs the
// function against a staged copy and only merges it back on success, so
// rollback semantics match the real implementation.
type fakeLedger struct {
	deposits    map[string]*big.Int
	fees        map[string]*big.Int
	orders      []*models.OrderReceipt
	withdrawals []*models.WithdrawalReceipt
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		deposits: make(map[string]*big.Int),
		fees:     make(map[string]*big.Int),
	}
}

func depositKey(user, asset string) string { return user + "|" + asset }

func (f *fakeLedger) clone() *fakeLedger {
	c := newFakeLedger()
	for k, v := range f.deposits {
		c.deposits[k] = new(big.Int).Set(v)
	}
	for k, v := range f.fees {
		c.fees[k] = new(big.Int).Set(v)
	}
	c.orders = append(c.orders, f.orders...)
	c.withdrawals = append(c.withdrawals, f.withdrawals...)
	return c
}

func (f *fakeLedger) Transaction(ctx context.Context, fn func(repository.LedgerRepository) error) error {
	staged := f.clone()
	if err := fn(staged); err != nil {
		return err
	}
	*f = *staged
	return nil
}

func (f *fakeLedger) GetDeposit(ctx context.Context, user, asset string) (*big.Int, error) {
	if v, ok := f.deposits[depositKey(user, asset)]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeLedger) SetDeposit(ctx context.Context, user, asset string, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("negative deposit")
	}
	f.deposits[depositKey(user, asset)] = new(big.Int).Set(amount)
	return nil
}

func (f *fakeLedger) GetFees(ctx context.Context, asset string) (*big.Int, error) {
	if v, ok := f.fees[asset]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeLedger) SetFees(ctx context.Context, asset string, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("negative fees")
	}
	f.fees[asset] = new(big.Int).Set(amount)
	return nil
}

func (f *fakeLedger) CreateOrderReceipt(ctx context.Context, r *models.OrderReceipt) error {
	f.orders = append(f.orders, r)
	return nil
}

func (f *fakeLedger) CreateWithdrawalReceipt(ctx context.Context, r *models.WithdrawalReceipt) error {
	f.withdrawals = append(f.withdrawals, r)
	return nil
}

func (f *fakeLedger) FindOrdersByUser(ctx context.Context, user string, page, limit int) ([]*models.OrderReceipt, int64, error) {
	var out []*models.OrderReceipt
	for _, r := range f.orders {
		if r.UserAddress == user {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeLedger) FindWithdrawalsByUser(ctx context.Context, user string, page, limit int) ([]*models.WithdrawalReceipt, int64, error) {
	var out []*models.WithdrawalReceipt
	for _, r := range f.withdrawals {
		if r.UserAddress == user {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

// fakeGateway tracks a per-token custody balance in memory. onPush runs
// inside PushTo before the balance moves, which lets tests simulate a
// reentrant callback from the token transfer.
type fakeGateway struct {
	custody    map[string]*big.Int
	pullErr    error
	pushErr    error
	onPush     func()
	pulls      int
	pushes     int
	authorized map[string]*big.Int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		custody:    make(map[string]*big.Int),
		authorized: make(map[string]*big.Int),
	}
}

func (g *fakeGateway) balance(token string) *big.Int {
	if v, ok := g.custody[token]; ok {
		return v
	}
	zero := big.NewInt(0)
	g.custody[token] = zero
	return zero
}

func (g *fakeGateway) inject(token string, amount int64) {
	g.custody[token] = new(big.Int).Add(g.balance(token), big.NewInt(amount))
}

func (g *fakeGateway) PullFrom(ctx context.Context, token, from string, amount *big.Int) (string, error) {
	if g.pullErr != nil {
		return "", g.pullErr
	}
	g.pulls++
	g.custody[token] = new(big.Int).Add(g.balance(token), amount)
	return "0xpull", nil
}

func (g *fakeGateway) PushTo(ctx context.Context, token, to string, amount *big.Int) (string, error) {
	if g.onPush != nil {
		g.onPush()
	}
	if g.pushErr != nil {
		return "", g.pushErr
	}
	g.pushes++
	g.custody[token] = new(big.Int).Sub(g.balance(token), amount)
	return "0xpush", nil
}

func (g *fakeGateway) AuthorizeSpender(ctx context.Context, token, spender string, amount *big.Int) (string, error) {
	g.authorized[spender] = new(big.Int).Set(amount)
	return "0xapprove", nil
}

func (g *fakeGateway) CustodyBalance(ctx context.Context, token string) (*big.Int, error) {
	return new(big.Int).Set(g.balance(token)), nil
}

// fakeExecutor records forwarded orders.
type fakeExecutor struct {
	forwardErr error
	forwarded  []*types.Order
	lastTarget string
}

func (e *fakeExecutor) Forward(ctx context.Context, executorAddress string, order *types.Order, route *types.Route) (string, error) {
	if e.forwardErr != nil {
		return "", e.forwardErr
	}
	e.forwarded = append(e.forwarded, order)
	e.lastTarget = executorAddress
	return "0xexec", nil
}

// hookedExecutor runs a callback before delegating, to simulate a reentrant
// call made while the order operation holds the guard.
type hookedExecutor struct {
	inner *fakeExecutor
	hook  func()
}

func (e *hookedExecutor) Forward(ctx context.Context, executorAddress string, order *types.Order, route *types.Route) (string, error) {
	if e.hook != nil {
		e.hook()
	}
	return e.inner.Forward(ctx, executorAddress, order, route)
}

// fakeConfigRepo backs the breaker and the executor-address row.
type fakeConfigRepo struct {
	executorAddress string
	paused          bool
}

func (f *fakeConfigRepo) GetExecutorAddress(ctx context.Context) (string, error) {
	return f.executorAddress, nil
}

func (f *fakeConfigRepo) SetExecutorAddress(ctx context.Context, address, updatedBy string) error {
	f.executorAddress = address
	return nil
}

func (f *fakeConfigRepo) GetEmergencyMode(ctx context.Context) (bool, error) {
	return f.paused, nil
}

func (f *fakeConfigRepo) SetEmergencyMode(ctx context.Context, paused bool, updatedBy string) error {
	f.paused = paused
	return nil
}

const (
	testUser      = "0x1111111111111111111111111111111111111111"
	testOwner     = "0x2222222222222222222222222222222222222222"
	testExecutor  = "0x3333333333333333333333333333333333333333"
	testRecipient = "0x4444444444444444444444444444444444444444"
	testTokenUSDT = "0x5555555555555555555555555555555555555555"
	testTokenWETH = "0x6666666666666666666666666666666666666666"
)

func setupTestConfig(feeRatePercent int, verifyCustody bool) {
	config.AppConfig = &config.Config{
		Assets: map[string]config.AssetConfig{
			"USDT": {Address: testTokenUSDT, Decimals: 6},
			"WETH": {Address: testTokenWETH, Decimals: 18},
		},
		Blockchain: config.BlockchainConfig{
			OwnerAddress:    testOwner,
			ExecutorAddress: testExecutor,
		},
		Ledger: config.LedgerConfig{
			FeeRatePercent: feeRatePercent,
			VerifyCustody:  verifyCustody,
		},
	}
}
