package services

import (
	"context"
	"errors"
	"testing"

	"fundrouter/internal/breaker"
	"fundrouter/internal/config"
	"fundrouter/internal/guard"
	"fundrouter/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderFixture(t *testing.T) (*OrderService, *fakeLedger, *fakeGateway, *fakeExecutor, *fakeConfigRepo, *breaker.Breaker) {
	t.Helper()
	setupTestConfig(20, false)
	ledger := newFakeLedger()
	gw := newFakeGateway()
	executor := &fakeExecutor{}
	configs := &fakeConfigRepo{executorAddress: testExecutor}
	brk := breaker.New(configs)
	svc := NewOrderService(ledger, configs, gw, executor, brk, guard.New(), nil)
	return svc, ledger, gw, executor, configs, brk
}

func singleLegOrder(assetKey, amount string) *types.Order {
	return &types.Order{
		Inputs:    []types.OrderInput{{AssetKey: assetKey, Amount: amount}},
		Outputs:   []types.OrderOutput{{AssetKey: "WETH", MinOutput: "1"}},
		Recipient: testRecipient,
	}
}

func TestExecuteOrderSingleLeg(t *testing.T) {
	ctx := context.Background()
	svc, ledger, gw, executor, _, _ := newOrderFixture(t)

	receipt, err := svc.ExecuteOrder(ctx, testUser, singleLegOrder("USDT", "100"), nil)
	require.NoError(t, err)
	require.NotNil(t, receipt)

	balance, _ := ledger.GetDeposit(ctx, testUser, "USDT")
	assert.Equal(t, int64(100), balance.Int64())

	custody, _ := gw.CustodyBalance(ctx, testTokenUSDT)
	assert.Equal(t, int64(100), custody.Int64(), "custody grows by the pulled amount")
	assert.Equal(t, int64(100), gw.authorized[testExecutor].Int64(), "executor authorized for the leg amount")

	require.Len(t, executor.forwarded, 1)
	assert.Equal(t, testExecutor, executor.lastTarget)
	assert.Equal(t, "0xexec", receipt.TxHash)
	assert.Len(t, ledger.orders, 1)
}

func TestExecuteOrderMultiLegAccumulates(t *testing.T) {
	ctx := context.Background()
	svc, ledger, gw, _, _, _ := newOrderFixture(t)

	order := &types.Order{
		Inputs: []types.OrderInput{
			{AssetKey: "USDT", Amount: "100"},
			{AssetKey: "WETH", Amount: "5"},
			{AssetKey: "USDT", Amount: "50"},
		},
		Outputs:   []types.OrderOutput{{AssetKey: "USDT", MinOutput: "1"}},
		Recipient: testRecipient,
	}

	_, err := svc.ExecuteOrder(ctx, testUser, order, nil)
	require.NoError(t, err)

	usdt, _ := ledger.GetDeposit(ctx, testUser, "USDT")
	assert.Equal(t, int64(150), usdt.Int64(), "repeated legs of one asset accumulate")
	weth, _ := ledger.GetDeposit(ctx, testUser, "WETH")
	assert.Equal(t, int64(5), weth.Int64())
	assert.Equal(t, 3, gw.pulls)

	custody, _ := gw.CustodyBalance(ctx, testTokenUSDT)
	assert.Equal(t, int64(150), custody.Int64())
}

func TestExecuteOrderValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _, _ := newOrderFixture(t)

	_, err := svc.ExecuteOrder(ctx, testUser, &types.Order{
		Outputs:   []types.OrderOutput{{AssetKey: "USDT", MinOutput: "1"}},
		Recipient: testRecipient,
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount, "empty inputs")

	_, err = svc.ExecuteOrder(ctx, testUser, &types.Order{
		Inputs:    []types.OrderInput{{AssetKey: "USDT", Amount: "100"}},
		Recipient: testRecipient,
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount, "empty outputs")

	_, err = svc.ExecuteOrder(ctx, testUser, &types.Order{
		Inputs:    []types.OrderInput{{AssetKey: "USDT", Amount: "100"}},
		Outputs:   []types.OrderOutput{{AssetKey: "USDT", MinOutput: "1"}},
		Recipient: "not-an-address",
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidAddress, "bad recipient")

	_, err = svc.ExecuteOrder(ctx, testUser, singleLegOrder("USDT", "0"), nil)
	assert.ErrorIs(t, err, ErrInvalidAmount, "zero leg amount")

	_, err = svc.ExecuteOrder(ctx, testUser, singleLegOrder("USDT", "-10"), nil)
	assert.ErrorIs(t, err, ErrInvalidAmount, "negative leg amount")
}

func TestExecuteOrderWhilePaused(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _, brk := newOrderFixture(t)
	require.NoError(t, brk.Pause(ctx, "admin"))

	_, err := svc.ExecuteOrder(ctx, testUser, singleLegOrder("USDT", "100"), nil)
	assert.ErrorIs(t, err, ErrOperationPaused)
}

func TestExecuteOrderRollsBackOnForwardFailure(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, executor, _, _ := newOrderFixture(t)
	executor.forwardErr = errors.New("execution service reverted")

	_, err := svc.ExecuteOrder(ctx, testUser, singleLegOrder("USDT", "100"), nil)
	require.Error(t, err)

	balance, _ := ledger.GetDeposit(ctx, testUser, "USDT")
	assert.Zero(t, balance.Sign(), "no credit may survive a failed delegation")
	assert.Empty(t, ledger.orders)
}

func TestExecuteOrderExecutorAddressFallback(t *testing.T) {
	ctx := context.Background()
	svc, _, _, executor, configs, _ := newOrderFixture(t)

	// Database row empty: fall back to the static config address.
	configs.executorAddress = ""
	_, err := svc.ExecuteOrder(ctx, testUser, singleLegOrder("USDT", "100"), nil)
	require.NoError(t, err)
	assert.Equal(t, testExecutor, executor.lastTarget)

	// Database row wins over the config value.
	rotated := "0x7777777777777777777777777777777777777777"
	configs.executorAddress = rotated
	_, err = svc.ExecuteOrder(ctx, testUser, singleLegOrder("USDT", "100"), nil)
	require.NoError(t, err)
	assert.Equal(t, rotated, executor.lastTarget)
}

func TestExecuteOrderNoExecutorConfigured(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, configs, _ := newOrderFixture(t)

	configs.executorAddress = ""
	config.AppConfig.Blockchain.ExecutorAddress = ""

	_, err := svc.ExecuteOrder(ctx, testUser, singleLegOrder("USDT", "100"), nil)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestExecuteOrderReentrantCallRejected(t *testing.T) {
	ctx := context.Background()
	svc, ledger, gw, executor, _, _ := newOrderFixture(t)

	// A withdrawal sharing the same guard, attempted from inside the
	// executor forward call of an order in flight.
	settlement := NewSettlementService(ledger, gw, svc.breaker, svc.guard, nil)

	var nestedErr error
	svc.executor = &hookedExecutor{inner: executor, hook: func() {
		_, nestedErr = settlement.ProcessWithdrawal(ctx, testUser, "USDT", "10")
	}}

	_, err := svc.ExecuteOrder(ctx, testUser, singleLegOrder("USDT", "100"), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, nestedErr, ErrReentrant)
}
