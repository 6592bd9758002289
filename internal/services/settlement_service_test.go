package services

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"fundrouter/internal/breaker"
	"fundrouter/internal/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettlementFixture(t *testing.T, feeRate int, verifyCustody bool) (*SettlementService, *fakeLedger, *fakeGateway, *breaker.Breaker) {
	t.Helper()
	setupTestConfig(feeRate, verifyCustody)
	ledger := newFakeLedger()
	gw := newFakeGateway()
	brk := breaker.New(&fakeConfigRepo{})
	svc := NewSettlementService(ledger, gw, brk, guard.New(), nil)
	return svc, ledger, gw, brk
}

func TestComputeSettlement(t *testing.T) {
	cases := []struct {
		name    string
		amount  int64
		initial int64
		rate    int
		profit  int64
		fee     int64
		payout  int64
	}{
		{"exact deposit", 100, 100, 20, 0, 0, 100},
		{"profit at 20 percent", 120, 100, 20, 20, 4, 116},
		{"partial principal", 40, 100, 20, 0, 0, 40},
		{"fee floors down", 103, 100, 33, 3, 0, 103},
		{"zero rate", 150, 100, 0, 50, 0, 150},
		{"full rate", 150, 100, 100, 50, 50, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := ComputeSettlement(big.NewInt(tc.amount), big.NewInt(tc.initial), tc.rate)
			assert.Equal(t, tc.profit, s.Profit.Int64(), "profit")
			assert.Equal(t, tc.fee, s.Fee.Int64(), "fee")
			assert.Equal(t, tc.payout, s.Payout.Int64(), "payout")
		})
	}
}

func TestProcessWithdrawalExactDeposit(t *testing.T) {
	ctx := context.Background()
	svc, ledger, gw, _ := newSettlementFixture(t, 20, false)

	require.NoError(t, ledger.SetDeposit(ctx, testUser, "USDT", big.NewInt(100)))
	gw.inject(testTokenUSDT, 100)

	receipt, err := svc.ProcessWithdrawal(ctx, testUser, "USDT", "100")
	require.NoError(t, err)

	assert.Equal(t, "0", receipt.Profit)
	assert.Equal(t, "0", receipt.Fee)
	assert.Equal(t, "100", receipt.Payout)

	balance, _ := ledger.GetDeposit(ctx, testUser, "USDT")
	assert.Zero(t, balance.Sign(), "deposit should be zeroed")
	fees, _ := ledger.GetFees(ctx, "USDT")
	assert.Zero(t, fees.Sign())
}

func TestProcessWithdrawalWithProfit(t *testing.T) {
	ctx := context.Background()
	svc, ledger, gw, _ := newSettlementFixture(t, 20, false)

	// Deposit 100, downstream execution injects 20 units of profit.
	require.NoError(t, ledger.SetDeposit(ctx, testUser, "USDT", big.NewInt(100)))
	gw.inject(testTokenUSDT, 120)

	receipt, err := svc.ProcessWithdrawal(ctx, testUser, "USDT", "120")
	require.NoError(t, err)

	assert.Equal(t, "20", receipt.Profit)
	assert.Equal(t, "4", receipt.Fee)
	assert.Equal(t, "116", receipt.Payout)

	balance, _ := ledger.GetDeposit(ctx, testUser, "USDT")
	assert.Zero(t, balance.Sign(), "withdrawing above deposit zeroes the balance")
	fees, _ := ledger.GetFees(ctx, "USDT")
	assert.Equal(t, int64(4), fees.Int64())

	custody, _ := gw.CustodyBalance(ctx, testTokenUSDT)
	assert.Equal(t, int64(4), custody.Int64(), "custody retains exactly the fee")
}

func TestProcessWithdrawalPartialPrincipal(t *testing.T) {
	ctx := context.Background()
	svc, ledger, gw, _ := newSettlementFixture(t, 20, false)

	require.NoError(t, ledger.SetDeposit(ctx, testUser, "USDT", big.NewInt(100)))
	gw.inject(testTokenUSDT, 100)

	receipt, err := svc.ProcessWithdrawal(ctx, testUser, "USDT", "40")
	require.NoError(t, err)

	assert.Equal(t, "0", receipt.Profit)
	assert.Equal(t, "0", receipt.Fee)
	assert.Equal(t, "40", receipt.Payout)

	balance, _ := ledger.GetDeposit(ctx, testUser, "USDT")
	assert.Equal(t, int64(60), balance.Int64(), "remaining principal stays on deposit")
}

func TestProcessWithdrawalNoDeposit(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newSettlementFixture(t, 20, false)

	_, err := svc.ProcessWithdrawal(ctx, testUser, "USDT", "50")
	assert.ErrorIs(t, err, ErrNoDeposit)
}

func TestProcessWithdrawalInvalidAmount(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, _ := newSettlementFixture(t, 20, false)
	require.NoError(t, ledger.SetDeposit(ctx, testUser, "USDT", big.NewInt(100)))

	for _, amount := range []string{"0", "-5", "abc", ""} {
		_, err := svc.ProcessWithdrawal(ctx, testUser, "USDT", amount)
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %q", amount)
	}
}

func TestProcessWithdrawalWhilePaused(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, brk := newSettlementFixture(t, 20, false)
	require.NoError(t, ledger.SetDeposit(ctx, testUser, "USDT", big.NewInt(100)))
	require.NoError(t, brk.Pause(ctx, "admin"))

	_, err := svc.ProcessWithdrawal(ctx, testUser, "USDT", "50")
	assert.ErrorIs(t, err, ErrOperationPaused)
}

func TestProcessWithdrawalRollsBackOnTransferFailure(t *testing.T) {
	ctx := context.Background()
	svc, ledger, gw, _ := newSettlementFixture(t, 20, false)

	require.NoError(t, ledger.SetDeposit(ctx, testUser, "USDT", big.NewInt(100)))
	gw.pushErr = errors.New("transfer reverted")

	_, err := svc.ProcessWithdrawal(ctx, testUser, "USDT", "100")
	require.Error(t, err)

	balance, _ := ledger.GetDeposit(ctx, testUser, "USDT")
	assert.Equal(t, int64(100), balance.Int64(), "deposit must survive a failed payout")
	fees, _ := ledger.GetFees(ctx, "USDT")
	assert.Zero(t, fees.Sign(), "no fee may be booked for a failed payout")
	assert.Empty(t, ledger.withdrawals)
}

func TestProcessWithdrawalReentrantCallRejected(t *testing.T) {
	ctx := context.Background()
	svc, ledger, gw, _ := newSettlementFixture(t, 20, false)

	require.NoError(t, ledger.SetDeposit(ctx, testUser, "USDT", big.NewInt(100)))
	gw.inject(testTokenUSDT, 100)

	var nestedErr error
	gw.onPush = func() {
		gw.onPush = nil
		_, nestedErr = svc.ProcessWithdrawal(ctx, testUser, "USDT", "50")
		// Make the outer transfer fail too, so the outer operation
		// rolls back after the nested attempt.
		gw.pushErr = errors.New("transfer reverted")
	}

	_, err := svc.ProcessWithdrawal(ctx, testUser, "USDT", "100")
	require.Error(t, err)
	assert.ErrorIs(t, nestedErr, ErrReentrant)

	balance, _ := ledger.GetDeposit(ctx, testUser, "USDT")
	assert.Equal(t, int64(100), balance.Int64(), "ledger must be untouched after the reentrant attempt")
}

func TestProcessWithdrawalCustodyVerification(t *testing.T) {
	ctx := context.Background()
	svc, ledger, gw, _ := newSettlementFixture(t, 20, true)

	require.NoError(t, ledger.SetDeposit(ctx, testUser, "USDT", big.NewInt(100)))
	gw.inject(testTokenUSDT, 80)

	_, err := svc.ProcessWithdrawal(ctx, testUser, "USDT", "100")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	gw.inject(testTokenUSDT, 20)
	_, err = svc.ProcessWithdrawal(ctx, testUser, "USDT", "100")
	assert.NoError(t, err)
}
