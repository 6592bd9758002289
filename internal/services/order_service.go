package services

import (
	"context"
	"encoding/json"
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
	"fundrouter/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OrderService validates a multi-asset order, takes custody of the deposit
// legs, credits the ledger and hands the order to the downstream execution
// service. The whole operation commits or rolls back as one unit.
type OrderService struct {
	ledger   repository.LedgerRepository
	configs  repository.ConfigRepository
	gateway  gateway.TokenGateway
	executor gateway.ExecutionClient
	breaker  *breaker.Breaker
	guard    *guard.EntryGuard
	notifier *events.Notifier
}

func NewOrderService(
	ledger repository.LedgerRepository,
	configs repository.ConfigRepository,
	gw gateway.TokenGateway,
	executor gateway.ExecutionClient,
	brk *breaker.Breaker,
	entryGuard *guard.EntryGuard,
	notifier *events.Notifier,
) *OrderService {
	return &OrderService{
		ledger:   ledger,
		configs:  configs,
		gateway:  gw,
		executor: executor,
		breaker:  brk,
		guard:    entryGuard,
		notifier: notifier,
	}
}

type trackedDeposit struct {
	assetKey string
	amount   string
}

// ExecuteOrder processes the deposit legs in caller order: pull into
// custody, authorize the executor, credit the ledger. After all legs, the
// order and route are forwarded to the execution service. Any failure rolls
// back every ledger mutation made so far.
func (s *OrderService) ExecuteOrder(ctx context.Context, userAddress string, order *types.Order, route *types.Route) (*models.OrderReceipt, error) {
	if !s.guard.TryAcquire() {
		metrics.ReentrantRejections.Inc()
		return nil, ErrReentrant
	}
	defer s.guard.Release()

	start := time.Now()
	defer func() {
		metrics.OperationDuration.WithLabelValues("execute_order").Observe(time.Since(start).Seconds())
	}()

	if s.breaker.Paused() {
		return nil, ErrOperationPaused
	}

	if err := validateOrder(order); err != nil {
		return nil, err
	}

	executorAddress, err := s.executorAddress(ctx)
	if err != nil {
		return nil, err
	}

	var receipt *models.OrderReceipt
	tracked := make([]trackedDeposit, 0, len(order.Inputs))

	err = s.ledger.Transaction(ctx, func(tx repository.LedgerRepository) error {
		for _, leg := range order.Inputs {
			amount, err := parsePositiveAmount(leg.Amount)
			if err != nil {
				return err
			}
			asset, err := config.GetAsset(leg.AssetKey)
			if err != nil {
				return err
			}

			if _, err := s.gateway.PullFrom(ctx, asset.Address, userAddress, amount); err != nil {
				return fmt.Errorf("pull %s leg: %w", leg.AssetKey, err)
			}
			if _, err := s.gateway.AuthorizeSpender(ctx, asset.Address, executorAddress, amount); err != nil {
				return fmt.Errorf("authorize executor for %s leg: %w", leg.AssetKey, err)
			}

			current, err := tx.GetDeposit(ctx, userAddress, leg.AssetKey)
			if err != nil {
				return err
			}
			if err := tx.SetDeposit(ctx, userAddress, leg.AssetKey, new(big.Int).Add(current, amount)); err != nil {
				return err
			}
			tracked = append(tracked, trackedDeposit{assetKey: leg.AssetKey, amount: amount.String()})
		}

		txHash, err := s.executor.Forward(ctx, executorAddress, order, route)
		if err != nil {
			return fmt.Errorf("forward order to execution service: %w", err)
		}

		inputsJSON, err := json.Marshal(order.Inputs)
		if err != nil {
			return err
		}
		outputsJSON, err := json.Marshal(order.Outputs)
		if err != nil {
			return err
		}
		relayTarget := ""
		if order.Relay != nil {
			relayTarget = order.Relay.Target
		}

		receipt = &models.OrderReceipt{
			ID:          uuid.NewString(),
			UserAddress: userAddress,
			Recipient:   order.Recipient,
			Inputs:      string(inputsJSON),
			Outputs:     string(outputsJSON),
			RelayTarget: relayTarget,
			TxHash:      txHash,
			CreatedAt:   time.Now(),
		}
		return tx.CreateOrderReceipt(ctx, receipt)
	})
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	for _, t := range tracked {
		s.notifier.DepositTracked(userAddress, t.assetKey, t.amount)
		metrics.OrderLegsTotal.WithLabelValues(t.assetKey).Inc()
	}
	metrics.OrdersTotal.WithLabelValues("success").Inc()

	logrus.WithFields(logrus.Fields{
		"user":    userAddress,
		"legs":    len(order.Inputs),
		"receipt": receipt.ID,
		"tx_hash": receipt.TxHash,
	}).Info("order delegated")
	return receipt, nil
}

func validateOrder(order *types.Order) error {
	if order == nil || len(order.Inputs) == 0 {
		return fmt.Errorf("%w: order has no input legs", ErrInvalidAmount)
	}
	if len(order.Outputs) == 0 {
		return fmt.Errorf("%w: order has no output legs", ErrInvalidAmount)
	}
	if !common.IsHexAddress(order.Recipient) {
		return fmt.Errorf("%w: recipient %q", ErrInvalidAddress, order.Recipient)
	}
	return nil
}

// executorAddress resolves the downstream execution service address: the
// database row wins, the static config is the fallback.
func (s *OrderService) executorAddress(ctx context.Context) (string, error) {
	address, err := s.configs.GetExecutorAddress(ctx)
	if err != nil {
		return "", err
	}
	if address == "" && config.AppConfig != nil {
		address = config.AppConfig.Blockchain.ExecutorAddress
	}
	if !common.IsHexAddress(address) || common.HexToAddress(address) == (common.Address{}) {
		return "", fmt.Errorf("%w: execution service address not configured", ErrInvalidAddress)
	}
	return address, nil
}

func parsePositiveAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a base-10 integer", ErrInvalidAmount, s)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount.String())
	}
	return amount, nil
}
