package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"fundrouter/internal/types"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

const executorABIJSON = `[
  {"inputs":[{"name":"payload","type":"bytes"}],"name":"execute","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// ExecutionClient hands a validated order and its routing data to the
// downstream execution service. The executor address is passed per call
// because it is mutable at runtime.
type ExecutionClient interface {
	Forward(ctx context.Context, executorAddress string, order *types.Order, route *types.Route) (txHash string, err error)
}

// executionPayload is the wire shape handed to the executor contract.
type executionPayload struct {
	Order *types.Order `json:"order"`
	Route *types.Route `json:"route"`
}

type executionClient struct {
	gw          *erc20Gateway
	executorABI abi.ABI
}

// NewExecutionClient wraps an existing TokenGateway's chain connection. The
// gateway must have been built by NewERC20Gateway.
func NewExecutionClient(gw TokenGateway) (ExecutionClient, error) {
	inner, ok := gw.(*erc20Gateway)
	if !ok {
		return nil, fmt.Errorf("unsupported gateway implementation %T", gw)
	}
	parsedABI, err := abi.JSON(strings.NewReader(executorABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse executor ABI: %w", err)
	}
	return &executionClient{gw: inner, executorABI: parsedABI}, nil
}

func (c *executionClient) Forward(ctx context.Context, executorAddress string, order *types.Order, route *types.Route) (string, error) {
	payload, err := json.Marshal(executionPayload{Order: order, Route: route})
	if err != nil {
		return "", fmt.Errorf("failed to encode execution payload: %w", err)
	}
	data, err := c.executorABI.Pack("execute", payload)
	if err != nil {
		return "", err
	}

	tx, err := c.gw.buildSignedTx(ctx, common.HexToAddress(executorAddress), data, big.NewInt(0))
	if err != nil {
		return "", err
	}
	if err := c.gw.client.SendTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("send execution tx: %w", err)
	}
	receipt, err := c.gw.waitForReceipt(ctx, tx.Hash())
	if err != nil {
		return "", err
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return "", fmt.Errorf("execution tx %s reverted", tx.Hash().Hex())
	}
	return tx.Hash().Hex(), nil
}
