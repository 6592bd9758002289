package gateway

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

const erc20ABIJSON = `[
  {"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transferFrom","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

const (
	receiptPollInterval = 2 * time.Second
	receiptWaitTimeout  = 120 * time.Second
	fallbackGasLimit    = 200000
)

// erc20Gateway implements TokenGateway against an EVM chain using the
// custody account's key. Every mutating call waits for the receipt and
// checks its status.
type erc20Gateway struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	chainID    *big.Int
	gasLimit   uint64
	erc20ABI   abi.ABI
}

// NewERC20Gateway dials the first reachable RPC endpoint and returns a
// TokenGateway bound to the custody key. gasLimit of 0 means estimate per
// call.
func NewERC20Gateway(rpcEndpoints []string, privateKeyHex string, chainID int64, gasLimit uint64) (TokenGateway, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid custodian private key: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	var client *ethclient.Client
	for _, endpoint := range rpcEndpoints {
		client, err = ethclient.Dial(endpoint)
		if err == nil {
			logrus.WithField("endpoint", endpoint).Info("connected to RPC endpoint")
			break
		}
		logrus.WithError(err).WithField("endpoint", endpoint).Warn("RPC endpoint unreachable, trying next")
	}
	if client == nil {
		return nil, fmt.Errorf("no reachable RPC endpoint")
	}

	return &erc20Gateway{
		client:     client,
		privateKey: privateKey,
		chainID:    big.NewInt(chainID),
		gasLimit:   gasLimit,
		erc20ABI:   parsedABI,
	}, nil
}

func (g *erc20Gateway) custodyAddress() common.Address {
	return crypto.PubkeyToAddress(g.privateKey.PublicKey)
}

func (g *erc20Gateway) PullFrom(ctx context.Context, tokenAddress, fromAddress string, amount *big.Int) (string, error) {
	data, err := g.erc20ABI.Pack("transferFrom",
		common.HexToAddress(fromAddress), g.custodyAddress(), amount)
	if err != nil {
		return "", err
	}
	return g.submit(ctx, common.HexToAddress(tokenAddress), data)
}

func (g *erc20Gateway) PushTo(ctx context.Context, tokenAddress, toAddress string, amount *big.Int) (string, error) {
	data, err := g.erc20ABI.Pack("transfer", common.HexToAddress(toAddress), amount)
	if err != nil {
		return "", err
	}
	return g.submit(ctx, common.HexToAddress(tokenAddress), data)
}

func (g *erc20Gateway) AuthorizeSpender(ctx context.Context, tokenAddress, spenderAddress string, amount *big.Int) (string, error) {
	data, err := g.erc20ABI.Pack("approve", common.HexToAddress(spenderAddress), amount)
	if err != nil {
		return "", err
	}
	return g.submit(ctx, common.HexToAddress(tokenAddress), data)
}

func (g *erc20Gateway) CustodyBalance(ctx context.Context, tokenAddress string) (*big.Int, error) {
	data, err := g.erc20ABI.Pack("balanceOf", g.custodyAddress())
	if err != nil {
		return nil, err
	}
	token := common.HexToAddress(tokenAddress)
	raw, err := g.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}
	var balance *big.Int
	if err := g.erc20ABI.UnpackIntoInterface(&balance, "balanceOf", raw); err != nil {
		return nil, err
	}
	return balance, nil
}

// submit signs, sends and waits for the transaction, mapping a reverted
// receipt to ErrTransferFailed.
func (g *erc20Gateway) submit(ctx context.Context, to common.Address, data []byte) (string, error) {
	tx, err := g.buildSignedTx(ctx, to, data, big.NewInt(0))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := g.client.SendTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("%w: send: %v", ErrTransferFailed, err)
	}

	receipt, err := g.waitForReceipt(ctx, tx.Hash())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return "", fmt.Errorf("%w: tx %s reverted", ErrTransferFailed, tx.Hash().Hex())
	}
	return tx.Hash().Hex(), nil
}

func (g *erc20Gateway) buildSignedTx(ctx context.Context, to common.Address, data []byte, value *big.Int) (*ethtypes.Transaction, error) {
	from := g.custodyAddress()
	nonce, err := g.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}
	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %w", err)
	}
	gasLimit := g.gasLimit
	if gasLimit == 0 {
		gasLimit, err = g.client.EstimateGas(ctx, ethereum.CallMsg{
			From:  from,
			To:    &to,
			Data:  data,
			Value: value,
		})
		if err != nil {
			gasLimit = fallbackGasLimit
		}
	}
	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(g.chainID), g.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

func (g *erc20Gateway) waitForReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	deadline := time.Now().Add(receiptWaitTimeout)
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := g.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for receipt of %s", txHash.Hex())
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
