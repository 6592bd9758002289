package gateway

import (
	"context"
	"errors"
	"math/big"
)

// ErrTransferFailed means an on-chain token movement was mined but reverted,
// or could not be submitted at all.
var ErrTransferFailed = errors.New("token transfer failed")

// TokenGateway moves ERC-20 tokens between callers, the custody account and
// external recipients. All amounts are in token base units.
type TokenGateway interface {
	// PullFrom moves amount of the token from the owner's wallet into
	// custody. Requires a prior allowance from the owner.
	PullFrom(ctx context.Context, tokenAddress, fromAddress string, amount *big.Int) (txHash string, err error)

	// PushTo moves amount of the token from custody to the recipient.
	PushTo(ctx context.Context, tokenAddress, toAddress string, amount *big.Int) (txHash string, err error)

	// AuthorizeSpender grants the spender an allowance over custody funds.
	AuthorizeSpender(ctx context.Context, tokenAddress, spenderAddress string, amount *big.Int) (txHash string, err error)

	// CustodyBalance reads the custody account's balance of the token.
	CustodyBalance(ctx context.Context, tokenAddress string) (*big.Int, error)
}
