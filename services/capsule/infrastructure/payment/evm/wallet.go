package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

// transferGas is the fixed gas cost of a plain value transfer.
const transferGas = 21000

const defaultPollInterval = 2 * time.Second

var (
	// ErrNoWallet means no signing account is available for the network.
	ErrNoWallet = errors.New("no wallet available")
	// ErrUserRejected means the account holder declined to sign.
	ErrUserRejected = errors.New("user rejected request")
	// ErrChainMismatch means the wallet is connected to a different chain and cannot switch.
	ErrChainMismatch = errors.New("wallet connected to a different chain")
)

// Wallet is a connected account on one EVM chain.
type Wallet interface {
	Account(ctx context.Context) (common.Address, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SwitchChain(ctx context.Context, chain models.Chain) error
	SendValue(ctx context.Context, to common.Address, value *big.Int) (common.Hash, error)
	// WaitMined blocks until hash has a receipt or ctx ends.
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// chainClient is the subset of *ethclient.Client a KeyedWallet needs.
type chainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// KeyedWallet signs transfers with a server-held private key over JSON-RPC.
type KeyedWallet struct {
	client chainClient
	key    *ecdsa.PrivateKey
	from   common.Address
	chain  models.Chain
	poll   time.Duration
}

// DialKeyedWallet connects to chain.RPCURL. hexKey may carry a 0x prefix.
func DialKeyedWallet(ctx context.Context, chain models.Chain, hexKey string) (*KeyedWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse payer key: %w", err)
	}
	client, err := ethclient.DialContext(ctx, chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s rpc: %w", chain.Network, err)
	}
	return newKeyedWallet(client, key, chain), nil
}

func newKeyedWallet(client chainClient, key *ecdsa.PrivateKey, chain models.Chain) *KeyedWallet {
	return &KeyedWallet{
		client: client,
		key:    key,
		from:   crypto.PubkeyToAddress(key.PublicKey),
		chain:  chain,
		poll:   defaultPollInterval,
	}
}

func (w *KeyedWallet) Account(context.Context) (common.Address, error) {
	if w.key == nil {
		return common.Address{}, ErrNoWallet
	}
	return w.from, nil
}

func (w *KeyedWallet) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := w.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chain id: %w", err)
	}
	return id, nil
}

// SwitchChain succeeds only if the RPC endpoint already serves chain.
// A keyed wallet is bound to one endpoint.
func (w *KeyedWallet) SwitchChain(ctx context.Context, chain models.Chain) error {
	id, err := w.ChainID(ctx)
	if err != nil {
		return err
	}
	if id.Int64() != chain.ChainID {
		return fmt.Errorf("%w: rpc serves %s, want %d", ErrChainMismatch, id, chain.ChainID)
	}
	return nil
}

// SendValue signs and broadcasts a native-currency transfer. It uses an
// EIP-1559 transaction when the chain reports a base fee, legacy pricing otherwise.
func (w *KeyedWallet) SendValue(ctx context.Context, to common.Address, value *big.Int) (common.Hash, error) {
	chainID := big.NewInt(w.chain.ChainID)

	nonce, err := w.client.PendingNonceAt(ctx, w.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get nonce: %w", err)
	}
	head, err := w.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get head: %w", err)
	}

	var txData types.TxData
	if head.BaseFee != nil {
		tip, err := w.client.SuggestGasTipCap(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("suggest tip: %w", err)
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		txData = &types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       transferGas,
			To:        &to,
			Value:     value,
		}
	} else {
		price, err := w.client.SuggestGasPrice(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
		}
		txData = &types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      transferGas,
			To:       &to,
			Value:    value,
		}
	}

	signed, err := types.SignNewTx(w.key, types.LatestSignerForChainID(chainID), txData)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	if err := w.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}
	return signed.Hash(), nil
}

func (w *KeyedWallet) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	// RPC errors other than NotFound are treated as transient: the
	// transaction may already be mined, so polling continues until ctx ends.
	var lastErr error
	for {
		receipt, err := w.client.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
		default:
			lastErr = err
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return nil, fmt.Errorf("wait for receipt: %w (last rpc error: %w)", ctx.Err(), lastErr)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *KeyedWallet) Close() {
	w.client.Close()
}
