// Package evm pays capsule creation fees in the native currency of an EVM chain.
package evm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ghuser/timecapsule/pkg/config"
	"github.com/ghuser/timecapsule/pkg/logger"
	capsuledomain "github.com/ghuser/timecapsule/services/capsule/domain"
	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

// Gateway implements gateways.PaymentGateway over one Wallet per network.
type Gateway struct {
	wallets        map[models.Network]Wallet
	chains         map[models.Network]models.Chain
	confirmTimeout time.Duration
	log            logger.Logger
}

func NewGateway(wallets map[models.Network]Wallet, chains map[models.Network]models.Chain, confirmTimeout time.Duration, log logger.Logger) *Gateway {
	return &Gateway{
		wallets:        wallets,
		chains:         chains,
		confirmTimeout: confirmTimeout,
		log:            log,
	}
}

// ChainsFromConfig returns the chain descriptor of every supported network.
func ChainsFromConfig(cfg *config.Config) map[models.Network]models.Chain {
	bnb := models.DefaultChain(models.NetworkBNB)
	bnb.ChainID = cfg.BNBChainID
	bnb.RPCURL = cfg.BNBRPCURL

	eth := models.DefaultChain(models.NetworkETH)
	eth.ChainID = cfg.ETHChainID
	eth.RPCURL = cfg.ETHRPCURL

	return map[models.Network]models.Chain{
		models.NetworkBNB: bnb,
		models.NetworkETH: eth,
	}
}

// NewGatewayFromConfig dials a keyed wallet per network. Without a payer key
// the gateway has no wallets and every payment fails with NoWalletProvider.
func NewGatewayFromConfig(ctx context.Context, cfg *config.Config, log logger.Logger) (*Gateway, error) {
	chains := ChainsFromConfig(cfg)
	wallets := make(map[models.Network]Wallet, len(chains))

	if cfg.PayerPrivateKey == "" {
		log.Warn("PAYER_PRIVATE_KEY not set; capsule payments are disabled")
	} else {
		for network, chain := range chains {
			w, err := DialKeyedWallet(ctx, chain, cfg.PayerPrivateKey)
			if err != nil {
				return nil, err
			}
			wallets[network] = w
		}
	}

	return NewGateway(wallets, chains, cfg.PaymentTimeout, log), nil
}

// Pay transfers amount to recipient on network and waits for the receipt.
// It returns the transaction hash once the transfer is mined successfully.
func (g *Gateway) Pay(ctx context.Context, recipient string, amount models.Amount, network models.Network) (string, error) {
	chain, ok := g.chains[network]
	if !ok {
		return "", fmt.Errorf("%w: unsupported network %q", capsuledomain.ErrValidation, network)
	}
	if !common.IsHexAddress(recipient) {
		return "", fmt.Errorf("%w: invalid recipient address %q", capsuledomain.ErrValidation, recipient)
	}
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: payment amount must be positive", capsuledomain.ErrValidation)
	}

	wallet := g.wallets[network]
	if wallet == nil {
		return "", &capsuledomain.PaymentError{Reason: capsuledomain.PaymentNoWalletProvider}
	}

	from, err := wallet.Account(ctx)
	if err != nil {
		return "", &capsuledomain.PaymentError{Reason: accountReason(err), Err: err}
	}

	if err := g.ensureChain(ctx, wallet, chain); err != nil {
		return "", &capsuledomain.PaymentError{Reason: capsuledomain.PaymentWrongNetwork, Err: err}
	}

	hash, err := wallet.SendValue(ctx, common.HexToAddress(recipient), amount.BaseUnits(chain.Decimals))
	if err != nil {
		reason := capsuledomain.PaymentTransactionReverted
		if errors.Is(err, ErrUserRejected) {
			reason = capsuledomain.PaymentUserRejected
		}
		return "", &capsuledomain.PaymentError{Reason: reason, Err: err}
	}
	txID := hash.Hex()

	g.log.InfoContext(ctx, "payment broadcast",
		"tx_id", txID,
		"network", network.String(),
		"from", from.Hex(),
		"amount", amount.String(),
	)

	waitCtx, cancel := context.WithTimeout(ctx, g.confirmTimeout)
	defer cancel()

	receipt, err := wallet.WaitMined(waitCtx, hash)
	if err != nil {
		return "", &capsuledomain.PaymentError{Reason: capsuledomain.PaymentTimeout, TxID: txID, Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", &capsuledomain.PaymentError{Reason: capsuledomain.PaymentTransactionReverted, TxID: txID}
	}

	return txID, nil
}

// ensureChain asks the wallet to switch when it is connected elsewhere.
func (g *Gateway) ensureChain(ctx context.Context, wallet Wallet, chain models.Chain) error {
	id, err := wallet.ChainID(ctx)
	if err != nil {
		return err
	}
	if id.Int64() == chain.ChainID {
		return nil
	}
	if err := wallet.SwitchChain(ctx, chain); err != nil {
		return fmt.Errorf("switch to %s: %w", chain.Name, err)
	}
	return nil
}

// Close releases RPC connections held by keyed wallets.
func (g *Gateway) Close() {
	for _, w := range g.wallets {
		if c, ok := w.(interface{ Close() }); ok {
			c.Close()
		}
	}
}

func accountReason(err error) capsuledomain.PaymentReason {
	if errors.Is(err, ErrUserRejected) {
		return capsuledomain.PaymentUserRejected
	}
	return capsuledomain.PaymentNoWalletProvider
}
