package evm

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

var errRPCUnavailable = errors.New("502 bad gateway")

type fakeChain struct {
	chainID     int64
	baseFee     *big.Int
	sent        *types.Transaction
	receiptPoll int
	rpcFailures int
	polls       int
}

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) { return big.NewInt(f.chainID), nil }

func (f *fakeChain) PendingNonceAt(context.Context, common.Address) (uint64, error) { return 7, nil }

func (f *fakeChain) SuggestGasTipCap(context.Context) (*big.Int, error) { return big.NewInt(1e9), nil }

func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) { return big.NewInt(3e9), nil }

func (f *fakeChain) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: f.baseFee}, nil
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.sent = tx
	return nil
}

func (f *fakeChain) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	f.polls++
	if f.polls <= f.rpcFailures {
		return nil, errRPCUnavailable
	}
	if f.polls <= f.rpcFailures+f.receiptPoll {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

func (f *fakeChain) Close() {}

func newTestWallet(t *testing.T, chain *fakeChain) *KeyedWallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	c := models.DefaultChain(models.NetworkBNB)
	c.ChainID = chain.chainID
	w := newKeyedWallet(chain, key, c)
	w.poll = time.Millisecond
	return w
}

func TestKeyedWallet_SendValueDynamicFee(t *testing.T) {
	chain := &fakeChain{chainID: 56, baseFee: big.NewInt(5e9)}
	w := newTestWallet(t, chain)
	to := common.HexToAddress(recipient)

	hash, err := w.SendValue(context.Background(), to, big.NewInt(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tx := chain.sent
	if tx.Type() != types.DynamicFeeTxType {
		t.Fatalf("tx type = %d, want dynamic fee", tx.Type())
	}
	if tx.Hash() != hash || tx.Nonce() != 7 || tx.Gas() != transferGas || tx.Value().Int64() != 42 || *tx.To() != to {
		t.Fatalf("unexpected tx: %+v", tx)
	}
	// fee cap = tip + 2*base
	if tx.GasFeeCap().Cmp(big.NewInt(11e9)) != 0 {
		t.Fatalf("fee cap = %s", tx.GasFeeCap())
	}

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(56)), tx)
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	if sender != w.from {
		t.Fatalf("sender %s, want %s", sender.Hex(), w.from.Hex())
	}
}

func TestKeyedWallet_SendValueLegacyWithoutBaseFee(t *testing.T) {
	chain := &fakeChain{chainID: 97}
	w := newTestWallet(t, chain)

	if _, err := w.SendValue(context.Background(), common.HexToAddress(recipient), big.NewInt(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chain.sent.Type() != types.LegacyTxType || chain.sent.GasPrice().Cmp(big.NewInt(3e9)) != 0 {
		t.Fatalf("unexpected legacy tx: type=%d price=%s", chain.sent.Type(), chain.sent.GasPrice())
	}
}

func TestKeyedWallet_WaitMinedPolls(t *testing.T) {
	chain := &fakeChain{chainID: 56, receiptPoll: 3}
	w := newTestWallet(t, chain)

	receipt, err := w.WaitMined(context.Background(), common.HexToHash("0x1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful || chain.polls != 4 {
		t.Fatalf("status=%d polls=%d", receipt.Status, chain.polls)
	}
}

func TestKeyedWallet_WaitMinedHonoursContext(t *testing.T) {
	chain := &fakeChain{chainID: 56, receiptPoll: 1 << 30}
	w := newTestWallet(t, chain)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := w.WaitMined(ctx, common.HexToHash("0x1")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestKeyedWallet_WaitMinedSurvivesRPCErrors(t *testing.T) {
	chain := &fakeChain{chainID: 56, rpcFailures: 2, receiptPoll: 1}
	w := newTestWallet(t, chain)

	receipt, err := w.WaitMined(context.Background(), common.HexToHash("0x1"))
	if err != nil {
		t.Fatalf("transient rpc errors must not abort the wait: %v", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful || chain.polls != 4 {
		t.Fatalf("status=%d polls=%d", receipt.Status, chain.polls)
	}
}

func TestKeyedWallet_WaitMinedReportsLastRPCError(t *testing.T) {
	chain := &fakeChain{chainID: 56, rpcFailures: 1 << 30}
	w := newTestWallet(t, chain)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := w.WaitMined(ctx, common.HexToHash("0x1"))
	if !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, errRPCUnavailable) {
		t.Fatalf("expected deadline wrapping the rpc error, got %v", err)
	}
	if chain.polls < 2 {
		t.Fatalf("expected repeated polling, got %d polls", chain.polls)
	}
}

func TestKeyedWallet_SwitchChain(t *testing.T) {
	w := newTestWallet(t, &fakeChain{chainID: 56})

	if err := w.SwitchChain(context.Background(), models.DefaultChain(models.NetworkBNB)); err != nil {
		t.Fatalf("same chain: %v", err)
	}
	if err := w.SwitchChain(context.Background(), models.DefaultChain(models.NetworkETH)); !errors.Is(err, ErrChainMismatch) {
		t.Fatalf("expected ErrChainMismatch, got %v", err)
	}
}
