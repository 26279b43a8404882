package models

import (
	"fmt"
	"strings"
)

// Network is a supported payment chain.
type Network string

const (
	NetworkBNB Network = "BNB"
	NetworkETH Network = "ETH"
)

// Networks lists every supported network in display order.
var Networks = []Network{NetworkBNB, NetworkETH}

// ParseNetwork accepts a network name case-insensitively.
func ParseNetwork(s string) (Network, error) {
	n := Network(strings.ToUpper(strings.TrimSpace(s)))
	if !n.Valid() {
		return "", fmt.Errorf("unsupported network %q", s)
	}
	return n, nil
}

func (n Network) Valid() bool {
	return n == NetworkBNB || n == NetworkETH
}

func (n Network) String() string { return string(n) }

// Chain describes how to reach and pay on a network.
type Chain struct {
	Network  Network
	Name     string
	ChainID  int64
	Symbol   string
	Decimals int32
	RPCURL   string
}

// DefaultChain returns mainnet parameters for n. RPCURL is left for configuration.
func DefaultChain(n Network) Chain {
	switch n {
	case NetworkETH:
		return Chain{Network: NetworkETH, Name: "Ethereum Mainnet", ChainID: 1, Symbol: "ETH", Decimals: 18}
	default:
		return Chain{Network: NetworkBNB, Name: "BNB Smart Chain", ChainID: 56, Symbol: "BNB", Decimals: 18}
	}
}
