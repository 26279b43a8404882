package models

import "testing"

func TestParseNetwork(t *testing.T) {
	tests := []struct {
		input   string
		want    Network
		wantErr bool
	}{
		{"BNB", NetworkBNB, false},
		{"eth", NetworkETH, false},
		{" Eth ", NetworkETH, false},
		{"SOL", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseNetwork(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseNetwork(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseNetwork(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultChain(t *testing.T) {
	if c := DefaultChain(NetworkBNB); c.ChainID != 56 || c.Symbol != "BNB" {
		t.Fatalf("unexpected BNB chain: %+v", c)
	}
	if c := DefaultChain(NetworkETH); c.ChainID != 1 || c.Symbol != "ETH" {
		t.Fatalf("unexpected ETH chain: %+v", c)
	}
}
