package services

import (
	"testing"

	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

func TestSplitProceeds(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		feeBps      int64
		wantCreator string
		wantFee     string
	}{
		{"two percent", "1", 200, "0.98", "0.02"},
		{"zero fee", "0.5", 0, "0.5", "0"},
		{"negative fee clamps to zero", "0.5", -10, "0.5", "0"},
		{"fee above 100% clamps", "0.5", 20_000, "0", "0.5"},
		{"fee truncated at 18 decimals", "0.000000000000000001", 200, "0.000000000000000001", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := models.MustAmount(tt.amount)
			got := SplitProceeds(amount, tt.feeBps)

			if !got.CreatorShare.Equal(models.MustAmount(tt.wantCreator)) {
				t.Errorf("creator share = %s, want %s", got.CreatorShare, tt.wantCreator)
			}
			if !got.PlatformFee.Equal(models.MustAmount(tt.wantFee)) {
				t.Errorf("platform fee = %s, want %s", got.PlatformFee, tt.wantFee)
			}
			if sum := got.CreatorShare.Decimal().Add(got.PlatformFee.Decimal()); !sum.Equal(amount.Decimal()) {
				t.Errorf("shares sum to %s, want %s", sum, amount)
			}
		})
	}
}
