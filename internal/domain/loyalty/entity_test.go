package loyalty

import "testing"

func TestTierForReturns(t *testing.T) {
	cases := []struct {
		returns int
		want    Tier
	}{
		{0, TierBronze},
		{19, TierBronze},
		{20, TierSilver},
		{49, TierSilver},
		{50, TierGold},
		{99, TierGold},
		{100, TierDiamond},
		{500, TierDiamond},
	}
	for _, tc := range cases {
		if got := TierForReturns(tc.returns); got != tc.want {
			t.Errorf("TierForReturns(%d) = %s, want %s", tc.returns, got, tc.want)
		}
	}
}

func TestHigherTierNeverDowngrades(t *testing.T) {
	if got := HigherTier(TierGold, TierSilver); got != TierGold {
		t.Errorf("HigherTier(gold, silver) = %s, want gold", got)
	}
	if got := HigherTier(TierBronze, TierDiamond); got != TierDiamond {
		t.Errorf("HigherTier(bronze, diamond) = %s, want diamond", got)
	}
	if got := HigherTier(TierSilver, TierSilver); got != TierSilver {
		t.Errorf("HigherTier(silver, silver) = %s, want silver", got)
	}
}

func TestValidTier(t *testing.T) {
	for _, tier := range []Tier{TierBronze, TierSilver, TierGold, TierDiamond} {
		if !ValidTier(tier) {
			t.Errorf("ValidTier(%s) = false", tier)
		}
	}
	if ValidTier(Tier("platinum")) {
		t.Error("ValidTier(platinum) should be false")
	}
}
