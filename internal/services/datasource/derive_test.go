package datasource

import (
	"math"
	"testing"
)

func allLegsAt(v float64) map[string]float64 {
	rates := make(map[string]float64, len(dxyLegs))
	for _, leg := range dxyLegs {
		rates[leg.id] = v
	}
	return rates
}

func TestDollarIndexUnitLegs(t *testing.T) {
	// Every leg at 1.0 collapses the geometric mean to the scale constant.
	idx, ok := DollarIndex(allLegsAt(1.0))
	if !ok {
		t.Fatal("index should compute with all legs present")
	}
	if idx != dxyScale {
		t.Errorf("index = %v, want %v", idx, dxyScale)
	}
}

func TestDollarIndexLegPolarity(t *testing.T) {
	base, _ := DollarIndex(allLegsAt(1.0))

	strongerEuro := allLegsAt(1.0)
	strongerEuro["EURUSD"] = 1.2
	weaker, _ := DollarIndex(strongerEuro)
	if weaker >= base {
		t.Errorf("stronger euro must lower the index: %v >= %v", weaker, base)
	}

	strongerVsYen := allLegsAt(1.0)
	strongerVsYen["USDJPY"] = 1.2
	higher, _ := DollarIndex(strongerVsYen)
	if higher <= base {
		t.Errorf("stronger dollar vs yen must raise the index: %v <= %v", higher, base)
	}
}

func TestDollarIndexMissingLeg(t *testing.T) {
	rates := allLegsAt(1.0)
	delete(rates, "USDSEK")
	if _, ok := DollarIndex(rates); ok {
		t.Error("missing leg must not compute")
	}

	rates = allLegsAt(1.0)
	rates["USDCHF"] = 0
	if _, ok := DollarIndex(rates); ok {
		t.Error("zero leg must not compute")
	}

	rates = allLegsAt(1.0)
	rates["EURUSD"] = math.NaN()
	if _, ok := DollarIndex(rates); ok {
		t.Error("NaN leg must not compute")
	}
}

func TestDeficitShare(t *testing.T) {
	// A 1800B deficit (negative balance) against 28000B GDP.
	share, ok := DeficitShare(-1800, 28000)
	if !ok {
		t.Fatal("share should compute")
	}
	if math.Abs(share-6.4285714285714288) > 1e-9 {
		t.Errorf("share = %v, want ~6.43", share)
	}

	// Surplus years come out negative and never trip deficit rules.
	share, _ = DeficitShare(236, 10000)
	if share >= 0 {
		t.Errorf("surplus share = %v, want negative", share)
	}

	if _, ok := DeficitShare(-1800, 0); ok {
		t.Error("zero GDP must not compute")
	}
}
