package datasource

import "math"

// ICE dollar index basket. The scale constant anchors the geometric mean so
// the index matches the published series.
const dxyScale = 50.14348112

var dxyLegs = []struct {
	id  string
	exp float64
}{
	{"EURUSD", -0.576},
	{"USDJPY", 0.136},
	{"GBPUSD", -0.119},
	{"USDCAD", 0.091},
	{"USDSEK", 0.042},
	{"USDCHF", 0.036},
}

// DollarIndex computes the ICE dollar index from its six FX legs. Returns
// false when any leg is missing or non-positive.
func DollarIndex(rates map[string]float64) (float64, bool) {
	out := dxyScale
	for _, leg := range dxyLegs {
		v, ok := rates[leg.id]
		if !ok || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		out *= math.Pow(v, leg.exp)
	}
	return out, true
}

// DeficitShare converts a fiscal balance into a deficit as percent of GDP.
// Balance and GDP must share a unit; deficits are reported as negative
// balances, so the sign flips to make a deficit positive.
func DeficitShare(balance, gdp float64) (float64, bool) {
	if gdp == 0 || math.IsNaN(gdp) || math.IsNaN(balance) {
		return 0, false
	}
	return -balance / gdp * 100, true
}
