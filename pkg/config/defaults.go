package config

// Built-in event, indicator, and rule tables. A config file may replace any
// of the three sections wholesale; partial merging is deliberately not
// supported since rules cross-reference events and indicators.

// DefaultEvents returns the five tracked risk events.
func DefaultEvents() []EventConfig {
	return []EventConfig{
		{ID: "recessionLike", BasePrior: 0.15, CriticalThreshold: 0.70},
		{ID: "depressionLike", BasePrior: 0.02, CriticalThreshold: 0.45},
		{ID: "reserveStatusLoss", BasePrior: 0.05, CriticalThreshold: 0.40},
		{ID: "sovereignDefault", BasePrior: 0.01, CriticalThreshold: 0.30},
		{ID: "currencyDevaluation", BasePrior: 0.10, CriticalThreshold: 0.50},
	}
}

// DefaultIndicators returns the indicator registry.
func DefaultIndicators() []IndicatorConfig {
	return []IndicatorConfig{
		{ID: "DGS10", Name: "10-Year Treasury Yield", Source: "fred", SeriesID: "DGS10", Period: "daily", Unit: "%", Decimals: 2, ThresholdText: "elevated above 5%"},
		{ID: "DGS2", Name: "2-Year Treasury Yield", Source: "fred", SeriesID: "DGS2", Period: "daily", Unit: "%", Decimals: 2},
		{ID: "UNRATE", Name: "Unemployment Rate", Source: "fred", SeriesID: "UNRATE", Period: "monthly", Unit: "%", Decimals: 1, ThresholdText: "elevated above 4.5%"},
		{ID: "CPIYoY", Name: "CPI Inflation YoY", Source: "fred", SeriesID: "CPIAUCSL", Transform: "yoy", Period: "monthly", Unit: "%", Decimals: 1, ThresholdText: "elevated above 4%"},
		{ID: "GDPGrowth", Name: "Real GDP Growth", Source: "fred", SeriesID: "A191RL1Q225SBEA", Period: "quarterly", Unit: "%", Decimals: 1, ThresholdText: "contraction below 0%"},
		{ID: "DebtToGDP", Name: "Federal Debt to GDP", Source: "fred", SeriesID: "GFDEGDQ188S", Period: "quarterly", Unit: "%", Decimals: 1, ThresholdText: "danger above 120%"},
		{ID: "FedDeficit", Name: "Federal Deficit", Source: "fred", SeriesID: "FYFSD", Period: "annual", Unit: "$M", Decimals: 0},
		{ID: "NominalGDP", Name: "Nominal GDP", Source: "fred", SeriesID: "GDP", Period: "quarterly", Unit: "$B", Decimals: 0},
		{ID: "InterestOutlays", Name: "Federal Interest Outlays", Source: "fred", SeriesID: "A091RC1Q027SBEA", Period: "quarterly", Unit: "$B", Decimals: 0},
		{ID: "M2YoY", Name: "M2 Money Supply Growth YoY", Source: "fred", SeriesID: "M2SL", Transform: "yoy", Period: "monthly", Unit: "%", Decimals: 1, ThresholdText: "elevated above 10%"},
		{ID: "ReserveShare", Name: "USD Share of Global Reserves", Source: "estimated", Estimate: 58.4, Period: "quarterly", Unit: "%", Decimals: 1, ThresholdText: "erosion below 55%"},
		{ID: "GoldPrice", Name: "Gold Spot Price", Source: "quotes", Symbol: "XAUUSD", Period: "daily", Unit: "$", Decimals: 0, ThresholdText: "flight above $2400"},
		{ID: "SP500", Name: "S&P 500 Index", Source: "quotes", Symbol: "SPX", Period: "daily", Decimals: 0},
		{ID: "VIX", Name: "CBOE Volatility Index", Source: "quotes", Symbol: "VIX", Period: "daily", Decimals: 1, ThresholdText: "stress above 25"},
		{ID: "EURUSD", Name: "EUR/USD", Source: "quotes", Symbol: "EURUSD", Period: "daily", Decimals: 4},
		{ID: "USDJPY", Name: "USD/JPY", Source: "quotes", Symbol: "USDJPY", Period: "daily", Decimals: 2},
		{ID: "GBPUSD", Name: "GBP/USD", Source: "quotes", Symbol: "GBPUSD", Period: "daily", Decimals: 4},
		{ID: "USDCAD", Name: "USD/CAD", Source: "quotes", Symbol: "USDCAD", Period: "daily", Decimals: 4},
		{ID: "USDSEK", Name: "USD/SEK", Source: "quotes", Symbol: "USDSEK", Period: "daily", Decimals: 4},
		{ID: "USDCHF", Name: "USD/CHF", Source: "quotes", Symbol: "USDCHF", Period: "daily", Decimals: 4},
		{ID: "DXY", Name: "US Dollar Index", Source: "derived", Period: "daily", Decimals: 2, ThresholdText: "weakness below 95"},
		{ID: "DeficitGDP", Name: "Deficit to GDP", Source: "derived", Period: "quarterly", Unit: "%", Decimals: 1, ThresholdText: "danger above 6%"},
	}
}

// DefaultRules returns the risk rule table. Order within an event is the
// order factors are reported in.
func DefaultRules() []RuleConfig {
	return []RuleConfig{
		// recessionLike
		{Event: "recessionLike", Indicator: "DGS10", Composite: &CompositeConfig{Op: "spread", Second: "DGS2"}, Operator: "<", Value: 0, BaseFactor: 2.0, InvertedForTrend: true, Description: "Yield curve inverted (10Y-2Y below zero)"},
		{Event: "recessionLike", Indicator: "GDPGrowth", Operator: "<", Value: 0, BaseFactor: 1.8, Description: "Real GDP contracting"},
		{Event: "recessionLike", Indicator: "UNRATE", Operator: ">", Value: 4.5, BaseFactor: 1.5, InvertedForTrend: true, Description: "Unemployment elevated"},
		{Event: "recessionLike", Indicator: "VIX", Operator: ">", Value: 25, BaseFactor: 1.3, InvertedForTrend: true, Description: "Equity volatility stressed"},

		// depressionLike
		{Event: "depressionLike", Indicator: "GDPGrowth", Operator: "<", Value: -3, BaseFactor: 2.5, Description: "Severe GDP contraction"},
		{Event: "depressionLike", Indicator: "UNRATE", Operator: ">", Value: 9, BaseFactor: 2.2, InvertedForTrend: true, Description: "Unemployment at crisis levels"},
		{Event: "depressionLike", Indicator: "SP500", Operator: "<", Value: 3500, BaseFactor: 1.8, Description: "Equity market collapse"},
		{Event: "depressionLike", Indicator: "VIX", Operator: ">", Value: 40, BaseFactor: 1.6, InvertedForTrend: true, Description: "Panic-level volatility"},

		// reserveStatusLoss
		{Event: "reserveStatusLoss", Indicator: "ReserveShare", Operator: "<", Value: 55, BaseFactor: 1.7, Description: "USD reserve share eroding"},
		{Event: "reserveStatusLoss", Indicator: "DXY", Operator: "<", Value: 95, BaseFactor: 1.5, Description: "Dollar index weakness"},
		{Event: "reserveStatusLoss", Indicator: "GoldPrice", Operator: ">", Value: 2400, BaseFactor: 1.4, InvertedForTrend: true, Description: "Gold flight from dollar"},

		// sovereignDefault
		{Event: "sovereignDefault", Indicator: "DebtToGDP", Operator: ">", Value: 120, BaseFactor: 1.8, InvertedForTrend: true, Description: "Debt load beyond 120% of GDP"},
		{Event: "sovereignDefault", Indicator: "DeficitGDP", Operator: ">", Value: 6, BaseFactor: 1.6, InvertedForTrend: true, Description: "Deficit above 6% of GDP"},
		{Event: "sovereignDefault", Indicator: "InterestOutlays", Composite: &CompositeConfig{Op: "ratio", Second: "NominalGDP"}, Operator: ">", Value: 0.03, BaseFactor: 1.5, InvertedForTrend: true, Description: "Interest burden above 3% of GDP"},
		{Event: "sovereignDefault", Indicator: "DGS10", Operator: ">", Value: 5, BaseFactor: 1.4, InvertedForTrend: true, Description: "Long yields pricing fiscal stress"},

		// currencyDevaluation
		{Event: "currencyDevaluation", Indicator: "DXY", Operator: "<", Value: 95, BaseFactor: 1.5, Description: "Dollar index weakness"},
		{Event: "currencyDevaluation", Indicator: "CPIYoY", Operator: ">", Value: 4, BaseFactor: 1.6, InvertedForTrend: true, Description: "Inflation eroding purchasing power"},
		{Event: "currencyDevaluation", Indicator: "M2YoY", Operator: ">", Value: 10, BaseFactor: 1.4, InvertedForTrend: true, Description: "Money supply expanding rapidly"},
		{Event: "currencyDevaluation", Indicator: "GoldPrice", Operator: ">", Value: 2400, BaseFactor: 1.3, InvertedForTrend: true, Description: "Gold pricing in devaluation"},
	}
}
