// Package strategy provides the buy/sell rule evaluators of the
// trading engine. Buy strategies form a fixed, ordered set: evaluation
// walks BuyPriority and the first eligible strategy wins. The order is
// a correctness contract, not an implementation detail.
package strategy

import (
	"time"

	"krx-trader/internal/models"
)

// Kind identifies one buy strategy.
type Kind string

const (
	KindBasic     Kind = "basic"
	KindEarlyRise Kind = "early_rise"
	KindBand      Kind = "band"
	KindScalp     Kind = "scalp"
	KindBreakout  Kind = "breakout"
)

// BuyPriority is the fixed evaluation order of the buy strategies.
var BuyPriority = []Kind{KindBasic, KindEarlyRise, KindBand, KindScalp, KindBreakout}

// BasicConfig configures the basic momentum buy rule.
type BasicConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MinChangePercent float64 `mapstructure:"min_change_percent"`
	MaxChangePercent float64 `mapstructure:"max_change_percent"`
	MinTradingValue  float64 `mapstructure:"min_trading_value"`
}

// EarlyRiseConfig configures the early-rise time-window rule.
type EarlyRiseConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	StartHour        int     `mapstructure:"start_hour"`
	StartMinute      int     `mapstructure:"start_minute"`
	EndHour          int     `mapstructure:"end_hour"`
	EndMinute        int     `mapstructure:"end_minute"`
	MinChangePercent float64 `mapstructure:"min_change_percent"`
}

// BandConfig configures the Bollinger-band reversion rule.
type BandConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	Period          int     `mapstructure:"period"`
	Multiplier      float64 `mapstructure:"multiplier"`
	MaxBandPosition float64 `mapstructure:"max_band_position"`
}

// ScalpConfig configures the low-point scalp rule.
type ScalpConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	RSIPeriod          int     `mapstructure:"rsi_period"`
	MaxRSI             float64 `mapstructure:"max_rsi"`
	MaxAboveLowPercent float64 `mapstructure:"max_above_low_percent"`
}

// BreakoutConfig configures the day-high breakout rule.
type BreakoutConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MinChangePercent float64 `mapstructure:"min_change_percent"`
	VolumeMultiplier float64 `mapstructure:"volume_multiplier"`
}

// SellConfig configures the sell rules applied to held positions.
// TakeProfitPercent and StopLossPercent are inclusive thresholds on the
// unrealized percent return.
type SellConfig struct {
	TakeProfitPercent float64 `mapstructure:"take_profit_percent"`
	StopLossPercent   float64 `mapstructure:"stop_loss_percent"`
	TrailingEnabled   bool    `mapstructure:"trailing_enabled"`
	TrailingPercent   float64 `mapstructure:"trailing_percent"`
}

// Config holds the full strategy configuration. It is read-only within
// one orchestration cycle and may be swapped wholesale between cycles.
type Config struct {
	Basic     BasicConfig     `mapstructure:"basic"`
	EarlyRise EarlyRiseConfig `mapstructure:"early_rise"`
	Band      BandConfig      `mapstructure:"band"`
	Scalp     ScalpConfig     `mapstructure:"scalp"`
	Breakout  BreakoutConfig  `mapstructure:"breakout"`
	Sell      SellConfig      `mapstructure:"sell"`
}

// DefaultConfig returns the default strategy configuration. The sell
// thresholds are illustrative defaults, not validated production
// parameters, and are meant to be tuned per deployment.
func DefaultConfig() *Config {
	return &Config{
		Basic: BasicConfig{
			Enabled:          true,
			MinChangePercent: 3.0,
			MaxChangePercent: 15.0,
			MinTradingValue:  1_000_000_000,
		},
		EarlyRise: EarlyRiseConfig{
			Enabled:          true,
			StartHour:        9,
			StartMinute:      0,
			EndHour:          9,
			EndMinute:        5,
			MinChangePercent: 5.0,
		},
		Band: BandConfig{
			Enabled:         false,
			Period:          20,
			Multiplier:      2.0,
			MaxBandPosition: 0.2,
		},
		Scalp: ScalpConfig{
			Enabled:            false,
			RSIPeriod:          14,
			MaxRSI:             30.0,
			MaxAboveLowPercent: 1.0,
		},
		Breakout: BreakoutConfig{
			Enabled:          false,
			MinChangePercent: 2.0,
			VolumeMultiplier: 3.0,
		},
		Sell: SellConfig{
			TakeProfitPercent: 2.0,
			StopLossPercent:   -1.0,
			TrailingEnabled:   false,
			TrailingPercent:   1.5,
		},
	}
}

// EvaluateBuy runs the enabled buy strategies against snap in the fixed
// BuyPriority order and returns the first strategy that flags the
// instrument eligible. A nil config makes every instrument ineligible.
func EvaluateBuy(cfg *Config, snap models.Snapshot, now time.Time) (Kind, bool) {
	if cfg == nil {
		return "", false
	}
	for _, kind := range BuyPriority {
		if eligible(cfg, kind, snap, now) {
			return kind, true
		}
	}
	return "", false
}

func eligible(cfg *Config, kind Kind, snap models.Snapshot, now time.Time) bool {
	switch kind {
	case KindBasic:
		return eligibleBasic(cfg.Basic, snap)
	case KindEarlyRise:
		return eligibleEarlyRise(cfg.EarlyRise, snap, now)
	case KindBand:
		return eligibleBand(cfg.Band, snap)
	case KindScalp:
		return eligibleScalp(cfg.Scalp, snap)
	case KindBreakout:
		return eligibleBreakout(cfg.Breakout, snap)
	default:
		return false
	}
}

// SellReason identifies why a position was flagged for sale.
type SellReason string

const (
	SellReasonTakeProfit   SellReason = "take_profit"
	SellReasonStopLoss     SellReason = "stop_loss"
	SellReasonTrailingStop SellReason = "trailing_stop"
)

// EvaluateSell checks the fixed sell rules against a held position:
// take-profit first, then stop-loss, then the optional trailing stop.
func EvaluateSell(cfg SellConfig, pos models.Position) (SellReason, bool) {
	if pos.ProfitPercent >= cfg.TakeProfitPercent {
		return SellReasonTakeProfit, true
	}
	if pos.ProfitPercent <= cfg.StopLossPercent {
		return SellReasonStopLoss, true
	}
	if cfg.TrailingEnabled && pos.HighestPrice > 0 {
		drawdown := (pos.HighestPrice - pos.CurrentPrice) / pos.HighestPrice * 100
		if drawdown >= cfg.TrailingPercent {
			return SellReasonTrailingStop, true
		}
	}
	return "", false
}
