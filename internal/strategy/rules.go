package strategy

import (
	"time"

	"krx-trader/internal/analysis/indicators"
	"krx-trader/internal/models"
)

// eligibleBasic flags instruments whose day change sits inside the
// configured band and whose traded notional clears the minimum. An
// empty band (min above max) can never match.
func eligibleBasic(cfg BasicConfig, snap models.Snapshot) bool {
	if !cfg.Enabled {
		return false
	}
	if snap.ChangePercent < cfg.MinChangePercent || snap.ChangePercent > cfg.MaxChangePercent {
		return false
	}
	notional := snap.Price * float64(snap.Volume)
	return notional >= cfg.MinTradingValue
}

// eligibleEarlyRise flags instruments rising sharply inside the opening
// time window. Both window boundaries are inclusive.
func eligibleEarlyRise(cfg EarlyRiseConfig, snap models.Snapshot, now time.Time) bool {
	if !cfg.Enabled {
		return false
	}
	minute := now.Hour()*60 + now.Minute()
	start := cfg.StartHour*60 + cfg.StartMinute
	end := cfg.EndHour*60 + cfg.EndMinute
	if minute < start || minute > end {
		return false
	}
	return snap.ChangePercent >= cfg.MinChangePercent
}

// eligibleBand flags instruments trading at or below the configured
// position within their Bollinger bands. Insufficient history yields
// degenerate bands and never matches.
func eligibleBand(cfg BandConfig, snap models.Snapshot) bool {
	if !cfg.Enabled {
		return false
	}
	bands := indicators.BollingerBands(snap.Closes(), cfg.Period, cfg.Multiplier)
	if bands.Middle == 0 || bands.Upper == bands.Lower {
		return false
	}
	return indicators.BandPosition(snap.Price, bands) <= cfg.MaxBandPosition
}

// eligibleScalp flags oversold instruments trading near the day low.
// RSI on insufficient history is neutral 50 and never clears an
// oversold threshold.
func eligibleScalp(cfg ScalpConfig, snap models.Snapshot) bool {
	if !cfg.Enabled {
		return false
	}
	if indicators.RSI(snap.Closes(), cfg.RSIPeriod) > cfg.MaxRSI {
		return false
	}
	if snap.Low <= 0 {
		return false
	}
	aboveLow := (snap.Price - snap.Low) / snap.Low * 100
	return aboveLow <= cfg.MaxAboveLowPercent
}

// eligibleBreakout flags instruments breaking the session high on a
// volume surge. An unknown prior-session volume never matches.
func eligibleBreakout(cfg BreakoutConfig, snap models.Snapshot) bool {
	if !cfg.Enabled {
		return false
	}
	if snap.ChangePercent < cfg.MinChangePercent {
		return false
	}
	if snap.High <= 0 || snap.Price < snap.High {
		return false
	}
	if snap.PrevVolume <= 0 {
		return false
	}
	return float64(snap.Volume) >= cfg.VolumeMultiplier*float64(snap.PrevVolume)
}
