// Package indicators provides technical indicator calculations over
// bounded windows of price samples. All functions are pure and safe to
// call concurrently.
//
// Insufficient data is signalled with sentinel return values rather
// than errors: callers must treat a zero moving average or standard
// deviation, and a neutral 50 RSI, as "not enough samples", never as a
// real signal.
package indicators

import (
	"math"
)

// NeutralRSI is returned by RSI when fewer than period+1 samples exist.
const NeutralRSI = 50.0

// MovingAverage returns the arithmetic mean of the last period values
// of series. Returns 0 when fewer than period samples exist or period
// is not positive.
func MovingAverage(series []float64, period int) float64 {
	if period <= 0 || len(series) < period {
		return 0
	}
	window := series[len(series)-period:]
	var total float64
	for _, v := range window {
		total += v
	}
	return total / float64(period)
}

// StdDev returns the population standard deviation of the last period
// values of series around mean. Returns 0 when fewer than period
// samples exist or period is not positive.
func StdDev(series []float64, mean float64, period int) float64 {
	if period <= 0 || len(series) < period {
		return 0
	}
	window := series[len(series)-period:]
	var sumSq float64
	for _, v := range window {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(period))
}

// RSI returns the Wilder relative strength index over closes: gain and
// loss averages are seeded over the first period changes and smoothed
// across the rest of the series. Returns NeutralRSI when fewer than
// period+1 closes exist, and 100 when the smoothed loss is zero.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return NeutralRSI
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// Bands holds Bollinger-style band levels around a moving average.
type Bands struct {
	Middle float64
	Upper  float64
	Lower  float64
}

// BollingerBands computes bands at mul standard deviations around the
// period moving average of series. Returns the zero Bands when fewer
// than period samples exist.
func BollingerBands(series []float64, period int, mul float64) Bands {
	ma := MovingAverage(series, period)
	if ma == 0 {
		return Bands{}
	}
	sd := StdDev(series, ma, period)
	return Bands{
		Middle: ma,
		Upper:  ma + mul*sd,
		Lower:  ma - mul*sd,
	}
}

// BandPosition returns where price sits between the lower and upper
// band as a 0..1 ratio (values outside the bands fall outside that
// range). Returns 0.5 when the bands are degenerate.
func BandPosition(price float64, b Bands) float64 {
	width := b.Upper - b.Lower
	if width == 0 {
		return 0.5
	}
	return (price - b.Lower) / width
}
