package indicators

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: MovingAverage and StdDev return the 0 sentinel whenever the
// series holds fewer than period samples, for any period > 0.
func TestProperty_InsufficientDataReturnsSentinel(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("MovingAverage returns 0 below the window", prop.ForAll(
		func(series []float64, period int) bool {
			if len(series) >= period {
				series = series[:period-1]
			}
			return MovingAverage(series, period) == 0
		},
		gen.SliceOf(gen.Float64Range(1, 100000)),
		gen.IntRange(1, 200),
	))

	properties.Property("StdDev returns 0 below the window", prop.ForAll(
		func(series []float64, mean float64, period int) bool {
			if len(series) >= period {
				series = series[:period-1]
			}
			return StdDev(series, mean, period) == 0
		},
		gen.SliceOf(gen.Float64Range(1, 100000)),
		gen.Float64Range(1, 100000),
		gen.IntRange(1, 200),
	))

	properties.TestingRun(t)
}

// Property: RSI returns exactly the neutral 50 when given fewer than
// period+1 closes, for all periods.
func TestProperty_RSINeutralOnInsufficientData(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI is neutral below period+1 closes", prop.ForAll(
		func(closes []float64, period int) bool {
			if len(closes) > period {
				closes = closes[:period]
			}
			return RSI(closes, period) == NeutralRSI
		},
		gen.SliceOf(gen.Float64Range(1, 100000)),
		gen.IntRange(1, 200),
	))

	properties.TestingRun(t)
}

// Property: RSI stays within its mathematical bounds [0, 100] for any
// sufficiently long close series.
func TestProperty_RSIWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI in [0, 100]", prop.ForAll(
		func(closes []float64) bool {
			v := RSI(closes, 14)
			return v >= 0 && v <= 100
		},
		gen.SliceOfN(40, gen.Float64Range(1, 100000)),
	))

	properties.TestingRun(t)
}
