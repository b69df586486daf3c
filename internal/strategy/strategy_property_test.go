package strategy

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"krx-trader/internal/models"
)

func snapshotGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(models.Snapshot{}), map[string]gopter.Gen{
		"Code":          gen.OneConstOf("005930", "000660", "035420", "051910", "005380"),
		"Price":         gen.Float64Range(100, 1_000_000),
		"ChangePercent": gen.Float64Range(-30, 30),
		"Volume":        gen.Int64Range(0, 100_000_000),
	})
}

// Property: for any basic config whose minimum change percent exceeds
// its maximum, no instrument is ever eligible.
func TestProperty_EmptyChangeRangeNeverEligible(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("empty range matches nothing", prop.ForAll(
		func(snap models.Snapshot, lo, hi float64) bool {
			if lo <= hi {
				lo, hi = hi+1, lo
			}
			cfg := &Config{Basic: BasicConfig{
				Enabled:          true,
				MinChangePercent: lo,
				MaxChangePercent: hi,
			}}
			_, ok := EvaluateBuy(cfg, snap, time.Now())
			return !ok
		},
		snapshotGen(),
		gen.Float64Range(-30, 30),
		gen.Float64Range(-30, 30),
	))

	properties.TestingRun(t)
}

// Property: a config with every strategy disabled never flags any
// instrument at any time of day.
func TestProperty_DisabledConfigNeverEligible(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("disabled strategies match nothing", prop.ForAll(
		func(snap models.Snapshot, hour, minute int) bool {
			cfg := &Config{}
			now := time.Date(2024, 3, 4, hour, minute, 0, 0, time.Local)
			_, ok := EvaluateBuy(cfg, snap, now)
			return !ok
		},
		snapshotGen(),
		gen.IntRange(0, 23),
		gen.IntRange(0, 59),
	))

	properties.TestingRun(t)
}
