package stream

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"krx-trader/internal/models"
)

func TestHubDeliversInRegistrationOrder(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	var order []string
	hub.Subscribe(func(models.Tick) { order = append(order, "first") })
	hub.Subscribe(func(models.Tick) { order = append(order, "second") })
	hub.Subscribe(func(models.Tick) { order = append(order, "third") })

	hub.Publish(models.Tick{Code: "005930", Price: 71400})

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	var got int
	unsubscribe := hub.Subscribe(func(models.Tick) { got++ })
	assert.Equal(t, 1, hub.Len())

	hub.Publish(models.Tick{Code: "005930"})
	unsubscribe()
	hub.Publish(models.Tick{Code: "005930"})

	assert.Equal(t, 1, got)
	assert.Zero(t, hub.Len())

	// Unsubscribing twice is harmless.
	unsubscribe()
}

func TestHubContainsPanickingSubscriber(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	var delivered []string
	hub.Subscribe(func(models.Tick) { delivered = append(delivered, "a") })
	hub.Subscribe(func(models.Tick) { panic("boom") })
	hub.Subscribe(func(models.Tick) { delivered = append(delivered, "c") })

	assert.NotPanics(t, func() {
		hub.Publish(models.Tick{Code: "005930"})
	})
	assert.Equal(t, []string{"a", "c"}, delivered)
}
