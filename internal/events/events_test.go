package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()

	var first, second int
	bus.Subscribe(TypeReservationCreated, func(Event) { first++ })
	bus.Subscribe(TypeReservationCreated, func(Event) { second++ })
	bus.Subscribe(TypeReservationCancelled, func(Event) { t.Error("wrong type delivered") })

	bus.Publish(Event{Type: TypeReservationCreated})
	bus.Publish(Event{Type: TypeReservationCreated})

	assert.Equal(t, 2, first)
	assert.Equal(t, 2, second)
}

func TestBusPublishJSON(t *testing.T) {
	bus := NewBus()

	var got Event
	bus.Subscribe(TypeRestrictionCreated, func(e Event) { got = e })

	payload := map[string]string{"id": "x1"}
	require.NoError(t, bus.PublishJSON(TypeRestrictionCreated, payload))

	assert.Equal(t, TypeRestrictionCreated, got.Type)
	assert.False(t, got.CreatedAt.IsZero())

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(got.Payload, &decoded))
	assert.Equal(t, "x1", decoded["id"])
}

func TestBusPublishJSONMarshalError(t *testing.T) {
	bus := NewBus()
	called := false
	bus.Subscribe(TypeReservationCreated, func(Event) { called = true })

	err := bus.PublishJSON(TypeReservationCreated, func() {})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestBusNoSubscribers(t *testing.T) {
	bus := NewBus()
	// Publishing without subscribers must be a no-op.
	bus.Publish(Event{Type: TypeReservationCancelled})
}
