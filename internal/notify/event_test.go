package notify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomAssignedPayloadKeepsFieldOrder(t *testing.T) {
	e := RoomAssigned(42, "B-12")

	raw, err := json.Marshal(e.Payload)
	require.NoError(t, err)
	assert.Equal(t, `{"studentId":42,"roomNo":"B-12"}`, string(raw))
	assert.Equal(t, EventRoomAssigned, e.Name)
	assert.False(t, e.IsHeartbeat())
}

func TestNewEventDropsDanglingKey(t *testing.T) {
	e := NewEvent("x", "a", 1, "b")

	require.Len(t, e.Payload, 1)
	v, ok := e.Payload.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = e.Payload.Get("b")
	assert.False(t, ok)
}

func TestEmptyPayloadMarshalsToObject(t *testing.T) {
	raw, err := json.Marshal(Payload(nil))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(raw))
	assert.True(t, Event{}.IsHeartbeat())
}

func TestPayloadMarshalRejectsUnsupportedValue(t *testing.T) {
	_, err := json.Marshal(Payload{{Key: "ch", Value: make(chan int)}})
	assert.Error(t, err)
}
