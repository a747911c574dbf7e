package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EventRoomAssigned is sent to a student when a room is assigned to them.
const EventRoomAssigned = "room-assigned"

// RecipientID identifies the target of a notification (a student id).
type RecipientID int64

// Field is one key/value pair of an event payload.
type Field struct {
	Key   string
	Value any
}

// Payload is an ordered set of fields. It marshals to a JSON object whose keys
// appear in insertion order.
type Payload []Field

// Event is a named notification with a flat payload. An Event with an empty
// Name is a keep-alive and carries no payload.
type Event struct {
	Name    string
	Payload Payload
}

// NewEvent builds an event from alternating key/value arguments.
// A trailing key without a value is dropped.
func NewEvent(name string, kv ...any) Event {
	p := make(Payload, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		p = append(p, Field{Key: fmt.Sprint(kv[i]), Value: kv[i+1]})
	}
	return Event{Name: name, Payload: p}
}

// RoomAssigned returns the event published when studentID gets roomNo.
func RoomAssigned(studentID RecipientID, roomNo string) Event {
	return NewEvent(EventRoomAssigned, "studentId", int64(studentID), "roomNo", roomNo)
}

// IsHeartbeat reports whether e is a keep-alive rather than a real event.
func (e Event) IsHeartbeat() bool { return e.Name == "" }

// Get returns the value stored under key.
func (p Payload) Get(key string) (any, bool) {
	for _, f := range p {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", f.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
