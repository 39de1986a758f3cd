package ws

import (
	"encoding/json"

	"github.com/mcoot/battlearena/internal/model"
)

// Envelope is the frame exchanged in both directions: a named event and its
// JSON payload
type Envelope struct {
	Event model.EventName `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode wraps payload in an envelope for event
func Encode(event model.EventName, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Decode parses a frame into an envelope
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, model.ErrInvalidPayload
	}
	if env.Event == "" {
		return Envelope{}, model.ErrInvalidPayload
	}
	return env, nil
}

// addressOf extracts the identity carried by every client event
func addressOf(env Envelope) (model.Identity, error) {
	if len(env.Data) == 0 {
		return "", model.ErrInvalidPayload
	}
	var payload model.AddressPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return "", model.ErrInvalidPayload
	}
	return model.Identity(payload.Address), nil
}
