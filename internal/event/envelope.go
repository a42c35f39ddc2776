package event

import (
	"encoding/json"
	"fmt"
)

// Envelope is the JSON shape used when events leave the process (JSONL, Kafka).
type Envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Marshal encodes e as an Envelope.
func Marshal(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", e.Kind(), err)
	}
	return json.Marshal(Envelope{Kind: e.Kind().String(), Payload: payload})
}

// Unmarshal decodes an Envelope back into its concrete variant.
func Unmarshal(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	kind, err := ParseKind(env.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindMarket:
		return decode[Market](env.Payload)
	case KindSignal:
		return decode[Signal](env.Payload)
	case KindSignalForceExit:
		return decode[SignalForceExit](env.Payload)
	case KindOrderNew:
		return decode[OrderNew](env.Payload)
	case KindOrderUpdate:
		return decode[OrderUpdate](env.Payload)
	case KindFill:
		return decode[Fill](env.Payload)
	case KindPositionNew:
		return decode[PositionNew](env.Payload)
	case KindPositionUpdate:
		return decode[PositionUpdate](env.Payload)
	case KindPositionExit:
		return decode[PositionExit](env.Payload)
	case KindBalance:
		return decode[Balance](env.Payload)
	}
	return nil, fmt.Errorf("unknown event kind %q", env.Kind)
}

func decode[T Event](payload json.RawMessage) (Event, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", v.Kind(), err)
	}
	return v, nil
}
