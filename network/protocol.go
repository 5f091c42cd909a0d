package network

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedPacket = errors.New("malformed packet")

// Packet is the wire envelope for every frame in both directions:
//
//	{"event": "click", "data": {"coords": {"row": 0, "col": 0}, "mode": "reveal"}}
type Packet struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewPacket marshals payload as the data of an event.
func NewPacket(event string, payload interface{}) (*Packet, error) {
	if payload == nil {
		return &Packet{Event: event}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %q payload: %w", event, err)
	}
	return &Packet{Event: event, Data: data}, nil
}

// DecodePacket parses a frame. Frames without an event name are malformed.
func DecodePacket(frame []byte) (*Packet, error) {
	var p Packet
	if err := json.Unmarshal(frame, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPacket, err)
	}
	if p.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrMalformedPacket)
	}
	return &p, nil
}

func (p *Packet) Encode() ([]byte, error) {
	return json.Marshal(p)
}
