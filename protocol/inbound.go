package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wfunc/sweeper/game"
	"github.com/wfunc/sweeper/network"
)

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrReservedEvent  = errors.New("reserved event")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Inbound is one decoded client event. The concrete types are the closed
// set below.
type Inbound interface {
	inbound()
}

// Connect asks the server to mint a room code for the sender.
type Connect struct{}

// JoinRoom moves the sender into the room with Code, creating it if needed.
type JoinRoom struct {
	Code string
}

// Disconnect is raised by the transport, never decoded from the wire.
type Disconnect struct{}

type CreateGame struct{}

type Click struct {
	game.Click
}

// RelayInitializeUser forwards State unchanged to TargetID.
type RelayInitializeUser struct {
	TargetID string
	State    json.RawMessage
}

// RelayInitializeGame forwards State unchanged to TargetID.
type RelayInitializeGame struct {
	TargetID string
	State    json.RawMessage
}

func (Connect) inbound()             {}
func (JoinRoom) inbound()            {}
func (Disconnect) inbound()          {}
func (CreateGame) inbound()          {}
func (Click) inbound()               {}
func (RelayInitializeUser) inbound() {}
func (RelayInitializeGame) inbound() {}

// Decode maps a wire packet onto its typed event.
func Decode(p *network.Packet) (Inbound, error) {
	switch p.Event {
	case EventConnection:
		return Connect{}, nil

	case EventJoinRoom:
		code, err := decodeCode(p.Data)
		if err != nil {
			return nil, err
		}
		return JoinRoom{Code: code}, nil

	case EventDisconnect:
		return nil, fmt.Errorf("%w: %q", ErrReservedEvent, p.Event)

	case EventCreateGame:
		return CreateGame{}, nil

	case EventClick:
		var c game.Click
		if err := json.Unmarshal(p.Data, &c); err != nil {
			return nil, fmt.Errorf("%w: click: %v", ErrInvalidPayload, err)
		}
		return Click{Click: c}, nil

	case EventTellInitializeUser:
		var target struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(p.Data, &target); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, p.Event, err)
		}
		return RelayInitializeUser{TargetID: target.ID, State: p.Data}, nil

	case EventTellInitializeGame:
		var target struct {
			StateID string `json:"stateId"`
		}
		if err := json.Unmarshal(p.Data, &target); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, p.Event, err)
		}
		return RelayInitializeGame{TargetID: target.StateID, State: p.Data}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, p.Event)
	}
}

// decodeCode accepts the room code as a JSON string or number.
func decodeCode(data json.RawMessage) (string, error) {
	var code string
	if err := json.Unmarshal(data, &code); err == nil {
		code = strings.TrimSpace(code)
		if code == "" {
			return "", fmt.Errorf("%w: empty room code", ErrInvalidPayload)
		}
		return code, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return "", fmt.Errorf("%w: room code: %v", ErrInvalidPayload, err)
	}
	return n.String(), nil
}
