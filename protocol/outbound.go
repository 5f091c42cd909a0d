package protocol

import (
	"encoding/json"

	"github.com/wfunc/sweeper/game"
)

// Outbound is anything the server emits; its JSON encoding is the event data.
type Outbound interface {
	Event() string
}

// NewRoom offers a freshly minted room code.
type NewRoom struct {
	Code string
}

func (NewRoom) Event() string { return EventNewRoom }

func (m NewRoom) MarshalJSON() ([]byte, error) { return json.Marshal(m.Code) }

// InitializeUser tells a client its own connection id.
type InitializeUser struct {
	ID string
}

func (InitializeUser) Event() string { return EventInitializeUser }

func (m InitializeUser) MarshalJSON() ([]byte, error) { return json.Marshal(m.ID) }

type RoomSnapshot struct {
	Code      string   `json:"code"`
	MemberIDs []string `json:"memberIds"`
}

// RoomMembership announces who is in a room after ConnectionID joined it.
type RoomMembership struct {
	ConnectionID string       `json:"connectionId"`
	Room         RoomSnapshot `json:"room"`
}

func (RoomMembership) Event() string { return EventRoomMembership }

// BroadcastInitializeUser tells existing members that ID joined.
type BroadcastInitializeUser struct {
	ID string
}

func (BroadcastInitializeUser) Event() string { return EventBroadcastInitializeUser }

func (m BroadcastInitializeUser) MarshalJSON() ([]byte, error) { return json.Marshal(m.ID) }

// RemoveSocket tells remaining members that ID left.
type RemoveSocket struct {
	ID string
}

func (RemoveSocket) Event() string { return EventRemoveSocket }

func (m RemoveSocket) MarshalJSON() ([]byte, error) { return json.Marshal(m.ID) }

// RespondInitializeUser carries a peer's state verbatim.
type RespondInitializeUser struct {
	State json.RawMessage
}

func (RespondInitializeUser) Event() string { return EventRespondInitializeUser }

func (m RespondInitializeUser) MarshalJSON() ([]byte, error) { return rawOrNull(m.State), nil }

// RespondInitializeGame carries a peer's game state verbatim.
type RespondInitializeGame struct {
	State json.RawMessage
}

func (RespondInitializeGame) Event() string { return EventRespondInitializeGame }

func (m RespondInitializeGame) MarshalJSON() ([]byte, error) { return rawOrNull(m.State), nil }

// game.Display is emitted as-is under its own event name.
var _ Outbound = game.Display{}

func rawOrNull(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
