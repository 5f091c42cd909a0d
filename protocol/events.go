// Package protocol defines the named events exchanged with browser clients
// and their payloads. Inbound events decode into the Inbound sum type;
// everything sent to clients implements Outbound.
package protocol

// Inbound event names.
const (
	EventConnection         = "connection"
	EventJoinRoom           = "new room"
	EventDisconnect         = "disconnect"
	EventCreateGame         = "create game"
	EventClick              = "click"
	EventTellInitializeUser = "tell broadcasters-initialize user"
	EventTellInitializeGame = "tell broadcasters-initialize game"
)

// Outbound event names.
const (
	EventNewRoom                 = "new room"
	EventInitializeUser          = "initialize user"
	EventRoomMembership          = "new room for this socket"
	EventBroadcastInitializeUser = "broadcast-initialize user"
	EventRemoveSocket            = "remove socket"
	EventInitializeGame          = "initialize game"
	EventBroadcastInitializeGame = "broadcast-initialize game"
	EventUpdateGame              = "update game"
	EventBroadcastUpdateGame     = "broadcast-update game"
	EventRespondInitializeUser   = "respond to initialize user"
	EventRespondInitializeGame   = "respond to initialize game"
)
