package game

import (
	"fmt"
)

// Status is the lifecycle of a single board. Won and Lost are terminal.
type Status int

const (
	InProgress Status = iota
	Won
	Lost
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether no further click can change the board.
func (s Status) Terminal() bool {
	return s == Won || s == Lost
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{InProgress, Won, Lost} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("game: unknown status %q", string(text))
}

// Mode selects what a click does to its target cell.
type Mode int

const (
	Reveal Mode = iota
	ToggleFlag
)

func (m Mode) String() string {
	if m == ToggleFlag {
		return "flag"
	}
	return "reveal"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "reveal", "open", "":
		*m = Reveal
	case "flag", "toggle-flag":
		*m = ToggleFlag
	default:
		return fmt.Errorf("game: unknown click mode %q", string(text))
	}
	return nil
}

type Coords struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Click is one player input against a board.
type Click struct {
	Coords Coords `json:"coords"`
	Mode   Mode   `json:"mode"`
}

// Cell is one square of the grid. AdjacentMines is fixed once mines are seeded.
type Cell struct {
	IsMine        bool
	IsRevealed    bool
	IsFlagged     bool
	AdjacentMines int
}
