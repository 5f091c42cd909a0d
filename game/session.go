package game

import (
	"math/rand"
	"time"
)

type Options struct {
	Rows          int
	Cols          int
	Mines         int
	SafeNeighbors bool
	// Rand drives mine placement; nil seeds from the clock.
	Rand *rand.Rand
}

func DefaultOptions() Options {
	return Options{Rows: 10, Cols: 15, Mines: 20, SafeNeighbors: true}
}

// Session is one minesweeper game owned by the connection that created it.
type Session struct {
	OwnerID   string
	CreatedAt time.Time

	opts  Options
	board *Board
	moves int
}

func NewSession(ownerID string, opts Options) (*Session, error) {
	s := &Session{
		OwnerID: ownerID,
		opts:    opts,
	}
	if err := s.CreateTable(opts.Rows, opts.Cols); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateTable discards any current board and allocates an empty rows x cols
// grid. Mines are placed on the first reveal.
func (s *Session) CreateTable(rows, cols int) error {
	board, err := NewBoard(rows, cols, s.opts.Mines, s.opts.SafeNeighbors, s.opts.Rand)
	if err != nil {
		return err
	}
	s.board = board
	s.moves = 0
	s.CreatedAt = time.Now()
	return nil
}

// RegisterClick applies a click and reports whether the board changed.
// Out-of-bounds clicks and clicks on a finished board are ignored.
func (s *Session) RegisterClick(click Click) bool {
	var changed bool
	switch click.Mode {
	case Reveal:
		changed = s.board.Reveal(click.Coords)
	case ToggleFlag:
		changed = s.board.ToggleFlag(click.Coords)
	}
	if changed {
		s.moves++
	}
	return changed
}

func (s *Session) Status() Status {
	return s.board.Status()
}

func (s *Session) Board() *Board {
	return s.board
}

// Moves counts the clicks that changed the board.
func (s *Session) Moves() int {
	return s.moves
}

// Display is a board rendering addressed to a client event.
type Display struct {
	Name    string `json:"-"`
	OwnerID string `json:"ownerId"`
	View
}

func (d Display) Event() string {
	return d.Name
}

func (s *Session) Display(event string) Display {
	return Display{
		Name:    event,
		OwnerID: s.OwnerID,
		View:    NewView(s.board),
	}
}
