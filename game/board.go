package game

import (
	"errors"
	"math/rand"
	"time"
)

var (
	ErrInvalidDimensions = errors.New("game: rows and cols must be positive")
	ErrInvalidMineCount  = errors.New("game: mine count must leave at least one safe cell")
)

// Board is a minesweeper grid. Mines are seeded on the first reveal so the
// opening click is never a mine.
type Board struct {
	Rows  int
	Cols  int
	Mines int
	Cells [][]Cell

	safeNeighbors bool
	seeded        bool
	status        Status
	revealed      int
	flags         int
	rng           *rand.Rand
}

// NewBoard allocates an empty rows x cols grid. With safeNeighbors the
// first reveal also keeps its eight neighbours free of mines when the board
// has room for it.
func NewBoard(rows, cols, mines int, safeNeighbors bool, rng *rand.Rand) (*Board, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	if mines < 0 || mines >= rows*cols {
		return nil, ErrInvalidMineCount
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	cells := make([][]Cell, rows)
	for r := range cells {
		cells[r] = make([]Cell, cols)
	}

	return &Board{
		Rows:          rows,
		Cols:          cols,
		Mines:         mines,
		Cells:         cells,
		safeNeighbors: safeNeighbors,
		rng:           rng,
	}, nil
}

func (b *Board) Status() Status {
	return b.status
}

func (b *Board) Flags() int {
	return b.flags
}

func (b *Board) InBounds(at Coords) bool {
	return at.Row >= 0 && at.Row < b.Rows && at.Col >= 0 && at.Col < b.Cols
}

// Reveal opens the cell at the given coordinates and reports whether the
// board changed.
func (b *Board) Reveal(at Coords) bool {
	if b.status.Terminal() || !b.InBounds(at) {
		return false
	}

	cell := &b.Cells[at.Row][at.Col]
	if cell.IsRevealed || cell.IsFlagged {
		return false
	}

	if !b.seeded {
		b.placeMines(at)
	}

	if cell.IsMine {
		cell.IsRevealed = true
		b.status = Lost
		b.revealMines()
		return true
	}

	b.flood(at)

	if b.revealed == b.Rows*b.Cols-b.Mines {
		b.status = Won
	}
	return true
}

// ToggleFlag flips the flag on an unrevealed cell.
func (b *Board) ToggleFlag(at Coords) bool {
	if b.status.Terminal() || !b.InBounds(at) {
		return false
	}

	cell := &b.Cells[at.Row][at.Col]
	if cell.IsRevealed {
		return false
	}

	cell.IsFlagged = !cell.IsFlagged
	if cell.IsFlagged {
		b.flags++
	} else {
		b.flags--
	}
	return true
}

// flood reveals start and, through an explicit stack, every cell reachable
// across zero-adjacency cells. Numbered cells are revealed but not expanded.
func (b *Board) flood(start Coords) {
	stack := []Coords{start}
	for len(stack) > 0 {
		at := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		cell := &b.Cells[at.Row][at.Col]
		if cell.IsRevealed || cell.IsFlagged || cell.IsMine {
			continue
		}
		cell.IsRevealed = true
		b.revealed++

		if cell.AdjacentMines != 0 {
			continue
		}
		b.forEachNeighbor(at, func(n Coords) {
			next := b.Cells[n.Row][n.Col]
			if !next.IsRevealed && !next.IsFlagged {
				stack = append(stack, n)
			}
		})
	}
}

// placeMines seeds mines uniformly over every cell outside the safe zone
// around first, then derives adjacency counts.
func (b *Board) placeMines(first Coords) {
	excluded := func(at Coords) bool {
		return at == first
	}
	if b.safeNeighbors && b.Rows*b.Cols-b.zoneSize(first) >= b.Mines {
		excluded = func(at Coords) bool {
			return abs(at.Row-first.Row) <= 1 && abs(at.Col-first.Col) <= 1
		}
	}

	candidates := make([]Coords, 0, b.Rows*b.Cols)
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			at := Coords{Row: r, Col: c}
			if !excluded(at) {
				candidates = append(candidates, at)
			}
		}
	}

	// partial Fisher-Yates: the first Mines entries become mines
	for i := 0; i < b.Mines; i++ {
		j := i + b.rng.Intn(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
		b.Cells[candidates[i].Row][candidates[i].Col].IsMine = true
	}

	b.calculateNeighbors()
	b.seeded = true
}

func (b *Board) calculateNeighbors() {
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			count := 0
			b.forEachNeighbor(Coords{Row: r, Col: c}, func(n Coords) {
				if b.Cells[n.Row][n.Col].IsMine {
					count++
				}
			})
			b.Cells[r][c].AdjacentMines = count
		}
	}
}

// revealMines exposes every unflagged mine once the game is lost.
func (b *Board) revealMines() {
	for r := range b.Cells {
		for c := range b.Cells[r] {
			cell := &b.Cells[r][c]
			if cell.IsMine && !cell.IsFlagged {
				cell.IsRevealed = true
			}
		}
	}
}

// zoneSize counts the in-bounds cells of the 3x3 block around at.
func (b *Board) zoneSize(at Coords) int {
	n := 1
	b.forEachNeighbor(at, func(Coords) { n++ })
	return n
}

func (b *Board) forEachNeighbor(at Coords, fn func(Coords)) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			n := Coords{Row: at.Row + dr, Col: at.Col + dc}
			if b.InBounds(n) {
				fn(n)
			}
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
