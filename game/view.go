package game

// Cell states as the browser renders them.
const (
	StateHidden     = "hidden"
	StateOpened     = "opened"
	StateFlagged    = "flagged"
	StateMisflagged = "misflagged"
)

type CellView struct {
	State  string `json:"state"`
	Count  int    `json:"count"`
	IsMine bool   `json:"isMine"`
}

// View is the full, client-safe rendering of a board. Mine positions are
// only disclosed once the game is over.
type View struct {
	Rows           int          `json:"rows"`
	Cols           int          `json:"cols"`
	Mines          int          `json:"mines"`
	MinesRemaining int          `json:"minesRemaining"`
	Status         Status       `json:"status"`
	Cells          [][]CellView `json:"cells"`
}

func NewView(b *Board) View {
	view := View{
		Rows:           b.Rows,
		Cols:           b.Cols,
		Mines:          b.Mines,
		MinesRemaining: b.Mines - b.flags,
		Status:         b.status,
		Cells:          make([][]CellView, b.Rows),
	}

	for r := 0; r < b.Rows; r++ {
		row := make([]CellView, b.Cols)
		for c := 0; c < b.Cols; c++ {
			row[c] = cellView(b.Cells[r][c], b.status)
		}
		view.Cells[r] = row
	}

	if b.status == Won {
		view.MinesRemaining = 0
	}
	return view
}

func cellView(cell Cell, status Status) CellView {
	switch {
	case status == Won && cell.IsMine:
		return CellView{State: StateFlagged, IsMine: true}
	case status == Lost && cell.IsFlagged && cell.IsMine:
		// correctly flagged
		return CellView{State: StateFlagged, IsMine: true}
	case status == Lost && cell.IsFlagged:
		return CellView{State: StateMisflagged}
	case cell.IsFlagged:
		return CellView{State: StateFlagged}
	case cell.IsRevealed && cell.IsMine:
		return CellView{State: StateOpened, IsMine: true}
	case cell.IsRevealed:
		return CellView{State: StateOpened, Count: cell.AdjacentMines}
	default:
		return CellView{State: StateHidden}
	}
}
