package game

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"
)

func TestSession_RevealCornerShowsZeroRegion(t *testing.T) {
	opts := DefaultOptions()
	opts.Rand = rand.New(rand.NewSource(42))

	s, err := NewSession("conn-a", opts)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	if !s.RegisterClick(Click{Coords: Coords{Row: 0, Col: 0}, Mode: Reveal}) {
		t.Fatal("First reveal should change the board")
	}

	d := s.Display("update game")
	if d.Event() != "update game" || d.OwnerID != "conn-a" {
		t.Fatalf("Unexpected display header: %q / %q", d.Event(), d.OwnerID)
	}
	if d.Rows != 10 || d.Cols != 15 {
		t.Fatalf("Expected 10x15 view, got %dx%d", d.Rows, d.Cols)
	}
	if d.Cells[0][0].State != StateOpened || d.Cells[0][0].Count != 0 {
		t.Fatalf("Corner should be opened with count 0, got %+v", d.Cells[0][0])
	}

	b := s.Board()
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			view := d.Cells[r][c]
			if view.State != StateOpened {
				continue
			}
			if view.IsMine {
				t.Fatalf("Flood fill revealed a mine at (%d,%d)", r, c)
			}
			if view.Count != b.Cells[r][c].AdjacentMines {
				t.Errorf("Cell (%d,%d) shows %d, board has %d", r, c, view.Count, b.Cells[r][c].AdjacentMines)
			}
			if view.Count == 0 {
				b.forEachNeighbor(Coords{Row: r, Col: c}, func(n Coords) {
					if d.Cells[n.Row][n.Col].State != StateOpened {
						t.Errorf("Neighbour %v of zero cell (%d,%d) left hidden", n, r, c)
					}
				})
			}
		}
	}
}

func TestSession_MovesAndReset(t *testing.T) {
	opts := Options{Rows: 3, Cols: 3, Mines: 1, Rand: rand.New(rand.NewSource(1))}
	s, err := NewSession("owner", opts)
	if err != nil {
		t.Fatal(err)
	}

	s.RegisterClick(Click{Coords: Coords{Row: 0, Col: 0}, Mode: ToggleFlag})
	s.RegisterClick(Click{Coords: Coords{Row: 0, Col: 0}, Mode: Reveal}) // flagged: no-op
	s.RegisterClick(Click{Coords: Coords{Row: 9, Col: 9}, Mode: Reveal}) // out of bounds

	if s.Moves() != 1 {
		t.Errorf("Expected 1 applied move, got %d", s.Moves())
	}

	if err := s.CreateTable(4, 5); err != nil {
		t.Fatal(err)
	}
	if s.Moves() != 0 || s.Board().Rows != 4 || s.Board().Cols != 5 || s.Board().seeded {
		t.Error("CreateTable should replace the board with a fresh one")
	}
}

func TestDisplay_JSON(t *testing.T) {
	opts := Options{Rows: 2, Cols: 3, Mines: 1, Rand: rand.New(rand.NewSource(1))}
	s, err := NewSession("owner", opts)
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(s.Display("initialize game"))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{`"ownerId":"owner"`, `"status":"in_progress"`, `"rows":2`, `"state":"hidden"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %s in %s", want, out)
		}
	}
	if strings.Contains(out, "initialize game") {
		t.Error("Event name must not leak into the payload")
	}
}

func TestView_LostMarksFlags(t *testing.T) {
	b := boardFromLayout(t,
		"*.*",
		"...",
	)
	b.ToggleFlag(Coords{Row: 0, Col: 2}) // correct
	b.ToggleFlag(Coords{Row: 1, Col: 1}) // wrong
	b.Reveal(Coords{Row: 0, Col: 0})

	v := NewView(b)
	if v.Status != Lost {
		t.Fatalf("Expected lost, got %v", v.Status)
	}
	if got := v.Cells[0][0]; got.State != StateOpened || !got.IsMine {
		t.Errorf("Detonated mine should be opened, got %+v", got)
	}
	if got := v.Cells[0][2]; got.State != StateFlagged || !got.IsMine {
		t.Errorf("Correctly flagged mine should stay flagged, got %+v", got)
	}
	if got := v.Cells[1][1]; got.State != StateMisflagged {
		t.Errorf("Flag on a safe cell should be misflagged, got %+v", got)
	}
}

func TestView_HidesMinesInProgress(t *testing.T) {
	b := boardFromLayout(t,
		"*..",
		"...",
	)
	b.ToggleFlag(Coords{Row: 0, Col: 0})

	v := NewView(b)
	if v.Cells[0][0].IsMine {
		t.Error("Mine positions must not leak while the game is running")
	}
	if v.MinesRemaining != 0 {
		t.Errorf("Expected 0 mines remaining, got %d", v.MinesRemaining)
	}
}

func TestMode_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"reveal", Reveal, false},
		{"flag", ToggleFlag, false},
		{"toggle-flag", ToggleFlag, false},
		{"explode", Reveal, true},
	}
	for _, tt := range tests {
		var m Mode
		err := m.UnmarshalText([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: unexpected error state %v", tt.in, err)
			continue
		}
		if !tt.wantErr && m != tt.want {
			t.Errorf("%q: expected %v, got %v", tt.in, tt.want, m)
		}
	}
}

func TestStatus_TextRoundTrip(t *testing.T) {
	for _, s := range []Status{InProgress, Won, Lost} {
		text, _ := s.MarshalText()
		var got Status
		if err := got.UnmarshalText(text); err != nil || got != s {
			t.Errorf("Round trip of %v gave %v (%v)", s, got, err)
		}
	}
	var s Status
	if err := s.UnmarshalText([]byte("paused")); err == nil {
		t.Error("Expected an error for an unknown status")
	}
}
