package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/sweeper/game"
	"github.com/wfunc/sweeper/protocol"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		event   string
		payload interface{}
		wantErr bool
	}{
		{"create", protocol.EventCreateGame, nil, false},
		{"join 4821", protocol.EventJoinRoom, "4821", false},
		{"reveal 2 3", protocol.EventClick, game.Click{Coords: game.Coords{Row: 2, Col: 3}, Mode: game.Reveal}, false},
		{"flag 0 1", protocol.EventClick, game.Click{Coords: game.Coords{Row: 0, Col: 1}, Mode: game.ToggleFlag}, false},
		{"quit", "", nil, false},
		{"reveal x 1", "", nil, true},
		{"join", "", nil, true},
		{"dance", "", nil, true},
		{"   ", "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			event, payload, err := parseCommand(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.event, event)
			assert.Equal(t, tt.payload, payload)
		})
	}
}

func TestRenderBoard(t *testing.T) {
	v := game.View{Cells: [][]game.CellView{
		{{State: game.StateOpened}, {State: game.StateOpened, Count: 2}, {State: game.StateHidden}},
		{{State: game.StateFlagged}, {State: game.StateMisflagged}, {State: game.StateOpened, IsMine: true}},
	}}
	assert.Equal(t, ".2#\nFX*\n", renderBoard(v))
}
