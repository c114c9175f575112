package client

import (
	"fmt"
	"strings"

	"morris/internal/pkg/wire"

	"github.com/fatih/color"
)

// Display renders server events for the terminal client.
type Display struct {
	infoColor *color.Color
	roomColor *color.Color
	moveColor *color.Color
	winColor  *color.Color
	loseColor *color.Color
	warnColor *color.Color
}

// NewDisplay creates a new display instance with configured colors.
func NewDisplay() *Display {
	return &Display{
		infoColor: color.New(color.FgCyan),
		roomColor: color.New(color.FgYellow, color.Bold),
		moveColor: color.New(color.FgWhite),
		winColor:  color.New(color.FgGreen, color.Bold),
		loseColor: color.New(color.FgRed, color.Bold),
		warnColor: color.New(color.FgYellow),
	}
}

// RenderBoard draws the derived 3x3 occupancy from a sync snapshot.
// The first seat renders as X, the second as O.
func RenderBoard(sync *wire.SyncStateData) string {
	symbols := map[string]string{}
	for i, id := range sync.PlayerIDs {
		if i == 0 {
			symbols[id] = "X"
		} else {
			symbols[id] = "O"
		}
	}
	cells := make([]string, 9)
	for i := range cells {
		cells[i] = fmt.Sprintf("%d", i)
	}
	for id, window := range sync.Moves {
		for _, cell := range window {
			if cell != nil {
				cells[*cell] = symbols[id]
			}
		}
	}
	var b strings.Builder
	for row := 0; row < 3; row++ {
		b.WriteString(fmt.Sprintf(" %s | %s | %s \n", cells[row*3], cells[row*3+1], cells[row*3+2]))
		if row < 2 {
			b.WriteString("---+---+---\n")
		}
	}
	return b.String()
}

// PrintEvent renders one server event.
func (d *Display) PrintEvent(playerID string, event Event) {
	switch event.Type {
	case wire.TypeRoomCreated:
		data := event.Payload.(*wire.RoomCreatedData)
		d.roomColor.Printf("room %q created (id %s)\n", data.Room.Name, data.Room.RoomID)
	case wire.TypeRoomList:
		data := event.Payload.(*wire.RoomListData)
		if len(data.Rooms) == 0 {
			d.infoColor.Println("no rooms open")
			return
		}
		for _, room := range data.Rooms {
			d.infoColor.Printf("%s  %q  players %d/%d  spectators %d  %s\n",
				room.RoomID, room.Name, room.PlayerCount, room.MaxPlayers, room.SpectatorCount, room.Status)
		}
	case wire.TypeRoomJoined:
		data := event.Payload.(*wire.RoomJoinedData)
		d.roomColor.Printf("joined %q as %s\n", data.Room.Name, data.Role)
	case wire.TypePlayerJoined:
		data := event.Payload.(*wire.PlayerInfo)
		d.infoColor.Printf("%s joined the room\n", data.Name)
	case wire.TypePlayerLeft:
		data := event.Payload.(*wire.PlayerInfo)
		d.warnColor.Printf("%s left the room\n", data.Name)
	case wire.TypeRoomStarted:
		d.roomColor.Println("game on!")
	case wire.TypeMoveAccepted:
		data := event.Payload.(*wire.MoveData)
		d.moveColor.Printf("move accepted: %d\n", data.Position)
	case wire.TypeMoveMade:
		data := event.Payload.(*wire.MoveData)
		d.moveColor.Printf("opponent played %d\n", data.Position)
	case wire.TypeMoveRejected:
		data := event.Payload.(*wire.MoveRejectedData)
		d.warnColor.Printf("move %d rejected: %s\n", data.Position, data.Reason)
	case wire.TypeSyncState:
		data := event.Payload.(*wire.SyncStateData)
		fmt.Print(RenderBoard(data))
	case wire.TypeGameWon:
		d.winColor.Println("you win!")
	case wire.TypeGameLost:
		data := event.Payload.(*wire.GameResultData)
		d.loseColor.Printf("you lose, %s takes it\n", data.WinnerName)
	case wire.TypeGameEnded:
		data := event.Payload.(*wire.GameResultData)
		winner := data.WinnerName
		if data.WinnerID == playerID {
			winner = "you"
		}
		d.infoColor.Printf("game over: %s on %v\n", winner, data.WinningPositions)
	case wire.TypeRematchOffered:
		d.roomColor.Println("rematch! board cleared")
	case wire.TypeError:
		data := event.Payload.(*wire.ErrorData)
		d.warnColor.Printf("error %s: %s\n", data.Code, data.Message)
	}
}
