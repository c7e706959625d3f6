package game

import "fmt"

// Phase gates which actions the current player may take
type Phase int

const (
	PhaseDraw     Phase = iota // must draw or take the discard pile
	PhaseMeld                  // may meld, must discard to end the turn
	PhaseTurnOver              // passing to the next player
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseDraw:     "Draw",
	PhaseMeld:     "Meld",
	PhaseTurnOver: "TurnOver",
	PhaseGameOver: "GameOver",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

const (
	MinPlayers = 2
	MaxPlayers = 6
)

// DealSize is the number of cards each player is dealt
func DealSize(players int) int {
	switch players {
	case 2:
		return 15
	case 3:
		return 13
	default:
		return 11
	}
}
