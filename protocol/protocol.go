package protocol

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/minaorangina/canasta/deck"
)

var ErrUnknownCommand = errors.New("unknown command")

type Player struct {
	PlayerID string `json:"playerID"`
	Name     string `json:"name"`
}

// InboundMessage is a message from a Player to the GameEngine
type InboundMessage struct {
	PlayerID string `json:"playerID"`
	Command  Cmd    `json:"command"`
	Cards    []int  `json:"cards,omitempty"`
	Rank     string `json:"rank,omitempty"`
}

// OutboundMessage is a message from the GameEngine to a Player
type OutboundMessage struct {
	PlayerID string      `json:"playerID"`
	Command  Cmd         `json:"command"`
	Message  string      `json:"message,omitempty"`
	Cards    []deck.Card `json:"cards,omitempty"`
	Joiner   *Player     `json:"joiner,omitempty"`
	State    *GameView   `json:"state,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// GameView is the table as one player is allowed to see it
type GameView struct {
	GameID          string                 `json:"gameID"`
	Phase           string                 `json:"phase"`
	Seat            int                    `json:"seat"`
	CurrentPlayer   int                    `json:"currentPlayer"`
	CurrentPlayerID string                 `json:"currentPlayerID"`
	DeckCount       int                    `json:"deckCount"`
	DiscardTop      *deck.Card             `json:"discardTop,omitempty"`
	DiscardSize     int                    `json:"discardSize"`
	DiscardFrozen   bool                   `json:"discardFrozen"`
	CanastasToGoOut int                    `json:"canastasToGoOut"`
	Hand            []deck.Card            `json:"hand"`
	Staged          map[string][]deck.Card `json:"staged"`
	Seats           []Seat                 `json:"seats"`
	WinnerID        string                 `json:"winnerID,omitempty"`
}

// Seat is the public face of another player at the table
type Seat struct {
	Seat      int         `json:"seat"`
	PlayerID  string      `json:"playerID"`
	Name      string      `json:"name"`
	HandSize  int         `json:"handSize"`
	RedThrees []deck.Card `json:"redThrees"`
	Melds     []Meld      `json:"melds"`
	Canastas  int         `json:"canastas"`
}

type Meld struct {
	Rank     deck.Rank   `json:"rank"`
	Naturals []deck.Card `json:"naturals"`
	Wilds    []deck.Card `json:"wilds"`
	Natural  bool        `json:"natural"`
	Complete bool        `json:"complete"`
	Value    int         `json:"value"`
}

type Cmd int

const (
	Null Cmd = iota
	NewJoiner
	Start
	HasStarted
	Error
	State
	// in-game actions
	Draw
	TakePile
	Stage
	Unstage
	Commit
	ClearStaged
	Discard
	EndOfTurn
	GameOver
)

var CmdNames = map[Cmd]string{
	Null:        "Null",
	NewJoiner:   "NewJoiner",
	Start:       "Start",
	HasStarted:  "HasStarted",
	Error:       "Error",
	State:       "State",
	Draw:        "Draw",
	TakePile:    "TakePile",
	Stage:       "Stage",
	Unstage:     "Unstage",
	Commit:      "Commit",
	ClearStaged: "ClearStaged",
	Discard:     "Discard",
	EndOfTurn:   "EndOfTurn",
	GameOver:    "GameOver",
}

var NameToCmd = map[string]Cmd{
	"Null":        Null,
	"NewJoiner":   NewJoiner,
	"Start":       Start,
	"HasStarted":  HasStarted,
	"Error":       Error,
	"State":       State,
	"Draw":        Draw,
	"TakePile":    TakePile,
	"Stage":       Stage,
	"Unstage":     Unstage,
	"Commit":      Commit,
	"ClearStaged": ClearStaged,
	"Discard":     Discard,
	"EndOfTurn":   EndOfTurn,
	"GameOver":    GameOver,
}

func (c Cmd) String() string {
	return CmdNames[c]
}

// IsAction reports whether the command is a move in the game
func (c Cmd) IsAction() bool {
	return c >= Draw && c <= Discard
}

func (c Cmd) MarshalText() ([]byte, error) {
	name, ok := CmdNames[c]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, int(c))
	}
	return []byte(name), nil
}

func (c *Cmd) UnmarshalText(text []byte) error {
	cmd, ok := NameToCmd[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, string(text))
	}
	*c = cmd
	return nil
}

// Decode reads an InboundMessage sent by a client
func Decode(data []byte) (InboundMessage, error) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return InboundMessage{}, err
	}
	return msg, nil
}

// Encode writes an OutboundMessage for a client
func Encode(msg OutboundMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeOutbound is the client side of Encode
func DecodeOutbound(data []byte) (OutboundMessage, error) {
	var msg OutboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return OutboundMessage{}, err
	}
	return msg, nil
}
