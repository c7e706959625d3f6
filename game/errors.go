package game

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidConfig      = errors.New("invalid game configuration")
	ErrNotPlayerTurn      = errors.New("not player's turn")
	ErrIncorrectTurnPhase = errors.New("incorrect turn phase")
	ErrGameOver           = errors.New("game is over")
	ErrInvalidCard        = errors.New("invalid card")
	ErrInvalidPlayer      = errors.New("invalid player")
	ErrEmptyDiscardPile   = errors.New("discard pile is empty")
	ErrCannotTakePile     = errors.New("cannot take the discard pile")
	ErrInvalidMeld        = errors.New("invalid meld")
	ErrCannotGoOut        = errors.New("not enough canastas to go out")
)

// Meld errors. The game wraps these in ErrInvalidCard or ErrInvalidMeld.
var (
	ErrInvalidRank   = errors.New("rank cannot be melded")
	ErrNothingStaged = errors.New("no cards staged for rank")
	ErrMeldTooSmall  = fmt.Errorf("a new meld needs at least %d cards", MinMeldSize)
	ErrTooManyWilds  = errors.New("wild cards must be outnumbered by natural cards")
)

// NotPlayerTurnError carries whose turn it actually is
type NotPlayerTurnError struct {
	Current int
}

func (e *NotPlayerTurnError) Error() string {
	return fmt.Sprintf("it is player %d's turn", e.Current)
}

func (e *NotPlayerTurnError) Is(target error) bool {
	return target == ErrNotPlayerTurn
}

type MeldErrorKind int

const (
	CardNotInHand MeldErrorKind = iota
	CardIneligibleForRank
	RankMismatch
)

var meldErrorText = map[MeldErrorKind]string{
	CardNotInHand:         "card %d is not in hand",
	CardIneligibleForRank: "card %d cannot be melded",
	RankMismatch:          "card %d does not match the meld rank",
}

// MeldError identifies the card that stopped a card from being staged or melded
type MeldError struct {
	Kind   MeldErrorKind
	CardID int
}

func (e *MeldError) Error() string {
	return fmt.Sprintf(meldErrorText[e.Kind], e.CardID)
}

// UnstageError lists the ids that were not found in any staged meld
type UnstageError struct {
	Missing []int
}

func (e *UnstageError) Error() string {
	ids := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("cards not staged: %s", strings.Join(ids, ", "))
}
