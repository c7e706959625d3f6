package deck

import (
	"errors"
	"math/rand/v2"
	"time"
)

const (
	// Size is the number of cards in a Canasta pack
	Size        = 108
	runsPerSuit = 2
	perSuit     = runsPerSuit*int(King) + 1
)

var ErrNoShuffler = errors.New("no shuffle source available")

// Shuffler produces a uniform permutation. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// NewShuffler returns a deterministic shuffle source for the given seed
func NewShuffler(seed uint64) Shuffler {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandomShuffler returns a shuffle source seeded from the clock
func RandomShuffler() Shuffler {
	return NewShuffler(uint64(time.Now().UnixNano()))
}

// Deck is the face-down draw pile. Cards are drawn from the end of the slice.
type Deck struct {
	cards []Card
}

// Standard returns the unshuffled double pack: for each suit, two runs of
// Ace..King followed by one Joker. IDs follow construction order.
func Standard() []Card {
	cards := make([]Card, 0, Size)
	for _, suit := range []Suit{Hearts, Diamonds, Clubs, Spades} {
		for run := 0; run < runsPerSuit; run++ {
			for rank := Ace; rank <= King; rank++ {
				cards = append(cards, NewCard(len(cards), suit, rank))
			}
		}
		cards = append(cards, NewCard(len(cards), suit, Joker))
	}
	return cards
}

// New creates a shuffled Canasta deck
func New(s Shuffler) (*Deck, error) {
	if s == nil {
		return nil, ErrNoShuffler
	}
	cards := Standard()
	s.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}, nil
}

// NewFromCards builds a deck with a fixed order. The last card is drawn first.
func NewFromCards(cards []Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Draw removes and returns the next card. ok is false once the deck is exhausted.
func (d *Deck) Draw() (card Card, ok bool) {
	n := len(d.cards)
	if n == 0 {
		return Card{}, false
	}
	card = d.cards[n-1]
	d.cards = d.cards[:n-1]
	return card, true
}

// Remaining returns the number of cards left to draw
func (d *Deck) Remaining() int {
	return len(d.cards)
}
