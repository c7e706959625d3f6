package deck

import (
	"fmt"
	"strings"
)

// Suit represents a suit in a deck of cards
type Suit int

var suitNames = []string{"Hearts", "Diamonds", "Clubs", "Spades"}

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

func (s Suit) String() string {
	if s < Hearts || s > Spades {
		return fmt.Sprintf("Suit(%d)", int(s))
	}
	return suitNames[s]
}

// IsRed reports whether the suit is Hearts or Diamonds
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

func (s Suit) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Suit) UnmarshalText(text []byte) error {
	for i, name := range suitNames {
		if strings.EqualFold(name, string(text)) {
			*s = Suit(i)
			return nil
		}
	}
	return fmt.Errorf("unknown suit %q", text)
}

// Rank represents a rank in a deck of cards.
// Ranks are ordered Ace(1) < Two(2) < ... < King(13) < Joker(14).
type Rank int

var rankNames = map[Rank]string{
	Ace:   "Ace",
	Two:   "Two",
	Three: "Three",
	Four:  "Four",
	Five:  "Five",
	Six:   "Six",
	Seven: "Seven",
	Eight: "Eight",
	Nine:  "Nine",
	Ten:   "Ten",
	Jack:  "Jack",
	Queen: "Queen",
	King:  "King",
	Joker: "Joker",
}

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Joker
)

// MeldableRanks lists every rank a meld can be built on, in rank order.
// Twos and Jokers only ever join a meld as wild cards.
var MeldableRanks = []Rank{Ace, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rank(%d)", int(r))
}

// Meldable reports whether a meld can be formed on this rank
func (r Rank) Meldable() bool {
	return r >= Ace && r <= King && r != Two
}

// ParseRank accepts a rank name ("Five", "five") or its number ("5")
func ParseRank(s string) (Rank, error) {
	s = strings.TrimSpace(s)
	for r, name := range rankNames {
		if strings.EqualFold(name, s) || fmt.Sprint(int(r)) == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rank %q", s)
}

func (r Rank) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(text []byte) error {
	parsed, err := ParseRank(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Card is a single physical card. ID is unique within one game.
// Value is fixed when the card is created.
type Card struct {
	ID    int  `json:"id"`
	Suit  Suit `json:"suit"`
	Rank  Rank `json:"rank"`
	Value int  `json:"value"`
}

// NewCard constructs a card and works out its point value
func NewCard(id int, suit Suit, rank Rank) Card {
	return Card{ID: id, Suit: suit, Rank: rank, Value: pointValue(suit, rank)}
}

func pointValue(suit Suit, rank Rank) int {
	switch {
	case rank == Ace || rank == Two:
		return 20
	case rank == Three && suit.IsRed():
		return 100
	case rank == Three:
		return 5
	case rank <= Seven:
		return 5
	case rank <= King:
		return 10
	default:
		return 50
	}
}

// IsWild reports whether the card is a Two or a Joker
func (c Card) IsWild() bool {
	return c.Rank == Two || c.Rank == Joker
}

func (c Card) IsRedThree() bool {
	return c.Rank == Three && c.Suit.IsRed()
}

func (c Card) IsBlackThree() bool {
	return c.Rank == Three && !c.Suit.IsRed()
}

func (c Card) String() string {
	if c.Rank == Joker {
		return "Joker"
	}
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}
