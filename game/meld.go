package game

import "github.com/minaorangina/canasta/deck"

const (
	MinMeldSize = 3
	CanastaSize = 7
)

// Meld is a committed group of cards of one rank. Wild cards are kept apart
// from the naturals and must always be outnumbered by them.
type Meld struct {
	rank     deck.Rank
	naturals []deck.Card
	wilds    []deck.Card
}

func newMeld(rank deck.Rank) *Meld {
	return &Meld{rank: rank, naturals: []deck.Card{}, wilds: []deck.Card{}}
}

func (m *Meld) Rank() deck.Rank {
	return m.rank
}

func (m *Meld) Naturals() []deck.Card {
	return copyCards(m.naturals)
}

func (m *Meld) Wilds() []deck.Card {
	return copyCards(m.wilds)
}

func (m *Meld) Len() int {
	return len(m.naturals) + len(m.wilds)
}

func (m *Meld) NaturalCount() int {
	return len(m.naturals)
}

func (m *Meld) WildCount() int {
	return len(m.wilds)
}

// IsNatural reports whether the meld holds no wild cards
func (m *Meld) IsNatural() bool {
	return len(m.wilds) == 0
}

// IsComplete reports whether the meld is a canasta
func (m *Meld) IsComplete() bool {
	return m.Len() >= CanastaSize
}

// Value is the sum of the point values of the cards in the meld
func (m *Meld) Value() int {
	total := 0
	for _, c := range m.naturals {
		total += c.Value
	}
	for _, c := range m.wilds {
		total += c.Value
	}
	return total
}

// CanAdd checks a batch of cards against the meld. Every non-wild card must
// share the meld's rank, and once added the wild cards must still be
// strictly fewer than the naturals.
func (m *Meld) CanAdd(cards []deck.Card) error {
	naturals, wilds := 0, 0
	for _, c := range cards {
		switch {
		case c.IsRedThree():
			return &MeldError{Kind: CardIneligibleForRank, CardID: c.ID}
		case c.IsWild():
			wilds++
		case c.Rank != m.rank:
			return &MeldError{Kind: RankMismatch, CardID: c.ID}
		default:
			naturals++
		}
	}

	if len(m.wilds)+wilds >= len(m.naturals)+naturals {
		return ErrTooManyWilds
	}
	return nil
}

func (m *Meld) add(cards []deck.Card) error {
	if err := m.CanAdd(cards); err != nil {
		return err
	}
	for _, c := range cards {
		if c.IsWild() {
			m.wilds = append(m.wilds, c)
		} else {
			m.naturals = append(m.naturals, c)
		}
	}
	return nil
}

func copyCards(cards []deck.Card) []deck.Card {
	out := make([]deck.Card, len(cards))
	copy(out, cards)
	return out
}
