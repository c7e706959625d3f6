package deck

// Discard is the face-up pile. Throwing a wild card freezes it, and it stays
// frozen until the whole pile is taken.
type Discard struct {
	cards  []Card
	frozen bool
}

func NewDiscard() *Discard {
	return &Discard{cards: []Card{}}
}

// Throw puts a card on top of the pile
func (d *Discard) Throw(c Card) Card {
	if c.IsWild() {
		d.frozen = true
	}
	d.cards = append(d.cards, c)
	return c
}

// Top returns the most recently thrown card without removing it
func (d *Discard) Top() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	return d.cards[len(d.cards)-1], true
}

// Take empties the pile, returning its contents bottom first
func (d *Discard) Take() []Card {
	taken := d.cards
	d.cards = []Card{}
	d.frozen = false
	return taken
}

func (d *Discard) Frozen() bool {
	return d.frozen
}

func (d *Discard) Len() int {
	return len(d.cards)
}

// Cards returns a copy of the pile, bottom first
func (d *Discard) Cards() []Card {
	cards := make([]Card, len(d.cards))
	copy(cards, d.cards)
	return cards
}
