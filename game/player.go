package game

import "github.com/minaorangina/canasta/deck"

// Player holds one seat's cards. Cards in hand and cards staged for a meld
// together make up everything the player holds that is neither a red three
// nor part of a committed meld.
type Player struct {
	id        int
	hand      []deck.Card
	redThrees []deck.Card
	staged    map[deck.Rank][]deck.Card
	melds     map[deck.Rank]*Meld
}

func NewPlayer(id int) *Player {
	return &Player{
		id:        id,
		hand:      []deck.Card{},
		redThrees: []deck.Card{},
		staged:    map[deck.Rank][]deck.Card{},
		melds:     map[deck.Rank]*Meld{},
	}
}

func (p *Player) ID() int {
	return p.id
}

func (p *Player) Hand() []deck.Card {
	return copyCards(p.hand)
}

func (p *Player) HandSize() int {
	return len(p.hand)
}

func (p *Player) RedThrees() []deck.Card {
	return copyCards(p.redThrees)
}

// Staged returns the cards waiting to be committed to the meld of rank
func (p *Player) Staged(rank deck.Rank) []deck.Card {
	return copyCards(p.staged[rank])
}

// StagedCount is the number of staged cards across every rank
func (p *Player) StagedCount() int {
	n := 0
	for _, cards := range p.staged {
		n += len(cards)
	}
	return n
}

// Meld returns the committed meld for rank, or nil
func (p *Player) Meld(rank deck.Rank) *Meld {
	return p.melds[rank]
}

// Melds returns the committed melds in rank order
func (p *Player) Melds() []*Meld {
	melds := []*Meld{}
	for _, r := range deck.MeldableRanks {
		if m, ok := p.melds[r]; ok {
			melds = append(melds, m)
		}
	}
	return melds
}

// Canastas counts the complete melds
func (p *Player) Canastas() int {
	n := 0
	for _, m := range p.melds {
		if m.IsComplete() {
			n++
		}
	}
	return n
}

func (p *Player) AddToHand(c deck.Card) deck.Card {
	p.hand = append(p.hand, c)
	return c
}

// ExtractRedThrees moves every red three in hand to the red three pile and
// returns how many were moved
func (p *Player) ExtractRedThrees() int {
	kept := make([]deck.Card, 0, len(p.hand))
	moved := 0
	for _, c := range p.hand {
		if c.IsRedThree() {
			p.redThrees = append(p.redThrees, c)
			moved++
			continue
		}
		kept = append(kept, c)
	}
	p.hand = kept
	return moved
}

// Discard removes the card from hand
func (p *Player) Discard(id int) (deck.Card, error) {
	i := p.handIndex(id)
	if i < 0 {
		return deck.Card{}, ErrInvalidCard
	}
	c := p.hand[i]
	p.hand = append(p.hand[:i], p.hand[i+1:]...)
	return c, nil
}

// Stage moves cards from hand into the holding area for rank. Every card is
// checked before any is moved, so a failed call leaves the hand as it was.
func (p *Player) Stage(ids []int, rank deck.Rank) error {
	if !rank.Meldable() {
		return ErrInvalidRank
	}

	picked := make(map[int]struct{}, len(ids))
	batch := make([]deck.Card, 0, len(ids))
	for _, id := range ids {
		if _, dup := picked[id]; dup {
			return &MeldError{Kind: CardNotInHand, CardID: id}
		}
		i := p.handIndex(id)
		if i < 0 {
			return &MeldError{Kind: CardNotInHand, CardID: id}
		}

		c := p.hand[i]
		switch {
		case c.IsRedThree():
			return &MeldError{Kind: CardIneligibleForRank, CardID: id}
		case c.IsWild():
		case c.Rank != rank:
			return &MeldError{Kind: RankMismatch, CardID: id}
		}

		picked[id] = struct{}{}
		batch = append(batch, c)
	}

	kept := make([]deck.Card, 0, len(p.hand)-len(batch))
	for _, c := range p.hand {
		if _, ok := picked[c.ID]; !ok {
			kept = append(kept, c)
		}
	}
	p.hand = kept
	p.staged[rank] = append(p.staged[rank], batch...)
	return nil
}

// Unstage returns staged cards to hand. Cards that are found go back even if
// others are missing; the missing ids are reported in an *UnstageError.
func (p *Player) Unstage(ids []int) error {
	var missing []int
	for _, id := range ids {
		c, ok := p.removeStaged(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		p.hand = append(p.hand, c)
	}

	if len(missing) > 0 {
		return &UnstageError{Missing: missing}
	}
	return nil
}

// ClearStaged returns every staged card to hand
func (p *Player) ClearStaged() {
	for _, r := range deck.MeldableRanks {
		p.hand = append(p.hand, p.staged[r]...)
		delete(p.staged, r)
	}
}

// CanCommit validates the cards staged at rank against the meld they would join
func (p *Player) CanCommit(rank deck.Rank) error {
	if !rank.Meldable() {
		return ErrInvalidRank
	}
	batch := p.staged[rank]
	if len(batch) == 0 {
		return ErrNothingStaged
	}

	m, ok := p.melds[rank]
	if !ok {
		if len(batch) < MinMeldSize {
			return ErrMeldTooSmall
		}
		m = newMeld(rank)
	}
	return m.CanAdd(batch)
}

// Commit moves the cards staged at rank into the committed meld, creating it
// if needed. On failure the cards stay staged.
func (p *Player) Commit(rank deck.Rank) error {
	if err := p.CanCommit(rank); err != nil {
		return err
	}

	m, ok := p.melds[rank]
	if !ok {
		m = newMeld(rank)
	}
	if err := m.add(p.staged[rank]); err != nil {
		return err
	}
	p.melds[rank] = m
	delete(p.staged, rank)
	return nil
}

// canastasAfterCommit is the canasta count once the staged cards at rank are committed
func (p *Player) canastasAfterCommit(rank deck.Rank) int {
	n := p.Canastas()
	size := len(p.staged[rank])
	if m, ok := p.melds[rank]; ok {
		if m.IsComplete() {
			return n
		}
		size += m.Len()
	}
	if size >= CanastaSize {
		n++
	}
	return n
}

// canTakePile decides whether the player may pick up a pile topped by top.
// Any unfrozen pile can be taken. A frozen pile needs a natural pair of the
// top card's rank in hand, and is never taken from under a wild.
func (p *Player) canTakePile(top deck.Card, frozen bool) bool {
	if !frozen {
		return true
	}
	if top.IsWild() {
		return false
	}

	naturals := 0
	for _, c := range p.hand {
		if !c.IsWild() && c.Rank == top.Rank {
			naturals++
		}
	}
	return naturals >= 2
}

func (p *Player) holds(id int) bool {
	return p.handIndex(id) >= 0
}

func (p *Player) handIndex(id int) int {
	for i, c := range p.hand {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (p *Player) removeStaged(id int) (deck.Card, bool) {
	for _, r := range deck.MeldableRanks {
		cards := p.staged[r]
		for i, c := range cards {
			if c.ID != id {
				continue
			}
			cards = append(cards[:i], cards[i+1:]...)
			if len(cards) == 0 {
				delete(p.staged, r)
			} else {
				p.staged[r] = cards
			}
			return c, true
		}
	}
	return deck.Card{}, false
}
