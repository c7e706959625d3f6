package game

import (
	"fmt"

	"github.com/minaorangina/canasta/deck"
)

// Opts configures a new game
type Opts struct {
	ID              string
	Players         int
	CanastasToGoOut int
	FullGame        bool
	Shuffler        deck.Shuffler
}

// Game is the turn state machine. It is the only thing that mutates the
// deck, the discard pile and the players, and it does no locking: callers
// must not use one Game from several goroutines at once.
type Game struct {
	id              string
	players         []*Player
	deck            *deck.Deck
	discard         *deck.Discard
	fullGame        bool
	canastasToGoOut int
	current         int
	phase           Phase
	winner          int
}

// New shuffles, deals and turns up the starting discard.
// Player 0 takes the first turn.
func New(opts Opts) (*Game, error) {
	n := opts.Players
	if n < MinPlayers || n > MaxPlayers {
		return nil, fmt.Errorf("%w: %d players, want %d to %d", ErrInvalidConfig, n, MinPlayers, MaxPlayers)
	}
	if opts.CanastasToGoOut < 0 {
		return nil, fmt.Errorf("%w: negative canasta requirement", ErrInvalidConfig)
	}

	d, err := deck.New(opts.Shuffler)
	if err != nil {
		return nil, err
	}

	deal := DealSize(n)
	if deal*n >= d.Remaining() {
		return nil, fmt.Errorf("%w: cannot deal %d cards to %d players", ErrInvalidConfig, deal, n)
	}

	g := &Game{
		id:              opts.ID,
		players:         make([]*Player, n),
		deck:            d,
		discard:         deck.NewDiscard(),
		fullGame:        opts.FullGame,
		canastasToGoOut: opts.CanastasToGoOut,
		phase:           PhaseDraw,
		winner:          -1,
	}
	for i := range g.players {
		g.players[i] = NewPlayer(i)
	}

	g.deal(deal)
	g.turnUpDiscard()

	return g, nil
}

func (g *Game) deal(size int) {
	for i := 0; i < size; i++ {
		for _, p := range g.players {
			c, _ := g.deck.Draw()
			p.AddToHand(c)
		}
	}
	for _, p := range g.players {
		p.ExtractRedThrees()
	}
}

// turnUpDiscard keeps turning cards onto the pile until one is neither wild
// nor a three
func (g *Game) turnUpDiscard() {
	for {
		c, ok := g.deck.Draw()
		if !ok {
			return
		}
		g.discard.Throw(c)
		if !c.IsWild() && c.Rank != deck.Three {
			return
		}
	}
}

func (g *Game) ID() string {
	return g.id
}

func (g *Game) CurrentPlayer() int {
	return g.current
}

func (g *Game) Phase() Phase {
	return g.phase
}

func (g *Game) NumPlayers() int {
	return len(g.players)
}

func (g *Game) FullGame() bool {
	return g.fullGame
}

func (g *Game) CanastasToGoOut() int {
	return g.canastasToGoOut
}

func (g *Game) DeckRemaining() int {
	return g.deck.Remaining()
}

func (g *Game) DiscardTop() (deck.Card, bool) {
	return g.discard.Top()
}

func (g *Game) DiscardSize() int {
	return g.discard.Len()
}

func (g *Game) DiscardFrozen() bool {
	return g.discard.Frozen()
}

// Winner returns the player who went out. ok is false while the game is in
// progress or when it ended because the deck ran out.
func (g *Game) Winner() (player int, ok bool) {
	return g.winner, g.winner >= 0
}

// Hand returns a copy of the player's hand
func (g *Game) Hand(player int) ([]deck.Card, error) {
	p, err := g.seat(player)
	if err != nil {
		return nil, err
	}
	return p.Hand(), nil
}

// Staged returns a copy of the player's staged cards keyed by rank
func (g *Game) Staged(player int) (map[deck.Rank][]deck.Card, error) {
	p, err := g.seat(player)
	if err != nil {
		return nil, err
	}
	staged := map[deck.Rank][]deck.Card{}
	for r, cards := range p.staged {
		staged[r] = copyCards(cards)
	}
	return staged, nil
}

// Public returns what every player at the table can see of a seat
func (g *Game) Public(player int) (PlayerView, error) {
	p, err := g.seat(player)
	if err != nil {
		return PlayerView{}, err
	}
	view := PlayerView{
		Seat:      player,
		HandSize:  p.HandSize() + p.StagedCount(),
		RedThrees: p.RedThrees(),
		Melds:     []MeldView{},
		Canastas:  p.Canastas(),
	}
	for _, m := range p.Melds() {
		view.Melds = append(view.Melds, MeldView{
			Rank:     m.Rank(),
			Naturals: m.Naturals(),
			Wilds:    m.Wilds(),
			Natural:  m.IsNatural(),
			Complete: m.IsComplete(),
			Value:    m.Value(),
		})
	}
	return view, nil
}

// Draw takes the top card of the deck for the player. Red threes are set
// aside and replaced until a playable card turns up.
func (g *Game) Draw(player int) (deck.Card, error) {
	p, err := g.checkTurn(player, PhaseDraw)
	if err != nil {
		return deck.Card{}, err
	}

	for {
		c, ok := g.deck.Draw()
		if !ok {
			g.end(-1)
			return deck.Card{}, ErrGameOver
		}
		p.AddToHand(c)
		if !c.IsRedThree() {
			g.phase = PhaseMeld
			return c, nil
		}
		p.ExtractRedThrees()
	}
}

// TakeDiscardPile picks up the whole discard pile instead of drawing
func (g *Game) TakeDiscardPile(player int) ([]deck.Card, error) {
	p, err := g.checkTurn(player, PhaseDraw)
	if err != nil {
		return nil, err
	}

	top, ok := g.discard.Top()
	if !ok {
		return nil, ErrEmptyDiscardPile
	}
	if !p.canTakePile(top, g.discard.Frozen()) {
		return nil, ErrCannotTakePile
	}

	taken := g.discard.Take()
	for _, c := range taken {
		p.AddToHand(c)
	}
	p.ExtractRedThrees()
	g.phase = PhaseMeld
	return taken, nil
}

// Stage moves cards from the player's hand towards a meld of rank
func (g *Game) Stage(player int, cardIDs []int, rank deck.Rank) error {
	p, err := g.checkTurn(player, PhaseMeld)
	if err != nil {
		return err
	}
	if err := p.Stage(cardIDs, rank); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCard, err)
	}
	return nil
}

// Unstage returns staged cards to the player's hand
func (g *Game) Unstage(player int, cardIDs []int) error {
	p, err := g.checkTurn(player, PhaseMeld)
	if err != nil {
		return err
	}
	if err := p.Unstage(cardIDs); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCard, err)
	}
	return nil
}

// ClearStaged abandons every meld in progress
func (g *Game) ClearStaged(player int) error {
	p, err := g.checkTurn(player, PhaseMeld)
	if err != nil {
		return err
	}
	p.ClearStaged()
	return nil
}

// Commit makes the cards staged at rank a permanent part of the player's
// melds. Melding the last card in hand goes out, which needs enough canastas.
// A player who cannot go out must keep at least one card to discard.
func (g *Game) Commit(player int, rank deck.Rank) error {
	p, err := g.checkTurn(player, PhaseMeld)
	if err != nil {
		return err
	}
	if err := p.CanCommit(rank); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMeld, err)
	}

	left := p.HandSize() + p.StagedCount() - len(p.staged[rank])
	if left <= 1 && p.canastasAfterCommit(rank) < g.canastasToGoOut {
		return ErrCannotGoOut
	}

	if err := p.Commit(rank); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMeld, err)
	}
	if left == 0 {
		g.end(player)
	}
	return nil
}

// Discard throws a card from the player's hand onto the pile and ends the turn
func (g *Game) Discard(player, cardID int) (deck.Card, error) {
	p, err := g.checkTurn(player, PhaseMeld)
	if err != nil {
		return deck.Card{}, err
	}
	if !p.holds(cardID) {
		return deck.Card{}, ErrInvalidCard
	}
	if p.HandSize() == 1 && p.StagedCount() == 0 && p.Canastas() < g.canastasToGoOut {
		return deck.Card{}, ErrCannotGoOut
	}

	c, err := p.Discard(cardID)
	if err != nil {
		return deck.Card{}, err
	}
	g.discard.Throw(c)
	g.phase = PhaseTurnOver
	g.endTurn()
	return c, nil
}

// endTurn returns unfinished melds to hand, then either ends the game if
// the player went out or passes play on
func (g *Game) endTurn() {
	p := g.players[g.current]
	p.ClearStaged()

	if p.HandSize() == 0 && p.Canastas() >= g.canastasToGoOut {
		g.end(g.current)
		return
	}

	g.current = (g.current + 1) % len(g.players)
	g.phase = PhaseDraw
}

func (g *Game) end(winner int) {
	g.winner = winner
	g.phase = PhaseGameOver
}

func (g *Game) seat(player int) (*Player, error) {
	if player < 0 || player >= len(g.players) {
		return nil, ErrInvalidPlayer
	}
	return g.players[player], nil
}

func (g *Game) checkTurn(player int, phase Phase) (*Player, error) {
	if g.phase == PhaseGameOver {
		return nil, ErrGameOver
	}
	p, err := g.seat(player)
	if err != nil {
		return nil, err
	}
	if player != g.current {
		return nil, &NotPlayerTurnError{Current: g.current}
	}
	if g.phase != phase {
		return nil, ErrIncorrectTurnPhase
	}
	return p, nil
}

// PlayerView is the public face of a seat
type PlayerView struct {
	Seat      int
	HandSize  int
	RedThrees []deck.Card
	Melds     []MeldView
	Canastas  int
}

type MeldView struct {
	Rank     deck.Rank
	Naturals []deck.Card
	Wilds    []deck.Card
	Natural  bool
	Complete bool
	Value    int
}
