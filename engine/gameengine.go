package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/minaorangina/canasta/deck"
	"github.com/minaorangina/canasta/game"
	"github.com/minaorangina/canasta/protocol"
	"go.uber.org/zap"
)

// PlayState represents the state of the current game
// idle -> players are still joining
// inProgress -> game in progress
// finished -> someone went out or the deck ran dry
type PlayState int

const (
	Idle PlayState = iota
	InProgress
	Finished
)

func (ps PlayState) String() string {
	switch ps {
	case Idle:
		return "idle"
	case InProgress:
		return "inProgress"
	case Finished:
		return "finished"
	}
	return ""
}

var (
	ErrTooFewPlayers       = fmt.Errorf("minimum of %d players required", game.MinPlayers)
	ErrTooManyPlayers      = fmt.Errorf("maximum of %d players allowed", game.MaxPlayers)
	ErrGameAlreadyStarted  = errors.New("game has already started")
	ErrGameNotStarted      = errors.New("game has not started")
	ErrUnknownPlayer       = errors.New("unknown player")
	ErrDuplicatePlayer     = errors.New("player has already joined")
	ErrUnsupportedCommand  = errors.New("unsupported command")
	ErrMissingPlayerFields = errors.New("player id and name are required")
)

// GameEngine represents the engine of the game: one table, its seats and the
// rules engine behind it. All methods are safe for concurrent use.
type GameEngine interface {
	ID() string
	CreatorID() string
	Players() []protocol.Player
	AddPlayer(playerID, name string) error
	PlayState() PlayState
	Started() bool
	Start() error
	Do(protocol.InboundMessage) (protocol.OutboundMessage, error)
	View(playerID string) (protocol.GameView, error)
}

type GameEngineOpts struct {
	GameID          string
	CreatorID       string
	CanastasToGoOut int
	FullGame        bool
	Shuffler        deck.Shuffler
	Logger          *zap.Logger
}

type gameEngine struct {
	mu              sync.Mutex
	id              string
	creatorID       string
	canastasToGoOut int
	fullGame        bool
	shuffler        deck.Shuffler
	playState       PlayState
	players         []protocol.Player
	game            *game.Game
	log             *zap.Logger
}

// NewGameEngine constructs a new GameEngine. Seats are filled with AddPlayer
// and the game is dealt on Start.
func NewGameEngine(opts GameEngineOpts) (GameEngine, error) {
	if opts.GameID == "" {
		return nil, fmt.Errorf("%w: missing game id", game.ErrInvalidConfig)
	}
	if opts.CanastasToGoOut < 0 {
		return nil, fmt.Errorf("%w: negative canasta requirement", game.ErrInvalidConfig)
	}

	shuffler := opts.Shuffler
	if shuffler == nil {
		shuffler = deck.RandomShuffler()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &gameEngine{
		id:              opts.GameID,
		creatorID:       opts.CreatorID,
		canastasToGoOut: opts.CanastasToGoOut,
		fullGame:        opts.FullGame,
		shuffler:        shuffler,
		players:         []protocol.Player{},
		log:             logger.With(zap.String("game_id", opts.GameID)),
	}, nil
}

func (ge *gameEngine) ID() string {
	return ge.id
}

func (ge *gameEngine) CreatorID() string {
	return ge.creatorID
}

func (ge *gameEngine) Players() []protocol.Player {
	ge.mu.Lock()
	defer ge.mu.Unlock()

	ps := make([]protocol.Player, len(ge.players))
	copy(ps, ge.players)
	return ps
}

func (ge *gameEngine) PlayState() PlayState {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	return ge.playState
}

func (ge *gameEngine) Started() bool {
	return ge.PlayState() != Idle
}

// AddPlayer takes the next free seat. Seats follow joining order.
func (ge *gameEngine) AddPlayer(playerID, name string) error {
	if playerID == "" || name == "" {
		return ErrMissingPlayerFields
	}

	ge.mu.Lock()
	defer ge.mu.Unlock()

	if ge.playState != Idle {
		return ErrGameAlreadyStarted
	}
	if ge.seatOf(playerID) >= 0 {
		return ErrDuplicatePlayer
	}
	if len(ge.players) >= game.MaxPlayers {
		return ErrTooManyPlayers
	}

	ge.players = append(ge.players, protocol.Player{PlayerID: playerID, Name: name})
	ge.log.Info("player joined",
		zap.String("player_id", playerID),
		zap.Int("seat", len(ge.players)-1),
	)
	return nil
}

// Start deals the game
func (ge *gameEngine) Start() error {
	ge.mu.Lock()
	defer ge.mu.Unlock()

	if ge.playState != Idle {
		return ErrGameAlreadyStarted
	}
	if len(ge.players) < game.MinPlayers {
		return ErrTooFewPlayers
	}

	g, err := game.New(game.Opts{
		ID:              ge.id,
		Players:         len(ge.players),
		CanastasToGoOut: ge.canastasToGoOut,
		FullGame:        ge.fullGame,
		Shuffler:        ge.shuffler,
	})
	if err != nil {
		return err
	}

	ge.game = g
	ge.playState = InProgress
	ge.log.Info("game started", zap.Int("players", len(ge.players)))
	return nil
}

// View returns the table as the player sees it
func (ge *gameEngine) View(playerID string) (protocol.GameView, error) {
	ge.mu.Lock()
	defer ge.mu.Unlock()

	if ge.game == nil {
		return protocol.GameView{}, ErrGameNotStarted
	}
	seat := ge.seatOf(playerID)
	if seat < 0 {
		return protocol.GameView{}, ErrUnknownPlayer
	}
	return ge.buildView(seat), nil
}

// Do carries out a player's command. A rejected command leaves the game
// untouched and comes back as an Error message addressed to the sender.
func (ge *gameEngine) Do(msg protocol.InboundMessage) (protocol.OutboundMessage, error) {
	ge.mu.Lock()
	defer ge.mu.Unlock()

	log := ge.log.With(
		zap.String("player_id", msg.PlayerID),
		zap.Stringer("command", msg.Command),
	)

	out, err := ge.do(msg)
	if err != nil {
		log.Debug("command rejected", zap.Error(err))
		return errorMessage(msg.PlayerID, err), err
	}
	log.Debug("command accepted")
	return out, nil
}

func (ge *gameEngine) do(msg protocol.InboundMessage) (protocol.OutboundMessage, error) {
	switch ge.playState {
	case Idle:
		return protocol.OutboundMessage{}, ErrGameNotStarted
	case Finished:
		return protocol.OutboundMessage{}, game.ErrGameOver
	}

	seat := ge.seatOf(msg.PlayerID)
	if seat < 0 {
		return protocol.OutboundMessage{}, ErrUnknownPlayer
	}

	out := protocol.OutboundMessage{
		PlayerID: msg.PlayerID,
		Command:  msg.Command,
	}

	var err error
	switch msg.Command {
	case protocol.State:

	case protocol.Draw:
		var c deck.Card
		c, err = ge.game.Draw(seat)
		if err == nil {
			out.Cards = []deck.Card{c}
			out.Message = fmt.Sprintf("You drew the %s", c)
		}

	case protocol.TakePile:
		out.Cards, err = ge.game.TakeDiscardPile(seat)
		if err == nil {
			out.Message = fmt.Sprintf("You took %d cards from the discard pile", len(out.Cards))
		}

	case protocol.Stage:
		var rank deck.Rank
		rank, err = parseRank(msg.Rank)
		if err == nil {
			err = ge.game.Stage(seat, msg.Cards, rank)
		}

	case protocol.Unstage:
		err = ge.game.Unstage(seat, msg.Cards)

	case protocol.ClearStaged:
		err = ge.game.ClearStaged(seat)

	case protocol.Commit:
		var rank deck.Rank
		rank, err = parseRank(msg.Rank)
		if err == nil {
			err = ge.game.Commit(seat, rank)
		}

	case protocol.Discard:
		if len(msg.Cards) != 1 {
			err = fmt.Errorf("%w: discard exactly one card", game.ErrInvalidCard)
			break
		}
		var c deck.Card
		c, err = ge.game.Discard(seat, msg.Cards[0])
		if err == nil {
			out.Cards = []deck.Card{c}
			out.Command = protocol.EndOfTurn
		}

	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedCommand, msg.Command)
	}

	// an exhausted deck ends the game even though the draw itself failed
	if ge.game.Phase() == game.PhaseGameOver {
		ge.finish()
		if err == nil {
			out.Command = protocol.GameOver
		}
	}
	if err != nil {
		return protocol.OutboundMessage{}, err
	}

	view := ge.buildView(seat)
	out.State = &view
	return out, nil
}

func (ge *gameEngine) finish() {
	if ge.playState == Finished {
		return
	}
	ge.playState = Finished

	fields := []zap.Field{}
	if winner, ok := ge.game.Winner(); ok {
		fields = append(fields, zap.String("winner_id", ge.players[winner].PlayerID))
	}
	ge.log.Info("game over", fields...)
}

func (ge *gameEngine) seatOf(playerID string) int {
	for i, p := range ge.players {
		if p.PlayerID == playerID {
			return i
		}
	}
	return -1
}

func (ge *gameEngine) buildView(seat int) protocol.GameView {
	g := ge.game
	current := g.CurrentPlayer()

	view := protocol.GameView{
		GameID:          ge.id,
		Phase:           g.Phase().String(),
		Seat:            seat,
		CurrentPlayer:   current,
		CurrentPlayerID: ge.players[current].PlayerID,
		DeckCount:       g.DeckRemaining(),
		DiscardSize:     g.DiscardSize(),
		DiscardFrozen:   g.DiscardFrozen(),
		CanastasToGoOut: g.CanastasToGoOut(),
		Staged:          map[string][]deck.Card{},
		Seats:           make([]protocol.Seat, g.NumPlayers()),
	}
	if top, ok := g.DiscardTop(); ok {
		view.DiscardTop = &top
	}
	if winner, ok := g.Winner(); ok {
		view.WinnerID = ge.players[winner].PlayerID
	}

	// seat is always valid here
	view.Hand, _ = g.Hand(seat)
	staged, _ := g.Staged(seat)
	for rank, cards := range staged {
		view.Staged[rank.String()] = cards
	}

	for i := range view.Seats {
		pub, _ := g.Public(i)
		s := protocol.Seat{
			Seat:      i,
			PlayerID:  ge.players[i].PlayerID,
			Name:      ge.players[i].Name,
			HandSize:  pub.HandSize,
			RedThrees: pub.RedThrees,
			Melds:     make([]protocol.Meld, len(pub.Melds)),
			Canastas:  pub.Canastas,
		}
		for j, m := range pub.Melds {
			s.Melds[j] = protocol.Meld{
				Rank:     m.Rank,
				Naturals: m.Naturals,
				Wilds:    m.Wilds,
				Natural:  m.Natural,
				Complete: m.Complete,
				Value:    m.Value,
			}
		}
		view.Seats[i] = s
	}

	return view
}

func parseRank(name string) (deck.Rank, error) {
	rank, err := deck.ParseRank(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", game.ErrInvalidRank, err)
	}
	return rank, nil
}

func errorMessage(playerID string, err error) protocol.OutboundMessage {
	return protocol.OutboundMessage{
		PlayerID: playerID,
		Command:  protocol.Error,
		Error:    err.Error(),
	}
}
