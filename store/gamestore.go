package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/minaorangina/canasta/engine"
	"github.com/minaorangina/canasta/protocol"
)

var (
	ErrUnknownGameID           = errors.New("unknown game ID")
	ErrUnknownPlayerID         = errors.New("unknown player ID")
	ErrDuplicateGameID         = errors.New("game ID already exists")
	ErrFnUnknownInactiveGameID = func(gameID string) error {
		return fmt.Errorf("%w: pending game with id \"%s\" does not exist", ErrUnknownGameID, gameID)
	}
	ErrGameAlreadyStarted = errors.New("game has already started")
)

type GameStore interface {
	FindGame(gameID string) engine.GameEngine
	FindActiveGame(gameID string) engine.GameEngine
	FindInactiveGame(gameID string) engine.GameEngine
	FindPendingPlayer(gameID, playerID string) *protocol.Player
	AddInactiveGame(engine engine.GameEngine) error
	AddPendingPlayer(gameID, playerID, name string) error
	AddPlayerToGame(gameID string, player protocol.Player) error
	RemoveGame(gameID string)
}

// InMemoryGameStore maps game id to game engine. PendingPlayers holds every
// player registered with a game over HTTP, by game id.
type InMemoryGameStore struct {
	mu             sync.RWMutex
	Games          map[string]engine.GameEngine
	PendingPlayers map[string][]protocol.Player
}

// NewInMemoryGameStore constructs an InMemoryGameStore
func NewInMemoryGameStore() *InMemoryGameStore {
	return &InMemoryGameStore{
		Games:          map[string]engine.GameEngine{},
		PendingPlayers: map[string][]protocol.Player{},
	}
}

func (s *InMemoryGameStore) FindGame(ID string) engine.GameEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	game, ok := s.Games[ID]
	if !ok {
		return nil
	}
	return game
}

func (s *InMemoryGameStore) FindActiveGame(ID string) engine.GameEngine {
	game := s.FindGame(ID)
	if game == nil || game.PlayState() == engine.Idle {
		return nil
	}
	return game
}

func (s *InMemoryGameStore) FindInactiveGame(ID string) engine.GameEngine {
	game := s.FindGame(ID)
	if game == nil || game.PlayState() != engine.Idle {
		return nil
	}
	return game
}

func (s *InMemoryGameStore) FindPendingPlayer(gameID, playerID string) *protocol.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, info := range s.PendingPlayers[gameID] {
		if info.PlayerID == playerID {
			found := info
			return &found
		}
	}
	return nil
}

func (s *InMemoryGameStore) AddInactiveGame(game engine.GameEngine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.Games[game.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateGameID, game.ID())
	}

	s.Games[game.ID()] = game
	return nil
}

// AddPendingPlayer records the player so they can connect later.
// If the target Game does not exist or has started, it will fail.
func (s *InMemoryGameStore) AddPendingPlayer(gameID, playerID, name string) error {
	game := s.FindGame(gameID)
	if game == nil {
		return ErrFnUnknownInactiveGameID(gameID)
	}
	if game.PlayState() != engine.Idle {
		return ErrGameAlreadyStarted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.PendingPlayers[gameID] = append(s.PendingPlayers[gameID], protocol.Player{PlayerID: playerID, Name: name})
	return nil
}

// AddPlayerToGame gives the player a seat at an inactive game
func (s *InMemoryGameStore) AddPlayerToGame(gameID string, player protocol.Player) error {
	game := s.FindGame(gameID)
	if game == nil {
		return ErrFnUnknownInactiveGameID(gameID)
	}
	if game.PlayState() != engine.Idle {
		return ErrGameAlreadyStarted
	}

	return game.AddPlayer(player.PlayerID, player.Name)
}

func (s *InMemoryGameStore) RemoveGame(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.Games, gameID)
	delete(s.PendingPlayers, gameID)
}
