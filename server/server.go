package server

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/minaorangina/canasta/deck"
	"github.com/minaorangina/canasta/engine"
	"github.com/minaorangina/canasta/protocol"
	"github.com/minaorangina/canasta/store"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"
)

const gameIDAttempts = 5

type NewGameReq struct {
	Name string `json:"name"`
}

type PendingGameRes struct {
	GameID   string   `json:"game_id"`
	PlayerID string   `json:"player_id"`
	Name     string   `json:"name"`
	Admin    bool     `json:"is_admin"`
	Players  []string `json:"players"`
}

type JoinGameReq struct {
	GameID string `json:"game_id"`
	Name   string `json:"name"`
}

type GetGameRes struct {
	Status  string   `json:"status"`
	GameID  string   `json:"game_id"`
	Players []string `json:"players"`
}

// Opts configures the games a GameServer creates
type Opts struct {
	Logger          *zap.Logger
	AllowedOrigins  []string
	CanastasToGoOut int
	FullGame        bool
	// NewShuffler supplies each new game's shuffle source. Nil means a
	// clock-seeded one.
	NewShuffler func() deck.Shuffler
}

// GameServer is a game server
type GameServer struct {
	store store.GameStore
	hub   *hub
	opts  Opts
	log   *zap.Logger
	http.Server
}

func NewID() string {
	return uuid.NewV4().String()
}

func NewGameID() string {
	letters := []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	code := make([]byte, 6)
	for i := range code {
		code[i] = letters[rand.IntN(len(letters))]
	}
	return string(code)
}

func unknownGameIDMsg(unknownID string) string {
	return fmt.Sprintf("unknown game ID '%s'", unknownID)
}

// NewServer creates a new GameServer
func NewServer(s store.GameStore, opts Opts) *GameServer {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	g := &GameServer{
		store: s,
		opts:  opts,
		log:   opts.Logger,
	}
	g.hub = newHub(g.log)

	router := mux.NewRouter()
	router.HandleFunc("/", g.HandlePing).Methods(http.MethodGet)
	router.HandleFunc("/new", g.HandleNewGame).Methods(http.MethodPost)
	router.HandleFunc("/join", g.HandleJoinGame).Methods(http.MethodPost)
	router.HandleFunc("/game/{id}", g.HandleFindGame).Methods(http.MethodGet)
	router.HandleFunc("/game/{id}/start", g.HandleStartGame).Methods(http.MethodPost)
	router.HandleFunc("/game/{id}/state", g.HandleGameState).Methods(http.MethodGet)
	router.HandleFunc("/ws", g.HandleWS).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins(opts.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	accessLog := zap.NewStdLog(g.log.Named("http")).Writer()

	g.Handler = handlers.CombinedLoggingHandler(accessLog, cors(router))
	return g
}

// ServeHTTP serves http
func (g *GameServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.Handler.ServeHTTP(w, r)
}

func (g *GameServer) HandlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, g.log, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleNewGame handles a request to create a new game
func (g *GameServer) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	var data NewGameReq
	err := json.NewDecoder(r.Body).Decode(&data)
	defer r.Body.Close()
	if err != nil {
		g.writeParseError(err, w)
		return
	}
	if data.Name == "" {
		writeText(w, http.StatusBadRequest, "Missing player name")
		return
	}

	playerID := NewID()
	game, err := g.newGame(playerID)
	if err != nil {
		g.log.Error("could not create game", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	player := protocol.Player{PlayerID: playerID, Name: data.Name}
	if err := g.register(game.ID(), player); err != nil {
		g.log.Error("could not seat game creator", zap.String("game_id", game.ID()), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, g.log, http.StatusCreated, PendingGameRes{
		GameID:   game.ID(),
		PlayerID: playerID,
		Name:     data.Name,
		Admin:    true,
		Players:  playerNames(game),
	})
}

func (g *GameServer) newGame(creatorID string) (engine.GameEngine, error) {
	var shuffler deck.Shuffler
	if g.opts.NewShuffler != nil {
		shuffler = g.opts.NewShuffler()
	}

	for attempt := 0; attempt < gameIDAttempts; attempt++ {
		game, err := engine.NewGameEngine(engine.GameEngineOpts{
			GameID:          NewGameID(),
			CreatorID:       creatorID,
			CanastasToGoOut: g.opts.CanastasToGoOut,
			FullGame:        g.opts.FullGame,
			Shuffler:        shuffler,
			Logger:          g.log,
		})
		if err != nil {
			return nil, err
		}

		err = g.store.AddInactiveGame(game)
		if errors.Is(err, store.ErrDuplicateGameID) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return game, nil
	}
	return nil, fmt.Errorf("no free game id after %d attempts", gameIDAttempts)
}

// register seats the player and lets them open a websocket
func (g *GameServer) register(gameID string, player protocol.Player) error {
	if err := g.store.AddPlayerToGame(gameID, player); err != nil {
		return err
	}
	return g.store.AddPendingPlayer(gameID, player.PlayerID, player.Name)
}

func (g *GameServer) HandleFindGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	game := g.store.FindGame(gameID)
	if game == nil {
		writeText(w, http.StatusNotFound, unknownGameIDMsg(gameID))
		return
	}

	writeJSON(w, g.log, http.StatusOK, GetGameRes{
		Status:  game.PlayState().String(),
		GameID:  gameID,
		Players: playerNames(game),
	})
}

func (g *GameServer) HandleJoinGame(w http.ResponseWriter, r *http.Request) {
	var data JoinGameReq
	err := json.NewDecoder(r.Body).Decode(&data)
	defer r.Body.Close()
	if err != nil {
		g.writeParseError(err, w)
		return
	}

	if data.GameID == "" {
		writeText(w, http.StatusBadRequest, "Missing game ID")
		return
	}
	if data.Name == "" {
		writeText(w, http.StatusBadRequest, "Missing player name")
		return
	}

	game := g.store.FindInactiveGame(data.GameID)
	if game == nil {
		writeText(w, http.StatusBadRequest, unknownGameIDMsg(data.GameID))
		return
	}

	player := protocol.Player{PlayerID: NewID(), Name: data.Name}
	err = g.register(data.GameID, player)
	switch {
	case errors.Is(err, engine.ErrTooManyPlayers),
		errors.Is(err, engine.ErrGameAlreadyStarted),
		errors.Is(err, store.ErrGameAlreadyStarted):
		writeText(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		g.log.Error("could not join game", zap.String("game_id", data.GameID), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	g.hub.broadcast(data.GameID, func(playerID string) (protocol.OutboundMessage, bool) {
		if playerID == player.PlayerID {
			return protocol.OutboundMessage{}, false
		}
		joiner := player
		return protocol.OutboundMessage{
			PlayerID: playerID,
			Command:  protocol.NewJoiner,
			Message:  fmt.Sprintf("%s has joined the game!", player.Name),
			Joiner:   &joiner,
		}, true
	})

	writeJSON(w, g.log, http.StatusOK, PendingGameRes{
		PlayerID: player.PlayerID,
		GameID:   data.GameID,
		Name:     data.Name,
		Players:  playerNames(game),
	})
}

// HandleStartGame deals the game. Only the creator may start it.
func (g *GameServer) HandleStartGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	playerID := r.URL.Query().Get("player_id")

	game := g.store.FindGame(gameID)
	if game == nil {
		writeText(w, http.StatusNotFound, unknownGameIDMsg(gameID))
		return
	}
	if playerID == "" || playerID != game.CreatorID() {
		writeText(w, http.StatusForbidden, "only the game creator can start the game")
		return
	}

	err := game.Start()
	switch {
	case errors.Is(err, engine.ErrGameAlreadyStarted):
		writeText(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, engine.ErrTooFewPlayers):
		writeText(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		g.log.Error("could not start game", zap.String("game_id", gameID), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	g.broadcastState(game, protocol.HasStarted, "The game has started!")

	writeJSON(w, g.log, http.StatusOK, GetGameRes{
		Status:  game.PlayState().String(),
		GameID:  gameID,
		Players: playerNames(game),
	})
}

// HandleGameState returns the table as the player sees it
func (g *GameServer) HandleGameState(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	playerID := r.URL.Query().Get("player_id")

	game := g.store.FindGame(gameID)
	if game == nil {
		writeText(w, http.StatusNotFound, unknownGameIDMsg(gameID))
		return
	}
	if playerID == "" {
		writeText(w, http.StatusBadRequest, "missing player ID")
		return
	}

	view, err := game.View(playerID)
	switch {
	case errors.Is(err, engine.ErrUnknownPlayer):
		writeText(w, http.StatusForbidden, "unknown player ID")
		return
	case errors.Is(err, engine.ErrGameNotStarted):
		writeText(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, g.log, http.StatusOK, view)
}

func (g *GameServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	gameID := query.Get("game_id")
	if gameID == "" {
		writeText(w, http.StatusBadRequest, "missing game ID")
		return
	}
	playerID := query.Get("player_id")
	if playerID == "" {
		writeText(w, http.StatusBadRequest, "missing player ID")
		return
	}

	game := g.store.FindGame(gameID)
	if game == nil {
		writeText(w, http.StatusBadRequest, unknownGameIDMsg(gameID))
		return
	}
	if g.store.FindPendingPlayer(gameID, playerID) == nil {
		writeText(w, http.StatusBadRequest, "unknown player ID")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		g.log.Warn("could not upgrade to websocket", zap.Error(err))
		return
	}

	c := newClient(g, game, playerID, conn)
	g.hub.register(c)
	go c.writePump()
	go c.readPump()
}

func (g *GameServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range g.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// broadcastState sends every connected player in the game their own view
func (g *GameServer) broadcastState(game engine.GameEngine, cmd protocol.Cmd, message string) {
	g.hub.broadcast(game.ID(), func(playerID string) (protocol.OutboundMessage, bool) {
		view, err := game.View(playerID)
		if err != nil {
			return protocol.OutboundMessage{}, false
		}
		return protocol.OutboundMessage{
			PlayerID: playerID,
			Command:  cmd,
			Message:  message,
			State:    &view,
		}, true
	})
}

func (g *GameServer) writeParseError(err error, w http.ResponseWriter) {
	g.log.Debug("could not parse request body", zap.Error(err))
	if err == io.EOF {
		writeText(w, http.StatusBadRequest, "Missing body")
		return
	}
	writeText(w, http.StatusBadRequest, "Malformed body")
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	w.Write([]byte(text))
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, status int, payload interface{}) {
	bytes, err := json.Marshal(payload)
	if err != nil {
		log.Error("could not encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(bytes)
}

func playerNames(game engine.GameEngine) []string {
	names := []string{}
	for _, p := range game.Players() {
		names = append(names, p.Name)
	}
	return names
}
