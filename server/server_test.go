package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	utils "github.com/minaorangina/canasta/internal"
	"github.com/minaorangina/canasta/protocol"
	"github.com/minaorangina/canasta/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameID(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := NewGameID()
		require.Len(t, id, 6)
		assert.Equal(t, strings.ToUpper(id), id)
	}
}

func TestServerPing(t *testing.T) {
	response := httptest.NewRecorder()
	request, _ := http.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Origin", "http://example.com")

	server := NewServer(store.NewInMemoryGameStore(), Opts{})
	server.ServeHTTP(response, request)

	assertStatus(t, response.Code, http.StatusOK)
	assert.Equal(t, "*", response.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerPOSTNewGame(t *testing.T) {
	t.Run("succeeds and returns expected data", func(t *testing.T) {
		str := store.NewInMemoryGameStore()
		data := mustMakeJson(t, NewGameReq{"Elton"})

		response := httptest.NewRecorder()
		server := NewServer(str, testOpts())
		server.ServeHTTP(response, newCreateGameRequest(data))

		assertStatus(t, response.Code, http.StatusCreated)
		got := assertPendingGameResponse(t, response.Body, "Elton")
		assert.True(t, got.Admin)
		assert.Equal(t, []string{"Elton"}, got.Players)

		game := str.FindInactiveGame(got.GameID)
		require.NotNil(t, game)
		assert.Equal(t, got.PlayerID, game.CreatorID())
		assert.NotNil(t, str.FindPendingPlayer(got.GameID, got.PlayerID))
	})

	t.Run("returns 400 if the body is missing", func(t *testing.T) {
		response := httptest.NewRecorder()
		server := NewServer(store.NewInMemoryGameStore(), testOpts())
		server.ServeHTTP(response, newCreateGameRequest([]byte{}))

		assertStatus(t, response.Code, http.StatusBadRequest)
	})

	t.Run("returns 400 if the player's name is missing", func(t *testing.T) {
		response := httptest.NewRecorder()
		server := NewServer(store.NewInMemoryGameStore(), testOpts())
		server.ServeHTTP(response, newCreateGameRequest([]byte(`{}`)))

		assertStatus(t, response.Code, http.StatusBadRequest)
	})

	t.Run("does not match on GET /new", func(t *testing.T) {
		response := httptest.NewRecorder()
		request, _ := http.NewRequest(http.MethodGet, "/new", nil)

		server := NewServer(nil, Opts{})
		server.ServeHTTP(response, request)

		assertStatus(t, response.Code, http.StatusMethodNotAllowed)
	})
}

func TestJoinGame(t *testing.T) {
	t.Run("POST /join returns 200 for existing game", func(t *testing.T) {
		server, pendingID := newServerWithInactiveGame(t, somePlayers()...)

		data := mustMakeJson(t, JoinGameReq{pendingID, "Heloise"})
		response := httptest.NewRecorder()
		server.ServeHTTP(response, newJoinGameRequest(data))

		assertStatus(t, response.Code, http.StatusOK)
		got := assertPendingGameResponse(t, response.Body, "Heloise")
		assert.False(t, got.Admin)
		assert.Equal(t, []string{"Hersha", "Penelope", "Heloise"}, got.Players)
	})

	t.Run("POST /join returns 400 if request data missing", func(t *testing.T) {
		server, _ := newServerWithInactiveGame(t, somePlayers()...)

		response := httptest.NewRecorder()
		server.ServeHTTP(response, newJoinGameRequest(nil))

		assertStatus(t, response.Code, http.StatusBadRequest)
	})

	t.Run("POST /join returns 400 without a game id or name", func(t *testing.T) {
		server, pendingID := newServerWithInactiveGame(t, somePlayers()...)

		for _, req := range []JoinGameReq{{"", "Heloise"}, {pendingID, ""}} {
			response := httptest.NewRecorder()
			server.ServeHTTP(response, newJoinGameRequest(mustMakeJson(t, req)))
			assertStatus(t, response.Code, http.StatusBadRequest)
		}
	})

	t.Run("POST /join returns 400 for an unknown game id", func(t *testing.T) {
		server, _ := newServerWithInactiveGame(t, somePlayers()...)

		data := mustMakeJson(t, JoinGameReq{"some-game-id", "Heloise"})
		response := httptest.NewRecorder()
		server.ServeHTTP(response, newJoinGameRequest(data))

		assertStatus(t, response.Code, http.StatusBadRequest)
	})

	t.Run("POST /join returns 409 when the table is full", func(t *testing.T) {
		ps := []protocol.Player{}
		for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
			ps = append(ps, protocol.Player{PlayerID: "id-" + name, Name: name})
		}
		server, pendingID := newServerWithInactiveGame(t, ps...)

		data := mustMakeJson(t, JoinGameReq{pendingID, "Gwen"})
		response := httptest.NewRecorder()
		server.ServeHTTP(response, newJoinGameRequest(data))

		assertStatus(t, response.Code, http.StatusConflict)
	})
}

func TestServerGETGame(t *testing.T) {
	t.Run("returns an existing pending game", func(t *testing.T) {
		server, pendingID := newServerWithInactiveGame(t, somePlayers()...)

		response := httptest.NewRecorder()
		server.ServeHTTP(response, newGetGameRequest(pendingID))

		assertStatus(t, response.Code, http.StatusOK)
		var got GetGameRes
		decodeBody(t, response.Body, &got)
		assert.Equal(t, GetGameRes{
			Status:  "idle",
			GameID:  pendingID,
			Players: []string{"Hersha", "Penelope"},
		}, got)
	})

	t.Run("returns a 404 if game doesn't exist", func(t *testing.T) {
		server, _ := newServerWithInactiveGame(t, somePlayers()...)

		response := httptest.NewRecorder()
		server.ServeHTTP(response, newGetGameRequest("bad-game-id"))

		assertStatus(t, response.Code, http.StatusNotFound)
	})
}

func TestServerStartGame(t *testing.T) {
	t.Run("only the creator can start", func(t *testing.T) {
		server, gameID := newServerWithInactiveGame(t, somePlayers()...)

		response := httptest.NewRecorder()
		server.ServeHTTP(response, newStartGameRequest(gameID, "penelope-2"))

		assertStatus(t, response.Code, http.StatusForbidden)
	})

	t.Run("needs enough players", func(t *testing.T) {
		server, gameID := newServerWithInactiveGame(t, somePlayers()[0])

		response := httptest.NewRecorder()
		server.ServeHTTP(response, newStartGameRequest(gameID, "hersha-1"))

		assertStatus(t, response.Code, http.StatusBadRequest)
	})

	t.Run("starts once", func(t *testing.T) {
		server, gameID := newServerWithInactiveGame(t, somePlayers()...)

		response := httptest.NewRecorder()
		server.ServeHTTP(response, newStartGameRequest(gameID, "hersha-1"))
		assertStatus(t, response.Code, http.StatusOK)

		var got GetGameRes
		decodeBody(t, response.Body, &got)
		assert.Equal(t, "inProgress", got.Status)

		response = httptest.NewRecorder()
		server.ServeHTTP(response, newStartGameRequest(gameID, "hersha-1"))
		assertStatus(t, response.Code, http.StatusConflict)
	})

	t.Run("unknown game", func(t *testing.T) {
		server, _ := newServerWithInactiveGame(t, somePlayers()...)

		response := httptest.NewRecorder()
		server.ServeHTTP(response, newStartGameRequest("nope", "hersha-1"))
		assertStatus(t, response.Code, http.StatusNotFound)
	})
}

func TestServerGameState(t *testing.T) {
	server, gameID := newServerWithInactiveGame(t, somePlayers()...)

	t.Run("not before the game starts", func(t *testing.T) {
		response := httptest.NewRecorder()
		server.ServeHTTP(response, newStateRequest(gameID, "hersha-1"))
		assertStatus(t, response.Code, http.StatusConflict)
	})

	response := httptest.NewRecorder()
	server.ServeHTTP(response, newStartGameRequest(gameID, "hersha-1"))
	assertStatus(t, response.Code, http.StatusOK)

	t.Run("returns the player's view", func(t *testing.T) {
		response := httptest.NewRecorder()
		server.ServeHTTP(response, newStateRequest(gameID, "penelope-2"))
		assertStatus(t, response.Code, http.StatusOK)

		var view protocol.GameView
		decodeBody(t, response.Body, &view)
		assert.Equal(t, gameID, view.GameID)
		assert.Equal(t, 1, view.Seat)
		assert.Equal(t, "hersha-1", view.CurrentPlayerID)
		assert.Len(t, view.Hand, view.Seats[1].HandSize)
	})

	t.Run("rejects strangers", func(t *testing.T) {
		response := httptest.NewRecorder()
		server.ServeHTTP(response, newStateRequest(gameID, "mallory"))
		assertStatus(t, response.Code, http.StatusForbidden)
	})

	t.Run("needs a player id", func(t *testing.T) {
		response := httptest.NewRecorder()
		server.ServeHTTP(response, newStateRequest(gameID, ""))
		assertStatus(t, response.Code, http.StatusBadRequest)
	})
}

func TestWS(t *testing.T) {
	t.Run("handles missing game details", func(t *testing.T) {
		server := httptest.NewServer(NewServer(store.NewInMemoryGameStore(), Opts{}))
		defer server.Close()

		_, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
		utils.AssertErrored(t, err)
	})

	t.Run("rejects if the game doesn't exist", func(t *testing.T) {
		gs, _ := newServerWithInactiveGame(t, somePlayers()...)
		server := httptest.NewServer(gs)
		defer server.Close()

		_, resp, err := websocket.DefaultDialer.Dial(makeWSUrl(server.URL, "unknowngamelol", "hersha-1"), nil)

		utils.AssertErrored(t, err)
		require.NotNil(t, resp)
		assertStatus(t, resp.StatusCode, http.StatusBadRequest)
	})

	t.Run("rejects unknown players", func(t *testing.T) {
		gs, gameID := newServerWithInactiveGame(t, somePlayers()...)
		server := httptest.NewServer(gs)
		defer server.Close()

		_, resp, err := websocket.DefaultDialer.Dial(makeWSUrl(server.URL, gameID, "unknownhooman"), nil)

		utils.AssertErrored(t, err)
		require.NotNil(t, resp)
		assertStatus(t, resp.StatusCode, http.StatusBadRequest)
	})

	t.Run("successfully connects", func(t *testing.T) {
		gs, gameID := newServerWithInactiveGame(t, somePlayers()...)
		server := httptest.NewServer(gs)
		defer server.Close()

		ws, resp, err := websocket.DefaultDialer.Dial(makeWSUrl(server.URL, gameID, "hersha-1"), nil)
		utils.AssertNoError(t, err)
		defer ws.Close()
		assertStatus(t, resp.StatusCode, http.StatusSwitchingProtocols)
	})

	t.Run("malformed messages come back as errors", func(t *testing.T) {
		gs, gameID := newServerWithInactiveGame(t, somePlayers()...)
		server := httptest.NewServer(gs)
		defer server.Close()

		ws := mustDialWS(t, makeWSUrl(server.URL, gameID, "hersha-1"))
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"command":"Juggle"}`)))

		msg := mustReadMessage(t, ws)
		assert.Equal(t, protocol.Error, msg.Command)
		assert.Contains(t, msg.Error, "unknown command")
	})
}

// syncWS makes sure the server has registered the connection
func syncWS(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	mustSend(t, ws, protocol.InboundMessage{Command: protocol.State})
	msg := mustReadMessage(t, ws)
	require.Equal(t, protocol.Error, msg.Command)
}

func TestPlayOverWebsockets(t *testing.T) {
	server := httptest.NewServer(NewServer(store.NewInMemoryGameStore(), testOpts()))
	defer server.Close()

	post := func(path string, body []byte) *http.Response {
		resp, err := http.Post(server.URL+path, "application/json", bytes.NewBuffer(body))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := post("/new", mustMakeJson(t, NewGameReq{"Hersha"}))
	assertStatus(t, resp.StatusCode, http.StatusCreated)
	creator := assertPendingGameResponse(t, resp.Body, "Hersha")
	gameID := creator.GameID

	hersha := mustDialWS(t, makeWSUrl(server.URL, gameID, creator.PlayerID))
	syncWS(t, hersha)

	resp = post("/join", mustMakeJson(t, JoinGameReq{gameID, "Penelope"}))
	assertStatus(t, resp.StatusCode, http.StatusOK)
	joiner := assertPendingGameResponse(t, resp.Body, "Penelope")

	t.Log("Given a player is waiting, when someone joins, they are told")
	msg := mustReadMessage(t, hersha)
	assert.Equal(t, protocol.NewJoiner, msg.Command)
	require.NotNil(t, msg.Joiner)
	assert.Equal(t, "Penelope", msg.Joiner.Name)

	penelope := mustDialWS(t, makeWSUrl(server.URL, gameID, joiner.PlayerID))
	syncWS(t, penelope)

	resp = post("/game/"+gameID+"/start?player_id="+creator.PlayerID, nil)
	assertStatus(t, resp.StatusCode, http.StatusOK)

	t.Log("When the game starts, everyone gets their own hand")
	for i, ws := range []*websocket.Conn{hersha, penelope} {
		msg := mustReadMessage(t, ws)
		assert.Equal(t, protocol.HasStarted, msg.Command)
		require.NotNil(t, msg.State)
		assert.Equal(t, i, msg.State.Seat)
		assert.Equal(t, "Draw", msg.State.Phase)
	}

	t.Log("When the first player draws, the others see the new table")
	mustSend(t, hersha, protocol.InboundMessage{Command: protocol.Draw})
	msg = mustReadMessage(t, hersha)
	assert.Equal(t, protocol.Draw, msg.Command)
	require.Len(t, msg.Cards, 1)
	hand := msg.State.Hand

	msg = mustReadMessage(t, penelope)
	assert.Equal(t, protocol.State, msg.Command)
	assert.Equal(t, "Meld", msg.State.Phase)
	assert.Equal(t, len(hand), msg.State.Seats[0].HandSize)

	t.Log("A connection cannot act for another player")
	mustSend(t, penelope, protocol.InboundMessage{PlayerID: creator.PlayerID, Command: protocol.Discard, Cards: []int{hand[0].ID}})
	msg = mustReadMessage(t, penelope)
	assert.Equal(t, protocol.Error, msg.Command)
	assert.Equal(t, joiner.PlayerID, msg.PlayerID)

	t.Log("Discarding passes the turn")
	mustSend(t, hersha, protocol.InboundMessage{Command: protocol.Discard, Cards: []int{hand[0].ID}})
	msg = mustReadMessage(t, hersha)
	assert.Equal(t, protocol.EndOfTurn, msg.Command)

	msg = mustReadMessage(t, penelope)
	assert.Equal(t, protocol.State, msg.Command)
	assert.Equal(t, joiner.PlayerID, msg.State.CurrentPlayerID)
	require.NotNil(t, msg.State.DiscardTop)
	assert.Equal(t, hand[0], *msg.State.DiscardTop)
}
