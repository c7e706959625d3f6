package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/minaorangina/canasta/deck"
	"github.com/minaorangina/canasta/engine"
	utils "github.com/minaorangina/canasta/internal"
	"github.com/minaorangina/canasta/protocol"
	"github.com/minaorangina/canasta/store"
	"github.com/stretchr/testify/require"
)

const wsTestTimeout = 2 * time.Second

func testOpts() Opts {
	return Opts{
		CanastasToGoOut: 1,
		NewShuffler:     func() deck.Shuffler { return deck.NewShuffler(7) },
	}
}

func mustMakeJson(t *testing.T, input interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(input)
	utils.AssertNoError(t, err)

	return data
}

func newCreateGameRequest(data []byte) *http.Request {
	request, _ := http.NewRequest(http.MethodPost, "/new", bytes.NewBuffer(data))
	return request
}

func newGetGameRequest(gameID string) *http.Request {
	request, _ := http.NewRequest(http.MethodGet, "/game/"+gameID, nil)
	return request
}

func newJoinGameRequest(data []byte) *http.Request {
	request, _ := http.NewRequest(http.MethodPost, "/join", bytes.NewBuffer(data))
	return request
}

func newStartGameRequest(gameID, playerID string) *http.Request {
	request, _ := http.NewRequest(http.MethodPost, "/game/"+gameID+"/start?player_id="+playerID, nil)
	return request
}

func newStateRequest(gameID, playerID string) *http.Request {
	request, _ := http.NewRequest(http.MethodGet, "/game/"+gameID+"/state?player_id="+playerID, nil)
	return request
}

func newTestGame(t *testing.T, gameID, creatorID string) engine.GameEngine {
	t.Helper()

	game, err := engine.NewGameEngine(engine.GameEngineOpts{
		GameID:          gameID,
		CreatorID:       creatorID,
		CanastasToGoOut: 1,
		Shuffler:        deck.NewShuffler(3),
	})
	utils.AssertNoError(t, err)
	return game
}

// newServerWithInactiveGame returns a GameServer with an inactive game
// holding the given players. The first player is the creator.
func newServerWithInactiveGame(t *testing.T, ps ...protocol.Player) (*GameServer, string) {
	t.Helper()

	gameID := "some-pending-id"
	creatorID := ""
	if len(ps) > 0 {
		creatorID = ps[0].PlayerID
	}

	str := store.NewInMemoryGameStore()
	utils.AssertNoError(t, str.AddInactiveGame(newTestGame(t, gameID, creatorID)))
	for _, p := range ps {
		utils.AssertNoError(t, str.AddPlayerToGame(gameID, p))
		utils.AssertNoError(t, str.AddPendingPlayer(gameID, p.PlayerID, p.Name))
	}

	return NewServer(str, testOpts()), gameID
}

func somePlayers() []protocol.Player {
	return []protocol.Player{
		{PlayerID: "hersha-1", Name: "Hersha"},
		{PlayerID: "penelope-2", Name: "Penelope"},
	}
}

// ASSERTIONS

func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("got status %d, want %d", got, want)
	}
}

func decodeBody(t *testing.T, body io.Reader, into interface{}) {
	t.Helper()

	bodyBytes, err := io.ReadAll(body)
	utils.AssertNoError(t, err)
	if err := json.Unmarshal(bodyBytes, into); err != nil {
		t.Fatalf("could not unmarshal json %q: %s", bodyBytes, err.Error())
	}
}

func assertPendingGameResponse(t *testing.T, body io.Reader, want string) PendingGameRes {
	t.Helper()

	var got PendingGameRes
	decodeBody(t, body, &got)

	if got.Name != want {
		t.Errorf("got %s, want %s", got.Name, want)
	}
	if len(got.GameID) == 0 {
		t.Error("expected a game id")
	}
	if len(got.PlayerID) == 0 {
		t.Error("expected a player id")
	}
	return got
}

func mustDialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		code := 0
		var body []byte
		if resp != nil {
			code = resp.StatusCode
			body, _ = io.ReadAll(resp.Body)
		}
		t.Fatalf("could not open a ws connection on %s, code %d: %s, %v", url, code, body, err)
	}
	t.Cleanup(func() { ws.Close() })

	return ws
}

func makeWSUrl(serverURL, gameID, playerID string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") +
		"/ws?game_id=" + gameID + "&player_id=" + playerID
}

func mustReadMessage(t *testing.T, ws *websocket.Conn) protocol.OutboundMessage {
	t.Helper()

	ws.SetReadDeadline(time.Now().Add(wsTestTimeout))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	msg, err := protocol.DecodeOutbound(data)
	require.NoError(t, err)
	return msg
}

func mustSend(t *testing.T, ws *websocket.Conn, msg protocol.InboundMessage) {
	t.Helper()

	data := mustMakeJson(t, msg)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, data))
}
