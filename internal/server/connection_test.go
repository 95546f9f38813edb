package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lox/klondike/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(p game.PileRef) *game.PileRef { return &p }

func dialGame(t *testing.T, ts *httptest.Server, gameID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	if gameID != "" {
		url += "?game=" + gameID
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, mt MessageType, data any) {
	t.Helper()
	msg, err := NewMessage(mt, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

func readMessage(t *testing.T, conn *websocket.Conn) *Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return &msg
}

func readState(t *testing.T, conn *websocket.Conn) GameView {
	t.Helper()
	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeState, msg.Type, string(msg.Data))
	var view GameView
	require.NoError(t, json.Unmarshal(msg.Data, &view))
	return view
}

func readError(t *testing.T, conn *websocket.Conn) ErrorData {
	t.Helper()
	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeError, msg.Type, string(msg.Data))
	var data ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	return data
}

func readMove(t *testing.T, conn *websocket.Conn) MoveView {
	t.Helper()
	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeMoved, msg.Type, string(msg.Data))
	var data MoveView
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	return data
}

func TestConnection_NewGameOnConnect(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialGame(t, ts, "")
	view := readState(t, conn)

	assert.Len(t, view.Stock, 24)
	assert.Equal(t, 1, srv.Store().Len())
	_, err := srv.Store().Get(view.ID)
	assert.NoError(t, err)
}

func TestConnection_PlayActions(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	created := createGame(t, srv.Handler(), 11)
	conn := dialGame(t, ts, created.ID)
	assert.Equal(t, created.Tableau, readState(t, conn).Tableau)

	sendMessage(t, conn, MessageTypeDraw, nil)
	mv := readMove(t, conn)
	assert.Equal(t, game.MoveDraw, mv.Kind)
	assert.Equal(t, game.StockRef(), mv.From)
	assert.Equal(t, game.WasteRef(), mv.To)
	require.Len(t, mv.CardIDs, 1)

	view := readState(t, conn)
	assert.Len(t, view.Stock, 23)
	require.Len(t, view.Waste, 1)
	assert.Equal(t, mv.CardIDs[0], view.Waste[0].ID)

	sendMessage(t, conn, MessageTypeUndo, nil)
	view = readState(t, conn)
	assert.Len(t, view.Stock, 24)
	assert.Equal(t, 0, view.Moves)

	sendMessage(t, conn, MessageTypeUndo, nil)
	assert.Equal(t, CodeNothingToUndo, readError(t, conn).Code)
	readState(t, conn)

	sendMessage(t, conn, MessageTypeRedeal, nil)
	assert.Equal(t, CodeRedealRefused, readError(t, conn).Code)
	readState(t, conn)
}

func TestConnection_SelectionAndHints(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialGame(t, ts, "")
	readState(t, conn)

	sendMessage(t, conn, MessageTypeSelect, CardRefData{Source: ref(game.TableauRef(6))})
	view := readState(t, conn)
	require.NotNil(t, view.Selection)
	assert.Equal(t, game.TableauRef(6), view.Selection.Source)
	assert.Equal(t, 6, view.Selection.CardIndex)

	sendMessage(t, conn, MessageTypeHints, HintsData{Show: false})
	view = readState(t, conn)
	assert.False(t, view.ShowHints)
	assert.Empty(t, view.Hints.Tableau)
	assert.Empty(t, view.Hints.Foundation)

	sendMessage(t, conn, MessageTypeClearSelection, nil)
	assert.Nil(t, readState(t, conn).Selection)

	// a face-down card cannot be selected
	idx := 0
	sendMessage(t, conn, MessageTypeSelect, CardRefData{Source: ref(game.TableauRef(6)), CardIndex: &idx})
	assert.Equal(t, CodeIllegalMove, readError(t, conn).Code)
	assert.Nil(t, readState(t, conn).Selection)
}

func TestConnection_ClickAndNewGame(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialGame(t, ts, "")
	first := readState(t, conn)

	sendMessage(t, conn, MessageTypeClick, CardRefData{Source: ref(game.StockRef())})
	assert.Equal(t, game.MoveDraw, readMove(t, conn).Kind)
	assert.Len(t, readState(t, conn).Waste, 1)

	seed := int64(77)
	sendMessage(t, conn, MessageTypeNewGame, NewGameData{Seed: &seed})
	view := readState(t, conn)
	assert.Equal(t, first.ID, view.ID)
	assert.NotEqual(t, first.DealID, view.DealID)
	assert.Equal(t, seed, view.Seed)
	assert.Empty(t, view.Waste)
	assert.False(t, view.CanUndo)
}

func TestConnection_RejectsBadMessages(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialGame(t, ts, "")
	before := readState(t, conn)

	src := game.WasteRef()
	sendMessage(t, conn, MessageTypeMove, MoveData{Source: &src, Dest: ref(game.FoundationRef(0))})
	assert.Equal(t, CodeIllegalMove, readError(t, conn).Code)
	assert.Equal(t, before.Tableau, readState(t, conn).Tableau)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "move", "data": map[string]any{"dest": "nowhere"}}))
	assert.Equal(t, CodeInvalidMessage, readError(t, conn).Code)
	readState(t, conn)

	// a click must name its pile; it never falls back to the stock
	sendMessage(t, conn, MessageTypeClick, nil)
	assert.Equal(t, CodeInvalidMessage, readError(t, conn).Code)
	assert.Empty(t, readState(t, conn).Waste)

	sendMessage(t, conn, MessageTypeMove, MoveData{Source: &src})
	assert.Equal(t, CodeInvalidMessage, readError(t, conn).Code)
	readState(t, conn)

	sendMessage(t, conn, MessageType("shuffle"), nil)
	assert.Equal(t, CodeUnknownType, readError(t, conn).Code)
	readState(t, conn)
}

func TestConnection_ReceivesRESTMoves(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialGame(t, ts, "")
	view := readState(t, conn)

	w := do(t, srv.Handler(), http.MethodPost, "/api/games/"+view.ID+"/draw", nil)
	require.Equal(t, http.StatusOK, w.Code)

	mv := readMove(t, conn)
	assert.Equal(t, game.MoveDraw, mv.Kind)
}

func TestConnection_UnknownGame(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?game=missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConnection_CloseUnregisters(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialGame(t, ts, "")
	readState(t, conn)
	assert.Eventually(t, func() bool { return srv.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return srv.ConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestConnection_DeleteDisconnectsClients(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialGame(t, ts, "")
	view := readState(t, conn)

	w := do(t, srv.Handler(), http.MethodDelete, "/api/games/"+view.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var netErr interface{ Timeout() bool }
			if errors.As(err, &netErr) {
				require.False(t, netErr.Timeout(), "connection was not closed")
			}
			break
		}
	}
	assert.Eventually(t, func() bool { return srv.ConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestConnection_AttachedGameSurvivesReaper(t *testing.T) {
	t.Parallel()
	interval := time.Minute
	srv, clock := newTestServer(t, Config{IdleTimeout: interval, ReapInterval: interval})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	ctx := t.Context()
	srv.startReaper(ctx)

	conn := dialGame(t, ts, "")
	view := readState(t, conn)

	clock.Advance(interval).MustWait(ctx)
	_, err := srv.Store().Get(view.ID)
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return srv.ConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	clock.Advance(interval).MustWait(ctx)
	_, err = srv.Store().Get(view.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)
}
