package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/klondike/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestServer(t *testing.T, cfg Config) (*Server, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	return NewServer(cfg, testLogger(), WithClock(clock)), clock
}

// do sends a request to h and returns the recorded response
func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) GameView {
	t.Helper()
	var view GameView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view), w.Body.String())
	return view
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func createGame(t *testing.T, h http.Handler, seed int64) GameView {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/games", NewGameData{Seed: &seed})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeView(t, w)
}

// findMove returns some legal move from the waste or a face-up tableau card
func findMove(s game.State) (game.Selection, game.PileRef, bool) {
	var sels []game.Selection
	if len(s.Waste) > 0 {
		sels = append(sels, game.Selection{Source: game.WasteRef()})
	}
	for i, pile := range s.Tableau {
		for j, c := range pile {
			if c.FaceUp {
				sels = append(sels, game.Selection{Source: game.TableauRef(i), CardIndex: j})
			}
		}
	}

	var dests []game.PileRef
	for i := range game.NumFoundations {
		dests = append(dests, game.FoundationRef(i))
	}
	for i := range game.NumTableau {
		dests = append(dests, game.TableauRef(i))
	}

	for _, sel := range sels {
		for _, dest := range dests {
			if game.CanMove(s, sel, dest) {
				return sel, dest, true
			}
		}
	}
	return game.Selection{}, game.PileRef{}, false
}

func sessionState(t *testing.T, srv *Server, id string) game.State {
	t.Helper()
	e, err := srv.Store().Get(id)
	require.NoError(t, err)
	var s game.State
	e.With(func(sess *game.Session) { s = sess.State() })
	return s
}

func TestServer_Health(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})

	w := do(t, srv.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestServer_CreateGame(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})

	view := createGame(t, srv.Handler(), 42)

	assert.Len(t, view.ID, 16)
	assert.Equal(t, view.ID, view.DealID)
	assert.Equal(t, int64(42), view.Seed)
	assert.Len(t, view.Stock, 24)
	assert.Empty(t, view.Waste)
	require.Len(t, view.Tableau, game.NumTableau)
	for i, col := range view.Tableau {
		require.Len(t, col, i+1)
		for j, c := range col {
			assert.Equal(t, j == i, c.FaceUp, "column %d card %d", i, j)
		}
	}
	assert.Len(t, view.Foundations, game.NumFoundations)
	assert.False(t, view.CanUndo)
	assert.False(t, view.Won)
	assert.Nil(t, view.Selection)
	assert.Equal(t, 1, srv.Store().Len())
}

func TestServer_CreateGameIsReproducible(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})

	a := createGame(t, srv.Handler(), 99)
	b := createGame(t, srv.Handler(), 99)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Tableau, b.Tableau)
	assert.Equal(t, a.Stock, b.Stock)
}

func TestServer_SeededServerDealsSameSequence(t *testing.T) {
	t.Parallel()
	seed := int64(2024)

	deal := func() GameView {
		srv, _ := newTestServer(t, Config{Seed: &seed})
		w := do(t, srv.Handler(), http.MethodPost, "/api/games", nil)
		require.Equal(t, http.StatusCreated, w.Code)
		return decodeView(t, w)
	}

	a, b := deal(), deal()
	assert.Equal(t, a.Seed, b.Seed)
	assert.Equal(t, a.Tableau, b.Tableau)
}

func TestServer_GetAndDeleteGame(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})
	h := srv.Handler()
	view := createGame(t, h, 1)

	w := do(t, h, http.MethodGet, "/api/games/"+view.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, view.Tableau, decodeView(t, w).Tableau)

	w = do(t, h, http.MethodDelete, "/api/games/"+view.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/api/games/"+view.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, w).Error)

	w = do(t, h, http.MethodDelete, "/api/games/"+view.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_DrawUndoRedeal(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})
	h := srv.Handler()
	view := createGame(t, h, 5)
	base := "/api/games/" + view.ID

	w := do(t, h, http.MethodPost, base+"/redeal", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodeRedealRefused, decodeError(t, w).Error)

	w = do(t, h, http.MethodPost, base+"/draw", nil)
	require.Equal(t, http.StatusOK, w.Code)
	drawn := decodeView(t, w)
	assert.Len(t, drawn.Stock, 23)
	require.Len(t, drawn.Waste, 1)
	assert.True(t, drawn.Waste[0].FaceUp)
	assert.Equal(t, 1, drawn.Moves)
	assert.True(t, drawn.CanUndo)

	w = do(t, h, http.MethodPost, base+"/undo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	undone := decodeView(t, w)
	assert.Equal(t, view.Stock, undone.Stock)
	assert.Empty(t, undone.Waste)
	assert.Equal(t, 0, undone.Moves)

	w = do(t, h, http.MethodPost, base+"/undo", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodeNothingToUndo, decodeError(t, w).Error)

	for range 24 {
		require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/draw", nil).Code)
	}
	w = do(t, h, http.MethodPost, base+"/redeal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	redealt := decodeView(t, w)
	assert.Empty(t, redealt.Waste)
	require.Len(t, redealt.Stock, 24)
	assert.Equal(t, view.Stock[0].ID, redealt.Stock[0].ID)
	assert.False(t, redealt.Stock[0].FaceUp)
}

func TestServer_Move(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})
	h := srv.Handler()

	var (
		view GameView
		sel  game.Selection
		dest game.PileRef
	)
	found := false
	for seed := int64(1); seed <= 50 && !found; seed++ {
		view = createGame(t, h, seed)
		sel, dest, found = findMove(sessionState(t, srv, view.ID))
	}
	require.True(t, found, "no seed produced a legal opening move")

	run := game.Run(sessionState(t, srv, view.ID), sel)
	w := do(t, h, http.MethodPost, "/api/games/"+view.ID+"/hints", CardRefData{Source: &sel.Source, CardIndex: &sel.CardIndex})
	require.Equal(t, http.StatusOK, w.Code)
	var hints HintsView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hints))
	if dest.Kind == game.Tableau {
		assert.Contains(t, hints.Tableau, dest.Index)
	} else {
		assert.Contains(t, hints.Foundation, dest.Index)
	}

	w = do(t, h, http.MethodPost, "/api/games/"+view.ID+"/move", MoveData{Source: &sel.Source, CardIndex: &sel.CardIndex, Dest: &dest})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved := decodeView(t, w)
	assert.Equal(t, 1, moved.Moves)

	var pile []CardView
	if dest.Kind == game.Tableau {
		pile = moved.Tableau[dest.Index]
	} else {
		pile = moved.Foundations[dest.Index]
	}
	assert.Equal(t, run[len(run)-1].ID(), pile[len(pile)-1].ID)
}

func TestServer_MoveRejected(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})
	h := srv.Handler()
	view := createGame(t, h, 3)

	src := game.TableauRef(0)
	w := do(t, h, http.MethodPost, "/api/games/"+view.ID+"/move", MoveData{Source: &src, Dest: &src})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodeIllegalMove, decodeError(t, w).Error)

	after := decodeView(t, do(t, h, http.MethodGet, "/api/games/"+view.ID, nil))
	assert.Equal(t, view.Tableau, after.Tableau)
	assert.Equal(t, 0, after.Moves)
}

func TestServer_BadRequests(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, Config{})
	h := srv.Handler()
	view := createGame(t, h, 3)

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"bad pile", "/move", `{"source":"tableau-9","dest":"foundation-0"}`, http.StatusBadRequest},
		{"not json", "/move", `{`, http.StatusBadRequest},
		{"hints bad pile", "/hints", `{"source":"heap"}`, http.StatusBadRequest},
		{"move without dest", "/move", `{"source":"tableau-0"}`, http.StatusBadRequest},
		{"hints without source", "/hints", `{"cardIndex":0}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/games/"+view.ID+tt.path, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, CodeInvalidRequest, decodeError(t, w).Error)
		})
	}

	w := do(t, h, http.MethodPost, "/api/games/nope/draw", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "16 characters")

	w = do(t, h, http.MethodGet, "/api/games/0123456789abcdef", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, w).Error)

	w = do(t, h, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, w).Error)
}

func TestServer_ReaperDropsIdleGames(t *testing.T) {
	t.Parallel()
	interval := time.Minute
	srv, clock := newTestServer(t, Config{IdleTimeout: 2 * interval, ReapInterval: interval})
	h := srv.Handler()
	ctx := t.Context()

	srv.startReaper(ctx)

	stale := createGame(t, h, 1)
	fresh := createGame(t, h, 2)

	clock.Advance(interval).MustWait(ctx)
	assert.Equal(t, 2, srv.Store().Len())

	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/games/"+fresh.ID, nil).Code)

	clock.Advance(interval).MustWait(ctx)
	assert.Equal(t, 1, srv.Store().Len())
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/games/"+stale.ID, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/games/"+fresh.ID, nil).Code)
}
