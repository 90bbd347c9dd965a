package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"cribbage/internal/engine"
	"cribbage/internal/session"
	"cribbage/internal/storage"
)

type testEnv struct {
	ts    *httptest.Server
	mgr   *session.Manager
	store *storage.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := storage.New(mr.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mgr := session.NewManager(store, zerolog.Nop(), 10*time.Millisecond)
	ts := httptest.NewServer(New(mgr, store, zerolog.Nop()))
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, mgr: mgr, store: store}
}

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func wsURL(ts *httptest.Server) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws"
}

func wsDial(ctx context.Context, t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, wsURL(ts), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

// wsSend marshals a payload into the envelope and writes it.
func wsSend(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := session.Encode(msgType, payload)
	if err != nil {
		t.Fatalf("encode %s: %v", msgType, err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

func wsRead(ctx context.Context, t *testing.T, conn *websocket.Conn) session.Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	var msg session.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal ws message: %v", err)
	}
	return msg
}

// readUntil reads messages until one of the wanted type arrives.
func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string) session.Message {
	t.Helper()
	for {
		msg := wsRead(ctx, t, conn)
		if msg.Type == msgType {
			return msg
		}
	}
}

// waitForPhase reads state messages until the game reaches the wanted phase.
func waitForPhase(ctx context.Context, t *testing.T, conn *websocket.Conn, phase engine.Phase) engine.GameView {
	t.Helper()
	for {
		var view engine.GameView
		decodePayload(t, readUntil(ctx, t, conn, session.TypeGameState), &view)
		if view.Phase == phase {
			return view
		}
	}
}

// decodePayload unmarshals a message payload into out.
func decodePayload(t *testing.T, msg session.Message, out any) {
	t.Helper()
	if err := json.Unmarshal(msg.Payload, out); err != nil {
		t.Fatalf("unmarshal %s payload: %v", msg.Type, err)
	}
}

// createGame opens a connection, creates a game, and returns the connection
// with its seat.
func createGame(ctx context.Context, t *testing.T, ts *httptest.Server, name string, playerCount int) (*websocket.Conn, session.SeatPayload) {
	t.Helper()
	conn := wsDial(ctx, t, ts)
	wsSend(ctx, t, conn, session.TypeCreateGame, session.CreateGamePayload{
		PlayerName:  name,
		PlayerCount: playerCount,
	})
	var seat session.SeatPayload
	decodePayload(t, readUntil(ctx, t, conn, session.TypeGameCreated), &seat)
	return conn, seat
}

// joinGame opens a second connection into an existing game.
func joinGame(ctx context.Context, t *testing.T, ts *httptest.Server, gameID, name string) (*websocket.Conn, session.SeatPayload) {
	t.Helper()
	conn := wsDial(ctx, t, ts)
	wsSend(ctx, t, conn, session.TypeJoinGame, session.JoinGamePayload{GameID: gameID, PlayerName: name})
	var seat session.SeatPayload
	decodePayload(t, readUntil(ctx, t, conn, session.TypeGameJoined), &seat)
	return conn, seat
}
