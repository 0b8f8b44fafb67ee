package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-Leong/dutch.cards/internal/auth"
	"github.com/a-Leong/dutch.cards/internal/game"
	"github.com/a-Leong/dutch.cards/internal/models"
)

func newTestServer(t *testing.T) (*game.DutchGame, *httptest.Server) {
	t.Helper()
	auth.Init("server-test-secret")
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	g := game.NewWithSeed(log, 7)
	srv := New(g, log)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return g, ts
}

func wsToken(t *testing.T, uid uuid.UUID) string {
	t.Helper()
	token, err := auth.CreateToken(uid)
	require.NoError(t, err)
	return token
}

// dialWS opens a game socket. The caller owns the connection; inbound frames
// are not consumed unless discardFrames is attached.
func dialWS(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + token
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	return conn
}

// discardFrames drains updates so server writes never back up on this client.
func discardFrames(conn *websocket.Conn) {
	go func() {
		for {
			var v map[string]any
			if err := wsjson.Read(context.Background(), conn, &v); err != nil {
				return
			}
		}
	}()
}

func seated(g *game.DutchGame, uid uuid.UUID) func() bool {
	return func() bool {
		p, ok := g.Snapshot().Players[uid]
		return ok && p.Online
	}
}

func TestWSRequiresValidToken(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/ws?token=not-a-token")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSSessionSeatsAndUnseats(t *testing.T) {
	g, ts := newTestServer(t)
	uid := uuid.New()

	conn := dialWS(t, ts, wsToken(t, uid))
	discardFrames(conn)
	require.Eventually(t, seated(g, uid), 2*time.Second, 10*time.Millisecond)

	conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool {
		return len(g.Snapshot().Players) == 0
	}, 2*time.Second, 10*time.Millisecond, "a pregame disconnect frees the seat")
}

func TestReconnectKeepsSeat(t *testing.T) {
	g, ts := newTestServer(t)
	uid := uuid.New()
	token := wsToken(t, uid)

	first := dialWS(t, ts, token)
	discardFrames(first)
	require.Eventually(t, seated(g, uid), 2*time.Second, 10*time.Millisecond)

	// The same identity dials again. Tearing down the stale session must not
	// unseat the player behind the live one.
	second := dialWS(t, ts, token)
	discardFrames(second)

	assert.Never(t, func() bool {
		_, ok := g.Snapshot().Players[uid]
		return !ok
	}, 500*time.Millisecond, 10*time.Millisecond, "reconnect must not free the seat")
	assert.True(t, g.Snapshot().Players[uid].Online)

	// The live connection still owns the session; closing it unseats.
	second.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool {
		return len(g.Snapshot().Players) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSupersededCloseDoesNotStallDelivery(t *testing.T) {
	g, ts := newTestServer(t)
	uid := uuid.New()
	token := wsToken(t, uid)

	// A peer that never reads cannot answer a close handshake.
	stalled := dialWS(t, ts, token)
	defer stalled.CloseNow()
	require.Eventually(t, seated(g, uid), 2*time.Second, 10*time.Millisecond)

	second := dialWS(t, ts, token)
	defer second.Close(websocket.StatusNormalClosure, "")

	// The connect broadcast must reach the new session promptly even while
	// the stale connection is mid-handshake.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var msg map[string]any
	require.NoError(t, wsjson.Read(ctx, second, &msg))
	assert.Equal(t, "update", msg["id"])
}

func TestMalformedFrameRejectedAtTransport(t *testing.T) {
	g, ts := newTestServer(t)
	uid := uuid.New()

	conn := dialWS(t, ts, wsToken(t, uid))
	defer conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, seated(g, uid), 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var first map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &first), "connect broadcast expected")

	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{"command": map[string]any{}}))

	var msg map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "reject", msg["id"])
	assert.Equal(t, "missing command id", msg["reason"])
}

func TestRejectionDeliveredToOriginator(t *testing.T) {
	g, ts := newTestServer(t)
	uid := uuid.New()

	conn := dialWS(t, ts, wsToken(t, uid))
	defer conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, seated(g, uid), 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var first map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &first), "connect broadcast expected")

	// Ready with a lone player refuses the implied start.
	require.NoError(t, wsjson.Write(ctx, conn,
		clientEnvelope{Command: models.Command{ID: models.CmdToggleReady}}))

	var rej game.Rejection
	require.NoError(t, wsjson.Read(ctx, conn, &rej))
	assert.Equal(t, "reject", rej.ID)
	assert.Equal(t, models.CmdToggleReady, rej.CommandID)
	assert.Contains(t, rej.Reason, "at least two players")
}

func TestTokenEndpointGuestMode(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/auth/token", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tr tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))
	uid, err := auth.VerifyToken(tr.Token)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, uid)
}
