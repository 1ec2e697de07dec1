package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"tickarena.ai/internal/player"
	"tickarena.ai/internal/protocol"
)

type view struct {
	Tick int `json:"tick"`
}

type action struct {
	Dir string `json:"dir"`
}

func listen(t *testing.T, opts Options) *player.Pending[*Player[view, action]] {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	p := Listen[view, action](ctx, opts, nil)
	require.NotNil(t, p.Addr())
	return p
}

func dial(t *testing.T, p *player.Pending[*Player[view, action]], token string) *websocket.Conn {
	t.Helper()
	url := "ws://" + p.Addr().String() + DefaultPath
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(token)))
	return c
}

func wait(t *testing.T, p *player.Pending[*Player[view, action]]) (*Player[view, action], error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Wait(ctx)
}

func TestWS_RoundTrip(t *testing.T) {
	p := listen(t, Options{Token: "tok"})
	c := dial(t, p, "tok")
	pl, err := wait(t, p)
	require.NoError(t, err)

	go func() {
		_, b, err := c.ReadMessage()
		if err != nil {
			return
		}
		var m protocol.GetActionMsg
		if json.Unmarshal(b, &m) != nil || m.Type != protocol.TypeGetAction {
			return
		}
		_ = c.WriteJSON(protocol.NewAction(json.RawMessage(`{"dir":"E"}`)))
	}()

	a, err := pl.GetAction(view{Tick: 1}, nil)
	require.NoError(t, err)
	require.Equal(t, action{Dir: "E"}, a)

	require.NoError(t, pl.Close())
	_, b, err := c.ReadMessage()
	require.NoError(t, err)
	base, err := protocol.DecodeBase(b)
	require.NoError(t, err)
	require.Equal(t, protocol.TypeFinish, base.Type)
}

func TestWS_TokenMismatch(t *testing.T) {
	p := listen(t, Options{Token: "tok"})
	c := dial(t, p, "nope")

	_, err := wait(t, p)
	require.ErrorIs(t, err, player.ErrTokenMismatch)

	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = c.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}

func TestWS_AcceptTimeout(t *testing.T) {
	p := listen(t, Options{AcceptTimeout: 0.1})
	_, err := wait(t, p)
	require.ErrorIs(t, err, player.ErrAcceptTimeout)
}

func TestWS_LateHandshakeIsTurnedAway(t *testing.T) {
	p := listen(t, Options{})
	late, _, err := websocket.DefaultDialer.Dial("ws://"+p.Addr().String()+DefaultPath, nil)
	require.NoError(t, err)
	defer late.Close()

	first := dial(t, p, "")
	pl, err := wait(t, p)
	require.NoError(t, err)
	require.NotNil(t, pl)
	require.NotNil(t, first)

	require.NoError(t, late.WriteMessage(websocket.TextMessage, []byte("")))
	_ = late.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = late.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseTryAgainLater, websocket.CloseGoingAway), "got %v", err)
}
