package lobby

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tickarena.ai/internal/player"
	"tickarena.ai/internal/protocol"
)

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, Options{Empty: &EmptyOptions{}}.Validate())
	require.Error(t, Options{}.Validate())
	require.Error(t, Options{Empty: &EmptyOptions{}, TCP: &player.TCPOptions{}}.Validate())
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestConnectAll_FailedSlotBecomesErroredPlayer(t *testing.T) {
	port := freePort(t)
	opts := []Options{
		{Empty: &EmptyOptions{}},
		{TCP: &player.TCPOptions{Port: port, Token: "t"}},
		{TCP: &player.TCPOptions{Port: freePort(t), AcceptTimeout: 0.1}},
	}

	go func() {
		var c net.Conn
		var err error
		for i := 0; i < 50; i++ {
			if c, err = net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port))); err == nil {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if err != nil {
			return
		}
		defer c.Close()
		_ = protocol.WriteFrame(c, []byte("t"))
		_, _ = protocol.ReadFrame(c)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	players, err := ConnectAll[int, int](ctx, opts, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, player.ErrAcceptTimeout)
	require.Len(t, players, 3)

	require.IsType(t, player.EmptyPlayer[int, int]{}, players[0])
	require.IsType(t, &player.TCPPlayer[int, int]{}, players[1])
	require.IsType(t, player.ErroredPlayer[int, int]{}, players[2])

	_, err = players[2].GetAction(0, nil)
	require.Error(t, err)
	require.NoError(t, players[1].(*player.TCPPlayer[int, int]).Close())
}

func TestConnectAll_JoinsEveryFailure(t *testing.T) {
	opts := []Options{
		{TCP: &player.TCPOptions{Port: freePort(t), AcceptTimeout: 0.1}},
		{Empty: &EmptyOptions{}},
		{TCP: &player.TCPOptions{Port: freePort(t), AcceptTimeout: 0.1}},
	}
	players, err := ConnectAll[int, int](context.Background(), opts, nil)
	require.ErrorIs(t, err, player.ErrAcceptTimeout)
	require.ErrorContains(t, err, "player 0")
	require.ErrorContains(t, err, "player 2")
	require.IsType(t, player.EmptyPlayer[int, int]{}, players[1])

	players, err = ConnectAll[int, int](context.Background(), []Options{{Empty: &EmptyOptions{}}}, nil)
	require.NoError(t, err)
	require.Len(t, players, 1)
}
