package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookcheck/internal/engine"
	"github.com/roach88/bookcheck/internal/harness"
)

func TestHub_BroadcastDropsWhenSubscriberFull(t *testing.T) {
	h := newHub[int]()
	sub := h.Subscribe(1)
	defer h.Unsubscribe(sub)

	// The second broadcast must not block even though nobody reads.
	h.Broadcast(1)
	h.Broadcast(2)

	assert.Equal(t, 1, <-sub.C())
	select {
	case v := <-sub.C():
		t.Fatalf("dropped frame was delivered: %v", v)
	default:
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := newHub[int]()
	sub := h.Subscribe(1)
	h.Unsubscribe(sub)

	_, open := <-sub.C()
	assert.False(t, open)
}

func TestServer_StartStreamsVerdictFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scripts := []harness.Script{
		{Name: "demo", Text: "1,limit,bid,10,100-open,1\nbbo-10,100,0,0"},
	}

	var srv *Server
	controller := harness.NewController(engine.New(),
		harness.WithObserver(func(u harness.Update) { srv.Publish(u) }))
	srv = New(ctx, controller, scripts, nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// First frame is the initial state snapshot.
	var initial Frame
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Nil(t, initial.Verdict)
	assert.False(t, initial.State.Started)

	require.NoError(t, conn.WriteJSON(Control{Op: "start"}))

	verdicts := 0
	deadline := time.Now().Add(5 * time.Second)
	for verdicts < 2 && time.Now().Before(deadline) {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var frame Frame
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Verdict != nil {
			verdicts++
			assert.True(t, frame.Verdict.Success)
		}
	}
	assert.Equal(t, 2, verdicts)
}

func TestServer_RejectsUnknownOp(t *testing.T) {
	controller := harness.NewController(engine.New())
	srv := New(context.Background(), controller, nil, nil)

	err := srv.apply(Control{Op: "teleport"})
	require.Error(t, err)
}

func TestServer_ControlsMapToController(t *testing.T) {
	controller := harness.NewController(engine.New())
	srv := New(context.Background(), controller, nil, nil)

	require.NoError(t, srv.apply(Control{Op: "pause"}))
	assert.True(t, controller.State().Paused)

	require.NoError(t, srv.apply(Control{Op: "resume"}))
	assert.False(t, controller.State().Paused)

	require.NoError(t, srv.apply(Control{Op: "delay", DelayMS: 250}))
	assert.Equal(t, 250*time.Millisecond, controller.State().Delay)

	require.NoError(t, srv.apply(Control{Op: "clear"}))
}

func TestServer_StartUnknownScript(t *testing.T) {
	controller := harness.NewController(engine.New())
	srv := New(context.Background(), controller, []harness.Script{{Name: "a", Text: ""}}, nil)

	assert.Error(t, srv.apply(Control{Op: "start", Script: "missing"}))
	assert.NoError(t, srv.apply(Control{Op: "start", Script: "a"}))
}
