package sync

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iiifhub/pkg/models"
)

func TestEventFromTask(t *testing.T) {
	publicURL := func(p string) string { return "http://hub/files/" + p }

	ev := EventFromTask(models.UploadTask{ID: "1", Status: models.TaskUploading, Progress: 40}, publicURL)
	assert.Equal(t, EventProgress, ev.Type)
	assert.Nil(t, ev.Resource)

	ev = EventFromTask(models.UploadTask{ID: "2", Status: models.TaskError, LastError: "x"}, publicURL)
	assert.Equal(t, EventFailed, ev.Type)

	ev = EventFromTask(models.UploadTask{ID: "3", Filename: "a.jpg", ContentType: "image/jpeg", Status: models.TaskUploaded, ResourceID: "r3", Path: "b.jpg"}, publicURL)
	assert.Equal(t, EventCompleted, ev.Type)
	require.NotNil(t, ev.Resource)
	assert.Equal(t, "r3", ev.Resource.ID)
	assert.Equal(t, "http://hub/files/b.jpg", ev.Resource.URL)
}

func TestTCPServerBroadcast(t *testing.T) {
	hub := NewHub(nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(ln.Addr().String(), hub).Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(conn)

	welcome, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, welcome, `"type":"welcome"`)

	require.Eventually(t, func() bool { return hub.Stats().TCPClients == 1 }, time.Second, 5*time.Millisecond)

	hub.UploadListener(nil)(models.UploadTask{ID: "t1", Status: models.TaskUploading, Progress: 55})

	line, err := r.ReadString('\n')
	require.NoError(t, err)
	var ev UploadEvent
	require.NoError(t, json.Unmarshal([]byte(line), &ev))
	assert.Equal(t, EventProgress, ev.Type)
	assert.Equal(t, 55, ev.Task.Progress)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestWebsocketBroadcast(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	r := gin.New()
	r.GET("/ws", WSHandler(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "welcome")

	require.Eventually(t, func() bool { return hub.Stats().WSClients == 1 }, time.Second, 5*time.Millisecond)
	hub.BroadcastJSON(UploadEvent{Type: EventFailed, Task: models.UploadTask{ID: "t2"}})

	_, msg, err = ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"upload.failed"`)
}
