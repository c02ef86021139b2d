package ws

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeWriter_WriteJSON_Concurrency(t *testing.T) {
	const writers = 10
	received := make(chan []string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var msgs []string
		for i := 0; i < writers; i++ {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			msgs = append(msgs, string(msg))
		}
		received <- msgs
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	wsConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	writer := NewSafeWriter(wsConn)
	defer writer.Close()

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, writer.WriteJSON(NewInfoMessage(fmt.Sprintf("message %d", i))))
		}(i)
	}
	wg.Wait()

	select {
	case msgs := <-received:
		require.Len(t, msgs, writers)
		uniq := make(map[string]struct{})
		for _, msg := range msgs {
			assert.Contains(t, msg, `"type":"info"`)
			uniq[msg] = struct{}{}
		}
		assert.Len(t, uniq, writers)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive all messages")
	}
}

func TestSafeWriter_WritePing(t *testing.T) {
	pinged := make(chan struct{}, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.SetPingHandler(func(string) error {
			pinged <- struct{}{}
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	wsConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	writer := NewSafeWriter(wsConn)
	defer writer.Close()

	require.NoError(t, writer.WritePing(time.Second))
	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("ping not received")
	}
	assert.NotEmpty(t, writer.RemoteAddr())
}
