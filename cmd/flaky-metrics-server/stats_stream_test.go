package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatsStream(t *testing.T) {
	s, _ := newTestServer(t)
	m := liveMetrics(t, s)
	server := httptest.NewServer(s.setupRoutes())
	defer server.Close()

	resp, err := http.Get(server.URL + "/fast")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/stats"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first, second statsSnapshot
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first snapshot: %v", err)
	}
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read second snapshot: %v", err)
	}
	// The /fast request plus the stream request itself.
	if first.TotalRequests != 2 || !first.MetricsEnabled {
		t.Errorf("unexpected snapshot %+v", first)
	}
	if second.Timestamp.Before(first.Timestamp) {
		t.Errorf("snapshots out of order")
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	// The stream is observed once the handler returns, with the protocol switch status.
	deadline := time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(m.requestsTotal.WithLabelValues("/ws/stats", "101")) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("stats stream was not recorded after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStatsStreamRejectsPlainHTTP(t *testing.T) {
	s, _ := newTestServer(t)
	rr := doRequest(t, s.setupRoutes(), "GET", "/ws/stats")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for non-websocket request", rr.Code)
	}
}
