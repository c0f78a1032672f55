package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := NewClient(TopicNotifications)

	hub.Register(client)
	if hub.ClientCount() != 1 || hub.TopicCount(TopicNotifications) != 1 {
		t.Fatalf("unexpected counts after register: %d clients, %d subscribers",
			hub.ClientCount(), hub.TopicCount(TopicNotifications))
	}

	hub.Unregister(client)
	if hub.ClientCount() != 0 || hub.TopicCount(TopicNotifications) != 0 {
		t.Fatal("expected hub to be empty after unregister")
	}
	if _, ok := <-client.Send; ok {
		t.Error("expected Send to be closed")
	}
	hub.Unregister(client)
}

func TestHub_PublishOnlyToTopic(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	subscribed := NewClient(TopicNotifications)
	other := NewClient("appointments")
	hub.Register(subscribed)
	hub.Register(other)

	err := hub.Publish(context.Background(), Event{Type: "medication-reminder", Topic: TopicNotifications, ResourceID: "r1"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-subscribed.Send:
		var got Event
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.ResourceID != "r1" {
			t.Errorf("expected resource r1, got %q", got.ResourceID)
		}
	default:
		t.Fatal("subscriber did not receive the event")
	}
	select {
	case <-other.Send:
		t.Fatal("non-subscriber received the event")
	default:
	}
}

func TestHub_FullBufferDoesNotBlock(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := &Client{ID: "slow", Topics: []string{TopicNotifications}, Send: make(chan []byte, 1)}
	hub.Register(client)

	for i := 0; i < 5; i++ {
		hub.Publish(context.Background(), Event{Topic: TopicNotifications})
	}
	if len(client.Send) != 1 {
		t.Errorf("expected buffer to hold 1 event, got %d", len(client.Send))
	}
}

func TestHub_ProcessMessage(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := NewClient(TopicNotifications)
	hub.Register(client)

	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Topics: []string{"appointments"}})
	if hub.TopicCount("appointments") != 1 {
		t.Fatal("expected subscription to appointments")
	}

	hub.ProcessMessage(client, ClientMessage{Action: "unsubscribe", Topics: []string{TopicNotifications}})
	if hub.TopicCount(TopicNotifications) != 0 {
		t.Error("expected unsubscribe from notifications")
	}
	if len(client.Topics) != 1 || client.Topics[0] != "appointments" {
		t.Errorf("unexpected topics: %v", client.Topics)
	}

	hub.ProcessMessage(client, ClientMessage{Action: "bogus", Topics: []string{"x"}})
	if hub.TopicCount("x") != 0 {
		t.Error("unknown action must be ignored")
	}
}

func TestHub_ConcurrentRegisterUnregister(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := NewClient(TopicNotifications)
			hub.Register(c)
			hub.Publish(context.Background(), Event{Topic: TopicNotifications})
			hub.Unregister(c)
		}()
	}
	wg.Wait()
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestHandler_HandleConnectRequiresWebSocket(t *testing.T) {
	h := NewHandler(NewHub(zerolog.Nop()))
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/ws", nil), rec)

	if err := h.HandleConnect(c); err == nil && rec.Code == http.StatusSwitchingProtocols {
		t.Error("plain HTTP request must not be upgraded")
	}
}

func TestHandler_FullUpgrade(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	e := echo.New()
	NewHandler(hub).RegisterRoutes(e.Group(""))

	server := httptest.NewServer(e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?topics=appointments"
	conn, resp, err := gorillawebsocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.TopicCount("appointments") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.TopicCount(TopicNotifications) != 1 || hub.TopicCount("appointments") != 1 {
		t.Fatal("expected client on both default and requested topics")
	}

	hub.Publish(context.Background(), Event{Type: "appointment-upcoming", Topic: "appointments", ResourceID: "a1"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received Event
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("read: %v", err)
	}
	if received.Type != "appointment-upcoming" || received.ResourceID != "a1" {
		t.Errorf("unexpected event: %+v", received)
	}
}
