package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, householdID int64) *Client {
	return &Client{
		hub:         hub,
		householdID: householdID,
		send:        make(chan []byte, sendBufferSize),
	}
}

func receive(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case data := <-c.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return got, true
	case <-time.After(50 * time.Millisecond):
		return Message{}, false
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger())

	c1 := mockClient(hub, 0)
	c2 := mockClient(hub, 0)
	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastScopedToHousehold(t *testing.T) {
	hub := NewHub(testLogger())

	mine := mockClient(hub, 1)
	other := mockClient(hub, 2)
	all := mockClient(hub, 0)
	for _, c := range []*Client{mine, other, all} {
		hub.Register(c)
	}

	hub.Broadcast(NewMessage(1, "footprint", "computed", 42, map[string]any{"total_emissions": 1769.6}))

	got, ok := receive(t, mine)
	if !ok {
		t.Fatal("subscribed client did not receive message")
	}
	if got.Type != "footprint_computed" {
		t.Errorf("type = %q, want %q", got.Type, "footprint_computed")
	}
	if got.HouseholdID != 1 {
		t.Errorf("household_id = %d, want 1", got.HouseholdID)
	}
	if got.ID != 42 {
		t.Errorf("id = %d, want 42", got.ID)
	}
	if got.Extra["total_emissions"] != 1769.6 {
		t.Errorf("extra total = %v, want 1769.6", got.Extra["total_emissions"])
	}

	if _, ok := receive(t, all); !ok {
		t.Error("wildcard client did not receive message")
	}
	if _, ok := receive(t, other); ok {
		t.Error("client for another household received message")
	}
}

func TestBroadcastGlobalMessage(t *testing.T) {
	hub := NewHub(testLogger())

	c := mockClient(hub, 7)
	hub.Register(c)

	hub.Broadcast(NewMessage(0, "tip", "seeded", 0, nil))

	if _, ok := receive(t, c); !ok {
		t.Error("household client did not receive global message")
	}
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Broadcast(NewMessage(1, "goal", "completed", 1, nil))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(testLogger())

	c := mockClient(hub, 0)
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(NewMessage(1, "test", "fill", int64(i), nil))
	}
	hub.Broadcast(NewMessage(1, "test", "dropped", 999, nil))

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("buffered = %d, want %d", got, sendBufferSize)
	}

	hub.Unregister(c)
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(testLogger())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			c := mockClient(hub, id%3)
			hub.Register(c)
			hub.Broadcast(NewMessage(id%3, "test", "concurrent", 0, nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}(int64(i))
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}

func TestHandleWebSocketRejectsBadHousehold(t *testing.T) {
	hub := NewHub(testLogger())
	h := HandleWebSocket(hub, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/ws?household_id=abc", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
