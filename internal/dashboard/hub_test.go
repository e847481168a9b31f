package dashboard

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/John42506176Linux/voice-assist/internal/store"
)

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	srv := httptest.NewServer(hub.ServeWS())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	// Registration races the broadcast; give the hub a moment.
	time.Sleep(20 * time.Millisecond)

	hub.Broadcast(Snapshot{
		Conversations: []store.Conversation{{RequestID: "abc123", StartedAt: time.Unix(100, 0)}},
		Utterances: map[string][]store.Utterance{
			"abc123": {{RequestID: "abc123", Transcript: "hello there", ChannelIndex: 0}},
		},
		Taken: time.Now(),
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got Snapshot
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if len(got.Conversations) != 1 || got.Conversations[0].RequestID != "abc123" {
		t.Errorf("Unexpected snapshot: %+v", got)
	}
	if got.Utterances["abc123"][0].Transcript != "hello there" {
		t.Errorf("Unexpected utterances: %+v", got.Utterances)
	}
}
