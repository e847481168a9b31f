package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/John42506176Linux/voice-assist/internal/event"
	"github.com/John42506176Linux/voice-assist/internal/publish"
	"github.com/John42506176Linux/voice-assist/internal/store"
)

// fakeStore records upserts in memory so handler behavior can be asserted
// without a database.
type fakeStore struct {
	rows      map[string]store.Utterance
	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]store.Utterance)}
}

func (f *fakeStore) Upsert(_ context.Context, u store.Utterance) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.rows[u.RequestID] = u
	return nil
}

func (f *fakeStore) ListConversations(context.Context) ([]store.Conversation, error) {
	return nil, nil
}

func (f *fakeStore) ListUtterances(_ context.Context, requestID string) ([]store.Utterance, error) {
	u, ok := f.rows[requestID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return []store.Utterance{u}, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close() error               { return nil }

func newTestHandler(st store.TranscriptStore) *Handler {
	pub := publish.New(nil, zerolog.Nop())
	return NewHandler(st, pub, zerolog.Nop())
}

func postEvent(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ProcessTranscription()(rec, req)
	return rec
}

func resultsEvent(transcript string, speechFinal bool) string {
	payload := map[string]any{
		"type":          "Results",
		"channel_index": []int{0, 2},
		"duration":      3.5,
		"start":         0.0,
		"is_final":      true,
		"speech_final":  speechFinal,
		"channel": map[string]any{
			"alternatives": []map[string]any{
				{
					"transcript": transcript,
					"confidence": 0.9,
					"words": []map[string]any{
						{"word": "hello", "start": 0.0, "end": 0.5, "confidence": 0.95},
					},
				},
			},
		},
		"metadata": map[string]any{
			"request_id": "abc123",
			"model_info": map[string]any{"name": "nova-2", "version": "2024-01-01", "arch": "nova"},
			"model_uuid": "uuid-1",
		},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return body
}

func TestProcessTranscription_StoresTerminalEvent(t *testing.T) {
	st := newFakeStore()
	h := newTestHandler(st)

	rec := postEvent(t, h, resultsEvent("hello there", true))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeResponse(t, rec)
	if body["message"] != MsgStored {
		t.Errorf("Expected message %q, got %v", MsgStored, body["message"])
	}
	if body["transcript"] != "hello there" {
		t.Errorf("Expected transcript 'hello there', got %v", body["transcript"])
	}

	u, ok := st.rows["abc123"]
	if !ok {
		t.Fatal("Expected a row for request abc123")
	}
	if u.Transcript != "hello there" || u.ChannelIndex != 0 || u.NumChannels != 2 || u.Duration != 3.5 {
		t.Errorf("Unexpected stored row: %+v", u)
	}
}

func TestProcessTranscription_NotSpeechFinal(t *testing.T) {
	st := newFakeStore()
	h := newTestHandler(st)

	rec := postEvent(t, h, resultsEvent("hello there", false))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	body := decodeResponse(t, rec)
	if body["message"] != event.MsgNotFinalized {
		t.Errorf("Expected message %q, got %v", event.MsgNotFinalized, body["message"])
	}
	if _, present := body["transcript"]; present {
		t.Error("Expected no transcript field for ignored event")
	}
	if len(st.rows) != 0 {
		t.Error("Expected store to be unchanged for non-final event")
	}
}

func TestProcessTranscription_EmptyTranscript(t *testing.T) {
	st := newFakeStore()
	h := newTestHandler(st)

	rec := postEvent(t, h, resultsEvent("", true))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	if body["message"] != event.MsgNoTranscript {
		t.Errorf("Expected message %q, got %v", event.MsgNoTranscript, body["message"])
	}
	if len(st.rows) != 0 {
		t.Error("Expected store to be unchanged for empty transcript")
	}
}

func TestProcessTranscription_NonResultsType(t *testing.T) {
	st := newFakeStore()
	h := newTestHandler(st)

	body := strings.Replace(resultsEvent("hello there", true), `"Results"`, `"UtteranceEnd"`, 1)
	rec := postEvent(t, h, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp["message"] != event.MsgNoTranscript {
		t.Errorf("Expected message %q, got %v", event.MsgNoTranscript, resp["message"])
	}
	if len(st.rows) != 0 {
		t.Error("Expected store to be unchanged for non-Results event")
	}
}

func TestProcessTranscription_ValidationFailure(t *testing.T) {
	st := newFakeStore()
	h := newTestHandler(st)

	// channel_index with a single element fails the pair contract.
	body := strings.Replace(resultsEvent("hello there", true), `"channel_index":[0,2]`, `"channel_index":[0]`, 1)
	rec := postEvent(t, h, body)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if resp["field"] != "channel_index" {
		t.Errorf("Expected offending field 'channel_index', got %v", resp["field"])
	}
	if len(st.rows) != 0 {
		t.Error("Expected store to be unchanged for rejected event")
	}
}

func TestProcessTranscription_MalformedJSON(t *testing.T) {
	h := newTestHandler(newFakeStore())

	rec := postEvent(t, h, `{"type": "Results",`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", rec.Code)
	}
}

func TestProcessTranscription_StoreFailure(t *testing.T) {
	st := newFakeStore()
	st.upsertErr = errors.New("disk full")
	h := newTestHandler(st)

	rec := postEvent(t, h, resultsEvent("hello there", true))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rec.Code)
	}
}

func TestProcessTranscription_Overwrite(t *testing.T) {
	st := newFakeStore()
	h := newTestHandler(st)

	postEvent(t, h, resultsEvent("hello there", true))
	rec := postEvent(t, h, resultsEvent("goodbye now", true))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if len(st.rows) != 1 {
		t.Fatalf("Expected exactly one row, got %d", len(st.rows))
	}
	if st.rows["abc123"].Transcript != "goodbye now" {
		t.Errorf("Expected replace semantics, got transcript '%s'", st.rows["abc123"].Transcript)
	}
}

func TestProcessTranscription_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ProcessTranscription()(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}
