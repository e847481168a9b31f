package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/John42506176Linux/voice-assist/internal/store"
)

// Server serves the dashboard page, the JSON read API, and the websocket
// refresh channel. It is strictly read-only against the store.
type Server struct {
	store        store.TranscriptStore
	state        *SessionState
	hub          *Hub
	manual       *ManualStrategy // nil unless the manual strategy is active
	pollInterval time.Duration
	logger       zerolog.Logger
}

// NewServer creates the dashboard HTTP surface. manual may be nil when the
// interval strategy is in use.
func NewServer(st store.TranscriptStore, state *SessionState, hub *Hub, manual *ManualStrategy, pollInterval time.Duration, logger zerolog.Logger) *Server {
	return &Server{
		store:        st,
		state:        state,
		hub:          hub,
		manual:       manual,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Routes registers the dashboard handlers on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handlePage)
	mux.HandleFunc("/refresh", s.handleRefresh)
	mux.HandleFunc("/ws", s.hub.ServeWS())
	mux.HandleFunc("/api/conversations", s.handleConversations)
	mux.HandleFunc("/api/utterances", s.handleUtterances)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	snap := s.state.Current()
	selected := r.URL.Query().Get("request_id")

	data := PageData{
		Conversations: snap.Conversations,
		Selected:      selected,
		LastRefresh:   s.state.LastRefresh(),
		PollSeconds:   s.pollInterval.Seconds(),
		ManualRefresh: s.manual != nil,
	}
	if selected != "" {
		data.Messages = MessagesFor(snap.Utterances[selected])
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RenderPage(w, data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render dashboard page")
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.manual != nil {
		s.manual.Trigger()
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.store.ListConversations(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list conversations")
		http.Error(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}
	if conversations == nil {
		conversations = []store.Conversation{}
	}
	writeJSON(w, conversations)
}

func (s *Server) handleUtterances(w http.ResponseWriter, r *http.Request) {
	requestID := r.URL.Query().Get("request_id")
	if requestID == "" {
		http.Error(w, "request_id is required", http.StatusBadRequest)
		return
	}

	utterances, err := s.store.ListUtterances(r.Context(), requestID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", requestID).Msg("Failed to list utterances")
		http.Error(w, "failed to list utterances", http.StatusInternalServerError)
		return
	}
	writeJSON(w, utterances)
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
