// Package ingest exposes the transcription callback endpoint: events are
// normalized and, when terminal, persisted through the transcript store.
package ingest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/John42506176Linux/voice-assist/internal/event"
	"github.com/John42506176Linux/voice-assist/internal/observability"
	"github.com/John42506176Linux/voice-assist/internal/publish"
	"github.com/John42506176Linux/voice-assist/internal/store"
)

// MsgStored is returned when an utterance was persisted.
const MsgStored = "Transcription processed and saved to SQLite."

// Response is the JSON body of the callback endpoint. Transcript is present
// only when persistence occurred.
type Response struct {
	Message    string `json:"message"`
	Transcript string `json:"transcript,omitempty"`
}

// ErrorResponse is the JSON body for rejected events and server failures.
type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Handler processes transcription callback events.
type Handler struct {
	store     store.TranscriptStore
	publisher *publish.Publisher
	logger    zerolog.Logger
}

// NewHandler creates a callback handler backed by the given store. The
// publisher may run in log-only mode; it is never load-bearing.
func NewHandler(st store.TranscriptStore, pub *publish.Publisher, logger zerolog.Logger) *Handler {
	return &Handler{store: st, publisher: pub, logger: logger}
}

// ProcessTranscription handles POST / callback deliveries.
func (h *Handler) ProcessTranscription() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Message: "method not allowed"})
			return
		}

		logger := h.logger.With().Str("correlation_id", observability.NewCorrelationID()).Logger()
		observability.RecordEventReceived()

		var ev event.TranscriptionEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			observability.RecordDisposition(event.Rejected.String())
			logger.Warn().Err(err).Msg("Malformed callback body")
			writeJSON(w, http.StatusUnprocessableEntity, decodeErrorResponse(err))
			return
		}

		res := event.Normalize(&ev)
		observability.RecordDisposition(res.Disposition.String())

		switch res.Disposition {
		case event.Rejected:
			logger.Warn().
				Str("field", res.Err.Field).
				Str("reason", res.Err.Msg).
				Msg("Event rejected by structural validation")
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Message: res.Err.Error(),
				Field:   res.Err.Field,
			})
			return

		case event.Ignored:
			logger.Debug().Str("message", res.Message).Msg("Event ignored")
			// Interim speech-final=false results fan out on the partial
			// topic for live consumers; best-effort only.
			if res.Message == event.MsgNotFinalized && ev.Metadata != nil && ev.Metadata.RequestID != nil {
				_ = h.publisher.PublishPartial(r.Context(), *ev.Metadata.RequestID, &ev)
			}
			writeJSON(w, http.StatusOK, Response{Message: res.Message})
			return
		}

		u := store.Utterance{
			RequestID:    res.Utterance.RequestID,
			Transcript:   res.Utterance.Transcript,
			ChannelIndex: res.Utterance.ChannelIndex,
			NumChannels:  res.Utterance.NumChannels,
			Duration:     res.Utterance.Duration,
		}

		start := time.Now()
		err := h.store.Upsert(r.Context(), u)
		observability.RecordStoreOperation("upsert", start, err)
		if err != nil {
			logger.Error().
				Err(err).
				Str("request_id", u.RequestID).
				Msg("Failed to store utterance")
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "failed to save transcription"})
			return
		}

		logger.Info().
			Str("request_id", u.RequestID).
			Int("channel_index", u.ChannelIndex).
			Int("num_channels", u.NumChannels).
			Float64("duration", u.Duration).
			Msg("Utterance stored")

		_ = h.publisher.PublishStored(r.Context(), u.RequestID, u)

		writeJSON(w, http.StatusOK, Response{Message: MsgStored, Transcript: u.Transcript})
	}
}

// decodeErrorResponse maps a JSON decoding failure to the validation error
// body, naming the offending field when the decoder identifies one.
func decodeErrorResponse(err error) ErrorResponse {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return ErrorResponse{
			Message: "invalid value for field " + typeErr.Field,
			Field:   typeErr.Field,
		}
	}
	return ErrorResponse{Message: "malformed JSON body"}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
