// Package event defines the streaming transcription callback contract and the
// normalization rules that decide whether an event produces a durable utterance.
package event

import "encoding/json"

// TranscriptionEvent is one speech-recognition update as delivered by the
// streaming provider's callback. Required scalar fields are pointers so that a
// missing field is distinguishable from a zero value after JSON decoding.
type TranscriptionEvent struct {
	// Type discriminates the event; only "Results" carries a transcript.
	Type *string `json:"type"`

	// ChannelIndex is the pair [index, total_channels]. Elements are kept as
	// json.Number so non-integer values can be reported instead of silently
	// truncated.
	ChannelIndex []json.Number `json:"channel_index"`

	Duration *float64 `json:"duration"`
	Start    *float64 `json:"start"`

	// IsFinal marks the recognition pass as stable; SpeechFinal marks the
	// utterance as complete. Only speech-final events are persisted.
	IsFinal     *bool `json:"is_final"`
	SpeechFinal *bool `json:"speech_final"`

	Channel  *Channel  `json:"channel"`
	Metadata *Metadata `json:"metadata"`

	FromFinalize bool `json:"from_finalize"`
}

// Channel holds the ranked candidate transcriptions for one audio channel.
type Channel struct {
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative is one candidate transcription with word-level timing.
type Alternative struct {
	Transcript *string  `json:"transcript"`
	Confidence *float64 `json:"confidence"`
	Words      []Word   `json:"words"`
}

// Word is a single word-level span within an alternative.
type Word struct {
	Word       *string  `json:"word"`
	Start      *float64 `json:"start"`
	End        *float64 `json:"end"`
	Confidence *float64 `json:"confidence"`
}

// ModelInfo is recognition-model provenance. It is validated but never used by
// persistence logic.
type ModelInfo struct {
	Name    *string `json:"name"`
	Version *string `json:"version"`
	Arch    *string `json:"arch"`
}

// Metadata identifies the conversation an event belongs to.
type Metadata struct {
	RequestID *string    `json:"request_id"`
	ModelInfo *ModelInfo `json:"model_info"`
	ModelUUID *string    `json:"model_uuid"`
}
