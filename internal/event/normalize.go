package event

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Informational messages returned for structurally valid events that carry no
// persistable transcript. The exact wording is part of the callback contract.
const (
	MsgNoTranscript = "No transcript available."
	MsgNotFinalized = "Speech is not finalized yet. Waiting for more data."
)

// ValidationError reports the first field that violated the structural contract.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Msg)
}

// Disposition classifies the outcome of normalizing one event.
type Disposition int

const (
	// Rejected - the event failed structural validation.
	Rejected Disposition = iota
	// Ignored - the event is valid but carries no actionable transcript.
	Ignored
	// Accepted - the event is a terminal, non-empty result ready for persistence.
	Accepted
)

func (d Disposition) String() string {
	switch d {
	case Rejected:
		return "rejected"
	case Ignored:
		return "ignored"
	case Accepted:
		return "accepted"
	default:
		return "unknown"
	}
}

// Utterance holds the fields extracted from an accepted event, keyed by the
// conversation's request ID.
type Utterance struct {
	RequestID    string
	Transcript   string
	ChannelIndex int
	NumChannels  int
	Duration     float64
}

// Result is the outcome of Normalize. Exactly one of Err, Message, or
// Utterance is populated, matching the Disposition.
type Result struct {
	Disposition Disposition
	Err         *ValidationError // set when Rejected
	Message     string           // set when Ignored
	Utterance   *Utterance       // set when Accepted
}

// Normalize validates, classifies, and extracts one transcription event. It is
// a pure function of its input: no I/O, no retries. The sub-cases short-circuit
// in a fixed order so that non-terminal events can never reach storage:
// structural validation, then event type, then empty transcript, then
// speech finality.
func Normalize(ev *TranscriptionEvent) Result {
	if err := validate(ev); err != nil {
		return Result{Disposition: Rejected, Err: err}
	}

	if *ev.Type != "Results" {
		return Result{Disposition: Ignored, Message: MsgNoTranscript}
	}

	transcript := *ev.Channel.Alternatives[0].Transcript
	if strings.TrimSpace(transcript) == "" {
		return Result{Disposition: Ignored, Message: MsgNoTranscript}
	}

	if !*ev.SpeechFinal {
		return Result{Disposition: Ignored, Message: MsgNotFinalized}
	}

	index, _ := ev.ChannelIndex[0].Int64()
	total, _ := ev.ChannelIndex[1].Int64()

	return Result{
		Disposition: Accepted,
		Utterance: &Utterance{
			RequestID:    *ev.Metadata.RequestID,
			Transcript:   transcript,
			ChannelIndex: int(index),
			NumChannels:  int(total),
			Duration:     *ev.Duration,
		},
	}
}

// validate checks the full structural contract, failing on the first invalid
// field. Field names in errors use the wire (JSON) spelling.
func validate(ev *TranscriptionEvent) *ValidationError {
	if ev == nil {
		return &ValidationError{Field: "body", Msg: "event is required"}
	}
	if ev.Type == nil {
		return &ValidationError{Field: "type", Msg: "field is required"}
	}
	if err := validateChannelIndex(ev.ChannelIndex); err != nil {
		return err
	}
	if ev.Duration == nil {
		return &ValidationError{Field: "duration", Msg: "field is required"}
	}
	if *ev.Duration < 0 {
		return &ValidationError{Field: "duration", Msg: "must be non-negative"}
	}
	if ev.Start == nil {
		return &ValidationError{Field: "start", Msg: "field is required"}
	}
	if *ev.Start < 0 {
		return &ValidationError{Field: "start", Msg: "must be non-negative"}
	}
	if ev.IsFinal == nil {
		return &ValidationError{Field: "is_final", Msg: "field is required"}
	}
	if ev.SpeechFinal == nil {
		return &ValidationError{Field: "speech_final", Msg: "field is required"}
	}
	if ev.Channel == nil {
		return &ValidationError{Field: "channel", Msg: "field is required"}
	}
	if len(ev.Channel.Alternatives) == 0 {
		return &ValidationError{Field: "channel.alternatives", Msg: "must be a non-empty list"}
	}
	for i, alt := range ev.Channel.Alternatives {
		if err := validateAlternative(i, alt); err != nil {
			return err
		}
	}
	return validateMetadata(ev.Metadata)
}

func validateChannelIndex(pair []json.Number) *ValidationError {
	if pair == nil {
		return &ValidationError{Field: "channel_index", Msg: "field is required"}
	}
	if len(pair) < 2 {
		return &ValidationError{Field: "channel_index", Msg: "must be a pair [index, total_channels]"}
	}
	values := make([]int64, 2)
	for i := 0; i < 2; i++ {
		n, err := pair[i].Int64()
		if err != nil {
			return &ValidationError{Field: "channel_index", Msg: "must contain only integers"}
		}
		if n < 0 {
			return &ValidationError{Field: "channel_index", Msg: "must contain only non-negative integers"}
		}
		values[i] = n
	}
	if values[0] > values[1] {
		return &ValidationError{Field: "channel_index", Msg: "index must not exceed total_channels"}
	}
	return nil
}

func validateAlternative(i int, alt Alternative) *ValidationError {
	field := func(name string) string {
		return fmt.Sprintf("channel.alternatives[%d].%s", i, name)
	}
	if alt.Transcript == nil {
		return &ValidationError{Field: field("transcript"), Msg: "field is required"}
	}
	if alt.Confidence == nil {
		return &ValidationError{Field: field("confidence"), Msg: "field is required"}
	}
	if alt.Words == nil {
		return &ValidationError{Field: field("words"), Msg: "field is required"}
	}
	for j, w := range alt.Words {
		wordField := func(name string) string {
			return fmt.Sprintf("channel.alternatives[%d].words[%d].%s", i, j, name)
		}
		if w.Word == nil {
			return &ValidationError{Field: wordField("word"), Msg: "field is required"}
		}
		if w.Start == nil {
			return &ValidationError{Field: wordField("start"), Msg: "field is required"}
		}
		if w.End == nil {
			return &ValidationError{Field: wordField("end"), Msg: "field is required"}
		}
		if w.Confidence == nil {
			return &ValidationError{Field: wordField("confidence"), Msg: "field is required"}
		}
	}
	return nil
}

func validateMetadata(md *Metadata) *ValidationError {
	if md == nil {
		return &ValidationError{Field: "metadata", Msg: "field is required"}
	}
	if md.RequestID == nil || *md.RequestID == "" {
		return &ValidationError{Field: "metadata.request_id", Msg: "field is required"}
	}
	if md.ModelInfo == nil {
		return &ValidationError{Field: "metadata.model_info", Msg: "field is required"}
	}
	if md.ModelInfo.Name == nil {
		return &ValidationError{Field: "metadata.model_info.name", Msg: "field is required"}
	}
	if md.ModelInfo.Version == nil {
		return &ValidationError{Field: "metadata.model_info.version", Msg: "field is required"}
	}
	if md.ModelInfo.Arch == nil {
		return &ValidationError{Field: "metadata.model_info.arch", Msg: "field is required"}
	}
	if md.ModelUUID == nil {
		return &ValidationError{Field: "metadata.model_uuid", Msg: "field is required"}
	}
	return nil
}
