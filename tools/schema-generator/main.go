// Generates the JSON Schema for the transcription callback contract, for
// integration partners that validate payloads before delivery.
package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/John42506176Linux/voice-assist/internal/event"
)

func main() {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
	}

	schema := r.Reflect(&event.TranscriptionEvent{})
	schema.Title = "Transcription Callback Event"
	schema.Description = "Schema for streaming speech-transcription callback events accepted on POST /."

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("Error marshaling schema: %v", err)
	}

	if err := os.WriteFile("transcription-event.schema.json", data, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated schema at transcription-event.schema.json")
}
