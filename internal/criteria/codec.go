package criteria

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
)

// The decoders accept whatever shape the storage or client layer hands over:
// a JSON-encoded string, raw bytes, an already-structured value, or nil. Input
// that fails to parse or does not match the document schema yields the
// caller's default instead of an error.

var documentSchema = jsonschema.MustCompileString("criteria-document.json", `{
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"description": {"type": "string"},
			"weight": {"type": "number"},
			"levels": {
				"type": "object",
				"additionalProperties": {
					"type": "object",
					"properties": {
						"description": {"type": "string"},
						"score": {"type": "number"}
					}
				}
			}
		},
		"required": ["name"]
	}
}`)

var scoreSetSchema = jsonschema.MustCompileString("score-set.json", `{
	"type": "object",
	"additionalProperties": {
		"anyOf": [
			{"type": "number"},
			{
				"type": "object",
				"properties": {
					"score": {"type": "number"},
					"level": {"type": "string"}
				},
				"required": ["score"]
			}
		]
	}
}`)

var feedbackSetSchema = jsonschema.MustCompileString("feedback-set.json", `{
	"type": "object",
	"additionalProperties": {"type": "string"}
}`)

var checklistSchema = jsonschema.MustCompileString("checklist.json", `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"id": {"type": "string"},
			"text": {"type": "string"},
			"checked": {"type": "boolean"}
		},
		"required": ["text"]
	}
}`)

var stringListSchema = jsonschema.MustCompileString("string-list.json", `{
	"type": "array",
	"items": {"type": "string"}
}`)

// DecodeDocument decodes a raw criteria document, returning fallback on any
// parse or shape failure.
func DecodeDocument(raw any, fallback Document) Document {
	var doc Document
	if !decodeInto(raw, documentSchema, &doc) {
		return fallback
	}
	return doc
}

// DecodeScores decodes a raw evaluation score document. Entries may be bare
// numbers or {score, level} objects; ScoreEntry lifts bare numbers while
// unmarshaling.
func DecodeScores(raw any, fallback ScoreSet) ScoreSet {
	var scores ScoreSet
	if !decodeInto(raw, scoreSetSchema, &scores) {
		return fallback
	}
	return scores
}

// DecodeFeedback decodes a raw per-criterion feedback document.
func DecodeFeedback(raw any, fallback FeedbackSet) FeedbackSet {
	var feedback FeedbackSet
	if !decodeInto(raw, feedbackSetSchema, &feedback) {
		return fallback
	}
	return feedback
}

// DecodeChecklist decodes a raw checklist document.
func DecodeChecklist(raw any, fallback []ChecklistItem) []ChecklistItem {
	var items []ChecklistItem
	if !decodeInto(raw, checklistSchema, &items) {
		return fallback
	}
	return items
}

// DecodeStringList decodes a raw list of URLs or similar opaque strings.
func DecodeStringList(raw any, fallback []string) []string {
	var values []string
	if !decodeInto(raw, stringListSchema, &values) {
		return fallback
	}
	return values
}

// EncodeDocument serializes a criteria document for persistence.
func EncodeDocument(doc Document) datatypes.JSON {
	if doc == nil {
		doc = Document{}
	}
	return encode(doc, "{}")
}

// EncodeScores serializes a score document for persistence.
func EncodeScores(scores ScoreSet) datatypes.JSON {
	if scores == nil {
		scores = ScoreSet{}
	}
	return encode(scores, "{}")
}

// EncodeFeedback serializes a feedback document for persistence.
func EncodeFeedback(feedback FeedbackSet) datatypes.JSON {
	if feedback == nil {
		feedback = FeedbackSet{}
	}
	return encode(feedback, "{}")
}

// EncodeChecklist serializes a checklist for persistence.
func EncodeChecklist(items []ChecklistItem) datatypes.JSON {
	if items == nil {
		items = []ChecklistItem{}
	}
	return encode(items, "[]")
}

// EncodeStringList serializes a string list for persistence.
func EncodeStringList(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	return encode(values, "[]")
}

func encode(value any, empty string) datatypes.JSON {
	payload, err := json.Marshal(value)
	if err != nil {
		return datatypes.JSON(empty)
	}
	return datatypes.JSON(payload)
}

// decodeInto normalizes raw into JSON bytes, checks them against the schema
// and unmarshals into out. Returns false when any step fails.
func decodeInto(raw any, schema *jsonschema.Schema, out any) bool {
	payload, ok := rawBytes(raw)
	if !ok || len(payload) == 0 {
		return false
	}

	var shape any
	if err := json.Unmarshal(payload, &shape); err != nil {
		return false
	}
	if err := schema.Validate(shape); err != nil {
		return false
	}

	return json.Unmarshal(payload, out) == nil
}

func rawBytes(raw any) ([]byte, bool) {
	switch value := raw.(type) {
	case nil:
		return nil, false
	case string:
		return []byte(value), true
	case []byte:
		return value, true
	case datatypes.JSON:
		return []byte(value), true
	case json.RawMessage:
		return []byte(value), true
	default:
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, false
		}
		return payload, true
	}
}
