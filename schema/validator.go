package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed content_item.schema.json
var contentItemSchemaJSON string

// ContentItem is the validated shape of one raw item handed over by a source
// adapter before normalization.
type ContentItem struct {
	Source          string         `json:"source"`
	SourceItemID    string         `json:"source_item_id"`
	Title           string         `json:"title"`
	Body            *string        `json:"body,omitempty"`
	URL             *string        `json:"url,omitempty"`
	PublishedAt     *string        `json:"published_at,omitempty"`
	EngagementScore *float64       `json:"engagement_score,omitempty"`
	SourceMetadata  map[string]any `json:"source_metadata,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateContentItemPayload checks a raw item payload against the embedded
// schema and decodes it on success.
func ValidateContentItemPayload(payload json.RawMessage) (*ContentItem, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var item ContentItem
	if err := json.Unmarshal(normalized, &item); err != nil {
		return nil, fmt.Errorf("decode content item: %w", err)
	}
	if strings.TrimSpace(item.Source) == "" || strings.TrimSpace(item.SourceItemID) == "" {
		return nil, fmt.Errorf("source and source_item_id must be non-blank")
	}
	return &item, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("content_item.schema.json", strings.NewReader(contentItemSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("content_item.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}
		compiledSchema = schema
	})
	return compiledSchema, compiledSchemaErr
}

func decodeStrictJSON(payload json.RawMessage) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(new(any)); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing data")
	}
	return value, nil
}
