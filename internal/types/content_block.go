package types

import (
	"encoding/json"
	"fmt"
)

type BlockKind string

const (
	BlockText            BlockKind = "text"
	BlockInteractiveCode BlockKind = "interactive_code"
)

// ContentBlock is a pure JSON contract (not a DB model): a tagged union with
// exactly the fields its kind requires. Decoding rejects unknown kinds,
// missing fields and mixed variants, so every block read back from storage or
// from the generator is structurally sound.
type ContentBlock struct {
	Kind BlockKind `json:"kind"`

	// text
	Content string `json:"content,omitempty"`

	// interactive_code
	Description    string `json:"description,omitempty"`
	ExpectedOutput string `json:"expected_output,omitempty"`
}

func TextBlock(content string) ContentBlock {
	return ContentBlock{Kind: BlockText, Content: content}
}

func InteractiveCodeBlock(description, expectedOutput string) ContentBlock {
	return ContentBlock{Kind: BlockInteractiveCode, Description: description, ExpectedOutput: expectedOutput}
}

func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind           BlockKind `json:"kind"`
		Content        *string   `json:"content"`
		Description    *string   `json:"description"`
		ExpectedOutput *string   `json:"expected_output"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case BlockText:
		if raw.Content == nil {
			return fmt.Errorf("content block: text variant missing content")
		}
		if raw.Description != nil || raw.ExpectedOutput != nil {
			return fmt.Errorf("content block: text variant carries interactive_code fields")
		}
		*b = ContentBlock{Kind: BlockText, Content: *raw.Content}
		return nil
	case BlockInteractiveCode:
		if raw.Description == nil || raw.ExpectedOutput == nil {
			return fmt.Errorf("content block: interactive_code variant missing description or expected_output")
		}
		if raw.Content != nil {
			return fmt.Errorf("content block: interactive_code variant carries text fields")
		}
		*b = ContentBlock{Kind: BlockInteractiveCode, Description: *raw.Description, ExpectedOutput: *raw.ExpectedOutput}
		return nil
	case "":
		return fmt.Errorf("content block: missing kind")
	default:
		return fmt.Errorf("content block: unknown kind %q", raw.Kind)
	}
}

// DecodeContentBlocks parses a lesson's content column. A null or empty
// payload decodes to an empty slice (the "ungenerated" sentinel).
func DecodeContentBlocks(data []byte) ([]ContentBlock, error) {
	if len(data) == 0 || string(data) == "null" {
		return []ContentBlock{}, nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func EncodeContentBlocks(blocks []ContentBlock) ([]byte, error) {
	if blocks == nil {
		blocks = []ContentBlock{}
	}
	return json.Marshal(blocks)
}
