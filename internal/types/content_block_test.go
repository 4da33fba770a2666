package types

import (
	"encoding/json"
	"testing"
)

func TestContentBlockDecodeTextVariant(t *testing.T) {
	var b ContentBlock
	if err := json.Unmarshal([]byte(`{"kind":"text","content":"Variables hold values."}`), &b); err != nil {
		t.Fatalf("decode text block: %v", err)
	}
	if b.Kind != BlockText {
		t.Fatalf("kind: want=%q got=%q", BlockText, b.Kind)
	}
	if b.Content != "Variables hold values." {
		t.Fatalf("content: got=%q", b.Content)
	}
}

func TestContentBlockDecodeInteractiveCodeVariant(t *testing.T) {
	var b ContentBlock
	raw := `{"kind":"interactive_code","description":"Print hello","expected_output":"hello"}`
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("decode interactive_code block: %v", err)
	}
	if b.Kind != BlockInteractiveCode {
		t.Fatalf("kind: want=%q got=%q", BlockInteractiveCode, b.Kind)
	}
	if b.Description != "Print hello" || b.ExpectedOutput != "hello" {
		t.Fatalf("fields: got=%+v", b)
	}
}

func TestContentBlockRejectsMalformedVariants(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"unknown kind", `{"kind":"video","content":"x"}`},
		{"missing kind", `{"content":"x"}`},
		{"text missing content", `{"kind":"text"}`},
		{"text with code fields", `{"kind":"text","content":"x","description":"y"}`},
		{"code missing expected_output", `{"kind":"interactive_code","description":"y"}`},
		{"code with text field", `{"kind":"interactive_code","description":"y","expected_output":"z","content":"x"}`},
	}
	for _, tc := range cases {
		var b ContentBlock
		if err := json.Unmarshal([]byte(tc.raw), &b); err == nil {
			t.Fatalf("%s: expected decode error", tc.name)
		}
	}
}

func TestDecodeContentBlocksSentinel(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte(""), []byte("null"), []byte("[]")} {
		blocks, err := DecodeContentBlocks(raw)
		if err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
		if len(blocks) != 0 {
			t.Fatalf("decode %q: want empty slice, got %d blocks", raw, len(blocks))
		}
	}
}

func TestContentBlocksRoundTrip(t *testing.T) {
	in := []ContentBlock{
		TextBlock("Intro paragraph."),
		InteractiveCodeBlock("Write a loop", "0 1 2"),
	}
	raw, err := EncodeContentBlocks(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeContentBlocks(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestQuizQuestionValidate(t *testing.T) {
	q := QuizQuestion{
		Question:      "What does := do?",
		Options:       []string{"declares and assigns", "compares", "divides", "comments"},
		CorrectAnswer: "declares and assigns",
	}
	if err := q.Validate(); err != nil {
		t.Fatalf("valid question rejected: %v", err)
	}

	bad := q
	bad.Options = q.Options[:3]
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for 3 options")
	}

	bad = q
	bad.CorrectAnswer = "not an option"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for answer outside options")
	}
}

func TestPracticeSessionValidateCardinality(t *testing.T) {
	q := QuizQuestion{
		Question:      "q",
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: "a",
	}
	ex := CodingExercise{Problem: "p", Solution: "s", TestCase: "t"}

	ok := PracticeSession{
		Questions: []QuizQuestion{q, q, q},
		Exercises: []CodingExercise{ex, ex, ex},
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid session rejected: %v", err)
	}

	short := PracticeSession{Questions: []QuizQuestion{q, q}, Exercises: []CodingExercise{ex, ex, ex}}
	if err := short.Validate(); err == nil {
		t.Fatalf("expected error for 2 questions")
	}

	long := PracticeSession{Questions: []QuizQuestion{q, q, q}, Exercises: []CodingExercise{ex, ex, ex, ex}}
	if err := long.Validate(); err == nil {
		t.Fatalf("expected error for 4 exercises")
	}
}
