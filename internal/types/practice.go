package types

import (
	"encoding/json"
	"fmt"
)

const QuizOptionCount = 4

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// Validate enforces the structural contract: exactly four options and a
// correct answer that is one of them.
func (q *QuizQuestion) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("quiz question: empty question")
	}
	if len(q.Options) != QuizOptionCount {
		return fmt.Errorf("quiz question: want %d options, got %d", QuizOptionCount, len(q.Options))
	}
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return nil
		}
	}
	return fmt.Errorf("quiz question: correct answer not among options")
}

type CodingExercise struct {
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
	TestCase string `json:"test_case"`
}

func (e *CodingExercise) Validate() error {
	if e.Problem == "" || e.Solution == "" || e.TestCase == "" {
		return fmt.Errorf("coding exercise: problem, solution and test_case are all required")
	}
	return nil
}

// PracticeSession is what the generator produces per lesson alongside the
// content blocks: exactly three quiz questions and three coding exercises.
type PracticeSession struct {
	Questions []QuizQuestion   `json:"questions"`
	Exercises []CodingExercise `json:"exercises"`
}

const PracticeSessionSize = 3

func (p *PracticeSession) Validate() error {
	if len(p.Questions) != PracticeSessionSize {
		return fmt.Errorf("practice session: want %d questions, got %d", PracticeSessionSize, len(p.Questions))
	}
	if len(p.Exercises) != PracticeSessionSize {
		return fmt.Errorf("practice session: want %d exercises, got %d", PracticeSessionSize, len(p.Exercises))
	}
	for i := range p.Questions {
		if err := p.Questions[i].Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	for i := range p.Exercises {
		if err := p.Exercises[i].Validate(); err != nil {
			return fmt.Errorf("exercise %d: %w", i, err)
		}
	}
	return nil
}

func DecodeQuizQuestions(data []byte) ([]QuizQuestion, error) {
	if len(data) == 0 || string(data) == "null" {
		return []QuizQuestion{}, nil
	}
	var qs []QuizQuestion
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, err
	}
	return qs, nil
}
