package gate

import (
	"encoding/json"
	"fmt"
)

// QuizQuestion is one multiple-choice question, evaluated locally
// without a server round trip.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	Difficulty   string   `json:"difficulty,omitempty"`
}

type QuizPayload struct {
	Questions []QuizQuestion `json:"questions"`
}

func ParseQuizPayload(raw json.RawMessage) (QuizPayload, error) {
	var payload QuizPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return QuizPayload{}, fmt.Errorf("failed to parse quiz payload: %w", err)
	}
	if len(payload.Questions) == 0 {
		return QuizPayload{}, fmt.Errorf("quiz payload carried no questions")
	}
	return payload, nil
}

// QuizResult is the local evaluation of a submitted answer sheet.
type QuizResult struct {
	Correct int
	Total   int
}

// Passed reports whether at least half the answers were right.
func (r QuizResult) Passed() bool {
	return r.Total > 0 && r.Correct*2 >= r.Total
}

// Marker renders the result as the inline token the server scans
// user messages for. The failing verdict deliberately avoids the
// substring "CORRECT", which the server matches loosely.
func (r QuizResult) Marker() string {
	verdict := "WRONG"
	if r.Passed() {
		verdict = "CORRECT"
	}
	return fmt.Sprintf("[QUIZ_RESULT: %s %d/%d]", verdict, r.Correct, r.Total)
}

// Evaluate scores an answer sheet against the quiz. Missing answers
// count as wrong; surplus answers are ignored.
func (p QuizPayload) Evaluate(answers []int) QuizResult {
	result := QuizResult{Total: len(p.Questions)}
	for i, question := range p.Questions {
		if i < len(answers) && answers[i] == question.CorrectIndex {
			result.Correct++
		}
	}
	return result
}

// Flashcard is one front/back study card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type FlashcardPayload struct {
	Cards []Flashcard `json:"cards"`
}

func ParseFlashcardPayload(raw json.RawMessage) (FlashcardPayload, error) {
	var payload FlashcardPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return FlashcardPayload{}, fmt.Errorf("failed to parse flashcard payload: %w", err)
	}
	if len(payload.Cards) == 0 {
		return FlashcardPayload{}, fmt.Errorf("flashcard payload carried no cards")
	}
	return payload, nil
}
