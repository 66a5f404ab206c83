package session

import "fmt"

const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Difficulty is the server-controlled teaching level. The titles
// mirror what the server reports in status frames; the local table
// only covers the window between a change request and the next
// status frame.
type Difficulty struct {
	Level int
	Title string
}

var difficultyTitles = map[int]string{
	1: "Beginner",
	2: "Elementary",
	3: "Intermediate",
	4: "Advanced",
	5: "Expert",
}

func DifficultyForLevel(level int) (Difficulty, error) {
	title, ok := difficultyTitles[level]
	if !ok {
		return Difficulty{}, fmt.Errorf("difficulty level must be between %d and %d, got %d", MinDifficulty, MaxDifficulty, level)
	}
	return Difficulty{Level: level, Title: title}, nil
}
