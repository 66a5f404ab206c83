package events

const (
	// KindStatusUpdated identifies a server session status snapshot.
	KindStatusUpdated Kind = "status.updated"
	// KindCheckpointRecorded identifies a recorded resume checkpoint.
	KindCheckpointRecorded Kind = "status.checkpoint_recorded"
)

// StatusUpdated carries the server's session status snapshot.
type StatusUpdated struct {
	Base
	Status          string
	DifficultyLevel int
	DifficultyTitle string
	Progress        float64
	Message         string
}

// NewStatusUpdated creates a status updated event.
func NewStatusUpdated(status string, difficultyLevel int, difficultyTitle string, progress float64, message string) StatusUpdated {
	return StatusUpdated{
		Base:            NewBase(KindStatusUpdated),
		Status:          status,
		DifficultyLevel: difficultyLevel,
		DifficultyTitle: difficultyTitle,
		Progress:        progress,
		Message:         message,
	}
}

// CheckpointRecorded carries a resume checkpoint for the current step.
type CheckpointRecorded struct {
	Base
	StepID  int
	Summary string
}

// NewCheckpointRecorded creates a checkpoint recorded event.
func NewCheckpointRecorded(stepID int, summary string) CheckpointRecorded {
	return CheckpointRecorded{Base: NewBase(KindCheckpointRecorded), StepID: stepID, Summary: summary}
}
