package events

const (
	// KindTranscriptEntryAdded identifies addition of a transcript entry.
	KindTranscriptEntryAdded Kind = "transcript.entry_added"
	// KindTeacherSegment identifies a streamed teacher text segment.
	KindTeacherSegment Kind = "transcript.teacher_segment"
	// KindTeacherSealed identifies sealing of the in-flight teacher entry.
	KindTeacherSealed Kind = "transcript.teacher_sealed"
	// KindTranscriptReplaced identifies wholesale transcript replacement.
	KindTranscriptReplaced Kind = "transcript.replaced"
)

// TranscriptEntryAdded marks addition of a transcript entry.
type TranscriptEntryAdded struct {
	Base
	Role  string
	Text  string
	Final bool
}

// NewTranscriptEntryAdded creates a transcript entry added event.
func NewTranscriptEntryAdded(role, text string, final bool) TranscriptEntryAdded {
	return TranscriptEntryAdded{Base: NewBase(KindTranscriptEntryAdded), Role: role, Text: text, Final: final}
}

// TeacherSegment carries a streamed teacher text segment.
type TeacherSegment struct {
	Base
	Segment string
}

// NewTeacherSegment creates a teacher segment event.
func NewTeacherSegment(segment string) TeacherSegment {
	return TeacherSegment{Base: NewBase(KindTeacherSegment), Segment: segment}
}

// TeacherSealed marks sealing of the in-flight teacher entry with its
// authoritative final text.
type TeacherSealed struct {
	Base
	Text string
}

// NewTeacherSealed creates a teacher sealed event.
func NewTeacherSealed(text string) TeacherSealed {
	return TeacherSealed{Base: NewBase(KindTeacherSealed), Text: text}
}

// TranscriptReplaced marks wholesale replacement of the transcript from
// restored history.
type TranscriptReplaced struct {
	Base
	Entries int
}

// NewTranscriptReplaced creates a transcript replaced event.
func NewTranscriptReplaced(entries int) TranscriptReplaced {
	return TranscriptReplaced{Base: NewBase(KindTranscriptReplaced), Entries: entries}
}
