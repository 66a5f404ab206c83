package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	session "github.com/calehall/tutor-core/core"
	"github.com/calehall/tutor-core/core/gate"
	"github.com/calehall/tutor-core/core/transcript"
)

type refreshMsg struct{}

type rewardMsg struct{}

type quizOpenedMsg struct {
	quiz gate.QuizPayload
}

type flashcardsOpenedMsg struct {
	deck gate.FlashcardPayload
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	teacherStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	systemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	boardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	alertStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

type model struct {
	sess *session.Session

	viewport viewport.Model
	input    textarea.Model

	quiz        *gate.QuizPayload
	quizAnswers []int
	quizCursor  int
	flashcards  *gate.FlashcardPayload
	cardIndex   int
	cardFlipped bool

	notice string
	width  int
	height int
	ready  bool
}

func newModel(sess *session.Session) model {
	input := textarea.New()
	input.Placeholder = "Ask the teacher anything..."
	input.Focus()
	input.Prompt = "│ "
	input.CharLimit = 2000
	input.SetHeight(2)
	input.ShowLineNumbers = false

	return model{sess: sess, input: input}
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		m.input.SetWidth(msg.Width - 4)
		m.refresh()
		return m, nil

	case refreshMsg:
		m.refresh()
		return m, nil

	case rewardMsg:
		m.notice = "Level up! The teacher unlocked a reward."
		m.refresh()
		return m, nil

	case quizOpenedMsg:
		m.quiz = &msg.quiz
		m.quizAnswers = make([]int, len(msg.quiz.Questions))
		for i := range m.quizAnswers {
			m.quizAnswers[i] = -1
		}
		m.quizCursor = 0
		return m, nil

	case flashcardsOpenedMsg:
		m.flashcards = &msg.deck
		m.cardIndex = 0
		m.cardFlipped = false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.quiz != nil {
		return m.handleQuizKey(msg)
	}
	if m.flashcards != nil {
		return m.handleFlashcardKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if text == "" {
			return m, nil
		}
		if err := m.sess.SendMessage(text); err != nil {
			m.notice = err.Error()
		}
		m.refresh()
		return m, nil
	case "ctrl+p":
		if err := m.sess.Pause(); err != nil {
			m.notice = err.Error()
		}
		return m, nil
	case "ctrl+r":
		if err := m.sess.Resume(); err != nil {
			m.notice = err.Error()
		}
		return m, nil
	case "ctrl+q":
		if err := m.sess.RequestQuiz(); err != nil {
			m.notice = err.Error()
		}
		return m, nil
	case "ctrl+f":
		if err := m.sess.RequestFlashcards(); err != nil {
			m.notice = err.Error()
		}
		return m, nil
	case "ctrl+v":
		m.toggleVoice()
		return m, nil
	case "ctrl+up", "ctrl+down":
		m.adjustDifficulty(msg.String() == "ctrl+up")
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleQuizKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	question := m.quiz.Questions[m.quizCursor]

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if err := m.sess.DismissGate(); err != nil {
			m.notice = err.Error()
		}
		m.quiz = nil
		return m, nil
	case "up":
		if m.quizAnswers[m.quizCursor] > 0 {
			m.quizAnswers[m.quizCursor]--
		} else if m.quizAnswers[m.quizCursor] < 0 {
			m.quizAnswers[m.quizCursor] = 0
		}
		return m, nil
	case "down":
		if m.quizAnswers[m.quizCursor] < len(question.Options)-1 {
			m.quizAnswers[m.quizCursor]++
		}
		return m, nil
	case "enter":
		if m.quizAnswers[m.quizCursor] < 0 {
			return m, nil
		}
		if m.quizCursor < len(m.quiz.Questions)-1 {
			m.quizCursor++
			return m, nil
		}
		result, err := m.sess.SubmitQuizAnswers(m.quizAnswers)
		if err != nil {
			m.notice = err.Error()
		} else {
			m.notice = fmt.Sprintf("Quiz graded: %d/%d correct", result.Correct, result.Total)
		}
		m.quiz = nil
		m.refresh()
		return m, nil
	}
	return m, nil
}

func (m model) handleFlashcardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if err := m.sess.DismissGate(); err != nil {
			m.notice = err.Error()
		}
		m.flashcards = nil
		return m, nil
	case "enter", " ":
		m.cardFlipped = !m.cardFlipped
		return m, nil
	case "right":
		if m.cardIndex < len(m.flashcards.Cards)-1 {
			m.cardIndex++
			m.cardFlipped = false
		}
		return m, nil
	case "left":
		if m.cardIndex > 0 {
			m.cardIndex--
			m.cardFlipped = false
		}
		return m, nil
	}
	return m, nil
}

func (m *model) toggleVoice() {
	if m.sess.Turn() == session.TurnStateCapturingVoice {
		if err := m.sess.StopVoiceCapture(); err != nil {
			m.notice = err.Error()
		}
		return
	}
	if err := m.sess.StartVoiceCapture(); err != nil {
		m.notice = err.Error()
	}
}

func (m *model) adjustDifficulty(up bool) {
	level := m.sess.Difficulty().Level
	if up {
		level++
	} else {
		level--
	}
	if err := m.sess.ChangeDifficulty(level); err != nil {
		m.notice = err.Error()
		return
	}
	m.notice = fmt.Sprintf("Requested difficulty %d", level)
}

func (m *model) refresh() {
	if !m.ready {
		return
	}

	snapshot := m.sess.Snapshot()

	var out strings.Builder
	for _, entry := range snapshot.Transcript {
		out.WriteString(renderEntry(entry, m.viewport.Width))
		out.WriteString("\n")
	}
	m.viewport.SetContent(out.String())
	m.viewport.GotoBottom()
}

func renderEntry(entry transcript.Entry, width int) string {
	text := wordwrap.String(entry.Text, max(20, width-10))
	switch entry.Role {
	case transcript.RoleUser:
		return userStyle.Render("You: ") + text
	case transcript.RoleSystem:
		return systemStyle.Render(text)
	default:
		label := "Teacher: "
		if !entry.Final {
			label = "Teacher (typing): "
		}
		return titleStyle.Render(label) + teacherStyle.Render(text)
	}
}

func (m model) View() string {
	if !m.ready {
		return "starting session..."
	}

	if m.quiz != nil {
		return m.viewQuiz()
	}
	if m.flashcards != nil {
		return m.viewFlashcards()
	}

	snapshot := m.sess.Snapshot()

	var sections []string
	sections = append(sections, m.viewport.View())

	if board := m.viewBoard(snapshot); board != "" {
		sections = append(sections, board)
	}

	status := fmt.Sprintf("%s | %s | %s | progress %.0f%%",
		snapshot.Lifecycle, snapshot.Turn, snapshot.Difficulty.Title, snapshot.Progress*100)
	if m.notice != "" {
		status += "  " + alertStyle.Render(m.notice)
	}
	sections = append(sections, statusStyle.Render(status))
	sections = append(sections, m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m model) viewBoard(snapshot session.Snapshot) string {
	if len(snapshot.Board) == 0 {
		return ""
	}

	var lines []string
	for i, action := range snapshot.Board {
		if i > snapshot.BoardCursor {
			break
		}
		var payload struct {
			Text string `json:"text"`
		}
		json.Unmarshal(action.Payload, &payload)
		if payload.Text == "" {
			lines = append(lines, fmt.Sprintf("[%s]", action.Kind))
			continue
		}
		lines = append(lines, payload.Text)
	}
	return boardStyle.Width(m.width - 2).Render(strings.Join(lines, "\n"))
}

func (m model) viewQuiz() string {
	question := m.quiz.Questions[m.quizCursor]

	var out strings.Builder
	out.WriteString(titleStyle.Render(fmt.Sprintf("Quiz — question %d of %d", m.quizCursor+1, len(m.quiz.Questions))))
	out.WriteString("\n\n")
	out.WriteString(wordwrap.String(question.Question, max(20, m.width-4)))
	out.WriteString("\n\n")
	for i, option := range question.Options {
		marker := "  "
		if m.quizAnswers[m.quizCursor] == i {
			marker = "> "
		}
		out.WriteString(marker + option + "\n")
	}
	out.WriteString("\n" + statusStyle.Render("up/down select, enter confirm, esc dismiss"))
	return out.String()
}

func (m model) viewFlashcards() string {
	card := m.flashcards.Cards[m.cardIndex]

	face := card.Front
	label := "front"
	if m.cardFlipped {
		face = card.Back
		label = "back"
	}

	var out strings.Builder
	out.WriteString(titleStyle.Render(fmt.Sprintf("Flashcard %d of %d (%s)", m.cardIndex+1, len(m.flashcards.Cards), label)))
	out.WriteString("\n\n")
	out.WriteString(boardStyle.Width(m.width - 4).Render(wordwrap.String(face, max(20, m.width-8))))
	out.WriteString("\n\n" + statusStyle.Render("enter flip, left/right browse, esc done"))
	return out.String()
}
