// tutor-tui is a terminal client for a live tutoring session: it
// renders the transcript and whiteboard, optionally voices the
// teacher through a local speaker, and maps keys onto the session
// controls.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	session "github.com/calehall/tutor-core/core"
	"github.com/calehall/tutor-core/core/audio/miniaudio"
	"github.com/calehall/tutor-core/core/gate"
	sttdeepgram "github.com/calehall/tutor-core/core/speechtotext/deepgram"
	ttsdeepgram "github.com/calehall/tutor-core/core/texttospeech/deepgram"
	"github.com/calehall/tutor-core/core/transport/ws"
)

func main() {
	var (
		serverURL  = flag.String("server", "http://localhost:8000", "tutoring server base URL")
		lessonID   = flag.String("lesson", "intro", "lesson to start")
		userID     = flag.String("user", "demo", "user id")
		difficulty = flag.Int("difficulty", 3, "initial difficulty (1-5)")
		language   = flag.String("language", "en", "tutoring language")
		resumeID   = flag.String("resume", "", "session id to resume")
		withVoice  = flag.Bool("voice", false, "enable speaker playback and microphone capture")
		localSTT   = flag.Bool("local-stt", false, "transcribe voice locally instead of on the server (needs DEEPGRAM_API_KEY)")
	)
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transportClient, err := ws.NewClient(*serverURL,
		ws.WithLesson(*lessonID, *userID),
		ws.WithInitialDifficulty(*difficulty),
		ws.WithLanguage(*language),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create transport: %v\n", err)
		os.Exit(1)
	}

	sessionOpts := []session.SessionOption{session.WithTransport(transportClient)}
	if *withVoice {
		audioClient, err := miniaudio.NewClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open audio device: %v\n", err)
			os.Exit(1)
		}
		defer audioClient.Close()

		if err := audioClient.StartPlayback(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start playback: %v\n", err)
			os.Exit(1)
		}

		sessionOpts = append(sessionOpts,
			session.WithAudioOutput(audioClient),
			session.WithVoiceCapturer(audioClient),
		)

		if _, ok := os.LookupEnv("DEEPGRAM_API_KEY"); ok {
			ttsClient, err := ttsdeepgram.NewTextToSpeechClient(ctx, ttsdeepgram.VoiceAsteria)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to create speech client: %v\n", err)
				os.Exit(1)
			}
			sessionOpts = append(sessionOpts,
				session.WithSynthesizer(ttsdeepgram.NewSynthesizer(ttsClient)))

			if *localSTT {
				sessionOpts = append(sessionOpts,
					session.WithLocalTranscriber(sttdeepgram.NewTranscriptionClient()))
			}
		} else if *localSTT {
			fmt.Fprintln(os.Stderr, "-local-stt needs DEEPGRAM_API_KEY")
			os.Exit(1)
		}
	}

	sess := session.NewSession(sessionOpts...)

	model := newModel(sess)
	program := tea.NewProgram(model, tea.WithAltScreen())

	refresh := func() { program.Send(refreshMsg{}) }
	runOpts := []session.RunOption{
		session.WithTranscriptEntryCallback(func(string, string, bool) { refresh() }),
		session.WithTeacherSegmentCallback(func(string) { refresh() }),
		session.WithTranscriptReplacedCallback(func(int) { refresh() }),
		session.WithStatusCallback(func(string, int, string, float64, string) { refresh() }),
		session.WithBoardActionRevealedCallback(func(int, string) { refresh() }),
		session.WithBoardClearedCallback(func() { refresh() }),
		session.WithRewardCallback(func() { program.Send(rewardMsg{}) }),
		session.WithTurnStateChangedCallback(func(string) { refresh() }),
		session.WithConnectedCallback(func(string) { refresh() }),
		session.WithDisconnectedCallback(func(string) { refresh() }),
		session.WithReconnectingCallback(func(int) { refresh() }),
		session.WithReconnectFailedCallback(refresh),
		session.WithSessionErrorCallback(func(string, string) { refresh() }),
		session.WithQuizOpenedCallback(func(quiz gate.QuizPayload) {
			program.Send(quizOpenedMsg{quiz: quiz})
		}),
		session.WithFlashcardsOpenedCallback(func(deck gate.FlashcardPayload) {
			program.Send(flashcardsOpenedMsg{deck: deck})
		}),
		session.WithGateResolvedCallback(func(string, string) { refresh() }),
	}
	if *resumeID != "" {
		runOpts = append(runOpts, session.WithResumeSession(*resumeID))
	}

	if _, err := sess.Start(ctx, runOpts...); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start session: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "terminal client failed: %v\n", err)
		os.Exit(1)
	}
}
