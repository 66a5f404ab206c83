package session

import events "github.com/calehall/tutor-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts RunOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.Connected:
			if opts.onConnected != nil {
				opts.onConnected(typedEvent.SessionID)
			}
		case events.Disconnected:
			if opts.onDisconnected != nil {
				opts.onDisconnected(typedEvent.Reason)
			}
		case events.Reconnecting:
			if opts.onReconnecting != nil {
				opts.onReconnecting(typedEvent.Attempt)
			}
		case events.ReconnectFailed:
			if opts.onReconnectFailed != nil {
				opts.onReconnectFailed()
			}
		case events.SessionError:
			if opts.onSessionError != nil {
				opts.onSessionError(typedEvent.Code, typedEvent.Message)
			}
		case events.StatusUpdated:
			if opts.onStatus != nil {
				opts.onStatus(typedEvent.Status, typedEvent.DifficultyLevel, typedEvent.DifficultyTitle, typedEvent.Progress, typedEvent.Message)
			}
		case events.CheckpointRecorded:
			if opts.onCheckpoint != nil {
				opts.onCheckpoint(typedEvent.StepID, typedEvent.Summary)
			}
		case events.TeacherSegment:
			if opts.onTeacherSegment != nil {
				opts.onTeacherSegment(typedEvent.Segment)
			}
		case events.TeacherSealed:
			if opts.onTeacherSealed != nil {
				opts.onTeacherSealed(typedEvent.Text)
			}
		case events.TranscriptEntryAdded:
			if opts.onTranscriptEntry != nil {
				opts.onTranscriptEntry(typedEvent.Role, typedEvent.Text, typedEvent.Final)
			}
		case events.TranscriptReplaced:
			if opts.onTranscriptReplaced != nil {
				opts.onTranscriptReplaced(typedEvent.Entries)
			}
		case events.BoardActionQueued:
			if opts.onBoardActionQueued != nil {
				opts.onBoardActionQueued(typedEvent.ActionKind)
			}
		case events.BoardActionRevealed:
			if opts.onBoardActionRevealed != nil {
				opts.onBoardActionRevealed(typedEvent.Index, typedEvent.ActionKind)
			}
		case events.BoardCleared:
			if opts.onBoardCleared != nil {
				opts.onBoardCleared()
			}
		case events.RewardUnlocked:
			if opts.onReward != nil {
				opts.onReward()
			}
		case events.PlaybackStarted:
			if opts.onPlaybackStarted != nil {
				opts.onPlaybackStarted(string(typedEvent.Source))
			}
		case events.PlaybackEnded:
			if opts.onPlaybackEnded != nil {
				opts.onPlaybackEnded(typedEvent.Transcript)
			}
		case events.GateOpened:
			if opts.onGateOpened != nil {
				opts.onGateOpened(typedEvent.GateKind)
			}
		case events.GateResolved:
			if opts.onGateResolved != nil {
				opts.onGateResolved(typedEvent.GateKind, typedEvent.Summary)
			}
		case events.TurnStateChanged:
			if opts.onTurnStateChanged != nil {
				opts.onTurnStateChanged(typedEvent.State)
			}
		case events.UserMessageSent:
			if opts.onUserMessageSent != nil {
				opts.onUserMessageSent(typedEvent.Text, typedEvent.IsInterruption)
			}
		case events.VoiceCaptureStarted:
			if opts.onVoiceCaptureStarted != nil {
				opts.onVoiceCaptureStarted()
			}
		case events.VoiceCaptureEnded:
			if opts.onVoiceCaptureEnded != nil {
				opts.onVoiceCaptureEnded()
			}
		case events.VoiceTranscriptReceived:
			if opts.onVoiceTranscript != nil {
				opts.onVoiceTranscript(typedEvent.Transcript)
			}
		case events.VoiceCaptureFailed:
			if opts.onVoiceCaptureFailed != nil {
				opts.onVoiceCaptureFailed(typedEvent.Reason)
			}
		}
	}
}
