// Package events defines the typed session event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - connection.*
//   - status.*
//   - transcript.*
//   - board.*
//   - playback.*
//   - gate.*
//   - turn.*
//   - voice.*
//
// Semantics used across the package:
//
//   - Segment: append-only text piece emitted in stream order.
//   - Sealed: terminal immutable text for the current teacher turn.
//   - Revealed: the progressive board presentation reached this item.
//   - Resolved: a gated interaction was answered or dismissed by the user.
//
// connection events
//
//   - Connected (connection.connected): the session channel is established.
//   - Disconnected (connection.disconnected): the session channel was lost.
//   - Reconnecting (connection.reconnecting): an automatic reconnect attempt
//     is in progress; carries the attempt number.
//   - ReconnectFailed (connection.reconnect_failed): bounded retry exhausted.
//   - SessionError (connection.session_error): the server reported an error;
//     carries the server error code and human-readable message.
//
// status events
//
//   - StatusUpdated (status.updated): session status snapshot from the
//     server (state, difficulty level and title, progress).
//   - CheckpointRecorded (status.checkpoint_recorded): the server recorded a
//     resume checkpoint for the current step.
//
// transcript events
//
//   - TranscriptEntryAdded (transcript.entry_added): a new entry entered the
//     transcript (user, teacher or system).
//   - TeacherSegment (transcript.teacher_segment): streamed teacher text
//     segment folded into the in-flight entry.
//   - TeacherSealed (transcript.teacher_sealed): the in-flight teacher entry
//     was sealed with its authoritative final text.
//   - TranscriptReplaced (transcript.replaced): the transcript was replaced
//     wholesale from restored history.
//
// board events
//
//   - BoardActionQueued (board.action_queued): a render action entered the
//     board sequence.
//   - BoardActionRevealed (board.action_revealed): the reveal cursor reached
//     this action.
//   - BoardCleared (board.cleared): the board sequence was reset.
//   - RewardUnlocked (board.reward_unlocked): a one-shot reward notification.
//
// playback events
//
//   - PlaybackStarted (playback.started): narration playback began; carries
//     the audio source (server clip, local synthesis, or stream fallback).
//   - PlaybackEnded (playback.ended): narration playback finished or was
//     stopped.
//
// gate events
//
//   - GateOpened (gate.opened): a quiz or flashcard deck took the gate.
//   - GateResolved (gate.resolved): the gate was released with a result.
//
// turn events
//
//   - TurnStateChanged (turn.state_changed): the local turn state machine
//     moved between teaching, paused and capturing-voice.
//   - UserMessageSent (turn.user_message_sent): an outbound user message was
//     submitted; carries the interruption classification.
//
// voice events
//
//   - VoiceCaptureStarted (voice.capture_started): the recording window
//     opened.
//   - VoiceCaptureEnded (voice.capture_ended): the recording window closed.
//   - VoiceTranscriptReceived (voice.transcript_received): a transcription
//     for the captured audio arrived.
//   - VoiceCaptureFailed (voice.capture_failed): capture aborted or yielded
//     no usable transcript.
package events
