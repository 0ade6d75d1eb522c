package conversation

import "errors"

// Sentinel errors for the conversation package.
var (
	// ErrMissingGateway indicates no assistant client was provided.
	ErrMissingGateway = errors.New("conversation: assistant gateway is required")

	// ErrTurnInFlight indicates input arrived while a reply is pending.
	ErrTurnInFlight = errors.New("conversation: turn already in flight")

	// ErrEmptyMessage indicates a blank submission.
	ErrEmptyMessage = errors.New("conversation: message is empty")

	// ErrAudioDisabled indicates a voice command while audio is off.
	ErrAudioDisabled = errors.New("conversation: audio is disabled")

	// ErrSpeaking indicates listening was requested during playback.
	ErrSpeaking = errors.New("conversation: assistant is speaking")

	// ErrClosed indicates the controller has been closed.
	ErrClosed = errors.New("conversation: controller closed")
)

// IsBusy returns true if the command was refused because a turn or
// playback is in progress.
func IsBusy(err error) bool {
	return errors.Is(err, ErrTurnInFlight) || errors.Is(err, ErrSpeaking)
}
