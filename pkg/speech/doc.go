// Package speech presents platform speech-to-text and text-to-speech
// capabilities behind a uniform, event-based Adapter.
//
// The platform side (a browser tab, a test double) implements the narrow
// Recognizer and Synthesizer interfaces and feeds its lifecycle events back
// through HandleRecognition and HandleSynthesis. The adapter applies the
// error classification policy and emits typed Events to a single sink:
//
//	adapter := speech.NewAdapter(rec, syn, speech.WithSpeakDelay(100*time.Millisecond))
//	adapter.OnEvent(func(ev speech.Event) {
//	    switch ev.Kind {
//	    case speech.EventTranscriptFinal:
//	        fmt.Println("user said:", ev.Text)
//	    case speech.EventSpeakEnded:
//	        fmt.Println("playback done")
//	    }
//	})
//
//	adapter.StartListening()
//	defer adapter.Close()
//
// # Error classification
//
// Recognition errors "aborted" and "no-speech" end the listening state
// silently. Any other recognition error is recorded in State.Err.
// Synthesis errors "canceled" and "interrupted" are suppressed; other
// synthesis errors are logged and simply end playback.
//
// # Capability flags
//
// A nil Recognizer or Synthesizer is not fatal. The adapter records the
// missing capability once and the rest of the system degrades to
// typed-text-only operation.
package speech
