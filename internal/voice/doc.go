// Package voice synthesizes the narration track.
//
// Synthesis walks a fixed cascade of named states, piper, system, espeak,
// silent, starting at the preferred engine. An engine that is missing, fails,
// or times out hands over to the next state; silent is terminal and writes a
// WAV of silence sized from the text length, so Synthesize always yields a
// playable file and never returns an error.
package voice
