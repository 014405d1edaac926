// Package transcribe wraps the external Whisper CLI as the transcription
// engine collaborator. Each call transcribes one slice WAV and returns text
// spans with timestamps local to that slice.
package transcribe
