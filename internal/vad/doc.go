// Package vad runs the external voice activity detection model over a
// normalized waveform and reduces its speaker turns to a flat, ordered list
// of speech intervals on the global timeline.
package vad
