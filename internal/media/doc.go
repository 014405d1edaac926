// Package media turns arbitrary input files into the canonical waveform the
// rest of the pipeline consumes: mono, 16 kHz, 16-bit PCM WAV. It also owns
// source-file identity (the fingerprint that keys per-source working
// directories) and WAV header inspection.
package media
