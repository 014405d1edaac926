package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"subgen/internal/services"
)

// OutputRunner executes an external command and returns its stdout.
// Overridable in tests.
type OutputRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ProbeResult is the subset of ffprobe output the pipeline cares about.
type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

// ProbeStream describes a single stream in the media container.
type ProbeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// ProbeFormat captures container-level metadata.
type ProbeFormat struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// AudioStreamCount returns the number of audio streams discovered.
func (r ProbeResult) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationMS returns the container duration, or 0 when unavailable.
func (r ProbeResult) DurationMS() int64 {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(r.Format.Duration), 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return int64(seconds * 1000)
}

// Prober inspects source containers with ffprobe before any decoding work.
type Prober struct {
	binary string
	run    OutputRunner
}

// NewProber constructs a Prober using the provided ffprobe binary name.
func NewProber(binary string) *Prober {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	return &Prober{binary: binary}
}

// WithOutputRunner sets a custom command runner (for testing).
func (p *Prober) WithOutputRunner(run OutputRunner) {
	p.run = run
}

// Available reports whether the ffprobe binary can be executed.
func (p *Prober) Available() bool {
	if p.run != nil {
		return true
	}
	_, err := exec.LookPath(p.binary)
	return err == nil
}

// Inspect runs ffprobe against path and decodes the JSON response. A source
// ffprobe cannot open is unreadable for the whole pipeline.
func (p *Prober) Inspect(ctx context.Context, path string) (ProbeResult, error) {
	if strings.TrimSpace(path) == "" {
		return ProbeResult{}, services.Wrap(services.ErrValidation, "media", "probe", "source path is empty", nil)
	}
	args := []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}
	output, err := p.exec(ctx, args...)
	if err != nil {
		return ProbeResult{}, services.Wrap(services.ErrMediaRead, "media", "probe", "ffprobe could not open source", err)
	}
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return ProbeResult{}, services.Wrap(services.ErrMediaRead, "media", "probe", "ffprobe output unreadable", err)
	}
	return result, nil
}

func (p *Prober) exec(ctx context.Context, args ...string) ([]byte, error) {
	if p.run != nil {
		return p.run(ctx, p.binary, args...)
	}
	cmd := exec.CommandContext(ctx, p.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", p.binary, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}
