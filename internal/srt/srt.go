package srt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// Cue is one subtitle entry on the global timeline.
type Cue struct {
	StartMS int64
	EndMS   int64
	Text    string
}

// Duration returns the cue's length on screen.
func (c Cue) Duration() time.Duration {
	return time.Duration(c.EndMS-c.StartMS) * time.Millisecond
}

// Write renders cues as a SubRip document. Numbering is 1-based in input
// order; callers are expected to pass cues already sorted.
func Write(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	for i, cue := range cues {
		if i > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n",
			i+1, Timestamp(cue.StartMS), Timestamp(cue.EndMS), cue.Text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Timestamp formats milliseconds as the SubRip HH:MM:SS,mmm form.
func Timestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	minutes := (ms % 3_600_000) / 60_000
	seconds := (ms % 60_000) / 1_000
	millis := ms % 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// ParseTimestamp reverses Timestamp. It accepts the comma SubRip uses and
// the period some tools emit.
func ParseTimestamp(value string) (int64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), ".", ",")
	var hours, minutes, seconds, millis int64
	if _, err := fmt.Sscanf(normalized, "%d:%d:%d,%d", &hours, &minutes, &seconds, &millis); err != nil {
		return 0, fmt.Errorf("malformed timestamp %q: %w", value, err)
	}
	return hours*3_600_000 + minutes*60_000 + seconds*1_000 + millis, nil
}

// Parse reads a SubRip document back into cues. Index lines are validated
// for shape but the numbering itself is discarded.
func Parse(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cues []Cue
	for {
		indexLine, ok := nextNonEmptyLine(scanner)
		if !ok {
			break
		}
		if _, err := fmt.Sscanf(indexLine, "%d", new(int)); err != nil {
			return nil, fmt.Errorf("expected cue number, got %q", indexLine)
		}
		if !scanner.Scan() {
			return nil, fmt.Errorf("cue %q is missing its timing line", indexLine)
		}
		timing := scanner.Text()
		parts := strings.Split(timing, "-->")
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed timing line %q", timing)
		}
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			return nil, err
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			return nil, err
		}
		var lines []string
		for scanner.Scan() {
			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				break
			}
			lines = append(lines, line)
		}
		cues = append(cues, Cue{
			StartMS: start,
			EndMS:   end,
			Text:    strings.Join(lines, "\n"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cues, nil
}

func nextNonEmptyLine(scanner *bufio.Scanner) (string, bool) {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			return line, true
		}
	}
	return "", false
}
