// Package srt formats live transcription segments as SubRip subtitles.
package srt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Segment is one timestamped span of recognized speech from the streaming
// transcription service. Start and End are fractional seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Line renders a segment in the display format used by the live transcript
// view: "[0.00s -> 1.20s] hello".
func Line(seg Segment) string {
	return fmt.Sprintf("[%.2fs -> %.2fs] %s", seg.Start, seg.End, seg.Text)
}

var linePattern = regexp.MustCompile(`^\[(\d+\.\d+)s -> (\d+\.\d+)s\] (.*)$`)

// ParseLine parses a display line back into a segment. Returns false for
// lines that do not match the bracketed-timestamp shape.
func ParseLine(line string) (Segment, bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return Segment{}, false
	}
	start, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Segment{}, false
	}
	end, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Segment{}, false
	}
	return Segment{Start: start, End: end, Text: m[3]}, true
}

// Timestamp converts fractional seconds to the SubRip form "HH:MM:SS,mmm".
func Timestamp(sec float64) string {
	ms := int64(sec*1000 + 0.5)
	h := ms / 3600000
	m := (ms % 3600000) / 60000
	s := (ms % 60000) / 1000
	ms = ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseTimestamp parses a SubRip "HH:MM:SS,mmm" timestamp back into
// fractional seconds.
func ParseTimestamp(ts string) (float64, error) {
	var h, m, s, ms int
	if _, err := fmt.Sscanf(ts, "%02d:%02d:%02d,%03d", &h, &m, &s, &ms); err != nil {
		return 0, fmt.Errorf("invalid srt timestamp %q: %w", ts, err)
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, nil
}

// Cue renders one numbered SubRip cue block. The trailing newline is part of
// the block.
func Cue(index int, seg Segment) string {
	return fmt.Sprintf("%d\n%s --> %s\n%s\n", index, Timestamp(seg.Start), Timestamp(seg.End), seg.Text)
}

// FormatSegments renders an ordered segment list as a SubRip document.
// Cue order is segment order; indices are 1-based positions.
func FormatSegments(segs []Segment) string {
	var b strings.Builder
	for i, seg := range segs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Cue(i+1, seg))
	}
	return b.String()
}

// FromLines renders a SubRip document from display lines. Lines that do not
// parse are dropped from the export; surviving cues keep the index of their
// source position, so a dropped line leaves a gap in the numbering. That
// matches what the export has always produced.
func FromLines(lines []string) string {
	var cues []string
	for i, line := range lines {
		if seg, ok := ParseLine(line); ok {
			cues = append(cues, Cue(i+1, seg))
		}
	}
	return strings.Join(cues, "\n")
}
