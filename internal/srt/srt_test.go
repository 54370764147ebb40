package srt

import (
	"strings"
	"testing"
)

func TestFormatSegments_TwoCues(t *testing.T) {
	segs := []Segment{
		{Start: 0.0, End: 1.2, Text: "hello"},
		{Start: 1.2, End: 2.5, Text: "world"},
	}

	got := FormatSegments(segs)
	want := "1\n00:00:00,000 --> 00:00:01,200\nhello\n" +
		"\n" +
		"2\n00:00:01,200 --> 00:00:02,500\nworld\n"
	if got != want {
		t.Errorf("FormatSegments = %q, want %q", got, want)
	}
}

func TestFormatSegments_Idempotent(t *testing.T) {
	segs := []Segment{
		{Start: 0.5, End: 3.25, Text: "one"},
		{Start: 3.25, End: 7.0, Text: "two"},
		{Start: 7.0, End: 3671.042, Text: "three"},
	}

	first := FormatSegments(segs)
	second := FormatSegments(segs)
	if first != second {
		t.Errorf("repeated export differs:\n%q\n%q", first, second)
	}
}

func TestTimestamp_RoundTrip(t *testing.T) {
	values := []float64{0, 0.001, 1.2, 59.999, 60, 3599.5, 3600, 7265.042, 86399.999}
	for _, v := range values {
		ts := Timestamp(v)
		back, err := ParseTimestamp(ts)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", ts, err)
		}
		// Millisecond precision.
		if diff := back - v; diff > 0.0005 || diff < -0.0005 {
			t.Errorf("Timestamp(%v) = %q, parsed back to %v", v, ts, back)
		}
	}
}

func TestTimestamp_Format(t *testing.T) {
	cases := []struct {
		sec  float64
		want string
	}{
		{0, "00:00:00,000"},
		{1.2, "00:00:01,200"},
		{61.05, "00:01:01,050"},
		{3661.5, "01:01:01,500"},
	}
	for _, c := range cases {
		if got := Timestamp(c.sec); got != c.want {
			t.Errorf("Timestamp(%v) = %q, want %q", c.sec, got, c.want)
		}
	}
}

func TestLine_RoundTrip(t *testing.T) {
	seg := Segment{Start: 12.34, End: 56.78, Text: "over the hills"}
	line := Line(seg)
	if line != "[12.34s -> 56.78s] over the hills" {
		t.Fatalf("Line = %q", line)
	}
	back, ok := ParseLine(line)
	if !ok {
		t.Fatalf("ParseLine rejected %q", line)
	}
	if back != seg {
		t.Errorf("round trip = %+v, want %+v", back, seg)
	}
}

func TestParseLine_Rejects(t *testing.T) {
	bad := []string{
		"",
		"hello",
		"[1s -> 2s] no fractional part",
		"[1.0s => 2.0s] wrong arrow",
		"(1.00s -> 2.00s) parens",
	}
	for _, line := range bad {
		if _, ok := ParseLine(line); ok {
			t.Errorf("ParseLine accepted %q", line)
		}
	}
}

func TestFromLines_DropsUnparseableKeepingIndices(t *testing.T) {
	lines := []string{
		"[0.00s -> 1.20s] hello",
		"not a transcript line",
		"[2.50s -> 3.00s] world",
	}

	got := FromLines(lines)
	if strings.Contains(got, "not a transcript") {
		t.Fatalf("unparseable line leaked into export:\n%s", got)
	}
	// The dropped line leaves a numbering gap: cues 1 and 3.
	want := "1\n00:00:00,000 --> 00:00:01,200\nhello\n" +
		"\n" +
		"3\n00:00:02,500 --> 00:00:03,000\nworld\n"
	if got != want {
		t.Errorf("FromLines = %q, want %q", got, want)
	}
}

func TestFromLines_Empty(t *testing.T) {
	if got := FromLines(nil); got != "" {
		t.Errorf("FromLines(nil) = %q, want empty", got)
	}
	if got := FromLines([]string{"garbage"}); got != "" {
		t.Errorf("FromLines(all garbage) = %q, want empty", got)
	}
}
