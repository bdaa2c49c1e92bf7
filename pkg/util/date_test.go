package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestAlignFromToHourly(t *testing.T) {
	from := time.Date(2024, 10, 10, 10, 17, 3, 0, time.UTC)
	to := time.Date(2024, 10, 10, 14, 42, 59, 0, time.UTC)
	af, at := AlignFromTo(from, to, "1h")
	if !af.Equal(time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v", af)
	}
	if !at.Equal(time.Date(2024, 10, 10, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected to %v", at)
	}
}

func TestAlignFromToDaily(t *testing.T) {
	from := time.Date(2024, 10, 10, 23, 59, 59, 0, time.UTC)
	af, _ := AlignFromTo(from, from, "1d")
	if !af.Equal(time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v", af)
	}
}

func TestAlignFromToUnknownTimeframe(t *testing.T) {
	from := time.Date(2024, 10, 10, 10, 17, 3, 999, time.UTC)
	af, _ := AlignFromTo(from, from, "bogus")
	if !af.Equal(time.Date(2024, 10, 10, 10, 17, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v", af)
	}
}
