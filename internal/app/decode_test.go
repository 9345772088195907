package app

import (
	"testing"

	"github.com/fletcher/iebusctl/internal/sigrok"
)

func TestOutputPath(t *testing.T) {
	cases := []struct {
		name  string
		files []string
		want  string
	}{
		{"single file", []string{"captures/radio.sr"}, "captures/radio.txt"},
		{"numbered set", []string{"cap_01.sr", "cap_02.sr"}, "cap_0.txt"},
		{"shared stem", []string{"drive_a.sr", "drive_b.sr"}, "drive_.txt"},
		{"no overlap", []string{"one.sr", "two.sr"}, "messages.txt"},
	}
	for _, tc := range cases {
		if got := outputPath(tc.files); got != tc.want {
			t.Errorf("%s: outputPath = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFilterChannel(t *testing.T) {
	events := []sigrok.Event{
		{Timestamp: 100, Channel: "RX", Message: "- 190 440 25"},
		{Timestamp: 200, Channel: "TX", Message: "- 440 190 30"},
		{Timestamp: 300, Channel: "RX", Message: "B 190 fff 45"},
	}
	got := filterChannel(events, "RX")
	if len(got) != 2 {
		t.Fatalf("filtered count = %d, want 2", len(got))
	}
	for _, ev := range got {
		if ev.Channel != "RX" {
			t.Errorf("unexpected channel %q after filtering", ev.Channel)
		}
	}
}

func TestPlacementsForChannel(t *testing.T) {
	log, err := newLogger(false, false)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	defer log.Close()

	events := []sigrok.Event{
		{Timestamp: 5000, Channel: "RX", Message: "- 190 440 25 74"},
		{Timestamp: 9000, Channel: "TX", Message: "- 440 190 30"},
		{Timestamp: 15000, Channel: "RX", Message: "- 190 440 60 01"},
	}
	placements, err := placementsForChannel(events, "RX", log)
	if err != nil {
		t.Fatalf("placementsForChannel: %v", err)
	}
	if len(placements) != 2 {
		t.Fatalf("placement count = %d, want 2", len(placements))
	}
	if placements[0].Offset != 0 {
		t.Errorf("first offset = %d, want 0 after normalization", placements[0].Offset)
	}
	if placements[1].Offset != 10000 {
		t.Errorf("second offset = %d, want 10000", placements[1].Offset)
	}
	if got := placements[0].Message.Master(); got != 0x190 {
		t.Errorf("master = %03x, want 190", got)
	}
}

func TestPlacementsForChannelEmpty(t *testing.T) {
	log, err := newLogger(false, false)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	defer log.Close()

	if _, err := placementsForChannel(nil, "RX", log); err == nil {
		t.Error("want error for empty event list, got nil")
	}
}
