package chat

import (
	"strings"
	"testing"

	"github.com/charank/mikasa/internal/memory"
)

func TestWantsDatetimeContext(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"what time is it", true},
		{"what's the date", true},
		{"what day is today", true},
		{"remind me now", true},
		{"schedule this for Today", true},
		{"tell me a story", false},
		{"daytime is nice", false}, // word-bounded match only
		{"how are you", false},
	}

	for _, tt := range tests {
		if got := wantsDatetimeContext(tt.message); got != tt.want {
			t.Errorf("wantsDatetimeContext(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestComposePromptVoices(t *testing.T) {
	asst := composePrompt(memory.ModeAssistant, "hi", "memory blob", "history blob", nil)
	if !strings.Contains(asst, "System Mode") {
		t.Error("assistant prompt should use the system voice")
	}

	mik := composePrompt(memory.ModeMikasa, "hi", "memory blob", "history blob", nil)
	if !strings.Contains(mik, "warm and attentive companion") {
		t.Error("mikasa prompt should use the persona voice")
	}

	for name, p := range map[string]string{"assistant": asst, "mikasa": mik} {
		if !strings.Contains(p, "memory blob") {
			t.Errorf("%s prompt missing memory blob", name)
		}
		if !strings.Contains(p, "history blob") {
			t.Errorf("%s prompt missing history blob", name)
		}
		if !strings.Contains(p, "hi") {
			t.Errorf("%s prompt missing user message", name)
		}
	}
}

func TestComposePromptDatetimeBlock(t *testing.T) {
	dt := &datetimeInfo{
		clock: "2:45 PM",
		date:  "Tuesday, March 18, 2025",
		full:  "Tuesday, March 18, 2025 at 2:45 PM",
	}

	with := composePrompt(memory.ModeAssistant, "hi", "", "", dt)
	if !strings.Contains(with, "# CURRENT TIME") || !strings.Contains(with, dt.full) {
		t.Error("prompt should carry the date/time block when provided")
	}

	without := composePrompt(memory.ModeAssistant, "hi", "", "", nil)
	if strings.Contains(without, "CURRENT TIME") {
		t.Error("prompt must omit the date/time block entirely when absent")
	}
}
