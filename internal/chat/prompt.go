package chat

import (
	"fmt"
	"regexp"

	"github.com/charank/mikasa/internal/memory"
)

// datetimeContext matches messages that should get the current date/time
// block injected into the prompt. Broader than the direct time-question
// pattern: any temporal keyword qualifies.
var datetimeContext = regexp.MustCompile(`(?i)\b(time|date|day|today|now)\b`)

func wantsDatetimeContext(message string) bool {
	return datetimeContext.MatchString(message)
}

// datetimeInfo is the precomputed date/time block for prompts and the
// direct time-question replies.
type datetimeInfo struct {
	clock string // "3:04 PM"
	date  string // "Monday, January 2, 2006"
	full  string // date at clock
}

func (e *Engine) datetime() datetimeInfo {
	now := e.now()
	clock := now.Format("3:04 PM")
	date := now.Format("Monday, January 2, 2006")
	return datetimeInfo{
		clock: clock,
		date:  date,
		full:  fmt.Sprintf("%s at %s", date, clock),
	}
}

// composePrompt builds the model-facing prompt text. Pure assembly, no
// model invocation. The date/time section is omitted entirely when dt is
// nil to keep the context lean.
func composePrompt(mode memory.Mode, message, memoryBlob, historyBlob string, dt *datetimeInfo) string {
	if mode == memory.ModeMikasa {
		return mikasaPrompt(message, memoryBlob, historyBlob, dt)
	}
	return assistantPrompt(message, memoryBlob, historyBlob, dt)
}

// assistantPrompt is the task-focused system voice.
func assistantPrompt(message, memoryBlob, historyBlob string, dt *datetimeInfo) string {
	return fmt.Sprintf(`# OBJECTIVE
You are Mikasa, an ultra-efficient assistant in System Mode.
Your responses are precise, task-focused, and fluff-free.

%s# MODE
System Mode: ON
- No emotions or small talk
- Results first, no filler
- Clean, minimal formatting
- Responses must be brief, accurate, and direct

# MEMORY
## Session
%s
## Persistent
%s

# INPUT
%s

Reply in System Mode. Zero preamble. Output only.
`, datetimeSection(dt), historyBlob, memoryBlob, message)
}

// mikasaPrompt is the warmer persona voice.
func mikasaPrompt(message, memoryBlob, historyBlob string, dt *datetimeInfo) string {
	return fmt.Sprintf(`# WHO YOU ARE
You are Mikasa, a warm and attentive companion. You speak naturally,
with gentle confidence and the occasional playful remark. You remember
what matters to the person you talk to.

%s# MEMORY
Chat so far:
%s

Things you know long-term:
%s

# THEY JUST SAID
%s

Reply in character, warmly and briefly.
`, datetimeSection(dt), historyBlob, memoryBlob, message)
}

// datetimeSection renders the optional current-time block with its own
// trailing separation, or nothing at all.
func datetimeSection(dt *datetimeInfo) string {
	if dt == nil {
		return ""
	}
	return fmt.Sprintf("# CURRENT TIME\n%s\n\n", dt.full)
}
