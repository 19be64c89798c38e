package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charank/mikasa/internal/memory"
)

// Transcript speaker labels for non-reply lines.
const (
	speakerUser   = "User"
	speakerSystem = "System"
)

// Command kinds reported in Result.Command.
const (
	cmdMode         = "mode"
	cmdTime         = "time"
	cmdRemember     = "remember"
	cmdRemove       = "remove"
	cmdUpdate       = "update"
	cmdClear        = "clear"
	cmdDeleteRecent = "delete_recent"
)

var (
	// wantsTimeDate matches a time/date question: an interrogative cue
	// plus a temporal keyword.
	wantsTimeDate = regexp.MustCompile(`(?i)\b(what|tell)\b.*\b(time|date|day|today)\b`)

	asksTime = regexp.MustCompile(`(?i)\btime\b`)
	asksDate = regexp.MustCompile(`(?i)\b(date|day|today)\b`)

	rememberTrigger = regexp.MustCompile(`(?i)remember that`)
	removeTrigger   = regexp.MustCompile(`(?i)remove that`)
	updateTrigger   = regexp.MustCompile(`(?i)update that`)

	// updatePattern splits at the LAST " to " (greedy first capture),
	// the documented precedence for texts containing " to " themselves.
	updatePattern = regexp.MustCompile(`(?i)update that\s+(.+)\s+to\s+(.+)`)
)

// interpret classifies the message against the control-command set, in
// precedence order, and executes the first match. Returns ok=false when
// the message is ordinary conversation.
func (e *Engine) interpret(ctx context.Context, sessionID, message string, mode memory.Mode) (Result, bool) {
	lower := strings.ToLower(message)

	switch lower {
	case "mikasa mode":
		return e.switchMode(ctx, sessionID, memory.ModeMikasa), true
	case "assistant mode":
		return e.switchMode(ctx, sessionID, memory.ModeAssistant), true
	}

	if wantsTimeDate.MatchString(message) {
		return e.tellTime(ctx, sessionID, message, mode), true
	}

	if loc := rememberTrigger.FindStringIndex(message); loc != nil {
		text := strings.TrimSpace(message[loc[1]:])
		return e.remember(ctx, sessionID, text, mode), true
	}

	if loc := removeTrigger.FindStringIndex(message); loc != nil {
		keyword := strings.TrimSpace(message[loc[1]:])
		return e.removeMemory(ctx, sessionID, keyword, mode), true
	}

	if updateTrigger.MatchString(message) {
		return e.updateMemory(ctx, sessionID, message, mode), true
	}

	switch lower {
	case "del chat":
		return e.clearChat(ctx, sessionID, mode), true
	case "del prev":
		return e.deleteRecent(ctx, sessionID, mode), true
	}

	return Result{}, false
}

// switchMode sets the session mode and records a system note.
func (e *Engine) switchMode(ctx context.Context, sessionID string, mode memory.Mode) Result {
	if err := e.modes.Set(ctx, sessionID, mode); err != nil {
		e.logger.Error("set session mode failed", "session", sessionID, "mode", mode, "error", err)
		return e.record(ctx, sessionID, speakerSystem, "Something went wrong switching modes.", cmdMode, true)
	}

	note := fmt.Sprintf("Mode changed to: %s", mode.Speaker())
	if err := e.transcript.Append(ctx, sessionID, speakerSystem, note); err != nil {
		e.logger.Error("append mode note failed", "session", sessionID, "error", err)
	}

	var reply string
	if mode == memory.ModeMikasa {
		reply = "Mikasa mode is on now. I'm all yours."
	} else {
		reply = "Switched to Assistant mode."
	}

	return e.record(ctx, sessionID, speakerSystem, reply, cmdMode, false)
}

// tellTime answers a time/date question directly, voiced per mode.
// The model backend is never called for these.
func (e *Engine) tellTime(ctx context.Context, sessionID, message string, mode memory.Mode) Result {
	info := e.datetime()

	var reply string
	switch {
	case asksTime.MatchString(message):
		reply = fmt.Sprintf("The current time is %s.", info.clock)
	case asksDate.MatchString(message):
		reply = fmt.Sprintf("Today is %s.", info.date)
	default:
		reply = fmt.Sprintf("It's currently %s.", info.full)
	}

	if mode == memory.ModeMikasa {
		reply = fmt.Sprintf("~I check my watch and look up at you.~\n%s Why, do you have somewhere to be?", reply)
	}

	return e.record(ctx, sessionID, mode.Speaker(), reply, cmdTime, false)
}

// remember stores the remainder as a durable fragment.
func (e *Engine) remember(ctx context.Context, sessionID, text string, mode memory.Mode) Result {
	if text == "" {
		return e.record(ctx, sessionID, mode.Speaker(), "There's nothing after 'remember that' for me to save.", cmdRemember, false)
	}

	if err := e.fragments.Store(ctx, e.cfg.Owner, text); err != nil {
		e.logger.Error("store fragment failed", "owner", e.cfg.Owner, "error", err)
		return e.record(ctx, sessionID, mode.Speaker(), "Something went wrong while saving that. Want me to try again?", cmdRemember, true)
	}

	return e.record(ctx, sessionID, mode.Speaker(), "Alright, I've saved that for you.", cmdRemember, false)
}

// removeMemory deletes fragments by keyword and reports the count.
func (e *Engine) removeMemory(ctx context.Context, sessionID, keyword string, mode memory.Mode) Result {
	if keyword == "" {
		return e.record(ctx, sessionID, mode.Speaker(), "Tell me what to remove, like 'remove that favorite color'.", cmdRemove, false)
	}

	count, err := e.fragments.Remove(ctx, e.cfg.Owner, keyword)
	if err != nil {
		e.logger.Error("remove fragments failed", "owner", e.cfg.Owner, "error", err)
		return e.record(ctx, sessionID, mode.Speaker(), "Something went wrong while deleting memories.", cmdRemove, true)
	}

	var reply string
	if count > 0 {
		reply = fmt.Sprintf("All done. I've cleared %d %s for you.", count, plural(count, "memory", "memories"))
	} else {
		reply = "I couldn't find any matching memories to delete."
	}

	return e.record(ctx, sessionID, mode.Speaker(), reply, cmdRemove, false)
}

// updateMemory parses "update that X to Y" and rewrites matching fragments.
// An unparseable message yields a usage reply without mutating anything.
func (e *Engine) updateMemory(ctx context.Context, sessionID, message string, mode memory.Mode) Result {
	m := updatePattern.FindStringSubmatch(message)
	if m == nil {
		return e.record(ctx, sessionID, mode.Speaker(), "Please use 'update that [old data] to [new data]' format.", cmdUpdate, false)
	}

	oldSub := strings.TrimSpace(m[1])
	newText := strings.TrimSpace(m[2])

	count, err := e.fragments.Update(ctx, e.cfg.Owner, oldSub, newText)
	if err != nil {
		e.logger.Error("update fragments failed", "owner", e.cfg.Owner, "error", err)
		return e.record(ctx, sessionID, mode.Speaker(), "Something went wrong while updating memory.", cmdUpdate, true)
	}

	var reply string
	if count > 0 {
		reply = fmt.Sprintf("Memory updated: %d %s rewritten.", count, plural(count, "entry", "entries"))
	} else {
		reply = "I couldn't find any matching memories to update."
	}

	return e.record(ctx, sessionID, mode.Speaker(), reply, cmdUpdate, false)
}

// clearChat wipes this session's transcript.
func (e *Engine) clearChat(ctx context.Context, sessionID string, mode memory.Mode) Result {
	if err := e.transcript.Clear(ctx, sessionID); err != nil {
		e.logger.Error("clear transcript failed", "session", sessionID, "error", err)
		return e.record(ctx, sessionID, mode.Speaker(), "Something went wrong while clearing the chat history.", cmdClear, true)
	}

	return e.record(ctx, sessionID, mode.Speaker(), "All set. I've wiped this session's chat history.", cmdClear, false)
}

// deleteRecent removes the default batch of most recent entries and
// stays silent on success so the deletion leaves no trace of itself.
func (e *Engine) deleteRecent(ctx context.Context, sessionID string, mode memory.Mode) Result {
	if _, err := e.transcript.DeleteRecent(ctx, sessionID, e.cfg.DeleteRecentBatch); err != nil {
		e.logger.Error("delete recent transcript failed", "session", sessionID, "error", err)
		return e.record(ctx, sessionID, mode.Speaker(), "Error deleting recent chat entries.", cmdDeleteRecent, true)
	}

	return Result{Reply: "", Command: cmdDeleteRecent}
}

// record appends a reply to the transcript and wraps it in a Result.
func (e *Engine) record(ctx context.Context, sessionID, speaker, reply, command string, degraded bool) Result {
	if err := e.transcript.Append(ctx, sessionID, speaker, reply); err != nil {
		e.logger.Error("append reply failed", "session", sessionID, "error", err)
	}
	return Result{Reply: reply, Speaker: speaker, Command: command, Degraded: degraded}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
