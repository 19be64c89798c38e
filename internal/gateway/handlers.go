package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charank/mikasa/internal/memory"
	"github.com/google/uuid"
)

// defaultSession is used when a chat request carries no session id,
// matching single-client usage where the caller never mints one.
const defaultSession = "default"

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// handleChat runs the full conversation pipeline. The turn never fails
// outward: model and storage trouble degrade into reply text, so this
// always answers 200 with some reply.
func (g *Gateway) handleChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errorJSON(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = defaultSession
		}

		start := time.Now()
		res := g.engine.Turn(r.Context(), sessionID, req.Message)
		g.turnsServed.Add(1)

		switch {
		case res.Command != "":
			g.metrics.Commands.WithLabelValues(res.Command).Inc()
			g.metrics.Turns.WithLabelValues("command").Inc()
		case res.Degraded:
			g.metrics.Turns.WithLabelValues("degraded").Inc()
		case res.ModelInvoked:
			g.metrics.Turns.WithLabelValues("model").Inc()
			g.metrics.ObserveModelTurn(time.Since(start))
		default:
			g.metrics.Turns.WithLabelValues("noop").Inc()
		}

		respondJSON(w, http.StatusOK, chatResponse{Reply: res.Reply})
	}
}

// handleNewSession mints a fresh opaque session identifier.
func (g *Gateway) handleNewSession() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"session_id": uuid.NewString()})
	}
}

type storeMessageRequest struct {
	SessionID string `json:"session_id"`
	Speaker   string `json:"speaker"`
	Message   string `json:"message"`
}

// handleStoreMessage appends one raw transcript line.
func (g *Gateway) handleStoreMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storeMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errorJSON(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.SessionID == "" || req.Message == "" {
			errorJSON(w, http.StatusBadRequest, "missing session_id or message")
			return
		}

		speaker := req.Speaker
		if speaker == "" {
			speaker = "User"
		}

		if err := g.transcript.Append(r.Context(), req.SessionID, speaker, req.Message); err != nil {
			g.logger.Error("store message failed", "session", req.SessionID, "error", err)
			errorJSON(w, http.StatusInternalServerError, "failed to store message")
			return
		}

		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

type historyEntry struct {
	Speaker   string `json:"speaker"`
	Line      string `json:"line"`
	Timestamp string `json:"timestamp"`
}

type historyResponse struct {
	SessionID string         `json:"session_id"`
	Entries   []historyEntry `json:"entries"`
	History   string         `json:"history"`
}

// handleHistory reads the most recent transcript window, oldest first.
func (g *Gateway) handleHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			errorJSON(w, http.StatusBadRequest, "missing session_id")
			return
		}

		limit := g.config.HistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				errorJSON(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		entries, err := g.transcript.Recent(r.Context(), sessionID, limit)
		if err != nil {
			g.logger.Error("read history failed", "session", sessionID, "error", err)
			errorJSON(w, http.StatusInternalServerError, "failed to read history")
			return
		}

		resp := historyResponse{SessionID: sessionID, Entries: []historyEntry{}}
		lines := make([]string, len(entries))
		for i, e := range entries {
			resp.Entries = append(resp.Entries, historyEntry{
				Speaker:   e.Speaker,
				Line:      e.Line,
				Timestamp: e.CreatedAt.Format("2006-01-02T15:04:05Z"),
			})
			lines[i] = e.Line
		}
		resp.History = strings.Join(lines, "\n")

		respondJSON(w, http.StatusOK, resp)
	}
}

type clearRequest struct {
	SessionID string `json:"session_id"`
}

// handleClearHistory clears one session, or every session when the body
// names none. A body that fails to parse is a client error, not a
// clear-all: only a deliberately empty or absent body means everything.
func (g *Gateway) handleClearHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clearRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			errorJSON(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		if err := g.transcript.Clear(r.Context(), req.SessionID); err != nil {
			g.logger.Error("clear history failed", "session", req.SessionID, "error", err)
			errorJSON(w, http.StatusInternalServerError, "failed to clear history")
			return
		}

		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

type deleteRecentRequest struct {
	SessionID string `json:"session_id"`
	N         int    `json:"n"`
}

// handleDeleteRecent deletes the n most recent entries for a session.
func (g *Gateway) handleDeleteRecent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deleteRecentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errorJSON(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.SessionID == "" {
			errorJSON(w, http.StatusBadRequest, "missing session_id")
			return
		}

		n := req.N
		if n <= 0 {
			n = g.config.DeleteRecentBatch
		}

		deleted, err := g.transcript.DeleteRecent(r.Context(), req.SessionID, n)
		if err != nil {
			g.logger.Error("delete recent failed", "session", req.SessionID, "error", err)
			errorJSON(w, http.StatusInternalServerError, "failed to delete recent entries")
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": deleted})
	}
}

// handleGetMode reads a session's mode, lazily creating the default.
func (g *Gateway) handleGetMode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			errorJSON(w, http.StatusBadRequest, "missing session_id")
			return
		}

		mode, err := g.modes.Get(r.Context(), sessionID)
		if err != nil {
			g.logger.Error("get mode failed", "session", sessionID, "error", err)
			errorJSON(w, http.StatusInternalServerError, "failed to get mode")
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{"mode": string(mode)})
	}
}

type setModeRequest struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
}

// handleSetMode validates against the closed mode set and upserts.
func (g *Gateway) handleSetMode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setModeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errorJSON(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.SessionID == "" {
			errorJSON(w, http.StatusBadRequest, "missing session_id")
			return
		}

		mode := memory.Mode(strings.ToLower(req.Mode))
		if !mode.Valid() {
			errorJSON(w, http.StatusBadRequest, `invalid mode, must be "assistant" or "mikasa"`)
			return
		}

		if err := g.modes.Set(r.Context(), req.SessionID, mode); err != nil {
			g.logger.Error("set mode failed", "session", req.SessionID, "error", err)
			errorJSON(w, http.StatusInternalServerError, "failed to set mode")
			return
		}

		// Record the switch on the transcript like the in-band command does.
		note := "Mode changed to: " + mode.Speaker()
		if err := g.transcript.Append(r.Context(), req.SessionID, "System", note); err != nil {
			g.logger.Error("append mode note failed", "session", req.SessionID, "error", err)
		}

		respondJSON(w, http.StatusOK, map[string]any{"success": true, "mode": string(mode)})
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
