// Audit logging: structured JSONL events for everything a user or the
// backend did to the deck. One file per day next to the category logs.
// The audit trail answers "which action fired against which subject and
// did it succeed", which the per-category debug logs are too chatty for.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEventType defines the type of audit event.
type AuditEventType string

const (
	// Block action events
	AuditActionDispatch AuditEventType = "action_dispatch"
	AuditActionComplete AuditEventType = "action_complete"
	AuditActionError    AuditEventType = "action_error"

	// Playback lifecycle events
	AuditPlaybackStart   AuditEventType = "playback_start"
	AuditPlaybackStop    AuditEventType = "playback_stop"
	AuditPlaybackGoLive  AuditEventType = "playback_golive"
	AuditPlaybackDispose AuditEventType = "playback_dispose"

	// Bridge events
	AuditBridgeCall  AuditEventType = "bridge_call"
	AuditBridgeError AuditEventType = "bridge_error"

	// Recording events
	AuditRecordingLoad   AuditEventType = "recording_load"
	AuditRecordingReject AuditEventType = "recording_reject"

	// Session events
	AuditSessionStart AuditEventType = "session_start"
	AuditSessionEnd   AuditEventType = "session_end"
)

// AuditEvent is one JSONL audit entry.
type AuditEvent struct {
	Timestamp  int64          `json:"ts"` // Unix milliseconds
	EventType  AuditEventType `json:"event"`
	RunID      string         `json:"run,omitempty"`     // Observatory run correlation
	Subject    string         `json:"subject,omitempty"` // Subject of the action
	Action     string         `json:"action,omitempty"`
	Success    bool           `json:"success"`
	DurationMs int64          `json:"dur_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
	Message    string         `json:"msg"`
	Fields     map[string]any `json:"fields,omitempty"`
}

var (
	auditFile   *os.File
	auditMu     sync.Mutex
	auditLogger *AuditLogger
)

// AuditLogger writes structured audit events, optionally scoped to a run.
type AuditLogger struct {
	runID string
}

// InitAudit opens the audit log file. No-op when logging is disabled.
func InitAudit() error {
	if !IsEnabled() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil
	}

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(logsDir, fmt.Sprintf("%s_audit.log", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file

	return nil
}

// CloseAudit closes the audit log file.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns the global audit logger.
func Audit() *AuditLogger {
	if auditLogger == nil {
		auditLogger = &AuditLogger{}
	}
	return auditLogger
}

// AuditWithRun creates an audit logger scoped to an observatory run.
func AuditWithRun(runID string) *AuditLogger {
	return &AuditLogger{runID: runID}
}

// Log writes an audit event.
func (a *AuditLogger) Log(event AuditEvent) {
	if !IsEnabled() || auditFile == nil {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.RunID == "" && a.runID != "" {
		event.RunID = a.runID
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	data, err := json.Marshal(event)
	if err == nil {
		auditFile.WriteString(string(data) + "\n")
	}
}

// ActionDispatch logs a block action leaving the UI.
func (a *AuditLogger) ActionDispatch(actionID, subjectID string) {
	a.Log(AuditEvent{
		EventType: AuditActionDispatch,
		Action:    actionID,
		Subject:   subjectID,
		Success:   true,
		Message:   fmt.Sprintf("Action dispatched: %s -> %s", actionID, subjectID),
	})
}

// ActionComplete logs the outcome of a dispatched action.
func (a *AuditLogger) ActionComplete(actionID, subjectID string, durationMs int64, success bool, errMsg string) {
	eventType := AuditActionComplete
	if !success {
		eventType = AuditActionError
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		Action:     actionID,
		Subject:    subjectID,
		Success:    success,
		DurationMs: durationMs,
		Error:      errMsg,
		Message:    fmt.Sprintf("Action completed: %s -> %s (success=%v, %dms)", actionID, subjectID, success, durationMs),
	})
}

// PlaybackEvent logs a sequencer lifecycle transition.
func (a *AuditLogger) PlaybackEvent(eventType AuditEventType, runID string, index, count int) {
	a.Log(AuditEvent{
		EventType: eventType,
		RunID:     runID,
		Success:   true,
		Fields:    map[string]any{"index": index, "count": count},
		Message:   fmt.Sprintf("Playback %s: run=%s index=%d/%d", eventType, runID, index, count),
	})
}

// BridgeCall logs one backend call.
func (a *AuditLogger) BridgeCall(method string, durationMs int64, success bool, errMsg string) {
	eventType := AuditBridgeCall
	if !success {
		eventType = AuditBridgeError
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		Action:     method,
		Success:    success,
		DurationMs: durationMs,
		Error:      errMsg,
		Message:    fmt.Sprintf("Bridge %s (%dms, success=%v)", method, durationMs, success),
	})
}

// RecordingLoad logs a recording load or rejection.
func (a *AuditLogger) RecordingLoad(path string, iterations int, success bool, errMsg string) {
	eventType := AuditRecordingLoad
	if !success {
		eventType = AuditRecordingReject
	}
	a.Log(AuditEvent{
		EventType: eventType,
		Subject:   path,
		Success:   success,
		Error:     errMsg,
		Fields:    map[string]any{"iterations": iterations},
		Message:   fmt.Sprintf("Recording %s: %s (%d iterations, success=%v)", eventType, path, iterations, success),
	})
}

// SessionStart logs the board coming up.
func (a *AuditLogger) SessionStart(sessionID string) {
	a.Log(AuditEvent{
		EventType: AuditSessionStart,
		Subject:   sessionID,
		Success:   true,
		Message:   fmt.Sprintf("Session started: %s", sessionID),
	})
}

// SessionEnd logs the board going down.
func (a *AuditLogger) SessionEnd(sessionID string, durationMs int64) {
	a.Log(AuditEvent{
		EventType:  AuditSessionEnd,
		Subject:    sessionID,
		Success:    true,
		DurationMs: durationMs,
		Message:    fmt.Sprintf("Session ended: %s (%dms)", sessionID, durationMs),
	})
}
