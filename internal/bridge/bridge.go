// Package bridge speaks MCP over stdio to a prismd backend. The deck
// stays fully usable without one: pages fall back to bundled sample
// payloads whenever the bridge is disabled or a call fails.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"prismdeck/internal/blocks"
	"prismdeck/internal/logging"
	"prismdeck/internal/observatory"
)

// Tool names served by prismd.
const (
	toolBlock = "deck.block"
	toolRuns  = "deck.runs"
	toolRun   = "deck.run"
	toolAct   = "deck.act"
)

const defaultTimeout = 10 * time.Second

// caller is the slice of the MCP client the bridge uses. The stdio
// client satisfies it; tests inject fakes.
type caller interface {
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// RunInfo is one run summary from deck.runs.
type RunInfo struct {
	ID         string    `json:"id"`
	Goal       string    `json:"goal,omitempty"`
	Iterations int       `json:"iterations"`
	StopReason string    `json:"stop_reason,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
}

// Bridge is one stdio MCP session with a prismd backend. Calls are
// bounded by a per-call timeout and audited.
type Bridge struct {
	mu        sync.Mutex
	c         caller
	timeout   time.Duration
	connected bool
	server    string

	log *logging.Logger
}

// Dial spawns the backend command and wires a stdio session to it. The
// session is not usable until Connect completes the handshake.
func Dial(command string, timeout time.Duration, args ...string) (*Bridge, error) {
	c, err := client.NewStdioMCPClient(command, nil, args...)
	if err != nil {
		return nil, fmt.Errorf("spawn backend %s: %w", command, err)
	}
	return New(c, timeout), nil
}

// New wraps an MCP caller. A non-positive timeout uses the default.
func New(c caller, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Bridge{
		c:       c,
		timeout: timeout,
		log:     logging.Get(logging.CategoryBridge),
	}
}

// Connect performs the MCP initialize handshake.
func (b *Bridge) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: "prismdeck", Version: "0.1.0"}

	start := time.Now()
	res, err := b.c.Initialize(ctx, req)
	if err != nil {
		logging.Audit().BridgeCall("initialize", time.Since(start).Milliseconds(), false, err.Error())
		return fmt.Errorf("initialize backend: %w", err)
	}
	logging.Audit().BridgeCall("initialize", time.Since(start).Milliseconds(), true, "")

	b.mu.Lock()
	b.connected = true
	b.server = res.ServerInfo.Name
	b.mu.Unlock()

	b.log.Info("Connected to backend %s (protocol %s)", res.ServerInfo.Name, res.ProtocolVersion)
	return nil
}

// Connected reports whether the handshake has completed.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// ServerName returns the backend's advertised name.
func (b *Bridge) ServerName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.server
}

// Close tears down the session. The bridge cannot be reused after.
func (b *Bridge) Close() error {
	b.mu.Lock()
	b.connected = false
	b.mu.Unlock()
	return b.c.Close()
}

// FetchBlock fetches one block payload as raw JSON. The caller decodes
// it into the block's item type.
func (b *Bridge) FetchBlock(ctx context.Context, kind blocks.Kind) (json.RawMessage, error) {
	return b.call(ctx, toolBlock, map[string]any{"kind": string(kind)})
}

// FetchAll fetches block payloads in parallel. Kinds whose fetch fails
// are absent from the result; the deck keeps its current payload for
// those.
func (b *Bridge) FetchAll(ctx context.Context, kinds []blocks.Kind) map[blocks.Kind]json.RawMessage {
	eg, egCtx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	out := make(map[blocks.Kind]json.RawMessage, len(kinds))
	for _, kind := range kinds {
		eg.Go(func() error {
			raw, err := b.FetchBlock(egCtx, kind)
			if err != nil {
				b.log.Warn("Block %s fetch failed: %v", kind, err)
				return nil
			}
			mu.Lock()
			out[kind] = raw
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

// ListRuns returns the backend's run summaries, newest first.
func (b *Bridge) ListRuns(ctx context.Context) ([]RunInfo, error) {
	raw, err := b.call(ctx, toolRuns, nil)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Runs []RunInfo `json:"runs"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("%s: decode runs: %w", toolRuns, err)
	}
	return wrapper.Runs, nil
}

// FetchRun fetches one full recording. The payload goes through the
// same schema validation as a recording loaded from disk.
func (b *Bridge) FetchRun(ctx context.Context, id string) (*observatory.Recording, error) {
	raw, err := b.call(ctx, toolRun, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	rec, err := observatory.ParseRecording(raw)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	return rec, nil
}

// Act forwards a block gesture to the backend in a fresh envelope.
func (b *Bridge) Act(ctx context.Context, actionID, subjectID string, payload map[string]any) error {
	start := time.Now()
	raw, err := b.call(ctx, toolAct, map[string]any{
		"envelope_id": uuid.NewString(),
		"action_id":   actionID,
		"subject_id":  subjectID,
		"payload":     payload,
		"at":          start.UTC().Format(time.RFC3339),
	})
	if err != nil {
		logging.Audit().ActionComplete(actionID, subjectID, time.Since(start).Milliseconds(), false, err.Error())
		return err
	}

	var ack struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(raw, &ack); err != nil {
		logging.Audit().ActionComplete(actionID, subjectID, time.Since(start).Milliseconds(), false, err.Error())
		return fmt.Errorf("%s: decode ack: %w", toolAct, err)
	}
	if !ack.OK {
		logging.Audit().ActionComplete(actionID, subjectID, time.Since(start).Milliseconds(), false, ack.Error)
		return fmt.Errorf("%s: %s rejected: %s", toolAct, actionID, ack.Error)
	}
	logging.Audit().ActionComplete(actionID, subjectID, time.Since(start).Milliseconds(), true, "")
	return nil
}

// Dispatcher adapts the bridge to the block gesture path. Failures are
// logged, not surfaced; a gesture must never wedge the UI loop.
func (b *Bridge) Dispatcher() blocks.DispatcherFunc {
	return func(actionID, subjectID string, payload map[string]any) {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		if err := b.Act(ctx, actionID, subjectID, payload); err != nil {
			b.log.Warn("Action %s on %s failed: %v", actionID, subjectID, err)
		}
	}
}

// call runs one tool call with the per-call timeout and returns the
// result payload as raw JSON, preferring structured content.
func (b *Bridge) call(ctx context.Context, tool string, args map[string]any) ([]byte, error) {
	b.mu.Lock()
	connected := b.connected
	b.mu.Unlock()
	if !connected {
		return nil, fmt.Errorf("%s: backend not connected", tool)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	start := time.Now()
	res, err := b.c.CallTool(ctx, req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		logging.Audit().BridgeCall(tool, elapsed, false, err.Error())
		return nil, fmt.Errorf("%s: %w", tool, err)
	}
	if res.IsError {
		msg := firstText(res)
		logging.Audit().BridgeCall(tool, elapsed, false, msg)
		return nil, fmt.Errorf("%s: %s", tool, msg)
	}
	logging.Audit().BridgeCall(tool, elapsed, true, "")

	if res.StructuredContent != nil {
		return json.Marshal(res.StructuredContent)
	}
	return []byte(firstText(res)), nil
}

func firstText(res *mcp.CallToolResult) string {
	if len(res.Content) == 0 {
		return ""
	}
	return mcp.GetTextFromContent(res.Content[0])
}
