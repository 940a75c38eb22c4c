// Package observability provides audit logging for the attribute
// graph's lifecycle: node creation, writes, rule evaluation, and
// syncs to external sinks.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventNodeCreate    AuditEventType = "node.create"
	AuditEventInputWrite    AuditEventType = "input.write"
	AuditEventRuleEvaluate  AuditEventType = "rule.evaluate"
	AuditEventRuleFailure   AuditEventType = "rule.failure"
	AuditEventTransaction   AuditEventType = "transaction"
	AuditEventSinkSync      AuditEventType = "sink.sync"
	AuditEventSinkError     AuditEventType = "sink.error"
	AuditEventSnapshotServe AuditEventType = "snapshot.serve"
)

// AuditEvent represents a single audit log entry.
type AuditEvent struct {
	Timestamp   time.Time              `json:"timestamp"`
	EventType   AuditEventType         `json:"event_type"`
	SessionID   string                 `json:"session_id"`
	NodeName    string                 `json:"node_name,omitempty"`
	Success     bool                   `json:"success"`
	Duration    time.Duration          `json:"duration_ms,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
	ErrorDetail string                 `json:"error_detail,omitempty"`
}

// AuditLogger handles audit event logging.
type AuditLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	sessionID string
	enabled   bool
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled    bool
	OutputPath string // File path or "stdout"/"stderr"
	SessionID  string
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		Enabled:    true,
		OutputPath: "stdout",
	}
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(config *AuditConfig) (*AuditLogger, error) {
	if config == nil {
		config = DefaultAuditConfig()
	}

	var writer io.Writer
	switch config.OutputPath {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		writer = f
	}

	sessionID := config.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("session-%d", time.Now().UnixNano())
	}

	return &AuditLogger{
		writer:    writer,
		sessionID: sessionID,
		enabled:   config.Enabled,
	}, nil
}

// Log writes an audit event.
func (l *AuditLogger) Log(event *AuditEvent) error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SessionID == "" {
		event.SessionID = l.sessionID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	_, err = fmt.Fprintf(l.writer, "%s\n", data)
	return err
}

// LogNodeCreate logs a node's construction.
func (l *AuditLogger) LogNodeCreate(ctx context.Context, name string, isRule bool) {
	l.Log(&AuditEvent{
		EventType: AuditEventNodeCreate,
		NodeName:  name,
		Success:   true,
		Message:   fmt.Sprintf("created node %s", name),
		Details:   map[string]interface{}{"is_rule": isRule},
	})
}

// LogInputWrite logs a write to an input node.
func (l *AuditLogger) LogInputWrite(ctx context.Context, name string, fannedOut int) {
	l.Log(&AuditEvent{
		EventType: AuditEventInputWrite,
		NodeName:  name,
		Success:   true,
		Message:   fmt.Sprintf("wrote input %s", name),
		Details:   map[string]interface{}{"edges_marked_pending": fannedOut},
	})
}

// LogRuleEvaluate logs a rule node's re-evaluation.
func (l *AuditLogger) LogRuleEvaluate(ctx context.Context, name string, duration time.Duration, initial bool) {
	l.Log(&AuditEvent{
		EventType: AuditEventRuleEvaluate,
		NodeName:  name,
		Success:   true,
		Duration:  duration,
		Message:   fmt.Sprintf("evaluated rule %s", name),
		Details:   map[string]interface{}{"initial": initial},
	})
}

// LogRuleFailure logs a rule panic recovered by the caller.
func (l *AuditLogger) LogRuleFailure(ctx context.Context, name string, err error) {
	l.Log(&AuditEvent{
		EventType:   AuditEventRuleFailure,
		NodeName:    name,
		Success:     false,
		Message:     fmt.Sprintf("rule %s failed", name),
		ErrorDetail: err.Error(),
	})
}

// LogSinkSync logs a successful snapshot push to an external sink.
func (l *AuditLogger) LogSinkSync(ctx context.Context, sinkName string, nodeCount, edgeCount int, duration time.Duration) {
	l.Log(&AuditEvent{
		EventType: AuditEventSinkSync,
		Success:   true,
		Duration:  duration,
		Message:   fmt.Sprintf("synced snapshot to %s: %d nodes, %d edges", sinkName, nodeCount, edgeCount),
		Details: map[string]interface{}{
			"sink":       sinkName,
			"node_count": nodeCount,
			"edge_count": edgeCount,
		},
	})
}

// LogSinkError logs a failed snapshot push to an external sink.
func (l *AuditLogger) LogSinkError(ctx context.Context, sinkName string, err error) {
	l.Log(&AuditEvent{
		EventType:   AuditEventSinkError,
		Success:     false,
		Message:     fmt.Sprintf("sync to %s failed", sinkName),
		ErrorDetail: err.Error(),
		Details:     map[string]interface{}{"sink": sinkName},
	})
}

// Close closes the audit logger (if backed by a file).
func (l *AuditLogger) Close() error {
	if closer, ok := l.writer.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}

// Global audit logger instance
var globalAuditLogger *AuditLogger
var auditOnce sync.Once

// InitGlobalAuditLogger initializes the global audit logger.
func InitGlobalAuditLogger(config *AuditConfig) error {
	var err error
	auditOnce.Do(func() {
		globalAuditLogger, err = NewAuditLogger(config)
	})
	return err
}

// Audit returns the global audit logger.
func Audit() *AuditLogger {
	if globalAuditLogger == nil {
		return &AuditLogger{enabled: false}
	}
	return globalAuditLogger
}
