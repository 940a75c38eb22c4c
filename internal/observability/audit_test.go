package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultAuditConfig(t *testing.T) {
	cfg := DefaultAuditConfig()
	if !cfg.Enabled {
		t.Fatal("expected enabled by default")
	}
	if cfg.OutputPath != "stdout" {
		t.Fatalf("expected stdout, got %s", cfg.OutputPath)
	}
}

func TestAuditLogger_New_Stdout(t *testing.T) {
	l, err := NewAuditLogger(&AuditConfig{Enabled: true, OutputPath: "stdout"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestAuditLogger_New_Stderr(t *testing.T) {
	l, err := NewAuditLogger(&AuditConfig{Enabled: true, OutputPath: "stderr"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestAuditLogger_New_File(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "audit.log")

	l, err := NewAuditLogger(&AuditConfig{Enabled: true, OutputPath: logPath})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer l.Close()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Fatal("expected log file to be created")
	}
}

func TestAuditLogger_New_NilConfig(t *testing.T) {
	l, err := NewAuditLogger(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l == nil {
		t.Fatal("expected non-nil logger with default config")
	}
}

func TestAuditLogger_Log_Disabled(t *testing.T) {
	var buf bytes.Buffer
	l := &AuditLogger{writer: &buf, enabled: false}

	if err := l.Log(&AuditEvent{EventType: AuditEventNodeCreate}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() > 0 {
		t.Fatal("expected no output when disabled")
	}
}

func TestAuditLogger_Log_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := &AuditLogger{writer: &buf, sessionID: "test-session", enabled: true}

	err := l.Log(&AuditEvent{
		EventType: AuditEventNodeCreate,
		NodeName:  "counter",
		Success:   true,
		Message:   "test message",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var event AuditEvent
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}

	if event.EventType != AuditEventNodeCreate {
		t.Fatalf("expected node.create, got %s", event.EventType)
	}
	if event.NodeName != "counter" {
		t.Fatalf("expected counter, got %s", event.NodeName)
	}
	if event.SessionID != "test-session" {
		t.Fatalf("expected test-session, got %s", event.SessionID)
	}
}

func TestAuditLogger_Log_FillsTimestamp(t *testing.T) {
	var buf bytes.Buffer
	l := &AuditLogger{writer: &buf, enabled: true}

	before := time.Now().UTC()
	l.Log(&AuditEvent{EventType: AuditEventNodeCreate})
	after := time.Now().UTC()

	var event AuditEvent
	json.Unmarshal(buf.Bytes(), &event)

	if event.Timestamp.Before(before) || event.Timestamp.After(after) {
		t.Fatal("timestamp should be set automatically")
	}
}

func TestAuditLogger_SessionID_Generated(t *testing.T) {
	l, _ := NewAuditLogger(&AuditConfig{Enabled: true, OutputPath: "stdout"})

	if l.sessionID == "" {
		t.Fatal("expected auto-generated session ID")
	}
	if !strings.HasPrefix(l.sessionID, "session-") {
		t.Fatalf("expected session- prefix, got %s", l.sessionID)
	}
}

func TestAuditLogger_LogNodeCreate(t *testing.T) {
	var buf bytes.Buffer
	l := &AuditLogger{writer: &buf, enabled: true}

	l.LogNodeCreate(context.Background(), "total", true)

	var event AuditEvent
	json.Unmarshal(buf.Bytes(), &event)

	if event.EventType != AuditEventNodeCreate {
		t.Fatalf("expected node.create, got %s", event.EventType)
	}
	if event.NodeName != "total" {
		t.Fatalf("expected total, got %s", event.NodeName)
	}
	if event.Details["is_rule"] != true {
		t.Fatalf("expected is_rule=true, got %v", event.Details["is_rule"])
	}
}

func TestAuditLogger_LogInputWrite(t *testing.T) {
	var buf bytes.Buffer
	l := &AuditLogger{writer: &buf, enabled: true}

	l.LogInputWrite(context.Background(), "a", 2)

	var event AuditEvent
	json.Unmarshal(buf.Bytes(), &event)

	if event.EventType != AuditEventInputWrite {
		t.Fatalf("expected input.write, got %s", event.EventType)
	}
	if event.Details["edges_marked_pending"].(float64) != 2 {
		t.Fatalf("expected 2 edges marked pending, got %v", event.Details["edges_marked_pending"])
	}
}

func TestAuditLogger_LogRuleEvaluate(t *testing.T) {
	var buf bytes.Buffer
	l := &AuditLogger{writer: &buf, enabled: true}

	l.LogRuleEvaluate(context.Background(), "total", 5*time.Millisecond, true)

	var event AuditEvent
	json.Unmarshal(buf.Bytes(), &event)

	if event.EventType != AuditEventRuleEvaluate {
		t.Fatalf("expected rule.evaluate, got %s", event.EventType)
	}
	if event.Details["initial"] != true {
		t.Fatal("expected initial=true")
	}
}

func TestAuditLogger_LogRuleFailure(t *testing.T) {
	var buf bytes.Buffer
	l := &AuditLogger{writer: &buf, enabled: true}

	l.LogRuleFailure(context.Background(), "total", &testError{msg: "divide by zero"})

	var event AuditEvent
	json.Unmarshal(buf.Bytes(), &event)

	if event.EventType != AuditEventRuleFailure {
		t.Fatalf("expected rule.failure, got %s", event.EventType)
	}
	if event.Success {
		t.Fatal("expected success=false for failure")
	}
	if event.ErrorDetail != "divide by zero" {
		t.Fatalf("expected error detail, got %s", event.ErrorDetail)
	}
}

func TestAuditLogger_LogSinkSync(t *testing.T) {
	var buf bytes.Buffer
	l := &AuditLogger{writer: &buf, enabled: true}

	l.LogSinkSync(context.Background(), "neo4j", 10, 8, 20*time.Millisecond)

	var event AuditEvent
	json.Unmarshal(buf.Bytes(), &event)

	if event.EventType != AuditEventSinkSync {
		t.Fatalf("expected sink.sync, got %s", event.EventType)
	}
	if event.Details["node_count"].(float64) != 10 {
		t.Fatalf("expected 10 nodes, got %v", event.Details["node_count"])
	}
}

func TestAuditLogger_LogSinkError(t *testing.T) {
	var buf bytes.Buffer
	l := &AuditLogger{writer: &buf, enabled: true}

	l.LogSinkError(context.Background(), "qdrant", &testError{msg: "connection refused"})

	var event AuditEvent
	json.Unmarshal(buf.Bytes(), &event)

	if event.EventType != AuditEventSinkError {
		t.Fatalf("expected sink.error, got %s", event.EventType)
	}
	if event.Success {
		t.Fatal("expected success=false")
	}
}

func TestAuditLogger_Close_File(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "audit.log")

	l, _ := NewAuditLogger(&AuditConfig{Enabled: true, OutputPath: logPath})

	l.Log(&AuditEvent{EventType: AuditEventNodeCreate})
	if err := l.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected log content")
	}
}

func TestAuditLogger_Close_Stdout(t *testing.T) {
	l, _ := NewAuditLogger(&AuditConfig{Enabled: true, OutputPath: "stdout"})

	if err := l.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAudit_DisabledByDefault(t *testing.T) {
	globalAuditLogger = nil

	l := Audit()
	if l.enabled {
		t.Fatal("expected disabled logger when not initialized")
	}
}

func TestAuditEventTypes(t *testing.T) {
	types := []AuditEventType{
		AuditEventNodeCreate,
		AuditEventInputWrite,
		AuditEventRuleEvaluate,
		AuditEventRuleFailure,
		AuditEventTransaction,
		AuditEventSinkSync,
		AuditEventSinkError,
		AuditEventSnapshotServe,
	}

	for _, et := range types {
		if et == "" {
			t.Fatal("event type should not be empty")
		}
	}
}

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}
