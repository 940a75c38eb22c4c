package temporal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/efebarandurmaz/anvil/internal/attrgraph"
	"github.com/efebarandurmaz/anvil/internal/attrgraph/export"
)

// RenderResult is the serializable result of RenderSnapshotActivity.
type RenderResult struct {
	Rendered  string
	NodeCount int
	EdgeCount int
}

// PersistInput is passed from RenderSnapshotActivity's output into
// PersistSnapshotActivity.
type PersistInput struct {
	Rendered   string
	Format     string
	OutputPath string
}

// PersistResult is the serializable result of PersistSnapshotActivity.
type PersistResult struct {
	Path string
}

// RenderSnapshotActivity decodes a GraphValue and renders it in the
// requested format using internal/attrgraph/export.
func RenderSnapshotActivity(ctx context.Context, input SnapshotArchiveInput) (RenderResult, error) {
	var gv attrgraph.GraphValue
	if err := json.Unmarshal([]byte(input.SnapshotJSON), &gv); err != nil {
		return RenderResult{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	var rendered string
	switch input.Format {
	case "dot":
		rendered = export.DOT(gv)
	case "mermaid":
		rendered = export.Mermaid(gv)
	case "json", "":
		out, err := export.JSON(gv)
		if err != nil {
			return RenderResult{}, fmt.Errorf("render json: %w", err)
		}
		rendered = string(out)
	default:
		return RenderResult{}, fmt.Errorf("unknown render format %q", input.Format)
	}

	return RenderResult{
		Rendered:  rendered,
		NodeCount: len(gv.Nodes),
		EdgeCount: len(gv.Edges),
	}, nil
}

// PersistSnapshotActivity writes a rendered snapshot to OutputPath,
// naming the file by format and the activity's start time.
func PersistSnapshotActivity(ctx context.Context, input PersistInput) (PersistResult, error) {
	if err := os.MkdirAll(input.OutputPath, 0o755); err != nil {
		return PersistResult{}, fmt.Errorf("create output dir: %w", err)
	}

	ext := extensionFor(input.Format)
	name := fmt.Sprintf("snapshot-%d%s", time.Now().UnixNano(), ext)
	path := filepath.Join(input.OutputPath, name)

	if err := os.WriteFile(path, []byte(input.Rendered), 0o644); err != nil {
		return PersistResult{}, fmt.Errorf("write snapshot: %w", err)
	}

	return PersistResult{Path: path}, nil
}

func extensionFor(format string) string {
	switch format {
	case "dot":
		return ".dot"
	case "mermaid":
		return ".mmd"
	default:
		return ".json"
	}
}
