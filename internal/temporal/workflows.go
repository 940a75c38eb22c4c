package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"
)

// SnapshotArchiveInput holds the workflow parameters.
type SnapshotArchiveInput struct {
	// SnapshotJSON is a GraphValue encoded as JSON, captured by the
	// caller via Graph.Snapshot before starting the workflow — the
	// graph itself is not Temporal-serializable.
	SnapshotJSON string

	// Format selects the rendering: "dot", "mermaid", or "json".
	Format string

	// OutputPath is the directory archived renders are written under.
	OutputPath string
}

// SnapshotArchiveOutput holds the workflow result.
type SnapshotArchiveOutput struct {
	RenderedPath string
	NodeCount    int
	EdgeCount    int
}

// SnapshotArchiveWorkflow renders a graph snapshot and persists the
// result to durable storage, independent of the graph process's own
// in-memory lifetime — useful for scheduled or on-demand archival of a
// debug export.
func SnapshotArchiveWorkflow(ctx workflow.Context, input SnapshotArchiveInput) (*SnapshotArchiveOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var renderResult RenderResult
	if err := workflow.ExecuteActivity(ctx, RenderSnapshotActivity, input).Get(ctx, &renderResult); err != nil {
		return nil, fmt.Errorf("render snapshot: %w", err)
	}

	var persistResult PersistResult
	persistInput := PersistInput{
		Rendered:   renderResult.Rendered,
		Format:     input.Format,
		OutputPath: input.OutputPath,
	}
	if err := workflow.ExecuteActivity(ctx, PersistSnapshotActivity, persistInput).Get(ctx, &persistResult); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}

	return &SnapshotArchiveOutput{
		RenderedPath: persistResult.Path,
		NodeCount:    renderResult.NodeCount,
		EdgeCount:    renderResult.EdgeCount,
	}, nil
}
