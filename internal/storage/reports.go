package storage

import (
	"context"
	"io"
)

// ReportStore keeps run summaries after the process exits.
type ReportStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error) // returns the stored location
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// ReportKey files a run under its start day, e.g. runs/2024-05-01/<run id>.json.
func ReportKey(day, runID string) string {
	return "runs/" + day + "/" + runID + ".json"
}
