package objectstore

import "context"

// Publisher uploads the artifacts of one run and returns their object names.
type Publisher interface {
	Publish(ctx context.Context, runID string, paths []string) ([]string, error)
}
