package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/leaderline/pkg/observability"
	"github.com/matzehuels/leaderline/pkg/scene"
)

// Load reads and validates a scene file, inferring the format from its
// extension.
func Load(ctx context.Context, path string) (*scene.Scene, error) {
	began := time.Now()
	observability.Pipeline().OnLoadStart(ctx, path)
	sc, err := scene.Load(path)
	observability.Pipeline().OnLoadComplete(ctx, path, lineCount(sc), time.Since(began), err)
	return sc, err
}

// Parse decodes and validates a scene held in memory. source names the
// scene in hooks and logs.
func Parse(ctx context.Context, data []byte, format scene.Format, source string) (*scene.Scene, error) {
	began := time.Now()
	observability.Pipeline().OnLoadStart(ctx, source)
	sc, err := scene.Parse(data, format)
	observability.Pipeline().OnLoadComplete(ctx, source, lineCount(sc), time.Since(began), err)
	return sc, err
}

func lineCount(sc *scene.Scene) int {
	if sc == nil {
		return 0
	}
	return len(sc.Lines)
}
