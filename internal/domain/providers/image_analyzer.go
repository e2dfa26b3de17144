package providers

import "context"

// ImageAnalyzer describes an attached image in free text. Analysis is
// best-effort: the workflow engine logs and skips individual failures, they
// never abort the pipeline.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, imagePath string) (string, error)
}
