package hatch

import (
	"context"
	"fmt"

	"github.com/sokinpui/hatch/internal/relayclient"
)

// Config for using hatch as a library.
type Config struct {
	// Base URL of the relay. Empty uses relayclient.DefaultBaseURL.
	APIBaseURL string
	// Directory the generated project is written to. Empty skips the export.
	ExportDir string
}

// Generate runs one prompt against the relay and writes the resulting
// project under config.ExportDir. It returns the generated files and, when
// exported, a summary of the written paths.
func Generate(ctx context.Context, prompt string, config Config) (map[string]string, map[string][]string, error) {
	app, err := New(relayclient.New(config.APIBaseURL, nil), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize hatch app: %w", err)
	}
	if err := app.Submit(ctx, prompt); err != nil {
		return nil, nil, err
	}

	files := app.Store().Files()
	if config.ExportDir == "" || len(files) == 0 {
		return files, nil, nil
	}

	summary, err := app.Export(config.ExportDir)
	if err != nil {
		return files, nil, err
	}
	result := map[string][]string{
		"Created":  summary.Created,
		"Modified": summary.Modified,
		"Failed":   summary.Failed,
	}
	return files, result, nil
}
