package process

import (
	"context"
	"encoding/json"
	"fmt"
)

// RunJSON executes a subprocess and unmarshals its stdout as JSON into out.
// Tools like ffprobe emit structured JSON on stdout with diagnostics on stderr.
func RunJSON(ctx context.Context, cmd Command, out any) error {
	result, err := Run(ctx, cmd)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(result.Stdout, out); err != nil {
		return fmt.Errorf("process: parse %s output: %w", cmd.Binary, err)
	}
	return nil
}
