package gate

import (
	"fmt"
	"os"
)

// writeOutputs appends the step outputs to the file GitHub Actions names via
// GITHUB_OUTPUT. An empty path means the run is not executing under a
// runner; the outputs are simply skipped.
func writeOutputs(path, mainTS, replyTS string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "mainMessageTs=%s\nreplyMessageTs=%s\n", mainTS, replyTS); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}
	return nil
}
