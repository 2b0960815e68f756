package backend

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// runRenderer shells out to a model runner binary. The runner writes the
// image to the path given via --output; stderr is surfaced in the error
// so operators see the python traceback, truncated to keep logs sane.
func runRenderer(ctx context.Context, command string, args []string, outputDir string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("output dir: %w", err)
	}
	outPath := filepath.Join(outputDir, uuid.NewString()+".png")

	cmd := exec.CommandContext(ctx, command, append(args, "--output", outPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return "", fmt.Errorf("renderer %s: %w: %s", command, err, msg)
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("renderer %s produced no output: %w", command, err)
	}
	return outPath, nil
}
