// Package compiler wraps the external pipeline compiler binary. The binary
// translates a local definition document into the serialized workflow
// document the execution service accepts; its failures propagate verbatim.
package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"automlflow/internal/ctxlog"
)

// Compiler invokes an external compiler binary.
type Compiler struct {
	binary string
}

// New returns a Compiler that invokes the given binary. The binary is
// resolved through PATH the same way the shell would resolve it.
func New(binary string) *Compiler {
	return &Compiler{binary: binary}
}

// Compile runs `<binary> --definition <definitionPath> --output
// <outputPath>` and verifies the output file exists afterwards. The
// compiler's stderr is folded into the returned error.
func (c *Compiler) Compile(ctx context.Context, definitionPath, outputPath string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Compiling pipeline definition.", "compiler", c.binary, "definition", definitionPath, "output", outputPath)

	cmd := exec.CommandContext(ctx, c.binary, "--definition", definitionPath, "--output", outputPath)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("compiler %s failed: %w: %s", c.binary, err, msg)
		}
		return fmt.Errorf("compiler %s failed: %w", c.binary, err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("compiler %s exited successfully but produced no output at %s: %w", c.binary, outputPath, err)
	}

	logger.Debug("Compilation finished.", "output", outputPath)
	return nil
}
