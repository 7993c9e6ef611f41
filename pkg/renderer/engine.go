/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package renderer

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	apperrors "github.com/mweibel/commodore/pkg/errors"
)

// Input is the directory layout handed to a render engine for one
// component.
type Input struct {
	// Component is the component name.
	Component string
	// SourceDir is the component checkout at its pinned revision.
	SourceDir string
	// ParamsFile is the path of the params.yaml written for this render.
	ParamsFile string
	// OutputDir is the directory the engine must write manifests into.
	OutputDir string
}

// Engine renders one component's manifests into the output directory.
type Engine interface {
	Render(ctx context.Context, in Input) error
}

// Placeholders substituted into exec engine arguments.
const (
	placeholderComponent = "{component}"
	placeholderSource    = "{source}"
	placeholderParams    = "{params}"
	placeholderOutput    = "{output}"
)

// stderrTailLimit bounds how much engine stderr is attached to errors.
const stderrTailLimit = 4096

// ExecEngine runs an external render engine as a subprocess. Arguments may
// contain the placeholders {component}, {source}, {params} and {output};
// the same values are also exported as COMMODORE_* environment variables.
type ExecEngine struct {
	command string
	args    []string
}

// NewExecEngine creates an engine invoking the given command.
func NewExecEngine(command string, args ...string) *ExecEngine {
	return &ExecEngine{command: command, args: args}
}

// Render invokes the engine subprocess. A non-zero exit is an engine
// failure and carries the tail of the engine's stderr; failing to start the
// subprocess is an orchestration failure.
func (e *ExecEngine) Render(ctx context.Context, in Input) error {
	args := make([]string, len(e.args))
	for i, arg := range e.args {
		args[i] = expand(arg, in)
	}

	cmd := exec.CommandContext(ctx, e.command, args...)
	cmd.Dir = in.SourceDir
	cmd.Env = append(os.Environ(),
		"COMMODORE_COMPONENT="+in.Component,
		"COMMODORE_SOURCE="+in.SourceDir,
		"COMMODORE_PARAMS="+in.ParamsFile,
		"COMMODORE_OUTPUT="+in.OutputDir,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if apperrors.As(err, &exitErr) {
			return apperrors.WrapWithContext(apperrors.ErrCodeRender,
				"render engine failed", err, map[string]any{
					"component": in.Component,
					"engine":    e.command,
					"exitCode":  exitErr.ExitCode(),
					"stderr":    tail(stderr.String(), stderrTailLimit),
				})
		}
		return apperrors.WrapWithContext(apperrors.ErrCodeRender,
			"starting render engine", err, map[string]any{
				"component": in.Component,
				"engine":    e.command,
			})
	}
	return nil
}

func expand(arg string, in Input) string {
	r := strings.NewReplacer(
		placeholderComponent, in.Component,
		placeholderSource, in.SourceDir,
		placeholderParams, in.ParamsFile,
		placeholderOutput, in.OutputDir,
	)
	return r.Replace(arg)
}

func tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}

// EngineFailed reports whether the error came from the engine subprocess
// itself rather than from orchestration around it.
func EngineFailed(err error) bool {
	var exitErr *exec.ExitError
	return apperrors.As(err, &exitErr)
}
