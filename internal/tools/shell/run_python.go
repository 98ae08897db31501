package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"coco/internal/cocoerr"
	"coco/internal/tools"
)

// RunPythonSnippet returns the run_python_snippet Definition: writes the
// submitted code to a scratch file under workdir/.coco-tmp and runs it with
// the system python3, bounded by the tool's timeout. Unlike manifold's
// Docker-sandboxed RunPython, this trades container isolation for a direct
// subprocess — appropriate for COCO's single-user, single-host deployment.
func RunPythonSnippet(workdir string) tools.Definition {
	return tools.Definition{
		Name:        "run_python_snippet",
		Category:    "code_execution",
		Description: "Execute a short Python snippet with python3 and return stdout/stderr.",
		TimeoutMS:   15000,
		Probe:       func() bool { _, err := exec.LookPath("python3"); return err == nil },
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code": map[string]any{"type": "string", "description": "Python source to execute"},
			},
			"required": []string{"code"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, cocoerr.Wrap(cocoerr.InvalidInput, "parse run_python_snippet args", err)
			}
			if args.Code == "" {
				return nil, cocoerr.New(cocoerr.InvalidInput, "code is required")
			}

			tmpDir := filepath.Join(workdir, ".coco-tmp")
			if err := os.MkdirAll(tmpDir, 0o755); err != nil {
				return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "create scratch dir", err)
			}
			file := filepath.Join(tmpDir, uuid.NewString()+".py")
			if err := os.WriteFile(file, []byte(args.Code), 0o644); err != nil {
				return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "write snippet", err)
			}
			defer os.Remove(file)

			cmd := exec.CommandContext(ctx, "python3", file)
			cmd.Dir = workdir
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			log.Debug().Str("file", file).Msg("run_python_snippet dispatch")
			if err := cmd.Run(); err != nil {
				return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "python3 exec: "+stderr.String(), err)
			}

			return map[string]any{"stdout": stdout.String(), "stderr": stderr.String()}, nil
		},
	}
}
