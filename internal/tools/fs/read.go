// Package fs adapts filesystem tools (read_file, write_file, list_dir,
// search_code) into the Tool Registry's Definition contract, sandboxed to
// the workspace root.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"coco/internal/cocoerr"
	"coco/internal/sandbox"
	"coco/internal/tools"
)

// ReadFile returns the read_file Definition, sandboxed to workdir.
func ReadFile(workdir string) tools.Definition {
	return tools.Definition{
		Name:        "read_file",
		Category:    "filesystem",
		Description: "Read text content from a file in the locked working directory.",
		TimeoutMS:   5000,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "description": "Relative path under WORKDIR (e.g., main.go)"},
			},
			"required": []string{"path"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Path string `json:"path"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, cocoerr.Wrap(cocoerr.InvalidInput, "parse read_file args", err)
			}
			rel, err := sandbox.SanitizeArg(workdir, args.Path)
			if err != nil {
				return nil, cocoerr.Wrap(cocoerr.InvalidInput, "sanitize path", err)
			}
			b, err := os.ReadFile(filepath.Join(workdir, rel))
			if err != nil {
				return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "read "+rel, err)
			}
			return map[string]any{"path": rel, "content": string(b)}, nil
		},
	}
}
