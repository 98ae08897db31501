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

// WriteFile returns the write_file Definition, sandboxed to workdir.
func WriteFile(workdir string) tools.Definition {
	return tools.Definition{
		Name:        "write_file",
		Category:    "filesystem",
		Description: "Write text content to a file in the locked working directory (creates directories as needed).",
		TimeoutMS:   5000,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":    map[string]any{"type": "string", "description": "Relative path under WORKDIR to write (e.g., report.md)"},
				"content": map[string]any{"type": "string", "description": "Text content to write"},
				"append":  map[string]any{"type": "boolean", "description": "Append to the file instead of overwriting", "default": false},
			},
			"required": []string{"path", "content"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Path    string `json:"path"`
				Content string `json:"content"`
				Append  bool   `json:"append"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, cocoerr.Wrap(cocoerr.InvalidInput, "parse write_file args", err)
			}
			rel, err := sandbox.SanitizeArg(workdir, args.Path)
			if err != nil {
				return nil, cocoerr.Wrap(cocoerr.InvalidInput, "sanitize path", err)
			}
			full := filepath.Join(workdir, rel)
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "create parent dir", err)
			}
			flag := os.O_CREATE | os.O_WRONLY
			if args.Append {
				flag |= os.O_APPEND
			} else {
				flag |= os.O_TRUNC
			}
			f, err := os.OpenFile(full, flag, 0o644)
			if err != nil {
				return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "open "+rel, err)
			}
			defer f.Close()
			if _, err := f.WriteString(args.Content); err != nil {
				return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "write "+rel, err)
			}
			return map[string]any{"path": rel, "bytes": len(args.Content)}, nil
		},
	}
}
