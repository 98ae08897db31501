package fs

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"coco/internal/cocoerr"
	"coco/internal/sandbox"
	"coco/internal/tools"
)

const searchCodeMaxMatches = 200

// SearchCode returns the search_code Definition, sandboxed to workdir. It
// greps recursively under a path for a regular expression, skipping common
// vendor/VCS directories.
func SearchCode(workdir string) tools.Definition {
	return tools.Definition{
		Name:        "search_code",
		Category:    "filesystem",
		Description: "Search for a regular expression across files under a path in the locked working directory.",
		TimeoutMS:   10000,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern": map[string]any{"type": "string", "description": "Regular expression to search for"},
				"path":    map[string]any{"type": "string", "description": "Relative path under WORKDIR to search (defaults to '.')", "default": "."},
			},
			"required": []string{"pattern"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Pattern string `json:"pattern"`
				Path    string `json:"path"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, cocoerr.Wrap(cocoerr.InvalidInput, "parse search_code args", err)
			}
			if args.Pattern == "" {
				return nil, cocoerr.New(cocoerr.InvalidInput, "pattern is required")
			}
			if args.Path == "" {
				args.Path = "."
			}
			rel, err := sandbox.SanitizeArg(workdir, args.Path)
			if err != nil {
				return nil, cocoerr.Wrap(cocoerr.InvalidInput, "sanitize path", err)
			}
			re, err := regexp.Compile(args.Pattern)
			if err != nil {
				return nil, cocoerr.Wrap(cocoerr.InvalidInput, "compile pattern", err)
			}

			root := filepath.Join(workdir, rel)
			type match struct {
				Path string `json:"path"`
				Line int    `json:"line"`
				Text string `json:"text"`
			}
			var matches []match

			walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if d.IsDir() {
					switch d.Name() {
					case ".git", "node_modules", "vendor", ".venv":
						return filepath.SkipDir
					}
					return nil
				}
				if len(matches) >= searchCodeMaxMatches {
					return nil
				}
				f, err := os.Open(p)
				if err != nil {
					return nil
				}
				defer f.Close()

				scanner := bufio.NewScanner(f)
				scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
				lineNo := 0
				for scanner.Scan() {
					lineNo++
					line := scanner.Text()
					if re.MatchString(line) {
						relPath, _ := filepath.Rel(workdir, p)
						matches = append(matches, match{Path: relPath, Line: lineNo, Text: line})
						if len(matches) >= searchCodeMaxMatches {
							break
						}
					}
				}
				return nil
			})
			if walkErr != nil {
				return nil, cocoerr.Wrap(cocoerr.ExternalFailure, "walk "+rel, walkErr)
			}

			return map[string]any{
				"path":    rel,
				"pattern": args.Pattern,
				"matches": matches,
				"count":   len(matches),
				"summary": fmt.Sprintf("%d match(es)", len(matches)),
			}, nil
		},
	}
}
