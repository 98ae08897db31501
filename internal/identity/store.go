// Package identity manages the three human-editable documents injected
// verbatim into every LLM call: the agent's self-description, the user
// profile, and standing preferences.
package identity

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"coco/internal/cocoerr"
)

const (
	SelfFile  = "COCO.md"
	UserFile  = "USER_PROFILE.md"
	PrefsFile = "PREFERENCES.md"
)

var canonicalNames = map[string]string{
	"self":  SelfFile,
	"user":  UserFile,
	"prefs": PrefsFile,
}

// Documents holds the three identity documents read verbatim.
type Documents struct {
	Self  string
	User  string
	Prefs string
}

// Store reads and writes the identity documents under a workspace root.
// It is single-writer (the engine), multiple-reader, per the concurrency
// model: callers share a Store instance and rely on its mutex rather than
// file-level locking.
type Store struct {
	mu      sync.RWMutex
	workdir string
}

func New(workdir string) *Store {
	return &Store{workdir: workdir}
}

// ReadAll loads the three identity documents, treating a missing file as
// empty content rather than an error (a fresh workspace has none yet).
func (s *Store) ReadAll() (Documents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs Documents
	var err error
	if docs.Self, err = s.readFile(SelfFile); err != nil {
		return Documents{}, err
	}
	if docs.User, err = s.readFile(UserFile); err != nil {
		return Documents{}, err
	}
	if docs.Prefs, err = s.readFile(PrefsFile); err != nil {
		return Documents{}, err
	}
	return docs, nil
}

func (s *Store) readFile(name string) (string, error) {
	b, err := os.ReadFile(filepath.Join(s.workdir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", cocoerr.Wrap(cocoerr.Internal, "read identity document "+name, err)
	}
	return string(b), nil
}

// Write stores text under the canonical document name for kind
// ("self", "user", or "prefs"). If the caller's requested path would place
// the document outside the workspace root, Write redirects to the
// canonical top-level path and reports the correction via redirected=true.
func (s *Store) Write(kind, requestedPath, text string) (canonicalPath string, redirected bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	canonical, ok := canonicalNames[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return "", false, cocoerr.New(cocoerr.InvalidInput, "unknown identity document kind: "+kind)
	}

	clean := filepath.Clean(strings.TrimSpace(requestedPath))
	redirected = clean != canonical && clean != "."
	full := filepath.Join(s.workdir, canonical)

	if err := os.MkdirAll(s.workdir, 0o755); err != nil {
		return "", false, cocoerr.Wrap(cocoerr.Internal, "create workspace dir", err)
	}
	if err := os.WriteFile(full, []byte(text), 0o644); err != nil {
		return "", false, cocoerr.Wrap(cocoerr.Internal, "write identity document "+canonical, err)
	}
	return canonical, redirected, nil
}

// ValidateLayout fails with FilesystemCorruption when it finds more than
// one file resolving to the same canonical identity document name in the
// workspace root (e.g. case-variant duplicates on a case-insensitive
// mount, or stray copies left by an older layout).
func (s *Store) ValidateLayout() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.workdir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return cocoerr.Wrap(cocoerr.Internal, "read workspace dir", err)
	}

	seen := map[string][]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lower := strings.ToLower(e.Name())
		for _, canonical := range canonicalNames {
			if strings.ToLower(canonical) == lower {
				seen[canonical] = append(seen[canonical], e.Name())
			}
		}
	}
	for canonical, names := range seen {
		if len(names) > 1 {
			return cocoerr.New(cocoerr.FilesystemCorruption,
				"duplicate identity document for "+canonical+": "+strings.Join(names, ", "))
		}
	}
	return nil
}
