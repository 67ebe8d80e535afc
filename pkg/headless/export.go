package headless

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/killallgit/tessera/pkg/artifact"
)

// exportArtifacts writes the download of every stored artifact into dir
// and returns the file names in store order
func exportArtifacts(store *artifact.Store, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}

	var files []string
	for _, a := range store.List() {
		d, err := store.Download(a.ID)
		if err != nil {
			return files, err
		}
		name := safeFilename(d.Filename)
		if err := os.WriteFile(filepath.Join(dir, name), d.Data, 0o644); err != nil {
			return files, fmt.Errorf("failed to write %s: %w", name, err)
		}
		files = append(files, name)
	}
	return files, nil
}

func safeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "." || name == ".." || name == "" {
		return "artifact"
	}
	return name
}
