package render

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// HashTemplates computes a hash of all files under dir within the given
// filesystem. Files are processed in sorted order so the hash is
// deterministic. Mixed into page ETags so a layout change invalidates
// cached responses.
func HashTemplates(fsys fs.FS, dir string) (string, error) {
	var paths []string
	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking templates dir: %w", err)
	}

	sort.Strings(paths)

	h := xxhash.New()
	for _, path := range paths {
		// Include the relative path in the hash so renames are detected.
		rel := strings.TrimPrefix(path, dir+"/")
		h.WriteString(rel)

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		h.Write(data)
	}

	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// Fingerprint hashes rendered output together with any extra inputs that
// affect the response, for use as an ETag.
func Fingerprint(parts ...string) string {
	h := xxhash.New()
	for _, p := range parts {
		h.WriteString(p)
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
