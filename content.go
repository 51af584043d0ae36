// Package seocms holds the site's built-in templates and static assets.
package seocms

import (
	"embed"
	"io/fs"
	"os"
	"sort"
)

//go:embed all:templates static
var embeddedFS embed.FS

// overlayFS serves files from override when present there and from base
// otherwise. Directories always come from base.
type overlayFS struct {
	base     fs.FS
	override fs.FS
}

func (o *overlayFS) Open(name string) (fs.File, error) {
	if f, err := o.override.Open(name); err == nil {
		if info, err := f.Stat(); err == nil && !info.IsDir() {
			return f, nil
		}
		f.Close()
	}
	return o.base.Open(name)
}

// ContentFS holds the layouts, page templates and static assets. Files in
// the working directory with the same path replace the built-in ones, so a
// site can restyle itself without a rebuild.
var ContentFS fs.FS = &overlayFS{base: embeddedFS, override: os.DirFS(".")}

// ContentFile is one built-in file and where it is currently served from.
type ContentFile struct {
	Path string
	// OnDisk is set when a file in the working directory replaces it.
	OnDisk bool
}

// ListContentFiles returns every built-in file, sorted by path.
func ListContentFiles() ([]ContentFile, error) {
	var files []ContentFile
	err := fs.WalkDir(embeddedFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, statErr := os.Stat(path)
		files = append(files, ContentFile{
			Path:   path,
			OnDisk: statErr == nil && !info.IsDir(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// Overrides returns the files replaced from disk.
func Overrides(files []ContentFile) []ContentFile {
	var out []ContentFile
	for _, f := range files {
		if f.OnDisk {
			out = append(out, f)
		}
	}
	return out
}
