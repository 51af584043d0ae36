package cms

import "strings"

// PageRef is the slice of a page the hierarchy resolver needs.
type PageRef struct {
	PageKey       string `db:"page_key"`
	Slug          string `db:"slug"`
	ParentPageKey string `db:"parent_page_key"`
}

// pageIndex maps page keys to refs. The first ref wins on duplicate keys.
type pageIndex map[string]PageRef

func indexPages(pages []PageRef) pageIndex {
	idx := make(pageIndex, len(pages))
	for _, p := range pages {
		if _, ok := idx[p.PageKey]; !ok {
			idx[p.PageKey] = p
		}
	}
	return idx
}

// BuildFullPath returns the slash-delimited path of page by walking its
// parent chain. A missing parent ends the walk, as does revisiting a parent
// already seen, so corrupted hierarchies still yield a finite path.
func BuildFullPath(page PageRef, pages []PageRef) string {
	return indexPages(pages).fullPath(page)
}

func (idx pageIndex) fullPath(page PageRef) string {
	chain := idx.ancestors(page)
	segments := make([]string, 0, len(chain)+1)
	for _, a := range chain {
		segments = append(segments, a.Slug)
	}
	segments = append(segments, page.Slug)
	return "/" + strings.Join(segments, "/")
}

// Ancestors returns the parent chain of page, root first, under the same
// stopping rules as BuildFullPath.
func Ancestors(page PageRef, pages []PageRef) []PageRef {
	return indexPages(pages).ancestors(page)
}

func (idx pageIndex) ancestors(page PageRef) []PageRef {
	var chain []PageRef
	visited := make(map[string]bool)

	for key := page.ParentPageKey; key != ""; {
		if visited[key] {
			break
		}
		visited[key] = true
		parent, ok := idx[key]
		if !ok {
			break
		}
		chain = append(chain, parent)
		key = parent.ParentPageKey
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// ResolvePageByPath finds the page whose full path equals the joined
// segments. Pages sharing a slug are told apart by their full path.
func ResolvePageByPath(segments []string, pages []PageRef) (PageRef, bool) {
	if len(segments) == 0 {
		return PageRef{}, false
	}
	idx := indexPages(pages)
	target := "/" + strings.Join(segments, "/")
	last := segments[len(segments)-1]

	for _, candidate := range pages {
		if candidate.Slug != last {
			continue
		}
		if idx.fullPath(candidate) == target {
			return candidate, true
		}
	}
	return PageRef{}, false
}

// WouldCreateCycle reports whether making parentKey the parent of pageKey
// would put pageKey in its own ancestor chain. Pre-existing cycles that do
// not involve pageKey end the walk and report false.
func WouldCreateCycle(pageKey, parentKey string, pages []PageRef) bool {
	idx := indexPages(pages)
	visited := make(map[string]bool)

	for key := parentKey; key != ""; {
		if key == pageKey {
			return true
		}
		if visited[key] {
			return false
		}
		visited[key] = true
		key = idx[key].ParentPageKey
	}
	return false
}

// SplitPath turns a request path into hierarchy segments, dropping empty ones.
func SplitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// PathMap returns page key to full path (without the leading slash) for pages.
// Used to resolve internal link targets.
func PathMap(targets []PageRef, all []PageRef) map[string]string {
	idx := indexPages(all)
	paths := make(map[string]string, len(targets))
	for _, p := range targets {
		paths[p.PageKey] = strings.TrimPrefix(idx.fullPath(p), "/")
	}
	return paths
}
