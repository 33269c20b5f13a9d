package archive

import (
	"io/fs"
	"path/filepath"
)

// collectPaths returns every regular file under root whose path relative
// to root is accepted by patterns, as slash-separated relative paths.
//
// Matching follows the teacher's include/exclude precedence: a file is
// archived if it matches no Exclude pattern, and either Include is empty
// or it matches at least one Include pattern. Each pattern is matched with
// filepath.Match against both the full relative path and the file's base
// name, after stripping a leading "**/"; a pattern with a directory part
// therefore only matches at the top of the tree.
func collectPaths(root string, patterns FilePatterns, diagnostics Diagnostics) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if matchesAny(rel, patterns.Exclude) {
			return nil
		}
		if len(patterns.Include) > 0 && !matchesAny(rel, patterns.Include) {
			if diagnostics != nil {
				diagnostics.Push("skipping " + rel + ": matched by no include pattern")
			}
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	return paths, err
}

func matchesAny(rel string, patterns []string) bool {
	for _, p := range patterns {
		pat := p
		if len(pat) >= 3 && pat[:3] == "**/" {
			pat = pat[3:]
		}
		if ok, _ := filepath.Match(pat, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(pat, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}
