package runner

import (
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"node_modules": true,
	".tox":         true,
}

// Discover expands roots into the Python files to migrate. A root that is a
// file is kept as given; a directory is walked for *.py files. Paths
// matching an exclude pattern are dropped. The result is sorted and free of
// duplicates.
func Discover(fsys billy.Filesystem, roots, exclude []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		p = path.Clean(p)
		if !seen[p] && !Excluded(p, exclude) {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, root := range roots {
		info, err := fsys.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = util.Walk(fsys, root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if p != root && (skipDirs[info.Name()] || Excluded(p, exclude)) {
					return fs.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(p, ".py") {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

// Excluded reports whether p matches any pattern. A pattern matches the
// whole slash-separated path, its base name, or, when it ends in "/**",
// everything below that directory.
func Excluded(p string, patterns []string) bool {
	p = path.Clean(strings.TrimPrefix(p, "./"))
	for _, pat := range patterns {
		if dir, ok := strings.CutSuffix(pat, "/**"); ok {
			if p == dir || strings.HasPrefix(p, dir+"/") {
				return true
			}
			continue
		}
		if ok, _ := path.Match(pat, p); ok {
			return true
		}
		if ok, _ := path.Match(pat, path.Base(p)); ok {
			return true
		}
	}
	return false
}
