package devsync

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// copyTree mirrors every file under src into dst, skipping paths matching
// excludes (glob against the base name, or substring against the full
// relative path, matching the file watcher's own exclude semantics).
func copyTree(src, dst string, excludes []string, fileMode, dirMode fs.FileMode) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel != "." && isExcluded(rel, excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, dirMode)
		}
		return copyFile(path, target, fileMode)
	})
}

func isExcluded(rel string, excludes []string) bool {
	base := filepath.Base(rel)
	for _, pat := range excludes {
		if ok, _ := filepath.Match(pat, base); ok {
			return true
		}
		if strings.Contains(rel, pat) {
			return true
		}
	}
	return false
}

func copyFile(src, dst string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), DefaultDirMode); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
