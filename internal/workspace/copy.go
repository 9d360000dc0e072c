package workspace

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyTree recursively copies src into dst, creating dst if needed.
// Existing files are overwritten, other entries in dst are left alone. File
// modes are preserved. Symbolic links are followed and their targets copied,
// so relative links keep working once the tree is moved; a dangling link or
// a link back into one of its own ancestors is an error.
func CopyTree(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !srcInfo.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}
	return copyDir(src, dst, srcInfo, map[string]bool{})
}

// copyDir copies the directory src. ancestors holds the resolved paths of
// the directories currently being copied.
func copyDir(src, dst string, info fs.FileInfo, ancestors map[string]bool) error {
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return err
	}
	if ancestors[resolved] {
		return fmt.Errorf("symlink cycle at %s", src)
	}
	ancestors[resolved] = true
	defer delete(ancestors, resolved)

	if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		fi, err := entry.Info()
		if err != nil {
			return err
		}
		if fi.Mode()&fs.ModeSymlink != 0 {
			if fi, err = os.Stat(srcPath); err != nil {
				return fmt.Errorf("broken symlink %s: %w", srcPath, err)
			}
		}

		switch {
		case fi.IsDir():
			if err := copyDir(srcPath, dstPath, fi, ancestors); err != nil {
				return err
			}
		case fi.Mode().IsRegular():
			if err := CopyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// CopyFile copies the contents of src, following links, replacing dst and
// preserving the source mode. A symlink at dst is replaced, not written
// through.
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	if fi, err := os.Lstat(dst); err == nil && fi.Mode()&fs.ModeSymlink != 0 {
		if err := os.Remove(dst); err != nil {
			return err
		}
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode().Perm())
}
