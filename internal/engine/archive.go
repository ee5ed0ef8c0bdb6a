package engine

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yndnr/netverify-go/internal/core/domain"
)

// PlatformHeaderPrefix marks the vendor platform of a configuration text.
const PlatformHeaderPrefix = "!RANCID-CONTENT-TYPE: "

// DefaultConfigFilename names a configuration packaged from text.
const DefaultConfigFilename = "config"

// ArchiveDir zips a snapshot directory under a top-level folder named
// after the snapshot. Hidden files and directories are skipped.
func ArchiveDir(dir, snapshot string) ([]byte, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, domain.ErrInvalidArgument.WithDetails("snapshot directory").WithCause(err)
	}
	if !info.IsDir() {
		return nil, domain.ErrInvalidArgument.WithDetails(dir + " is not a directory")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := 0
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if err := addFile(zw, path.Join(snapshot, filepath.ToSlash(rel)), p); err != nil {
			return err
		}
		files++
		return nil
	})
	if err != nil {
		return nil, domain.ErrInternal.WithDetails("package snapshot directory").WithCause(err)
	}
	if files == 0 {
		return nil, domain.ErrInvalidArgument.WithDetails("snapshot directory has no files: " + dir)
	}

	if err := zw.Close(); err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}
	return buf.Bytes(), nil
}

// ArchiveText packages a single configuration text as configs/<filename>.
// A non-empty platform is recorded as a header line.
func ArchiveText(text, platform, snapshot, filename string) ([]byte, error) {
	if filename == "" {
		filename = DefaultConfigFilename
	}
	if strings.ContainsAny(filename, `/\`) {
		return nil, domain.ErrInvalidArgument.WithDetails("filename must not contain path separators")
	}

	content := text
	if platform != "" {
		content = PlatformHeaderPrefix + platform + "\n" + text
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(path.Join(snapshot, "configs", filename))
	if err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}
	if err := zw.Close(); err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}
	return buf.Bytes(), nil
}

func addFile(zw *zip.Writer, name, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return nil
}
