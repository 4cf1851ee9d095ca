package project

import (
	"archive/zip"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"github.com/maruel/natural"
	"go.uber.org/zap"

	"gssc/archive"
	"gssc/config"
)

// SourceExt is extension of GSS source files.
const SourceExt = ".gss"

// Source is a single GSS file found on disk or inside zip archive.
type Source struct {
	// Identity is unique and stable between runs: absolute file path or
	// absolute archive path joined with entry name.
	Identity string
	// Rel is slash separated path relative to the root source was found under.
	Rel string
	// Marker changes whenever source content may have changed.
	Marker string

	path    string
	archive string
	entry   string
}

// InArchive reports whether source is zip archive entry.
func (s *Source) InArchive() bool {
	return s.archive != ""
}

// Read returns raw source content.
func (s *Source) Read() ([]byte, error) {
	if s.InArchive() {
		data, err := archive.ReadFile(s.archive, s.entry)
		if err != nil {
			return nil, fmt.Errorf("unable to read %s from archive %s: %w", s.entry, s.archive, err)
		}
		return data, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("unable to read source: %w", err)
	}
	return data, nil
}

func fileMarker(fi fs.FileInfo) string {
	return fmt.Sprintf("%d:%d", fi.ModTime().UTC().UnixNano(), fi.Size())
}

// Scan collects GSS sources from roots. Root could be directory (searched
// recursively), zip archive or single source file. Result is deduplicated and
// ordered naturally by identity.
func Scan(ctx context.Context, roots []string, log *zap.Logger) ([]Source, error) {
	var (
		sources []Source
		seen    = make(map[string]struct{})
	)
	add := func(s Source) {
		if _, ok := seen[s.Identity]; ok {
			return
		}
		seen[s.Identity] = struct{}{}
		sources = append(sources, s)
	}

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve source path %s: %w", root, err)
		}
		fi, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("unable to access source %s: %w", root, err)
		}

		switch {
		case fi.IsDir():
			err = scanDir(ctx, abs, add)
		default:
			var isArchive bool
			if isArchive, err = isArchiveFile(abs); err != nil {
				return nil, fmt.Errorf("unable to check source %s: %w", root, err)
			}
			switch {
			case isArchive:
				err = scanArchive(ctx, abs, add)
			case strings.EqualFold(filepath.Ext(abs), SourceExt):
				add(Source{Identity: abs, Rel: filepath.Base(abs), Marker: fileMarker(fi), path: abs})
			default:
				log.Warn("Skipping source which is neither directory, zip archive nor GSS file", zap.String("path", root))
			}
		}
		if err != nil {
			return nil, fmt.Errorf("unable to scan source %s: %w", root, err)
		}
	}

	sort.Slice(sources, func(i, j int) bool {
		return natural.Less(sources[i].Identity, sources[j].Identity)
	})
	return sources, nil
}

func scanDir(ctx context.Context, root string, add func(Source)) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), SourceExt) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		add(Source{Identity: p, Rel: filepath.ToSlash(rel), Marker: fileMarker(fi), path: p})
		return nil
	})
}

func scanArchive(ctx context.Context, arc string, add func(Source)) error {
	return archive.Walk(arc, "", SourceExt, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		add(Source{
			Identity: filepath.Join(arc, filepath.FromSlash(f.Name)),
			Rel:      f.Name,
			Marker:   archive.Marker(f),
			archive:  arc,
			entry:    f.Name,
		})
		return nil
	})
}

// Destination returns path of compiled output for the source. Unless noDirs
// is set source directory structure is preserved under output directory.
func Destination(s Source, output string, format config.OutputFmt, noDirs, transliterate bool) string {
	dir, file := path.Split(s.Rel)
	base := strings.TrimSuffix(file, path.Ext(file))
	if transliterate {
		base = slug.Make(base)
	}
	base = config.CleanFileName(base) + format.Ext()

	if noDirs || dir == "" {
		return filepath.Join(output, base)
	}
	segments := strings.Split(strings.Trim(dir, "/"), "/")
	for i, seg := range segments {
		if transliterate {
			seg = slug.Make(seg)
		}
		segments[i] = config.CleanFileName(seg)
	}
	return filepath.Join(append(append([]string{output}, segments...), base)...)
}
