package project

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"

	"gssc/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func rels(sources []Source) []string {
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		out = append(out, s.Rel)
	}
	return out
}

func TestScan_Directory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b10.gss"), ".b\n")
	writeFile(t, filepath.Join(root, "b2.gss"), ".b\n")
	writeFile(t, filepath.Join(root, "sub", "a.GSS"), ".a\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "skip me")

	sources, err := Scan(t.Context(), []string{root, root}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	want := []string{"b2.gss", "b10.gss", "sub/a.GSS"}
	if got := rels(sources); !slices.Equal(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
	for _, s := range sources {
		if !filepath.IsAbs(s.Identity) {
			t.Errorf("identity %q is not absolute", s.Identity)
		}
		if s.InArchive() {
			t.Errorf("source %q should not be in archive", s.Rel)
		}
		if s.Marker == "" {
			t.Errorf("source %q has no marker", s.Rel)
		}
	}
	data, err := sources[2].Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(data) != ".a\n" {
		t.Errorf("Read() = %q", data)
	}
}

func TestScan_ArchiveAndFile(t *testing.T) {
	root := t.TempDir()
	arc := filepath.Join(root, "theme.zip")
	writeZip(t, arc, map[string]string{
		"base/colors.gss": "@col\n  brand: #fff\n",
		"readme.md":       "skip me",
	})
	single := filepath.Join(root, "one.gss")
	writeFile(t, single, ".one\n")
	writeFile(t, filepath.Join(root, "other.txt"), "skip me")

	sources, err := Scan(t.Context(), []string{arc, single, filepath.Join(root, "other.txt")}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("Scan() found %d sources, want 2: %v", len(sources), rels(sources))
	}

	var inArchive *Source
	for i := range sources {
		if sources[i].InArchive() {
			inArchive = &sources[i]
		}
	}
	if inArchive == nil {
		t.Fatal("archive entry not found")
	}
	if inArchive.Rel != "base/colors.gss" {
		t.Errorf("Rel = %q", inArchive.Rel)
	}
	if want := filepath.Join(arc, "base", "colors.gss"); inArchive.Identity != want {
		t.Errorf("Identity = %q, want %q", inArchive.Identity, want)
	}
	data, err := inArchive.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(data) != "@col\n  brand: #fff\n" {
		t.Errorf("Read() = %q", data)
	}
}

func TestScan_Missing(t *testing.T) {
	_, err := Scan(t.Context(), []string{filepath.Join(t.TempDir(), "nope")}, zaptest.NewLogger(t))
	if err == nil {
		t.Error("Expected error for missing source")
	}
}

func TestScan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := Scan(ctx, []string{t.TempDir()}, zaptest.NewLogger(t)); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestDestination(t *testing.T) {
	out := filepath.Join("out", "css")
	tests := []struct {
		name          string
		rel           string
		format        config.OutputFmt
		noDirs        bool
		transliterate bool
		want          string
	}{
		{"flat source", "site.gss", config.OutputFmtCss, false, false, filepath.Join(out, "site.css")},
		{"nested source", "a/b/site.gss", config.OutputFmtCss, false, false, filepath.Join(out, "a", "b", "site.css")},
		{"nested no dirs", "a/b/site.gss", config.OutputFmtCss, true, false, filepath.Join(out, "site.css")},
		{"json format", "site.gss", config.OutputFmtJson, false, false, filepath.Join(out, "site.json")},
		{"transliterated", "My Theme/Main Page.gss", config.OutputFmtCss, false, true, filepath.Join(out, "my-theme", "main-page.css")},
		{"not transliterated", "My Theme/Main Page.gss", config.OutputFmtCss, false, false, filepath.Join(out, "My Theme", "Main Page.css")},
		{"leading dots removed", "..hidden.gss", config.OutputFmtCss, false, false, filepath.Join(out, "hidden.css")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Destination(Source{Rel: tt.rel}, out, tt.format, tt.noDirs, tt.transliterate)
			if got != tt.want {
				t.Errorf("Destination() = %q, want %q", got, tt.want)
			}
		})
	}
}
