package pack

import (
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zip"

	"github.com/ivlev/pptx2h5p/internal/config"
	"github.com/ivlev/pptx2h5p/internal/errs"
	"github.com/ivlev/pptx2h5p/internal/source"
	"github.com/ivlev/pptx2h5p/internal/template"
)

const (
	seedJSON     = `{"presentation":{"slides":[{"elements":[{"x":0,"y":0,"width":100,"height":100,"action":{"library":"H5P.Image 1.1","subContentId":"seed","params":{"file":{"path":"images/seed.jpg","width":1,"height":1}}}}]}]}}`
	manifestJSON = `{"title":"Template","language":"und","mainLibrary":"H5P.CoursePresentation","embedTypes":["div"]}`
	libraryJS    = "H5P.CoursePresentation = {};\n"
)

func testTemplate(t *testing.T) *template.Template {
	t.Helper()
	fsys := fstest.MapFS{
		"h5p.json":                            {Data: []byte(manifestJSON)},
		"content/content.json":                {Data: []byte(seedJSON)},
		"content/images/img1.png":             {Data: []byte("stale")},
		"H5P.CoursePresentation-1.25/cp.js":   {Data: []byte(libraryJS)},
		"H5P.CoursePresentation-1.25/cp.json": {Data: []byte(`{"x":1}`)},
	}
	tmpl, err := template.Load(fsys, config.Default().Template)
	if err != nil {
		t.Fatalf("template.Load failed: %v", err)
	}
	return tmpl
}

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 192, 108))); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
}

func readArchive(t *testing.T, p string) map[string][]byte {
	t.Helper()
	r, err := zip.OpenReader(p)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer r.Close()

	entries := map[string][]byte{}
	for _, f := range r.File {
		if _, dup := entries[f.Name]; dup {
			t.Errorf("duplicate entry %s", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		entries[f.Name] = data
	}
	return entries
}

func TestAssembleEndToEnd(t *testing.T) {
	imgDir := t.TempDir()
	writeImages(t, imgDir, "img10.png", "img2.png", "img1.png")
	src, err := source.NewImageSource(imgDir)
	if err != nil {
		t.Fatal(err)
	}
	assets, err := src.Assets()
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "Lecture.h5p")
	a := NewAssembler(config.Default(), testTemplate(t), nil)
	err = a.Assemble(Request{Output: out, ImageDir: imgDir, Images: assets, Title: "Lecture"})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	entries := readArchive(t, out)

	if string(entries["H5P.CoursePresentation-1.25/cp.js"]) != libraryJS {
		t.Errorf("template file not copied verbatim")
	}
	if _, ok := entries["H5P.CoursePresentation-1.25/cp.json"]; !ok {
		t.Errorf("template file missing")
	}
	if string(entries["content/images/img1.png"]) == "stale" {
		t.Errorf("template image was not replaced by the slide image")
	}
	for _, name := range []string{"img1.png", "img2.png", "img10.png"} {
		want, err := os.ReadFile(filepath.Join(imgDir, name))
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if string(entries["content/images/"+name]) != string(want) {
			t.Errorf("image %s not stored verbatim", name)
		}
	}

	var doc struct {
		Presentation struct {
			Slides []struct {
				Elements []struct {
					X, Y, Width, Height float64
					Action              struct {
						SubContentID string `json:"subContentId"`
						Params       struct {
							File struct {
								Path          string
								Width, Height int
							}
						}
					}
				}
			}
		}
	}
	if err := json.Unmarshal(entries["content/content.json"], &doc); err != nil {
		t.Fatalf("content.json: %v", err)
	}
	slides := doc.Presentation.Slides
	if len(slides) != 3 {
		t.Fatalf("Expected 3 slides, got %d", len(slides))
	}
	ids := map[string]bool{}
	for i, want := range []string{"images/img1.png", "images/img2.png", "images/img10.png"} {
		el := slides[i].Elements[0]
		if el.Action.Params.File.Path != want {
			t.Errorf("slide %d: expected %s, got %s", i, want, el.Action.Params.File.Path)
		}
		if el.Action.Params.File.Width != 192 || el.Action.Params.File.Height != 108 {
			t.Errorf("slide %d: unexpected size %dx%d", i, el.Action.Params.File.Width, el.Action.Params.File.Height)
		}
		if ids[el.Action.SubContentID] {
			t.Errorf("slide %d: duplicate subContentId", i)
		}
		ids[el.Action.SubContentID] = true
		if el.Height != 100 || el.X <= 5 || el.X >= 6 {
			t.Errorf("slide %d: unexpected geometry x=%f width=%f height=%f", i, el.X, el.Width, el.Height)
		}
	}

	var want, got map[string]any
	if err := json.Unmarshal([]byte(manifestJSON), &want); err != nil {
		t.Fatalf("Unmarshal template manifest failed: %v", err)
	}
	want["title"] = "Lecture"
	if err := json.Unmarshal(entries["h5p.json"], &got); err != nil {
		t.Fatalf("Unmarshal manifest failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleMissingImageLeavesNothing(t *testing.T) {
	imgDir := t.TempDir()
	writeImages(t, imgDir, "img1.png")
	assets := []source.ImageAsset{
		{Name: "img1.png", Width: 192, Height: 108},
		{Name: "gone.png", Width: 192, Height: 108},
	}

	outDir := t.TempDir()
	out := filepath.Join(outDir, "Broken.h5p")
	a := NewAssembler(config.Default(), testTemplate(t), nil)
	err := a.Assemble(Request{Output: out, ImageDir: imgDir, Images: assets, Title: "Broken"})
	if !errors.Is(err, errs.ErrIO) {
		t.Fatalf("Expected ErrIO, got %v", err)
	}

	left, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("Expected no files after failure, found %d", len(left))
	}
}

func TestAssembleKeepsExistingOutputOnFailure(t *testing.T) {
	outDir := t.TempDir()
	out := filepath.Join(outDir, "Deck.h5p")
	if err := os.WriteFile(out, []byte("previous"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	a := NewAssembler(config.Default(), testTemplate(t), nil)
	err := a.Assemble(Request{
		Output:   out,
		ImageDir: t.TempDir(),
		Images:   []source.ImageAsset{{Name: "missing.png", Width: 4, Height: 3}},
		Title:    "Deck",
	})
	if err == nil {
		t.Fatal("Expected failure")
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "previous" {
		t.Errorf("Existing output was replaced by a failed run")
	}
}

func TestBuild(t *testing.T) {
	tmpl := testTemplate(t)
	images := []source.ImageAsset{
		{Name: "a.jpg", Width: 1920, Height: 1080},
		{Name: "b.jpg", Width: 1000, Height: 1000},
	}
	pkg, err := Build(tmpl, NewAssembler(config.Default(), tmpl, nil).Expander, 2.0, images, "T")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// the first image decides the box for every slide
	for i, s := range pkg.Document.Presentation.Slides {
		el, _ := s.Image()
		if el.Box() != pkg.Box {
			t.Errorf("slide %d: expected box %+v, got %+v", i, pkg.Box, el.Box())
		}
	}
	if pkg.Manifest.Title != "T" || tmpl.Manifest().Title != "Template" {
		t.Errorf("Unexpected titles %q / %q", pkg.Manifest.Title, tmpl.Manifest().Title)
	}

	if _, err := Build(tmpl, nil, 2.0, nil, "T"); !errors.Is(err, errs.ErrEmptyImageSet) {
		t.Errorf("Expected ErrEmptyImageSet, got %v", err)
	}
}
