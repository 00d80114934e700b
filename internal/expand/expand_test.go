package expand

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ivlev/pptx2h5p/internal/content"
	"github.com/ivlev/pptx2h5p/internal/errs"
	"github.com/ivlev/pptx2h5p/internal/layout"
	"github.com/ivlev/pptx2h5p/internal/source"
)

const seedJSON = `{"presentation":{"slides":[{"elements":[{"x":0,"y":0,"width":100,"height":100,` +
	`"action":{"library":"H5P.Image 1.1","subContentId":"seed","params":{"file":{"path":"images/seed.jpg","mime":"image/jpeg","width":1,"height":1}},"metadata":{"title":"Image"}}}],` +
	`"keywords":[]}],"keywordListEnabled":true},"l10n":{"slide":"Slide"}}`

func parseSeed(t *testing.T) *content.Document {
	t.Helper()
	doc, err := content.ParseDocument([]byte(seedJSON))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	return doc
}

func images(n int) []source.ImageAsset {
	out := make([]source.ImageAsset, n)
	for i := range out {
		out[i] = source.ImageAsset{Name: fmt.Sprintf("Slide%d.jpg", i+1), Width: 1920 + i, Height: 1080}
	}
	return out
}

func TestExpandSlideCount(t *testing.T) {
	box := layout.FullCanvas()
	for _, n := range []int{1, 2, 3, 10} {
		doc, err := New("images/").Expand(parseSeed(t), images(n), box)
		if err != nil {
			t.Fatalf("Expand(%d) failed: %v", n, err)
		}
		if got := len(doc.Presentation.Slides); got != n {
			t.Errorf("Expected %d slides, got %d", n, got)
		}
	}
}

func TestExpandFields(t *testing.T) {
	box, _ := layout.Fit(1920, 1080, 2)
	imgs := images(3)
	doc, err := New("images/").Expand(parseSeed(t), imgs, box)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}

	ids := map[string]bool{}
	for i, s := range doc.Presentation.Slides {
		el, err := s.Image()
		if err != nil {
			t.Fatalf("slide %d: %v", i, err)
		}
		f := el.Action.Params.File
		if f.Path != "images/"+imgs[i].Name {
			t.Errorf("slide %d: expected path images/%s, got %s", i, imgs[i].Name, f.Path)
		}
		if f.Width != imgs[i].Width || f.Height != imgs[i].Height {
			t.Errorf("slide %d: expected %dx%d, got %dx%d", i, imgs[i].Width, imgs[i].Height, f.Width, f.Height)
		}
		if el.Box() != box {
			t.Errorf("slide %d: expected box %+v, got %+v", i, box, el.Box())
		}
		if !el.Box().Within(1e-9) {
			t.Errorf("slide %d: box off canvas: %+v", i, el.Box())
		}
		id := el.Action.SubContentID
		if id == "" || id == "seed" || ids[id] {
			t.Errorf("slide %d: subContentId %q is not fresh and unique", i, id)
		}
		ids[id] = true
	}
}

func TestExpandLeavesSeedUntouched(t *testing.T) {
	seed := parseSeed(t)
	before, _ := seed.Encode()

	if _, err := New("images/").Expand(seed, images(4), layout.BoundingBox{X: 5, Width: 90, Height: 100}); err != nil {
		t.Fatalf("Expand failed: %v", err)
	}

	after, _ := seed.Encode()
	if string(before) != string(after) {
		t.Errorf("Seed was modified:\nbefore %s\nafter  %s", before, after)
	}
}

func TestExpandCloneIndependence(t *testing.T) {
	doc, err := New("images/").Expand(parseSeed(t), images(3), layout.FullCanvas())
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}

	el, _ := doc.Presentation.Slides[1].Image()
	el.Action.Params.File.Path = "images/other.jpg"
	el.SetBox(layout.BoundingBox{X: 1, Y: 1, Width: 2, Height: 2})

	for _, i := range []int{0, 2} {
		other, _ := doc.Presentation.Slides[i].Image()
		if other.Action.Params.File.Path == "images/other.jpg" {
			t.Errorf("slide %d shares its file with slide 1", i)
		}
		if other.Box() != layout.FullCanvas() {
			t.Errorf("slide %d shares its geometry with slide 1", i)
		}
	}
}

func TestExpandRegeneratesDuplicateIDs(t *testing.T) {
	seq := []string{"a", "a", "b", "b", "c"}
	e := &Expander{RefPrefix: "images/", NewID: func() string {
		id := seq[0]
		seq = seq[1:]
		return id
	}}

	doc, err := e.Expand(parseSeed(t), images(3), layout.FullCanvas())
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	var got []string
	for _, s := range doc.Presentation.Slides {
		el, _ := s.Image()
		got = append(got, el.Action.SubContentID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("Unexpected ids (-want +got):\n%s", diff)
	}
}

func TestExpandUniqueIDsAcrossElements(t *testing.T) {
	seed := `{"presentation":{"slides":[{"elements":[` +
		`{"action":{"subContentId":"img","params":{"file":{"path":"a.jpg","width":1,"height":1}}}},` +
		`{"x":5,"y":5,"width":10,"height":10,"action":{"library":"H5P.AdvancedText 1.1","subContentId":"text-1","params":{}}}]}]}}`
	doc, err := content.ParseDocument([]byte(seed))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	out, err := New("images/").Expand(doc, images(3), layout.FullCanvas())
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	ids := map[string]int{}
	for _, s := range out.Presentation.Slides {
		for _, el := range s.Elements {
			if el.Action != nil {
				ids[el.Action.SubContentID]++
			}
		}
	}
	if len(ids) != 6 {
		t.Errorf("Expected 6 distinct ids, got %v", ids)
	}
	if ids["text-1"] != 0 {
		t.Errorf("Expected seed id text-1 to be replaced, got %v", ids)
	}
	if got := out.Presentation.Slides[1].Elements[1].Box(); got != (layout.BoundingBox{X: 5, Y: 5, Width: 10, Height: 10}) {
		t.Errorf("Expected secondary element to keep its geometry, got %+v", got)
	}
}

func TestExpandMime(t *testing.T) {
	imgs := []source.ImageAsset{{Name: "s1.png", Width: 2, Height: 1}, {Name: "s2.unknown", Width: 2, Height: 1}}
	doc, err := New("images/").Expand(parseSeed(t), imgs, layout.FullCanvas())
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	first, _ := doc.Presentation.Slides[0].Image()
	if first.Action.Params.File.Mime != "image/png" {
		t.Errorf("Expected image/png, got %q", first.Action.Params.File.Mime)
	}
	second, _ := doc.Presentation.Slides[1].Image()
	if second.Action.Params.File.Mime != "image/jpeg" {
		t.Errorf("Expected seed mime to be kept, got %q", second.Action.Params.File.Mime)
	}
}

func TestExpandEmpty(t *testing.T) {
	_, err := New("images/").Expand(parseSeed(t), nil, layout.FullCanvas())
	if !errors.Is(err, errs.ErrEmptyImageSet) {
		t.Errorf("Expected ErrEmptyImageSet, got %v", err)
	}
}

// Two runs over the same input differ only in subContentId.
func TestExpandIdempotentModuloIDs(t *testing.T) {
	box, _ := layout.Fit(1920, 1080, 2)
	run := func() map[string]any {
		doc, err := New("images/").Expand(parseSeed(t), images(3), box)
		if err != nil {
			t.Fatalf("Expand failed: %v", err)
		}
		data, err := doc.Encode()
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		var v map[string]any
		if err := json.Unmarshal(data, &v); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		return v
	}
	a, b := run(), run()

	idsOf := func(v map[string]any) []string {
		var ids []string
		for _, s := range v["presentation"].(map[string]any)["slides"].([]any) {
			action := s.(map[string]any)["elements"].([]any)[0].(map[string]any)["action"].(map[string]any)
			ids = append(ids, action["subContentId"].(string))
			action["subContentId"] = ""
		}
		return ids
	}
	idsA, idsB := idsOf(a), idsOf(b)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Runs differ beyond subContentId (-a +b):\n%s", diff)
	}
	for i := range idsA {
		if idsA[i] == idsB[i] {
			t.Errorf("slide %d: subContentId repeated across runs: %s", i, idsA[i])
		}
	}
}
