package content

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/ivlev/pptx2h5p/internal/errs"
)

// Manifest is the package manifest. Title is the only member the converter
// rewrites.
type Manifest struct {
	Title string `json:"title"`
	extra extra
}

func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", errs.ErrValidation, err)
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", errs.ErrValidation, err)
	}
	if _, ok := probe["title"]; !ok {
		return nil, fmt.Errorf("%w: manifest has no title", errs.ErrValidation)
	}
	return &m, nil
}

// WithTitle returns a copy of m carrying title.
func (m *Manifest) WithTitle(title string) *Manifest {
	return &Manifest{Title: title, extra: maps.Clone(m.extra)}
}

// Field returns the raw JSON of a member other than title.
func (m *Manifest) Field(name string) (json.RawMessage, bool) {
	raw, ok := m.extra[name]
	return raw, ok
}

func (m *Manifest) Encode() ([]byte, error) {
	return json.Marshal(m)
}

func (m *Manifest) UnmarshalJSON(data []byte) error {
	type plain Manifest
	if err := json.Unmarshal(data, (*plain)(m)); err != nil {
		return err
	}
	x, err := splitExtra(data, "title")
	m.extra = x
	return err
}

func (m Manifest) MarshalJSON() ([]byte, error) {
	type plain Manifest
	return mergeExtra(plain(m), m.extra)
}
