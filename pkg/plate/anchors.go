package plate

import (
	_ "embed"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/platesouq/platekit/pkg/errors"
)

// Anchor positions the series code and plate number on a template.
// Coordinates are center anchors expressed as fractions of the template's
// native width and height; sizes are fractions of the template height.
// Keeping this as external data (not inline conditionals) lets the table
// be validated and extended without touching drawing code.
type Anchor struct {
	CodeX      float64 `toml:"code_x"`
	CodeY      float64 `toml:"code_y"`
	CodeSize   float64 `toml:"code_size"`
	NumberX    float64 `toml:"number_x"`
	NumberY    float64 `toml:"number_y"`
	NumberSize float64 `toml:"number_size"`
}

// DefaultAnchor is used for region/class combinations with no table entry:
// code on the left quarter, number centered right of it.
var DefaultAnchor = Anchor{
	CodeX: 0.22, CodeY: 0.5, CodeSize: 0.42,
	NumberX: 0.62, NumberY: 0.5, NumberSize: 0.5,
}

// AnchorTable maps template keys ("dubai", "dubai_bike") to anchors.
type AnchorTable map[string]Anchor

// Lookup resolves the anchor for a spec: class-suffixed key first, then
// the bare region key, then DefaultAnchor.
func (t AnchorTable) Lookup(spec Spec) Anchor {
	if a, ok := t[spec.TemplateKey()]; ok {
		return a
	}
	if a, ok := t[spec.Region]; ok {
		return a
	}
	return DefaultAnchor
}

// anchorFile is the TOML shape of an anchor table:
//
//	[anchors.dubai]
//	code_x = 0.18
//	...
type anchorFile struct {
	Anchors map[string]Anchor `toml:"anchors"`
}

//go:embed anchors.toml
var defaultAnchorTOML []byte

// DefaultAnchors returns the bundled anchor table covering the known
// regions and classes.
func DefaultAnchors() AnchorTable {
	t, err := ParseAnchors(defaultAnchorTOML)
	if err != nil {
		// The bundled table is validated by tests; a parse failure here is
		// a build defect.
		panic(err)
	}
	return t
}

// ParseAnchors parses a TOML anchor table document.
func ParseAnchors(data []byte) (AnchorTable, error) {
	var f anchorFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse anchor table")
	}
	return AnchorTable(f.Anchors), nil
}

// LoadAnchors reads and parses a TOML anchor table file.
func LoadAnchors(path string) (AnchorTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read anchor table %s", path)
	}
	return ParseAnchors(data)
}
