package paginate

import "strings"

// Format is a physical page size.
type Format struct {
	Name     string
	WidthMM  float64
	HeightMM float64
}

var (
	A3 = Format{Name: "a3", WidthMM: 297, HeightMM: 420}
	A4 = Format{Name: "a4", WidthMM: 210, HeightMM: 297}
	A5 = Format{Name: "a5", WidthMM: 148, HeightMM: 210}
)

// PxPerMM is the CSS reference pixel density (96 px per inch).
const PxPerMM = 96 / 25.4

// LookupFormat resolves a page's format attribute. Unknown or empty values
// fall back to A4.
func LookupFormat(name string) Format {
	switch strings.ToLower(name) {
	case "a3":
		return A3
	case "a5":
		return A5
	default:
		return A4
	}
}

// HeightPx is the page height in CSS pixels.
func (f Format) HeightPx() float64 { return f.HeightMM * PxPerMM }

// WidthPx is the page width in CSS pixels.
func (f Format) WidthPx() float64 { return f.WidthMM * PxPerMM }

// WidthInches and HeightInches give the paper size for PDF output.
func (f Format) WidthInches() float64  { return f.WidthMM / 25.4 }
func (f Format) HeightInches() float64 { return f.HeightMM / 25.4 }
