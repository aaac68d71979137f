// Package render turns snapshots of the field into text. Snapshots are taken
// with a non-blocking peek; a busy field means the frame is skipped.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tagsim/internal/field"
)

// Cell glyphs.
const (
	GlyphIt     = '*'
	GlyphPlayer = 'P'
	GlyphEmpty  = '-'
)

// Frame is an immutable text snapshot of the field.
type Frame struct {
	width  int
	height int
	cells  []rune
	it     field.ID
}

// Capture copies f into a frame. The cell of the last known it is drawn as
// GlyphIt, other agents as GlyphPlayer. The caller must hold access to f.
func Capture(f *field.Field) Frame {
	fr := Frame{
		width:  f.W(),
		height: f.H(),
		cells:  make([]rune, f.W()*f.H()),
		it:     f.LastKnownItID(),
	}
	for i := range fr.cells {
		fr.cells[i] = GlyphEmpty
	}
	for id, c := range f.Occupants() {
		g := GlyphPlayer
		if id == fr.it {
			g = GlyphIt
		}
		fr.cells[c.Y*fr.width+c.X] = g
	}
	return fr
}

// Width returns the frame width in cells.
func (fr Frame) Width() int { return fr.width }

// Height returns the frame height in cells.
func (fr Frame) Height() int { return fr.height }

// LastKnownIt returns the identity drawn as GlyphIt.
func (fr Frame) LastKnownIt() field.ID { return fr.it }

// Row returns row y as a string.
func (fr Frame) Row(y int) string {
	if y < 0 || y >= fr.height {
		return ""
	}
	return string(fr.cells[y*fr.width : (y+1)*fr.width])
}

// String returns one line per row, without a trailing newline.
func (fr Frame) String() string {
	var sb strings.Builder
	sb.Grow(fr.width*fr.height + fr.height)
	for y := 0; y < fr.height; y++ {
		if y > 0 {
			sb.WriteRune('\n')
		}
		sb.WriteString(fr.Row(y))
	}
	return sb.String()
}

// Palette maps glyphs to styles.
type Palette map[rune]lipgloss.Style

// DefaultPalette highlights it in bold red and dims empty cells.
func DefaultPalette() Palette {
	return Palette{
		GlyphIt:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		GlyphPlayer: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		GlyphEmpty:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// Styled renders the frame with p. Adjacent cells with the same glyph are
// styled together to keep escape sequences short.
func (fr Frame) Styled(p Palette) string {
	if p == nil {
		return fr.String()
	}

	var sb strings.Builder
	sb.Grow(fr.width*fr.height*2 + fr.height)
	for y := 0; y < fr.height; y++ {
		if y > 0 {
			sb.WriteRune('\n')
		}
		row := fr.cells[y*fr.width : (y+1)*fr.width]
		for x := 0; x < len(row); {
			start := x
			for x < len(row) && row[x] == row[start] {
				x++
			}
			run := string(row[start:x])
			if style, ok := p[row[start]]; ok {
				run = style.Render(run)
			}
			sb.WriteString(run)
		}
	}
	return sb.String()
}
