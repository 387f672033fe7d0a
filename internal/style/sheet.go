package style

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
)

var (
	// ErrSheetNotFound is returned when no user or bundled sheet has the name.
	ErrSheetNotFound = errors.New("stylesheet not found")
	// ErrUnknownColor is returned for a color that is neither a palette role nor a literal.
	ErrUnknownColor = errors.New("unknown color")
	// ErrUnknownBorder is returned for an unrecognised border name.
	ErrUnknownBorder = errors.New("unknown border")
)

// Palette holds the semantic color roles for one variant.
// Values are lipgloss colors: "#rrggbb" or an ANSI index.
type Palette struct {
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
	Accent     string `toml:"accent"`
	AccentText string `toml:"accent_text"`
	Muted      string `toml:"muted"`
	Border     string `toml:"border"`
	Danger     string `toml:"danger"`
	Success    string `toml:"success"`
}

// role resolves a palette role name. ok is false for unknown names.
func (p Palette) role(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "foreground", "fg":
		return p.Foreground, true
	case "background", "bg":
		return p.Background, true
	case "accent":
		return p.Accent, true
	case "accent_text":
		return p.AccentText, true
	case "muted":
		return p.Muted, true
	case "border":
		return p.Border, true
	case "danger":
		return p.Danger, true
	case "success":
		return p.Success, true
	}
	return "", false
}

// Rule is the declaration block of one class.
type Rule struct {
	Foreground       string `toml:"foreground"`
	Background       string `toml:"background"`
	BorderForeground string `toml:"border_foreground"`
	Bold             bool   `toml:"bold"`
	Italic           bool   `toml:"italic"`
	Underline        bool   `toml:"underline"`
	Faint            bool   `toml:"faint"`
	Padding          []int  `toml:"padding"` // CSS shorthand: 1, 2 or 4 values
	Margin           []int  `toml:"margin"`
	Border           string `toml:"border"`
	Width            int    `toml:"width"`
	Align            string `toml:"align"`
}

// Source is the TOML form of a stylesheet.
type Source struct {
	Name        string          `toml:"name"`
	Description string          `toml:"description"`
	Light       Palette         `toml:"light"`
	Dark        Palette         `toml:"dark"`
	Classes     map[string]Rule `toml:"classes"`
}

// Styles is one compiled variant of a sheet.
type Styles struct {
	Palette Palette
	classes map[string]lipgloss.Style
}

// Class returns the style for class, or an empty style if the sheet lacks it.
func (s *Styles) Class(name string) lipgloss.Style {
	if s == nil {
		return lipgloss.NewStyle()
	}
	if st, ok := s.classes[name]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

// Classes returns the class names defined in the variant.
func (s *Styles) Classes() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.classes))
	for name := range s.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sheet is a compiled, immutable stylesheet holding both variants.
// One Sheet is shared by every component that adopts it.
type Sheet struct {
	name        string
	description string
	path        string
	light       *Styles
	dark        *Styles
}

// Name returns the sheet name.
func (s *Sheet) Name() string { return s.name }

// Description returns the sheet's description.
func (s *Sheet) Description() string { return s.description }

// Path returns the file the sheet was loaded from (empty when bundled).
func (s *Sheet) Path() string { return s.path }

// Variant returns the dark or light styles.
func (s *Sheet) Variant(dark bool) *Styles {
	if dark {
		return s.dark
	}
	return s.light
}

// Parse decodes and compiles a TOML stylesheet.
func Parse(data []byte) (*Sheet, error) {
	var src Source
	if err := toml.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("failed to parse stylesheet: %w", err)
	}
	return Compile(src)
}

// Compile builds both variants of src.
func Compile(src Source) (*Sheet, error) {
	light, err := compileVariant(src.Light, src.Classes)
	if err != nil {
		return nil, fmt.Errorf("sheet %q light variant: %w", src.Name, err)
	}
	dark, err := compileVariant(src.Dark, src.Classes)
	if err != nil {
		return nil, fmt.Errorf("sheet %q dark variant: %w", src.Name, err)
	}
	return &Sheet{
		name:        src.Name,
		description: src.Description,
		light:       light,
		dark:        dark,
	}, nil
}

func compileVariant(p Palette, rules map[string]Rule) (*Styles, error) {
	out := &Styles{
		Palette: p,
		classes: make(map[string]lipgloss.Style, len(rules)),
	}
	for name, rule := range rules {
		st, err := compileRule(p, rule)
		if err != nil {
			return nil, fmt.Errorf("class %q: %w", name, err)
		}
		out.classes[name] = st
	}
	return out, nil
}

func compileRule(p Palette, r Rule) (lipgloss.Style, error) {
	st := lipgloss.NewStyle().
		Bold(r.Bold).
		Italic(r.Italic).
		Underline(r.Underline).
		Faint(r.Faint)

	if r.Foreground != "" {
		c, err := resolveColor(p, r.Foreground)
		if err != nil {
			return st, err
		}
		st = st.Foreground(c)
	}
	if r.Background != "" {
		c, err := resolveColor(p, r.Background)
		if err != nil {
			return st, err
		}
		st = st.Background(c)
	}
	if len(r.Padding) > 0 {
		st = st.Padding(clampSides(r.Padding)...)
	}
	if len(r.Margin) > 0 {
		st = st.Margin(clampSides(r.Margin)...)
	}
	if r.Border != "" {
		b, err := resolveBorder(r.Border)
		if err != nil {
			return st, err
		}
		st = st.Border(b)
		if r.BorderForeground != "" {
			c, err := resolveColor(p, r.BorderForeground)
			if err != nil {
				return st, err
			}
			st = st.BorderForeground(c)
		}
	}
	if r.Width > 0 {
		st = st.Width(r.Width)
	}
	switch strings.ToLower(r.Align) {
	case "center":
		st = st.Align(lipgloss.Center)
	case "right":
		st = st.Align(lipgloss.Right)
	}
	return st, nil
}

// resolveColor maps a palette role or a literal color to a lipgloss color.
func resolveColor(p Palette, v string) (lipgloss.Color, error) {
	if strings.HasPrefix(v, "#") || isANSIIndex(v) {
		return lipgloss.Color(v), nil
	}
	if c, ok := p.role(v); ok {
		if c == "" {
			return "", fmt.Errorf("%w: palette role %q is empty", ErrUnknownColor, v)
		}
		return lipgloss.Color(c), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColor, v)
}

func isANSIIndex(v string) bool {
	if v == "" || len(v) > 3 {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func resolveBorder(name string) (lipgloss.Border, error) {
	switch strings.ToLower(name) {
	case "normal":
		return lipgloss.NormalBorder(), nil
	case "rounded":
		return lipgloss.RoundedBorder(), nil
	case "thick":
		return lipgloss.ThickBorder(), nil
	case "double":
		return lipgloss.DoubleBorder(), nil
	case "hidden":
		return lipgloss.HiddenBorder(), nil
	case "block":
		return lipgloss.BlockBorder(), nil
	}
	return lipgloss.Border{}, fmt.Errorf("%w: %q", ErrUnknownBorder, name)
}

func clampSides(v []int) []int {
	if len(v) > 4 {
		return v[:4]
	}
	return v
}
