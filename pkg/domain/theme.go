package domain

// Theme is the persisted visual preference of a visitor
type Theme string

// supported themes
const (
	ThemeNeon   Theme = "neon"
	ThemeModern Theme = "modern"
	ThemeLight  Theme = "light"
)

// ParseTheme converts a stored value to a Theme, anything unknown is the neon default
func ParseTheme(s string) Theme {
	switch Theme(s) {
	case ThemeModern, ThemeLight:
		return Theme(s)
	default:
		return ThemeNeon
	}
}

// Label returns the name shown next to the toggle
func (t Theme) Label() string {
	switch t {
	case ThemeModern:
		return "Modern Tech"
	case ThemeLight:
		return "Light Mode"
	default:
		return "Neon Dark"
	}
}

// Checked reports the toggle state matching the theme
func (t Theme) Checked() bool {
	return t == ThemeModern || t == ThemeLight
}

// Toggle returns the theme selected after the toggle switched to checked.
// Checking flips between modern and light, unchecking always returns to neon.
func (t Theme) Toggle(checked bool) Theme {
	if !checked {
		return ThemeNeon
	}
	if t == ThemeModern {
		return ThemeLight
	}
	return ThemeModern
}
