package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// AppTheme is the default theme with a blue accent, a green progress fill
// and slightly tighter spacing so the log pane gets more room.
type AppTheme struct {
	base fyne.Theme
}

// NewAppTheme creates the application theme
func NewAppTheme() fyne.Theme {
	return &AppTheme{base: theme.DefaultTheme()}
}

// Color returns theme colors
func (t *AppTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 31, G: 106, B: 165, A: 255}
	case theme.ColorNameSuccess:
		return color.NRGBA{R: 46, G: 160, B: 67, A: 255}
	case theme.ColorNameError:
		return color.NRGBA{R: 198, G: 40, B: 40, A: 255}
	}
	return t.base.Color(name, variant)
}

// Font returns theme fonts
func (t *AppTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

// Icon returns theme icons
func (t *AppTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

// Size returns theme sizes
func (t *AppTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 3
	case theme.SizeNameInnerPadding:
		return 6
	case theme.SizeNameLineSpacing:
		return 2
	case theme.SizeNameText:
		return 13
	}
	return t.base.Size(name)
}
