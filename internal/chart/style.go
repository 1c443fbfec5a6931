package chart

import (
	"fmt"
	"strings"
)

// Style decides per-level colours. An empty string leaves the renderer's default.
type Style interface {
	Name() string
	SliceFill(level int) string
	LabelBackground(level int) string
}

// DefaultStyle keeps the renderer's own palette.
type DefaultStyle struct{}

func (DefaultStyle) Name() string { return "default" }

func (DefaultStyle) SliceFill(int) string { return "" }

func (DefaultStyle) LabelBackground(int) string { return "" }

// GrayStyle shades rings from dark to light, used for the demo report.
type GrayStyle struct{}

func (GrayStyle) Name() string { return "gray" }

func (GrayStyle) SliceFill(level int) string {
	return grayColor(level)
}

func (GrayStyle) LabelBackground(level int) string {
	return grayColor(level)
}

func grayColor(level int) string {
	gray := min(150+30*level, 220)
	return fmt.Sprintf("rgb(%d, %d, %d)", gray, gray, gray)
}

// ParseStyle returns the style registered under name.
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DefaultStyle{}, nil
	case "gray", "grey", "demo":
		return GrayStyle{}, nil
	default:
		return nil, fmt.Errorf("unknown chart style: %s", name)
	}
}
