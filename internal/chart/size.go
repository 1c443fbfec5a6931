// Package chart turns the selected part of a size tree into sunburst slices
// with their labels and colours. It draws nothing itself.
package chart

import "fmt"

const (
	kilobyte = 1 << 10
	megabyte = 1 << 20
)

// FormatSize renders a byte count as "1.500 Mb", "2.000 Kb" or "512 b".
func FormatSize(bytes int64) string {
	switch {
	case bytes >= megabyte:
		return fmt.Sprintf("%.3f Mb", float64(bytes)/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf("%.3f Kb", float64(bytes)/kilobyte)
	default:
		return fmt.Sprintf("%d b", bytes)
	}
}
