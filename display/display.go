// Package display renders digit images and predictions for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/neurlang/digitnet/inference"
	"github.com/neurlang/digitnet/preprocess"
)

var shades = []string{"  ", "░░", "▒▒", "▓▓", "██"}

var (
	frame = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8"))
	caption = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	faint   = lipgloss.NewStyle().Faint(true)
)

// Shade maps an intensity to a two column block, so the image keeps its aspect ratio.
func Shade(v uint8) string {
	return shades[int(v)*len(shades)/(preprocess.MaxIntensity+1)]
}

// Render draws img in shaded blocks inside a frame, with label as the caption underneath.
func Render(img preprocess.Image, label string) string {
	if err := img.Validate(); err != nil {
		return err.Error()
	}
	var b strings.Builder
	for y := 0; y < img.Height; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < img.Width; x++ {
			b.WriteString(Shade(img.At(y, x)))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Center, frame.Render(b.String()), caption.Render(label))
}

// RenderPrediction draws img captioned with the predicted digit, next to the three most
// probable classes.
func RenderPrediction(img preprocess.Image, p inference.Prediction) string {
	label := fmt.Sprintf("predicted %d (%.1f%%)", p.Label, 100*p.Confidence)
	if p.Cached {
		label += " cached"
	}
	var lines []string
	for i, c := range p.Top(3) {
		line := fmt.Sprintf("%d. digit %d  %6.2f%%", i+1, c.Label, 100*c.Probability)
		if i > 0 {
			line = faint.Render(line)
		}
		lines = append(lines, line)
	}
	side := lipgloss.NewStyle().PaddingLeft(2).Render(strings.Join(lines, "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, Render(img, label), side)
}
