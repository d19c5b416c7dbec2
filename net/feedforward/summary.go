package feedforward

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Summary renders a table of the combiners with their output shapes and parameter counts.
func (f *FeedforwardNetwork) Summary() string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Layer (type)", "Output Shape", "Param #")
	for i, c := range f.combiners {
		t.Row(fmt.Sprintf("%s_%d", c.Kind(), i), c.OutShape().String(), strconv.Itoa(len(c.Params())))
	}
	return fmt.Sprintf("%s\nInput: %s\nTotal params: %d\n", t.Render(), f.input, f.CountParams())
}
