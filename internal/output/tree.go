package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/facet/pkg/analyzer/decomp"
	"github.com/panbanda/facet/pkg/schedule"
)

// TreeView renders a decomposition tree as an indented ASCII tree. Top
// clips how many children are shown per node in the text and markdown
// views; the data views always carry the whole tree.
type TreeView struct {
	Tree *decomp.Tree
	Top  int
}

func (v *TreeView) RenderData() any {
	return v.Tree
}

func (v *TreeView) RenderText(w io.Writer, colored bool) error {
	if v.Tree == nil || v.Tree.Root == nil {
		return nil
	}
	fmt.Fprintln(w, v.nodeLine(v.Tree.Root, colored))
	v.renderChildren(w, v.Tree.Root, "", colored)

	s := v.Tree.Summary
	fmt.Fprintf(w, "\n%d nodes, %d leaves, depth %d\n", s.NodeCount, s.LeafCount, s.MaxDepth)
	return nil
}

func (v *TreeView) renderChildren(w io.Writer, n *decomp.Node, prefix string, colored bool) {
	children := n.Children
	hidden := 0
	if v.Top > 0 && len(children) > v.Top {
		hidden = len(children) - v.Top
		children = children[:v.Top]
	}

	for i, child := range children {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(children)-1 && hidden == 0 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		fmt.Fprintln(w, prefix+connector+v.nodeLine(child, colored))
		v.renderChildren(w, child, childPrefix, colored)
	}
	if hidden > 0 {
		fmt.Fprintf(w, "%s└── … %d more\n", prefix, hidden)
	}
}

// nodeLine formats one node as "Name  value (pct%) [status]".
func (v *TreeView) nodeLine(n *decomp.Node, colored bool) string {
	var b strings.Builder
	b.WriteString(n.Name)
	b.WriteString("  ")
	b.WriteString(formatValue(n.Value))
	fmt.Fprintf(&b, " (%d%%)", n.Percentage)
	if n.StatusSummary != "" {
		label := "[" + string(n.StatusSummary) + "]"
		if colored {
			label = StatusColor(n.StatusSummary, label)
		}
		b.WriteString(" ")
		b.WriteString(label)
	}
	return b.String()
}

func (v *TreeView) RenderMarkdown(w io.Writer) error {
	if v.Tree == nil || v.Tree.Root == nil {
		return nil
	}
	var render func(n *decomp.Node, depth int)
	render = func(n *decomp.Node, depth int) {
		indent := strings.Repeat("  ", depth)
		line := fmt.Sprintf("%s- **%s**: %s (%d%%", indent, n.Name, formatValue(n.Value), n.Percentage)
		if n.StatusSummary != "" {
			line += ", " + string(n.StatusSummary)
		}
		line += ")"
		fmt.Fprintln(w, line)

		children := n.Children
		hidden := 0
		if v.Top > 0 && len(children) > v.Top {
			hidden = len(children) - v.Top
			children = children[:v.Top]
		}
		for _, c := range children {
			render(c, depth+1)
		}
		if hidden > 0 {
			fmt.Fprintf(w, "%s  - … %d more\n", indent, hidden)
		}
	}
	render(v.Tree.Root, 0)
	fmt.Fprintln(w)
	return nil
}

// RenderCSV flattens the tree depth-first into one row per node.
func (v *TreeView) RenderCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"level", "column", "name", "value", "count", "percentage", "status"}); err != nil {
		return err
	}
	if v.Tree != nil && v.Tree.Root != nil {
		v.Tree.Root.Walk(func(n *decomp.Node) {
			cw.Write([]string{
				strconv.Itoa(n.Level),
				n.Column,
				n.Name,
				formatValue(n.Value),
				strconv.Itoa(n.Count),
				strconv.Itoa(n.Percentage),
				string(n.StatusSummary),
			})
		})
	}
	cw.Flush()
	return cw.Error()
}

// formatValue trims trailing zeros so counts print as integers.
func formatValue(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// StatusColor colors text by schedule status.
func StatusColor(status schedule.Status, text string) string {
	switch status {
	case schedule.StatusEarly:
		return color.BlueString(text)
	case schedule.StatusOnTime:
		return color.GreenString(text)
	case schedule.StatusDelayed:
		return color.RedString(text)
	case schedule.StatusPending:
		return color.YellowString(text)
	default:
		return text
	}
}
