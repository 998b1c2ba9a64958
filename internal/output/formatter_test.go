package output

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"csv", FormatCSV},
		{"", FormatText},
		{"spreadsheet", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatterStdout(t *testing.T) {
	f, err := NewFormatter(FormatText, "", true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	defer f.Close()

	if f.Format() != FormatText {
		t.Errorf("Format() = %q, want text", f.Format())
	}
	if !f.Colored() {
		t.Error("Colored() should be true for stdout with color on")
	}
	if f.file != nil {
		t.Error("stdout formatter should not hold a file")
	}
}

func TestNewFormatterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")

	f, err := NewFormatter(FormatJSON, path, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if f.Colored() {
		t.Error("file output should disable color")
	}
	if err := f.Output(map[string]int{"delayed": 3}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output file: %v", err)
	}
	if !strings.Contains(string(content), `"delayed": 3`) {
		t.Errorf("file content = %q, want delayed count", content)
	}
}

func TestNewFormatterBadPath(t *testing.T) {
	if _, err := NewFormatter(FormatText, "/nonexistent/dir/out.txt", false); err == nil {
		t.Error("NewFormatter() should error for an unwritable path")
	}
}

func statusTable() *Table {
	return NewTable(
		"Status Breakdown",
		[]string{"Status", "Count", "Share"},
		[][]string{
			{"On-Time", "12", "60.0%"},
			{"Delayed", "6", "30.0%"},
			{"Pending", "2", "10.0%"},
		},
		[]string{"Total", "20", ""},
		nil,
	)
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := statusTable().RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Status Breakdown", "On-Time", "Delayed", "60.0%", "Total"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, strings.Repeat("=", len("Status Breakdown"))) {
		t.Error("title should be underlined")
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := statusTable().RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "## Status Breakdown") {
		t.Errorf("markdown output missing title heading:\n%s", out)
	}
	if !strings.Contains(out, "| Status | Count | Share |") {
		t.Errorf("markdown output missing header row:\n%s", out)
	}
	if !strings.Contains(out, "| --- | --- | --- |") {
		t.Errorf("markdown output missing separator row:\n%s", out)
	}
	if !strings.Contains(out, "| Delayed | 6 | 30.0% |") {
		t.Errorf("markdown output missing data row:\n%s", out)
	}
}

func TestTableRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := statusTable().RenderCSV(&buf); err != nil {
		t.Fatalf("RenderCSV() error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("csv output has %d lines, want header + 3 rows", len(lines))
	}
	if lines[0] != "Status,Count,Share" {
		t.Errorf("csv header = %q", lines[0])
	}
	if lines[2] != "Delayed,6,30.0%" {
		t.Errorf("csv row = %q", lines[2])
	}
}

func TestTableRenderDataFallback(t *testing.T) {
	// Without explicit Data the rows become header-keyed maps.
	data := statusTable().RenderData()
	rows, ok := data.([]map[string]string)
	if !ok {
		t.Fatalf("RenderData() = %T, want []map[string]string", data)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if rows[1]["Status"] != "Delayed" || rows[1]["Count"] != "6" {
		t.Errorf("rows[1] = %v", rows[1])
	}
}

func TestTableRenderDataPassthrough(t *testing.T) {
	type summary struct {
		Total   int `json:"total"`
		Delayed int `json:"delayed"`
	}
	want := summary{Total: 20, Delayed: 6}

	tbl := NewTable("", []string{"A"}, nil, nil, want)
	got, ok := tbl.RenderData().(summary)
	if !ok || got != want {
		t.Errorf("RenderData() = %v, want %v", tbl.RenderData(), want)
	}
}

func TestOutputJSONForTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	f, err := NewFormatter(FormatJSON, path, false)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}

	tbl := NewTable("", []string{"Status", "Count"}, [][]string{{"Delayed", "6"}}, nil,
		map[string]int{"Delayed": 6})
	if err := f.Output(tbl); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	f.Close()

	content, _ := os.ReadFile(path)
	var decoded map[string]int
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("json output not parseable: %v\n%s", err, content)
	}
	if decoded["Delayed"] != 6 {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestOutputTOONForTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.toon")
	f, err := NewFormatter(FormatTOON, path, false)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}

	type row struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	}
	tbl := NewTable("", []string{"Status", "Count"}, [][]string{{"Delayed", "6"}}, nil,
		[]row{{Status: "Delayed", Count: 6}})
	if err := f.Output(tbl); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	f.Close()

	content, _ := os.ReadFile(path)
	if !strings.Contains(string(content), "Delayed") {
		t.Errorf("toon output = %q, want Delayed row", content)
	}
}

func TestOutputRawMarkdownWrapsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.md")
	f, err := NewFormatter(FormatMarkdown, path, false)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}

	if err := f.Output(map[string]string{"bucket": "2024-W05"}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	f.Close()

	content, _ := os.ReadFile(path)
	out := string(content)
	if !strings.HasPrefix(out, "```json") {
		t.Errorf("raw markdown should open a json fence:\n%s", out)
	}
	if !strings.Contains(out, "2024-W05") {
		t.Errorf("raw markdown missing payload:\n%s", out)
	}
}

// flatOnly implements Renderable but not CSVRenderable.
type flatOnly struct{}

func (flatOnly) RenderText(w io.Writer, colored bool) error { return nil }
func (flatOnly) RenderMarkdown(w io.Writer) error           { return nil }
func (flatOnly) RenderData() any                            { return nil }

func TestOutputCSVUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	f, err := NewFormatter(FormatCSV, path, false)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	defer f.Close()

	if err := f.Output(flatOnly{}); err == nil {
		t.Error("Output() should reject csv for results without a flat form")
	}
}

func TestOutputCSVForTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	f, err := NewFormatter(FormatCSV, path, false)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if err := f.Output(statusTable()); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	f.Close()

	content, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(content), "Status,Count,Share") {
		t.Errorf("csv output = %q", content)
	}
}

func TestTableShortRows(t *testing.T) {
	// Rows shorter than the header list keep the missing cells out of the
	// serialized maps instead of panicking.
	tbl := NewTable("", []string{"Bucket", "Count", "Share"},
		[][]string{{"2024-W05", "4"}}, nil, nil)

	rows := tbl.RenderData().([]map[string]string)
	if _, ok := rows[0]["Share"]; ok {
		t.Error("short row should not populate trailing headers")
	}
	if rows[0]["Bucket"] != "2024-W05" {
		t.Errorf("rows[0] = %v", rows[0])
	}

	var buf bytes.Buffer
	if err := tbl.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
}
