package output

import (
	"bytes"
	"encoding/json"
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
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormats(t *testing.T) {
	for _, name := range Formats() {
		if string(ParseFormat(name)) != name {
			t.Errorf("format %q does not round-trip through ParseFormat", name)
		}
	}
}

func TestNewFormatterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	f, err := NewFormatter(FormatJSON, path, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if f.Colored() {
		t.Error("file output should disable color")
	}
	if err := f.Output(map[string]int{"pairs": 2}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON written: %v", err)
	}
	if got["pairs"] != 2 {
		t.Errorf("pairs = %d, want 2", got["pairs"])
	}
}

func TestNewFormatterBadPath(t *testing.T) {
	_, err := NewFormatter(FormatText, filepath.Join(t.TempDir(), "missing", "out.txt"), false)
	if err == nil {
		t.Error("expected error for unwritable path")
	}
}

func sampleTable() *Table {
	return NewTable(
		"Pairs",
		[]string{"File A", "File B", "Overlap"},
		[][]string{
			{"src/a.tsx", "src/b.tsx", "1.00"},
			{"src/c|d.tsx", "src/e.tsx", "0.98"},
		},
		[]string{"Total", "", "2"},
		nil,
	)
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTable().RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Pairs", "=====", "src/a.tsx", "src/e.tsx", "0.98"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTable().RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "## Pairs\n\n| File A | File B | Overlap |\n| --- | --- | --- |\n") {
		t.Errorf("unexpected markdown header:\n%s", out)
	}
	if !strings.Contains(out, `| src/c\|d.tsx | src/e.tsx | 0.98 |`) {
		t.Errorf("pipe in cell not escaped:\n%s", out)
	}
}

func TestTableRenderData(t *testing.T) {
	rows, ok := sampleTable().RenderData().([]map[string]string)
	if !ok {
		t.Fatal("RenderData() should return row maps when Data is nil")
	}
	if len(rows) != 2 || rows[0]["File A"] != "src/a.tsx" {
		t.Errorf("unexpected rows: %v", rows)
	}

	withData := NewTable("", nil, nil, nil, []int{1, 2})
	if _, ok := withData.RenderData().([]int); !ok {
		t.Error("RenderData() should return Data when set")
	}
}

func TestSectionRender(t *testing.T) {
	s := &Section{
		Title:   "Summary",
		Content: "3 clusters",
		Sections: []Section{
			{Title: "Largest", Content: "12 files"},
		},
	}

	var text bytes.Buffer
	if err := s.RenderText(&text, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "Largest\n-------\n12 files") {
		t.Errorf("unexpected text:\n%s", text.String())
	}

	var md bytes.Buffer
	if err := s.RenderMarkdown(&md); err != nil {
		t.Fatal(err)
	}
	if md.String() != "## Summary\n\n3 clusters\n\n### Largest\n\n12 files\n\n" {
		t.Errorf("unexpected markdown:\n%q", md.String())
	}
}

func TestFormatterOutputRenderable(t *testing.T) {
	doc := &Document{
		Title: "Near-duplicates",
		Parts: []Renderable{&Section{Title: "Summary", Content: "ok"}, sampleTable()},
		Data:  map[string]any{"clusters": 1},
	}

	tests := []struct {
		format Format
		want   string
	}{
		{FormatText, "Near-duplicates\n==============="},
		{FormatMarkdown, "# Near-duplicates"},
		{FormatJSON, `"clusters": 1`},
		{FormatTOON, "clusters: 1"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			f := NewWriterFormatter(tt.format, &buf, false)
			if err := f.Output(doc); err != nil {
				t.Fatalf("Output() error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestFormatterOutputRaw(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatMarkdown, &buf, false)
	if err := f.Output([]string{"a"}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "```json\n") {
		t.Errorf("markdown raw output should be fenced:\n%s", buf.String())
	}
}

func TestDocumentRenderData(t *testing.T) {
	doc := &Document{Title: "T", Parts: []Renderable{&Section{Title: "S"}}}
	data, ok := doc.RenderData().(map[string]any)
	if !ok {
		t.Fatal("expected map")
	}
	if data["title"] != "T" {
		t.Errorf("title = %v", data["title"])
	}
}

func TestSimilarityColor(t *testing.T) {
	for _, s := range []float64{1, 0.95, 0.5} {
		if !strings.Contains(SimilarityColor(s, "x"), "x") {
			t.Errorf("SimilarityColor(%v) dropped text", s)
		}
	}
}
