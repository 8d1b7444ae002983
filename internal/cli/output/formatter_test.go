package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON, false).(*JSONFormatter); !ok {
		t.Error("json should give *JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML, false).(*YAMLFormatter); !ok {
		t.Error("yaml should give *YAMLFormatter")
	}
	tf, ok := NewFormatter(FormatTable, true).(*TableFormatter)
	if !ok || !tf.Wide {
		t.Error("table should give a wide *TableFormatter")
	}
}

type pingResult struct {
	Connection string `json:"connection" yaml:"connection"`
	OK         bool   `json:"ok" yaml:"ok"`
	Keys       int64  `json:"keys" yaml:"keys"`
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	in := []pingResult{{Connection: "default", OK: true, Keys: 3}}
	if err := Print(&buf, FormatJSON, in); err != nil {
		t.Fatalf("Print() error = %v", err)
	}

	var out []pingResult
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Errorf("got %+v, want %+v", out, in)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("JSON output should be indented")
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	in := map[string]any{"connection": "cache", "keys": 7}
	if err := Print(&buf, FormatYAML, in); err != nil {
		t.Fatalf("Print() error = %v", err)
	}

	var out map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if out["connection"] != "cache" || out["keys"] != 7 {
		t.Errorf("got %v", out)
	}
}

func TestFormatters_Table(t *testing.T) {
	tab := &Table{Headers: []string{"FIELD", "VALUE"}}
	tab.AddRow("name", "ada")

	for _, f := range []Format{FormatJSON, FormatYAML} {
		var buf bytes.Buffer
		if err := Print(&buf, f, tab); err != nil {
			t.Fatalf("%s: Print() error = %v", f, err)
		}
		if !strings.Contains(buf.String(), "field") || !strings.Contains(buf.String(), "ada") {
			t.Errorf("%s output = %q, want records", f, buf.String())
		}
	}
}

func TestTableFormatter_Tabler(t *testing.T) {
	var buf bytes.Buffer
	tf := tablerFunc(func() *Table {
		return &Table{Headers: []string{"A"}, Rows: [][]string{{"1"}}}
	})
	if err := Print(&buf, FormatTable, tf); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if got := strings.Fields(buf.String()); strings.Join(got, " ") != "A 1" {
		t.Errorf("output = %q", buf.String())
	}
}

type tablerFunc func() *Table

func (f tablerFunc) Table() *Table { return f() }
