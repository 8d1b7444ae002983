package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgress_UnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "scan", 0)
	p.Add(5)
	p.Add(3)
	p.Finish()

	if p.Current() != 8 {
		t.Errorf("Current() = %d, want 8", p.Current())
	}
	if !strings.Contains(buf.String(), "scan 8 keys") {
		t.Errorf("output = %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("Finish should end the line")
	}
}

func TestProgress_Bar(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "scan", 10)
	p.Add(5)
	if !strings.Contains(buf.String(), " 50% (5/10 keys)") {
		t.Errorf("output = %q", buf.String())
	}

	p.Add(20)
	if !strings.Contains(buf.String(), "100% (25/10 keys)") {
		t.Errorf("over-count should clamp the bar: %q", buf.String())
	}
}
