package command

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseAssignments(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]any
		wantErr bool
	}{
		{name: "single", args: []string{"name=bob"}, want: map[string]any{"name": "bob"}},
		{name: "value with equals", args: []string{"expr=a=b"}, want: map[string]any{"expr": "a=b"}},
		{name: "empty value", args: []string{"note="}, want: map[string]any{"note": ""}},
		{name: "none", args: nil, wantErr: true},
		{name: "missing equals", args: []string{"name"}, wantErr: true},
		{name: "empty field", args: []string{"=x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAssignments(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseAssignments() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseAssignments() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStruct_Lifecycle(t *testing.T) {
	mr, path := newMiniredisConfig(t)

	out, _, err := runApp(t, "--config", path, "-o", "json", "struct", "set", "U", "1", "name=bob", "visits=1")
	if err != nil {
		t.Fatalf("struct set error = %v", err)
	}
	var set map[string]any
	if err := json.Unmarshal([]byte(out), &set); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if set["_key"] != "1" || set["name"] != "bob" {
		t.Errorf("set output = %v", set)
	}
	if got := mr.HGet("U{1}", "name"); got != "bob" {
		t.Errorf("HGET U{1} name = %q, want bob", got)
	}

	out, _, err = runApp(t, "--config", path, "-o", "json", "struct", "incr", "--by", "2", "U", "1", "visits")
	if err != nil {
		t.Fatalf("struct incr error = %v", err)
	}
	var incr IncrResult
	if err := json.Unmarshal([]byte(out), &incr); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if incr.Value != 3 || incr.Field != "visits" {
		t.Errorf("incr = %+v, want visits=3", incr)
	}

	out, _, err = runApp(t, "--config", path, "struct", "show", "-f", "name", "U", "1")
	if err != nil {
		t.Fatalf("struct show error = %v", err)
	}
	if !strings.Contains(out, "FIELD") || !strings.Contains(out, "bob") {
		t.Errorf("show table = %q", out)
	}
	if strings.Contains(out, "visits") {
		t.Errorf("show with --field should not load visits: %q", out)
	}

	out, _, err = runApp(t, "--config", path, "-o", "json", "struct", "rm", "U", "1", "2")
	if err != nil {
		t.Fatalf("struct delete error = %v", err)
	}
	var del DeleteResult
	if err := json.Unmarshal([]byte(out), &del); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if del.Requested != 2 || del.Deleted != 1 {
		t.Errorf("delete = %+v, want requested 2 deleted 1", del)
	}
	if mr.Exists("U{1}") {
		t.Error("U{1} still exists")
	}
}

func TestStruct_SetNX(t *testing.T) {
	mr, path := newMiniredisConfig(t)
	mr.HSet("U{1}", "name", "alice")

	if _, _, err := runApp(t, "--config", path, "struct", "set", "--nx", "U", "1", "name=bob", "role=admin"); err != nil {
		t.Fatalf("struct set --nx error = %v", err)
	}
	if got := mr.HGet("U{1}", "name"); got != "alice" {
		t.Errorf("name = %q, want alice", got)
	}
	if got := mr.HGet("U{1}", "role"); got != "admin" {
		t.Errorf("role = %q, want admin", got)
	}
}

func TestStruct_SetTTL(t *testing.T) {
	mr, path := newMiniredisConfig(t)

	if _, _, err := runApp(t, "--config", path, "struct", "set", "--ttl", "1m", "U", "1", "name=bob"); err != nil {
		t.Fatalf("struct set --ttl error = %v", err)
	}
	if ttl := mr.TTL("U{1}"); ttl <= 0 {
		t.Errorf("TTL = %v, want positive", ttl)
	}
}

func TestStruct_ShowNotFound(t *testing.T) {
	_, path := newMiniredisConfig(t)

	_, _, err := runApp(t, "--config", path, "struct", "show", "U", "missing")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestStruct_Usage(t *testing.T) {
	_, path := newMiniredisConfig(t)

	tests := [][]string{
		{"struct", "show", "U"},
		{"struct", "set", "U", "1"},
		{"struct", "set", "U", "1", "broken"},
		{"struct", "incr", "U", "1"},
		{"struct", "delete", "U"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			if _, _, err := runApp(t, append([]string{"--config", path}, args...)...); err == nil {
				t.Error("expected usage error")
			}
		})
	}
}
