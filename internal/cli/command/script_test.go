package command

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestScriptLoad(t *testing.T) {
	mr, path := newMiniredisConfig(t)

	code := "return redis.call('GET', KEYS[1])"
	file := filepath.Join(t.TempDir(), "get.lua")
	if err := os.WriteFile(file, []byte(code), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	out, _, err := runApp(t, "--config", path, "-o", "json", "script", "load", file)
	if err != nil {
		t.Fatalf("script load error = %v", err)
	}

	var res ScriptResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	sum := sha1.Sum([]byte(code))
	if want := hex.EncodeToString(sum[:]); res.SHA != want {
		t.Errorf("SHA = %q, want %q", res.SHA, want)
	}
	if res.Connection != "default" {
		t.Errorf("Connection = %q, want default", res.Connection)
	}
	if len(mr.Keys()) != 0 {
		t.Errorf("script load should not write keys, got %v", mr.Keys())
	}
}

func TestScriptLoad_MissingFile(t *testing.T) {
	_, path := newMiniredisConfig(t)
	if _, _, err := runApp(t, "--config", path, "script", "load", "/nonexistent.lua"); err == nil {
		t.Error("expected error for missing script")
	}
}

func TestScriptLoad_UnknownConnection(t *testing.T) {
	_, path := newMiniredisConfig(t)
	file := filepath.Join(t.TempDir(), "one.lua")
	if err := os.WriteFile(file, []byte("return 1"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, _, err := runApp(t, "--config", path, "script", "load", "-C", "nope", file); err == nil {
		t.Error("expected error for unknown connection")
	}
}
