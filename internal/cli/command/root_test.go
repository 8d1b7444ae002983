package command

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestApp(t *testing.T) {
	app := App()
	if app == nil {
		t.Fatal("App() returned nil")
	}
	if app.Name != "redpipectl" {
		t.Errorf("Name = %q, want %q", app.Name, "redpipectl")
	}

	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}
	for _, name := range []string{"ping", "struct", "scan", "script", "shell", "monitor", "config", "version"} {
		if !commandNames[name] {
			t.Errorf("missing required command: %s", name)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, flag := range globalFlags() {
		flagNames[flag.Names()[0]] = true
	}
	for _, name := range []string{"config", "output", "wide", "verbose"} {
		if !flagNames[name] {
			t.Errorf("missing required flag: %s", name)
		}
	}
}

func TestApp_BadOutputFormat(t *testing.T) {
	_, _, err := runApp(t, "--output", "xml", "version")
	if err == nil || !strings.Contains(err.Error(), "xml") {
		t.Errorf("error = %v, want unknown output format", err)
	}
}

func TestApp_MissingConfigFile(t *testing.T) {
	if _, _, err := runApp(t, "--config", "/nonexistent/redpipe.yaml", "version"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestGlobalFlags_Overrides(t *testing.T) {
	g := &GlobalFlags{Verbose: true}
	if got := g.flagOverrides()["log.level"]; got != "debug" {
		t.Errorf("log.level = %v, want debug", got)
	}
	if len((&GlobalFlags{}).flagOverrides()) != 0 {
		t.Error("no flags should give no overrides")
	}
}

func TestGetEnv_NotInitialized(t *testing.T) {
	app := &cli.App{Metadata: map[string]any{}}
	if _, err := GetEnv(cli.NewContext(app, nil, nil)); err == nil {
		t.Error("GetEnv() should fail before initialization")
	}
}

func TestVersion(t *testing.T) {
	out, _, err := runApp(t, "-o", "json", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}

	var info map[string]any
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	for _, key := range []string{"version", "go_version", "redis_client"} {
		if _, ok := info[key]; !ok {
			t.Errorf("missing %q in %v", key, info)
		}
	}
}

func TestShell(t *testing.T) {
	mr, path := newMiniredisConfig(t)
	history := t.TempDir() + "/history"

	var out bytes.Buffer
	app := App()
	app.Reader = strings.NewReader("SET k v\nGET k\nexec\n")
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}

	if err := app.Run([]string{"redpipectl", "--config", path, "shell", "--history", history}); err != nil {
		t.Fatalf("shell error = %v", err)
	}
	if !strings.Contains(out.String(), `2) "v"`) {
		t.Errorf("shell output:\n%s", out.String())
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Errorf("k = %q, want v", got)
	}
}

func TestShell_UnknownConnection(t *testing.T) {
	_, path := newMiniredisConfig(t)
	if _, _, err := runApp(t, "--config", path, "shell", "-C", "nope", "--history", ""); err == nil {
		t.Error("expected error for unknown connection")
	}
}
