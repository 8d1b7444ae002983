package command

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/urfave/cli/v2"
)

// writeConfig writes a configuration file binding each name to a URL and
// returns its path.
func writeConfig(t *testing.T, urls map[string]string, extra string) string {
	t.Helper()

	names := make([]string, 0, len(urls))
	for name := range urls {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("log:\n  level: error\nconnections:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s:\n    url: %s\n", name, urls[name])
	}
	b.WriteString(extra)

	path := filepath.Join(t.TempDir(), "redpipe.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

// newMiniredisConfig starts one miniredis and returns it with a config
// path binding it as the default connection.
func newMiniredisConfig(t *testing.T) (*miniredis.Miniredis, string) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, writeConfig(t, map[string]string{"default": "redis://" + mr.Addr()}, "")
}

// runApp runs redpipectl with args and captures both output streams.
func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"redpipectl"}, args...))
	return out.String(), errOut.String(), err
}
