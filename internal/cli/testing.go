package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CLI runs tably in-process against a per-test working directory.
type CLI struct {
	t   *testing.T
	Dir string
	Env map[string]string
}

// NewCLI returns a CLI rooted in a fresh temp directory with an empty
// environment, so no global config from the host leaks in.
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	return &CLI{t: t, Dir: t.TempDir(), Env: map[string]string{}}
}

// Run executes tably with args and empty stdin. "tably --cwd Dir" is
// prepended. Returns stdout, stderr and the exit code.
func (r *CLI) Run(args ...string) (string, string, int) {
	return r.RunWithInput("", args...)
}

// RunWithInput is like [CLI.Run] with stdin set to input.
func (r *CLI) RunWithInput(input string, args ...string) (string, string, int) {
	var stdout, stderr bytes.Buffer

	argv := append([]string{"tably", "--cwd", r.Dir}, args...)
	code := Run(strings.NewReader(input), &stdout, &stderr, argv, r.Env, nil)

	return stdout.String(), stderr.String(), code
}

// MustRun fails the test on a non-zero exit and returns trimmed stdout.
func (r *CLI) MustRun(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code != 0 {
		r.t.Fatalf("tably %s: exit code %d\nstderr: %s", strings.Join(args, " "), code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustRunScript feeds one repl command per line and returns trimmed stdout.
func (r *CLI) MustRunScript(lines ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.RunWithInput(strings.Join(lines, "\n")+"\n", "repl")
	if code != 0 {
		r.t.Fatalf("repl script: exit code %d\nstderr: %s", code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustFail fails the test unless tably exits non-zero with nothing on
// stdout. Returns trimmed stderr.
func (r *CLI) MustFail(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)

	switch {
	case code == 0:
		r.t.Fatalf("tably %s: expected failure, got exit 0\nstdout: %s", strings.Join(args, " "), stdout)
	case stdout != "":
		r.t.Fatalf("tably %s: failed but wrote to stdout\nstdout: %s", strings.Join(args, " "), stdout)
	}

	return strings.TrimSpace(stderr)
}

// Path returns name joined to the test directory.
func (r *CLI) Path(name string) string {
	return filepath.Join(r.Dir, name)
}

// WriteFile writes content to name inside the test directory, creating
// parent directories.
func (r *CLI) WriteFile(name, content string) {
	r.t.Helper()

	path := r.Path(name)

	err := os.MkdirAll(filepath.Dir(path), 0o750)
	if err == nil {
		err = os.WriteFile(path, []byte(content), 0o600)
	}

	if err != nil {
		r.t.Fatalf("write %s: %v", name, err)
	}
}

// AssertContains fails the test if content doesn't contain substr.
func AssertContains(t *testing.T, content, substr string) {
	t.Helper()

	if !strings.Contains(content, substr) {
		t.Errorf("content should contain %q\ncontent:\n%s", substr, content)
	}
}

// AssertNotContains fails the test if content contains substr.
func AssertNotContains(t *testing.T, content, substr string) {
	t.Helper()

	if strings.Contains(content, substr) {
		t.Errorf("content should NOT contain %q\ncontent:\n%s", substr, content)
	}
}
