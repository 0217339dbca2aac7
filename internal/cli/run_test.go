package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/slabtable/internal/cli"
)

func Test_Bare_Command_When_Invoked(t *testing.T) {
	t.Parallel()

	// Call Run directly without test helper (which adds --cwd)
	var stdout, stderr bytes.Buffer

	exitCode := cli.Run(nil, &stdout, &stderr, []string{"tably"}, nil, nil)

	if got, want := exitCode, 0; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	if got, want := stderr.String(), ""; got != want {
		t.Errorf("stderr=%q, want=%q", got, want)
	}

	cli.AssertContains(t, stdout.String(), "Usage: tably")
	cli.AssertContains(t, stdout.String(), "--cwd")
	cli.AssertContains(t, stdout.String(), "load <db.sqlite> [flags]")
	cli.AssertContains(t, stdout.String(), "repl")
}

func Test_Invalid_Global_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run("--invalid-flag", "bench")

	if got, want := exitCode, 1; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	if got, want := stdout, ""; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	cli.AssertContains(t, stderr, "unknown flag")
	cli.AssertContains(t, stderr, "--invalid-flag")
	cli.AssertContains(t, stderr, "Global flags:")
	cli.AssertContains(t, stderr, "--config")
}

func Test_Unknown_Command_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("frobnicate")

	cli.AssertContains(t, stderr, "unknown command: frobnicate")
	cli.AssertContains(t, stderr, "print-config")
}

func Test_Command_Help_When_Help_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("bench", "--help")

	cli.AssertContains(t, stdout, "Usage: tably bench [flags]")
	cli.AssertContains(t, stdout, "--ops")
	cli.AssertContains(t, stdout, "--seed")
}

func Test_Command_Flag_Error_When_Flag_Unknown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("bench", "--nope")

	cli.AssertContains(t, stderr, "unknown flag: --nope")
	cli.AssertContains(t, stderr, "Usage: tably bench [flags]")
}

func Test_Print_Config_Defaults_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "effective_cwd="+c.Dir)
	cli.AssertContains(t, stdout, "buckets=1024")
	cli.AssertContains(t, stdout, "cache_capacity=256")
	cli.AssertContains(t, stdout, "(defaults only)")
}

func Test_Print_Config_From_Config_File_With_Comments_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".tably.json", `{
		// smaller tables for tests
		"buckets": 64,
		"history_file": "hist",
	}`)

	stdout := c.MustRun("print-config")
	cli.AssertContains(t, stdout, "buckets=64")
	cli.AssertContains(t, stdout, "history_file="+filepath.Join(c.Dir, "hist"))
	cli.AssertContains(t, stdout, "project_config="+filepath.Join(c.Dir, ".tably.json"))
}

func Test_Print_Config_Flag_Overrides_File_When_Both_Set(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("custom.json", `{"cache_capacity": 8}`)

	stdout := c.MustRun("-c", "custom.json", "--cache-capacity", "16", "print-config")
	cli.AssertContains(t, stdout, "cache_capacity=16")
}

func Test_Print_Config_Global_Source_When_XDG_Config_Present(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	xdg := t.TempDir()
	c.Env["XDG_CONFIG_HOME"] = xdg

	err := os.MkdirAll(filepath.Join(xdg, "tably"), 0o750)
	if err != nil {
		t.Fatal(err)
	}

	err = os.WriteFile(filepath.Join(xdg, "tably", "config.json"), []byte(`{"buckets": 3}`), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	stdout := c.MustRun("print-config")
	cli.AssertContains(t, stdout, "buckets=3")
	cli.AssertContains(t, stdout, "global_config="+filepath.Join(xdg, "tably", "config.json"))
}

func Test_Config_Explicit_Config_Not_Found_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("-c", "nonexistent.json", "print-config")
	cli.AssertContains(t, stderr, "config file not found")
}

func Test_Config_Zero_Capacity_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".tably.json", `{"resettable_capacity": 0}`)

	stderr := c.MustFail("print-config")
	cli.AssertContains(t, stderr, "resettable_capacity=0: capacity must be >= 1")
}

func Test_Verbose_Flag_Logs_Debug_When_Set(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	_, stderr, code := c.Run("-v", "print-config")
	if got, want := code, 0; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stderr, "config loaded")
}

func Test_Quiet_Run_Logs_Nothing_When_Verbose_Not_Set(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	_, stderr, code := c.Run("print-config")
	if got, want := code, 0; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	cli.AssertNotContains(t, stderr, "config loaded")
}

func Test_Command_Rejects_Extra_Arguments_When_None_Expected(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("print-config", "extra")

	cli.AssertContains(t, stderr, "print-config takes 0 argument(s), got 1")
	cli.AssertContains(t, stderr, "Usage: tably print-config")
}
