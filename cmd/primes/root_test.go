package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/primes/pkg/primes/counter"
)

var resultLine = regexp.MustCompile(`^This machine calculated all (\d+) prime numbers under (-?\d+) in (\S+) seconds\n$`)

// isolate points every config, data and state directory at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return root
}

func execute(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = Execute(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestExecute_WrongArgumentCount(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no arguments", args: nil},
		{name: "two arguments", args: []string{"10", "20"}},
		{name: "three arguments", args: []string{"1", "2", "3"}},
		{name: "flags only", args: []string{"-o", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := isolate(t)

			code, stdout, stderr := execute(tt.args...)

			assert.Equal(t, 1, code)
			assert.Equal(t, counter.UsageLine+"\n", stdout)
			assert.Empty(t, stderr)

			// Nothing ran, so nothing was recorded.
			_, err := os.Stat(filepath.Join(root, "data", "primes", "history"))
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestExecute_CountsPrimes(t *testing.T) {
	tests := []struct {
		arg        string
		wantPrimes string
		wantMax    string
	}{
		{arg: "10", wantPrimes: "4", wantMax: "10"},
		{arg: "2", wantPrimes: "1", wantMax: "2"},
		{arg: "1", wantPrimes: "0", wantMax: "1"},
		{arg: "0", wantPrimes: "0", wantMax: "0"},
		{arg: "100", wantPrimes: "25", wantMax: "100"},
		{arg: "abc", wantPrimes: "0", wantMax: "0"},
		{arg: "12abc", wantPrimes: "5", wantMax: "12"},
		{arg: "-5", wantPrimes: "0", wantMax: "-5"},
		{arg: "-2147483649", wantPrimes: "0", wantMax: "-2147483648"},
		{arg: " -7", wantPrimes: "0", wantMax: "-7"},
		{arg: "completion", wantPrimes: "0", wantMax: "0"},
		{arg: "hist", wantPrimes: "0", wantMax: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			isolate(t)

			code, stdout, stderr := execute(tt.arg)

			assert.Equal(t, 0, code)
			assert.Empty(t, stderr)

			m := resultLine.FindStringSubmatch(stdout)
			require.NotNil(t, m, "unexpected output %q", stdout)
			assert.Equal(t, tt.wantPrimes, m[1])
			assert.Equal(t, tt.wantMax, m[2])
		})
	}
}

func TestExecute_NegativeBoundAfterDoubleDash(t *testing.T) {
	isolate(t)

	code, stdout, _ := execute("--", "-5")

	assert.Equal(t, 0, code)
	m := resultLine.FindStringSubmatch(stdout)
	require.NotNil(t, m, "unexpected output %q", stdout)
	assert.Equal(t, "0", m[1])
	assert.Equal(t, "-5", m[2])
}

func TestExecute_NegativeBoundWithFlags(t *testing.T) {
	isolate(t)

	code, stdout, stderr := execute("-5", "-o", "json", "--no-history")
	require.Equal(t, 0, code, stderr)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, float64(-5), doc["max"])
	assert.Equal(t, float64(0), doc["primes"])
}

func TestExecute_NegativeBoundsStillCountArguments(t *testing.T) {
	isolate(t)

	code, stdout, _ := execute("-5", "-6")

	assert.Equal(t, 1, code)
	assert.Equal(t, counter.UsageLine+"\n", stdout)
}

func TestBoundArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "positive", args: []string{"10"}, want: []string{"10"}},
		{name: "negative", args: []string{"-5"}, want: []string{"--", "-5"}},
		{name: "negative before flags", args: []string{"-5", "-o", "json"}, want: []string{"-o", "json", "--", "-5"}},
		{name: "flag value kept", args: []string{"--template", "-1", "3"}, want: []string{"--template", "-1", "3"}},
		{name: "existing separator", args: []string{"-5", "--", "x"}, want: []string{"--", "-5", "x"}},
		{name: "after separator untouched", args: []string{"--", "-5"}, want: []string{"--", "-5"}},
		{name: "flags untouched", args: []string{"-v", "-q", "7"}, want: []string{"-v", "-q", "7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, boundArgs(tt.args))
		})
	}
}

func TestExecute_JSONOutputAndHistory(t *testing.T) {
	isolate(t)

	code, stdout, stderr := execute("-o", "json", "30")
	require.Equal(t, 0, code, stderr)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, float64(30), doc["max"])
	assert.Equal(t, float64(10), doc["primes"])
	id, ok := doc["id"].(string)
	require.True(t, ok, "recorded runs carry an id")
	require.NotEmpty(t, id)

	code, stdout, _ = execute("history")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, shortID(id))
	assert.Contains(t, stdout, "PRIMES")
	assert.Contains(t, stdout, "Showing 1 of 1 runs")

	code, stdout, _ = execute("history", "show", shortID(id))
	require.Equal(t, 0, code)
	assert.Equal(t, "This machine calculated all 10 prime numbers under 30 in "+
		strings.TrimSuffix(doc["cpu"].(string), "s")+" seconds\n", stdout)
}

func TestExecute_NoHistory(t *testing.T) {
	isolate(t)

	code, stdout, _ := execute("--no-history", "-o", "json", "10")
	require.Equal(t, 0, code)
	assert.NotContains(t, stdout, `"id"`)

	code, stdout, _ = execute("history")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "No runs recorded yet.")
}

func TestExecute_HistoryDisabledByEnv(t *testing.T) {
	isolate(t)
	t.Setenv("PRIMES_HISTORY_ENABLED", "false")

	code, _, _ := execute("10")
	require.Equal(t, 0, code)

	code, stdout, _ := execute("history")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "No runs recorded yet.")
}

func TestExecute_HistoryShowUnknown(t *testing.T) {
	isolate(t)

	code, stdout, stderr := execute("history", "show", "nope")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "run not found")
}

func TestExecute_HistoryClean(t *testing.T) {
	isolate(t)

	code, _, _ := execute("5")
	require.Equal(t, 0, code)

	code, stdout, _ := execute("history", "clean")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Removed 0 runs older than 30 days.")
}

func TestExecute_UnknownOutputFormat(t *testing.T) {
	isolate(t)

	code, stdout, stderr := execute("-o", "xml", "10")

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, `unknown output format "xml"`)
}

func TestExecute_TemplateOutput(t *testing.T) {
	isolate(t)

	code, stdout, _ := execute("-o", "template", "--template", "{{.Primes}} of {{comma .Max}}\n", "1000")

	assert.Equal(t, 0, code)
	assert.Equal(t, "168 of 1,000\n", stdout)
}

func TestExecute_OutputFromConfigFile(t *testing.T) {
	root := isolate(t)
	dir := filepath.Join(root, "config", "primes")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("output: template\ntemplate: \"{{.Primes}}\"\n"), 0o644))

	code, stdout, _ := execute("10")
	assert.Equal(t, 0, code)
	assert.Equal(t, "4", stdout)

	// Flags beat the file.
	code, stdout, _ = execute("-o", "plain", "10")
	assert.Equal(t, 0, code)
	assert.Regexp(t, resultLine, stdout)
}

func TestExecute_MalformedConfigFallsBack(t *testing.T) {
	root := isolate(t)
	dir := filepath.Join(root, "config", "primes")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("output: [broken\n"), 0o644))

	code, stdout, stderr := execute("10")

	assert.Equal(t, 0, code)
	assert.Regexp(t, resultLine, stdout)
	assert.Contains(t, stderr, "Warning:")
	assert.Contains(t, stderr, "using defaults")
}

func TestExecute_ConfiguredOutputFallsBack(t *testing.T) {
	t.Run("unknown format from env", func(t *testing.T) {
		isolate(t)
		t.Setenv("PRIMES_OUTPUT", "xml")

		code, stdout, stderr := execute("10")

		assert.Equal(t, 0, code)
		assert.Regexp(t, resultLine, stdout)
		assert.Contains(t, stderr, `unknown output format "xml"`)
	})

	t.Run("broken template from config file", func(t *testing.T) {
		root := isolate(t)
		dir := filepath.Join(root, "config", "primes")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
			[]byte("output: template\ntemplate: \"{{.Missing}}\"\n"), 0o644))

		code, stdout, stderr := execute("10")

		assert.Equal(t, 0, code)
		assert.Regexp(t, resultLine, stdout)
		assert.Contains(t, stderr, "using plain output")
	})

	t.Run("flag still fails", func(t *testing.T) {
		isolate(t)
		t.Setenv("PRIMES_OUTPUT", "xml")

		code, stdout, _ := execute("-o", "template", "--template", "{{.Missing}}", "10")

		assert.Equal(t, 1, code)
		assert.Empty(t, stdout)
	})
}

func TestExecute_WritesLogFile(t *testing.T) {
	root := isolate(t)

	code, _, _ := execute("10")
	require.Equal(t, 0, code)

	data, err := os.ReadFile(filepath.Join(root, "state", "primes", "primes.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "run finished")
}

func TestExecute_Version(t *testing.T) {
	isolate(t)

	code, stdout, _ := execute("version")

	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "primes dev\n"))
	assert.Contains(t, stdout, "os/arch:")
}

func TestExecute_ConfigCommands(t *testing.T) {
	root := isolate(t)
	want := filepath.Join(root, "config", "primes", "config.yaml")

	code, stdout, _ := execute("config", "path")
	require.Equal(t, 0, code)
	assert.Equal(t, want+"\n", stdout)

	code, stdout, _ = execute("config", "init")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Created default config file: "+want)

	code, stdout, _ = execute("config", "init")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Config file already exists")

	t.Setenv("PRIMES_OUTPUT", "yaml")
	code, stdout, _ = execute("config", "show")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Config file: "+want)
	assert.Contains(t, stdout, "output:                  yaml")
	assert.Contains(t, stdout, "PRIMES_OUTPUT=yaml")
}

func TestExecute_QuietSuppressesInfo(t *testing.T) {
	isolate(t)

	code, stdout, _ := execute("-q", "history")

	assert.Equal(t, 0, code)
	assert.Empty(t, stdout)
}
