package main

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalMIR = `
fn main() -> () {
    let _1: std::sync::Mutex<i32>;
    let _2: std::sync::MutexGuard<'_, i32>;
    bb0: {
        _2 = std::sync::Mutex::<i32>::lock(move _1) -> [return: bb1, unwind: bb2];
    }
    bb1: {
        drop(_2) -> [return: bb2, unwind: bb2];
    }
    bb2: {
        return;
    }
}
`

func TestRun_HappyPathProducesPNMLAndJSONDump(t *testing.T) {
	dir := t.TempDir()
	mirPath := filepath.Join(dir, "input.mir")
	outPath := filepath.Join(dir, "out.pnml")
	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(mirPath, []byte(minimalMIR), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"--mir", mirPath, "--out", outPath, "--dump-json", jsonPath}, &stdout, &stderr)

	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	pnmlBytes, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var root struct {
		XMLName xml.Name `xml:"pnml"`
	}
	require.NoError(t, xml.Unmarshal(pnmlBytes, &root))

	jsonBytes, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	require.Contains(t, string(jsonBytes), "fingerprint")
}

func TestRun_MissingInputFileExitsOne(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := run([]string{"--mir", filepath.Join(dir, "does-not-exist.mir"), "--out", filepath.Join(dir, "out.pnml")}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "Error")
}

func TestRun_EmptyParseResultExitsOne(t *testing.T) {
	dir := t.TempDir()
	mirPath := filepath.Join(dir, "empty.mir")
	require.NoError(t, os.WriteFile(mirPath, []byte("// no functions here\n"), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"--mir", mirPath, "--out", filepath.Join(dir, "out.pnml")}, &stdout, &stderr)
	require.Equal(t, 1, code)
}

func TestRun_MissingRequiredFlagsExitsOne(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{}, &stdout, &stderr)
	require.Equal(t, 1, code)
}

func TestRun_MaxFnsFlagLimitsTranslation(t *testing.T) {
	dir := t.TempDir()
	mirPath := filepath.Join(dir, "two.mir")
	const twoFns = `
fn one() -> () {
    bb0: {
        return;
    }
}
fn two() -> () {
    bb0: {
        return;
    }
}
`
	require.NoError(t, os.WriteFile(mirPath, []byte(twoFns), 0o644))
	outPath := filepath.Join(dir, "out.pnml")
	jsonPath := filepath.Join(dir, "out.json")

	var stdout, stderr bytes.Buffer
	code := run([]string{"--mir", mirPath, "--out", outPath, "--entry-fn", "one", "--max-fns", "1", "--dump-json", jsonPath}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	jsonBytes, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	require.Contains(t, string(jsonBytes), "p_one_entry")
	require.NotContains(t, string(jsonBytes), "p_two_entry")
}
