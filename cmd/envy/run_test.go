package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsukumogami/envy/internal/engine"
	"github.com/tsukumogami/envy/internal/errmsg"
)

func TestGraphExitCode(t *testing.T) {
	plain := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"graph error", &errmsg.GraphError{Kind: errmsg.GraphCycle}, ExitGraphFailed},
		{"multi error", &errmsg.MultiError{Failures: map[string]error{"ns.a@1": plain}}, ExitRecipeFailed},
		{"other error", plain, ExitGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, graphExitCode(tt.err))
		})
	}
}

func TestPrintResultTable(t *testing.T) {
	orig := runJSON
	runJSON = false
	defer func() { runJSON = orig }()

	result := &engine.Result{Recipes: []engine.RecipeResult{
		{Identity: "ns.a@1", Phase: "completion", Failed: false},
		{Identity: "ns.b@1", Phase: "install", Failed: true, Error: "boom"},
	}}

	r, w, err := os.Pipe()
	assert.NoError(t, err)
	origStdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = origStdout }()

	printResult(result)
	w.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	assert.NoError(t, err)
	os.Stdout = origStdout

	out := buf.String()
	assert.Contains(t, out, "ns.a@1")
	assert.Contains(t, out, "ns.b@1")
	assert.Contains(t, out, "FAILED: boom")
}

func TestPrintResultJSON(t *testing.T) {
	orig := runJSON
	runJSON = true
	defer func() { runJSON = orig }()

	result := &engine.Result{Recipes: []engine.RecipeResult{
		{Identity: "ns.a@1", Phase: "completion", Failed: false},
	}}

	r, w, err := os.Pipe()
	assert.NoError(t, err)
	origStdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = origStdout }()

	printResult(result)
	w.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	assert.NoError(t, err)
	os.Stdout = origStdout

	assert.Contains(t, buf.String(), `"identity":"ns.a@1"`)
}

func TestPrintResultTableShowsSizeOnTerminal(t *testing.T) {
	orig := runJSON
	runJSON = false
	defer func() { runJSON = orig }()

	origTerminal := isTerminalFunc
	isTerminalFunc = func(int) bool { return true }
	defer func() { isTerminalFunc = origTerminal }()

	assetPath := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(assetPath, "payload"), make([]byte, 2048), 0o644))

	result := &engine.Result{Recipes: []engine.RecipeResult{
		{Identity: "ns.a@1", Phase: "completion", Failed: false, AssetPath: assetPath},
	}}

	r, w, err := os.Pipe()
	assert.NoError(t, err)
	origStdout := os.Stdout
	os.Stdout = w

	printResult(result)
	w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	assert.NoError(t, err)

	assert.Contains(t, buf.String(), "2.0 kB")
}
