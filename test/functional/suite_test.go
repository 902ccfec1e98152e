// Package functional drives the built envy binary through godog feature
// files: build the CLI once, then assert on its exit code and output for
// each scenario.
package functional

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/cucumber/godog"
)

type stateKeyType struct{}

var stateKey = stateKeyType{}

type testState struct {
	binPath   string
	workDir   string
	fixtures  string // workDir/fixtures: a copy of the scenario's fixture tree
	manifest  string
	stdout    string
	stderr    string
	exitCode  int
}

func getState(ctx context.Context) *testState {
	if s, ok := ctx.Value(stateKey).(*testState); ok {
		return s
	}
	return nil
}

func setState(ctx context.Context, s *testState) context.Context {
	return context.WithValue(ctx, stateKey, s)
}

func TestFeatures(t *testing.T) {
	binPath := os.Getenv("ENVY_TEST_BINARY")
	if binPath == "" {
		t.Skip("ENVY_TEST_BINARY not set; run via 'make test-functional'")
	}
	absBin, err := filepath.Abs(binPath)
	if err != nil {
		t.Fatalf("resolving binary path: %v", err)
	}
	binPath = absBin

	fixtures, err := filepath.Abs("fixtures")
	if err != nil {
		t.Fatalf("resolving fixtures path: %v", err)
	}

	opts := &godog.Options{
		Format:   "pretty",
		Paths:    []string{"features"},
		TestingT: t,
	}
	if tags := os.Getenv("ENVY_TEST_TAGS"); tags != "" {
		opts.Tags = tags
	}

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			initializeScenario(ctx, binPath, fixtures)
		},
		Options: opts,
	}
	if suite.Run() != 0 {
		t.Fatal("functional tests failed")
	}
}

func initializeScenario(ctx *godog.ScenarioContext, binPath, fixtures string) {
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		workDir, err := os.MkdirTemp("", "envy-functional-")
		if err != nil {
			return ctx, err
		}
		copiedFixtures := filepath.Join(workDir, "fixtures")
		if err := copyFixtures(fixtures, copiedFixtures); err != nil {
			return ctx, err
		}
		state := &testState{binPath: binPath, workDir: workDir, fixtures: copiedFixtures}
		return setState(ctx, state), nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if state := getState(ctx); state != nil {
			os.RemoveAll(state.workDir)
		}
		return ctx, nil
	})

	ctx.Step(`^the manifest "([^"]*)"$`, theManifest)
	ctx.Step(`^I run "envy (.*)"$`, iRunEnvy)
	ctx.Step(`^the exit code is (\d+)$`, theExitCodeIs)
	ctx.Step(`^the exit code is not (\d+)$`, theExitCodeIsNot)
	ctx.Step(`^the output contains "([^"]*)"$`, theOutputContains)
	ctx.Step(`^the error output contains "([^"]*)"$`, theErrorOutputContains)
}

// copyFixtures copies src into dst, substituting the "{{FIXTURES}}" token in
// every file's contents with dst's own absolute path. Fixture scripts use the
// token so their DEPENDENCIES "source" fields can reference siblings without
// baking in the checkout-specific fixtures path.
func copyFixtures(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		data = bytes.ReplaceAll(data, []byte("{{FIXTURES}}"), []byte(dst))
		return os.WriteFile(target, data, 0o644)
	})
}
