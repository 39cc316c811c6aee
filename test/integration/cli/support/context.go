package support

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/ledgerscan/cmd/ledgerscan/cmd"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string
	LastStderr    string
	LastError     error
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration

	// Test environment
	TempDir string
	Stdin   string

	// Files created by the scenario, by the name used in the feature file. "."
	// names the scenario directory.
	Files map[string]string

	savedEnv map[string]*string
}

// NewTestContext creates a scenario context with its own temporary directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "ledgerscan-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		TempDir:  tempDir,
		Files:    map[string]string{".": tempDir},
		savedEnv: make(map[string]*string),
	}, nil
}

// Path returns the location of a scenario file named name.
func (testCtx *TestContext) Path(name string) string {
	if p, ok := testCtx.Files[name]; ok {
		return p
	}
	return filepath.Join(testCtx.TempDir, name)
}

// register records a created file under name.
func (testCtx *TestContext) register(name string) string {
	p := filepath.Join(testCtx.TempDir, name)
	testCtx.Files[name] = p
	return p
}

// SetEnv sets an environment variable until Cleanup.
func (testCtx *TestContext) SetEnv(name, value string) error {
	if _, saved := testCtx.savedEnv[name]; !saved {
		if old, ok := os.LookupEnv(name); ok {
			testCtx.savedEnv[name] = &old
		} else {
			testCtx.savedEnv[name] = nil
		}
	}
	return os.Setenv(name, value)
}

// outputFlags take a path that the command creates.
var outputFlags = map[string]bool{"-o": true, "--output": true, "--metrics-file": true, "init": true}

// RunCommand runs the ledgerscan command line in-process. Arguments naming a
// scenario file are replaced by its path.
func (testCtx *TestContext) RunCommand(command string) {
	fields := strings.Fields(command)
	if len(fields) > 0 && fields[0] == "ledgerscan" {
		fields = fields[1:]
	}
	for i, f := range fields {
		if p, ok := testCtx.Files[f]; ok {
			fields[i] = p
			continue
		}
		if i > 0 && outputFlags[fields[i-1]] && !filepath.IsAbs(f) {
			fields[i] = testCtx.register(f)
		}
	}

	root := cmd.NewRootCommand()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(strings.NewReader(testCtx.Stdin))
	root.SetArgs(fields)

	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()
	testCtx.LastError = root.Execute()
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)
	testCtx.LastExitCode = cmd.ExitCode(testCtx.LastError)
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
}

// Cleanup restores the environment and removes the temporary directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []error
	for name, old := range testCtx.savedEnv {
		var err error
		if old == nil {
			err = os.Unsetenv(name)
		} else {
			err = os.Setenv(name, *old)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	testCtx.savedEnv = make(map[string]*string)

	if testCtx.TempDir != "" {
		if err := os.RemoveAll(testCtx.TempDir); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove temp dir: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}
