package hostexec

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

// FakeResult is a canned reply for FakeRunner.
type FakeResult struct {
	Output string
	Err    error
	Panic  bool
}

// FakeRunner replays canned results keyed by the full command line
// ("name arg1 arg2"). Unknown commands fail with ErrNotFound.
type FakeRunner struct {
	mu      sync.Mutex
	results map[string]FakeResult
	calls   []string
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{results: make(map[string]FakeResult)}
}

// On registers output for a command line.
func (f *FakeRunner) On(cmdline, output string) *FakeRunner {
	return f.OnResult(cmdline, FakeResult{Output: output})
}

// OnError registers a failure for a command line.
func (f *FakeRunner) OnError(cmdline string, err error) *FakeRunner {
	return f.OnResult(cmdline, FakeResult{Err: err})
}

func (f *FakeRunner) OnResult(cmdline string, res FakeResult) *FakeRunner {
	f.mu.Lock()
	f.results[cmdline] = res
	f.mu.Unlock()
	return f
}

func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmdline := strings.TrimSpace(name + " " + strings.Join(args, " "))

	f.mu.Lock()
	f.calls = append(f.calls, cmdline)
	res, ok := f.results[cmdline]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if res.Panic {
		panic("fake runner: " + cmdline)
	}
	return res.Output, res.Err
}

// Calls returns every command line seen so far.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// FakeFiles is an in-memory FileInspector.
type FakeFiles struct {
	mu    sync.Mutex
	modes map[string]fs.FileMode
	data  map[string][]byte
}

func NewFakeFiles() *FakeFiles {
	return &FakeFiles{modes: make(map[string]fs.FileMode), data: make(map[string][]byte)}
}

// Put adds a file with the given permission bits and content.
func (f *FakeFiles) Put(path string, mode fs.FileMode, content string) *FakeFiles {
	f.mu.Lock()
	f.modes[path] = mode
	f.data[path] = []byte(content)
	f.mu.Unlock()
	return f
}

func (f *FakeFiles) Stat(path string) (fs.FileMode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mode, ok := f.modes[path]
	if !ok {
		return 0, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return mode, nil
}

func (f *FakeFiles) ReadFile(path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.data[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
