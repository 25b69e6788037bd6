// Package python provisions isolated Python environments for lint jobs.
package python

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
)

// pipEnv keeps pip from prompting
var pipEnv = map[string]string{
	"PIP_NO_INPUT": "1",
}

const versionScript = "import sys; print('%d.%d' % sys.version_info[:2])"

// Toolchain creates a virtualenv from a matching interpreter and pip-installs into it
type Toolchain struct {
	runner   interfaces.CommandRunner
	lookPath func(string) (string, error)
}

// Option configures Toolchain
type Option func(*Toolchain)

// WithLookPath replaces exec.LookPath for interpreter discovery
func WithLookPath(fn func(string) (string, error)) Option {
	return func(t *Toolchain) {
		t.lookPath = fn
	}
}

// New creates a Toolchain running commands with runner
func New(runner interfaces.CommandRunner, opts ...Option) *Toolchain {
	t := &Toolchain{
		runner:   runner,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// candidates lists interpreter names to try for a version pin, most specific first
func candidates(version string) []string {
	names := []string{"python" + version}
	if major, _, ok := strings.Cut(version, "."); ok {
		names = append(names, "python"+major)
	}
	return append(names, "python3", "python")
}

// versionMatches reports whether the interpreter version satisfies the pin.
// "3.10" matches 3.10 only; "3" matches any 3.x.
func versionMatches(pin, actual string) bool {
	return actual == pin || strings.HasPrefix(actual, pin+".")
}

// Provision finds an interpreter matching version and creates a virtualenv under dir
func (t *Toolchain) Provision(ctx context.Context, version, dir string) (*model.Runtime, error) {
	logger := ctxlog.From(ctx)

	seen := map[string]bool{}
	var (
		found []string
		log   bytes.Buffer
	)
	for _, name := range candidates(version) {
		path, err := t.lookPath(name)
		if err != nil || seen[path] {
			continue
		}
		seen[path] = true

		result, err := t.runner.Run(ctx, &model.Command{
			Name: path,
			Args: []string{"-c", versionScript},
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, goerr.Wrap(err, "failed to query interpreter version", goerr.V("interpreter", path))
			}
			logger.Debug("Interpreter did not start", "interpreter", path, "error", err)
			found = append(found, path+"=unusable")
			continue
		}
		if !result.Success() {
			logger.Debug("Interpreter version query failed", "interpreter", path, "exit_code", result.ExitCode)
			continue
		}

		actual := strings.TrimSpace(string(result.Output))
		found = append(found, path+"="+actual)
		fmt.Fprintf(&log, "%s: Python %s\n", path, actual)
		if !versionMatches(version, actual) {
			continue
		}

		root := filepath.Join(dir, "venv")
		venv, err := t.runner.Run(ctx, &model.Command{
			Name: path,
			Args: []string{"-m", "venv", root},
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create virtualenv", goerr.V("interpreter", path))
		}
		if !venv.Success() {
			return nil, goerr.New("virtualenv creation failed",
				goerr.V("interpreter", path),
				goerr.V("exit_code", venv.ExitCode),
				goerr.V("output", string(venv.Output)),
			)
		}

		log.Write(venv.Output)

		logger.Info("Provisioned Python runtime",
			"version", actual,
			"interpreter", path,
			"root", root,
		)

		return &model.Runtime{
			Version:     actual,
			Interpreter: path,
			Root:        root,
			Output:      log.Bytes(),
		}, nil
	}

	return nil, goerr.New("no interpreter matches python version",
		goerr.V("version", version),
		goerr.V("found", found),
	)
}

// Install installs the latest version of packages into the runtime
func (t *Toolchain) Install(ctx context.Context, rt *model.Runtime, packages []string) (*model.CommandResult, error) {
	args := append([]string{"-m", "pip", "install", "--upgrade", "--disable-pip-version-check"}, packages...)

	result, err := t.runner.Run(ctx, &model.Command{
		Name: rt.Bin("python"),
		Args: args,
		Env:  pipEnv,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run pip", goerr.V("packages", packages))
	}
	if !result.Success() {
		return result, goerr.New("pip install failed",
			goerr.V("packages", packages),
			goerr.V("exit_code", result.ExitCode),
		)
	}

	return result, nil
}
