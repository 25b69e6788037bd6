// Package workflow loads lint workflow definitions from YAML or TOML.
package workflow

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultWorkflow []byte

// Format is the encoding of a workflow file
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// rawWorkflow is the on-disk structure shared by both encodings
type rawWorkflow struct {
	Name string     `yaml:"name" toml:"name"`
	On   rawTrigger `yaml:"on" toml:"on"`
	Job  rawJob     `yaml:"job" toml:"job"`
}

type rawTrigger struct {
	Push        *rawFilter `yaml:"push" toml:"push"`
	PullRequest *rawFilter `yaml:"pull_request" toml:"pull_request"`
}

type rawFilter struct {
	Branches []string `yaml:"branches" toml:"branches"`
	Types    []string `yaml:"types" toml:"types"`
}

type rawJob struct {
	RunsOn         string   `yaml:"runs-on" toml:"runs-on"`
	TimeoutMinutes int      `yaml:"timeout-minutes" toml:"timeout-minutes"`
	PythonVersion  string   `yaml:"python-version" toml:"python-version"`
	Install        []string `yaml:"install" toml:"install"`
	Lint           rawLint  `yaml:"lint" toml:"lint"`
}

type rawLint struct {
	Command string   `yaml:"command" toml:"command"`
	Args    []string `yaml:"args" toml:"args"`
	Paths   []string `yaml:"paths" toml:"paths"`
}

// Default returns the built-in workflow
func Default() (*model.Workflow, error) {
	wf, err := Parse(defaultWorkflow, FormatYAML)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse built-in workflow")
	}
	return wf, nil
}

// Load reads a workflow file; the format follows the extension (.toml or YAML otherwise).
// An empty path returns the built-in workflow.
func Load(path string) (*model.Workflow, error) {
	if path == "" {
		return Default()
	}

	//nolint:gosec // G304: path is operator supplied configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read workflow file", goerr.V("path", path))
	}

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = FormatTOML
	}

	wf, err := Parse(data, format)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load workflow", goerr.V("path", path))
	}
	return wf, nil
}

// Parse decodes and validates a workflow
func Parse(data []byte, format Format) (*model.Workflow, error) {
	var raw rawWorkflow

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil {
			return nil, goerr.Wrap(err, "invalid YAML workflow")
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return nil, goerr.Wrap(err, "invalid TOML workflow")
		}
	default:
		return nil, goerr.New("unsupported workflow format", goerr.V("format", format))
	}

	wf := raw.toModel()
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return wf, nil
}

func (x *rawWorkflow) toModel() *model.Workflow {
	timeout := model.DefaultTimeout
	if x.Job.TimeoutMinutes != 0 {
		timeout = time.Duration(x.Job.TimeoutMinutes) * time.Minute
	}

	return &model.Workflow{
		Name: x.Name,
		On: model.Triggers{
			Push:        x.On.Push.toModel(),
			PullRequest: x.On.PullRequest.toModel(),
		},
		Job: model.JobSpec{
			RunsOn:        x.Job.RunsOn,
			Timeout:       timeout,
			PythonVersion: x.Job.PythonVersion,
			Install:       x.Job.Install,
			Lint: model.LintCommand{
				Command: x.Job.Lint.Command,
				Args:    x.Job.Lint.Args,
				Paths:   x.Job.Lint.Paths,
			},
		},
	}
}

func (x *rawFilter) toModel() *model.BranchFilter {
	if x == nil {
		return nil
	}
	return &model.BranchFilter{
		Branches: x.Branches,
		Types:    x.Types,
	}
}
