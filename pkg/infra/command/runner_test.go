package command_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/infra/command"
)

func TestRunner_Run_Success(t *testing.T) {
	r := command.New()

	result, err := r.Run(context.Background(), &model.Command{
		Name: "sh",
		Args: []string{"-c", "echo 'Hello, World!'"},
	})
	gt.NoError(t, err)
	gt.Number(t, result.ExitCode).Equal(0)
	gt.True(t, result.Success())
	gt.Value(t, string(result.Output)).Equal("Hello, World!\n")
}

func TestRunner_Run_NonZeroExit(t *testing.T) {
	r := command.New()

	result, err := r.Run(context.Background(), &model.Command{
		Name: "sh",
		Args: []string{"-c", "echo violation >&2; exit 42"},
	})
	gt.NoError(t, err)
	gt.Number(t, result.ExitCode).Equal(42)
	gt.Value(t, result.Success()).Equal(false)
	gt.String(t, string(result.Output)).Contains("violation")
}

func TestRunner_Run_WorkingDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("x"), 0600))

	r := command.New(command.WithEnv([]string{"PATH=" + os.Getenv("PATH")}))
	result, err := r.Run(context.Background(), &model.Command{
		Name: "sh",
		Args: []string{"-c", "ls; echo $LINT_VAR"},
		Dir:  dir,
		Env:  map[string]string{"LINT_VAR": "test_value"},
	})
	gt.NoError(t, err)
	gt.String(t, string(result.Output)).Contains("marker.txt")
	gt.String(t, string(result.Output)).Contains("test_value")
}

func TestRunner_Run_CommandNotFound(t *testing.T) {
	r := command.New()

	result, err := r.Run(context.Background(), &model.Command{
		Name: "lintgate-command-that-does-not-exist",
	})
	gt.Error(t, err)
	gt.Value(t, result).Equal((*model.CommandResult)(nil))
}

func TestRunner_Run_Timeout(t *testing.T) {
	r := command.New()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Run(ctx, &model.Command{
		Name: "sleep",
		Args: []string{"10"},
	})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, context.DeadlineExceeded))
	gt.True(t, time.Since(start) < 5*time.Second)
}
