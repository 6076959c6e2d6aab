package content

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("нужен /bin/sh")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestRunnerCapturesStdout(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "ok.sh", `printf '\033[1mCuritiba\033[0m %s\n' "$1"; echo ok > marker`)

	r := NewRunner(dir, time.Second*5, zap.NewNop())
	out, err := r.Run(context.Background(), script, "--telegram")
	require.NoError(t, err)

	assert.Equal(t, "Curitiba --telegram\n", out)
	assert.FileExists(t, filepath.Join(dir, "marker"), "runs in the scripts dir")
}

func TestRunnerNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "fail.sh", `echo "cidade não encontrada" >&2; exit 3`)

	r := NewRunner(dir, time.Second*5, zap.NewNop())
	_, err := r.Run(context.Background(), script)
	require.ErrorIs(t, err, ErrScriptFailed)
	assert.Contains(t, err.Error(), "cidade não encontrada")
}

func TestRunnerFallsBackToStdoutInError(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "fail.sh", `echo "❌ Erro: API fora do ar"; exit 1`)

	r := NewRunner(dir, time.Second*5, zap.NewNop())
	_, err := r.Run(context.Background(), script)
	require.ErrorIs(t, err, ErrScriptFailed)
	assert.Contains(t, err.Error(), "API fora do ar")
}

func TestRunnerTimeout(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "slow.sh", `exec sleep 5`)

	r := NewRunner(dir, 50*time.Millisecond, zap.NewNop())
	_, err := r.Run(context.Background(), script)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
