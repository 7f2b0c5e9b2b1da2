package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/dossier"
	main "github.com/fwojciec/dossier/cmd/dossier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var commands = []string{"build", "update", "status", "list", "history"}

func TestCLI_HelpShowsAllCommands(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	parser, err := kong.New(cli,
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)

	_, _ = parser.Parse([]string{"--help"})

	helpOutput := stdout.String()
	for _, cmd := range commands {
		assert.Contains(t, helpOutput, cmd, "Help should mention %s command", cmd)
	}
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "dossiers")
	m := main.NewMain()
	m.Config.Storage.Root = root

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"--help"}, stdout, stderr)
	require.NoError(t, err)

	helpOutput := stdout.String()
	for _, cmd := range commands {
		assert.Contains(t, helpOutput, cmd)
	}
	assert.Contains(t, helpOutput, "Usage:")
	assert.Contains(t, helpOutput, "--user-agent")

	// Help never touches storage.
	_, err = os.Stat(root)
	assert.True(t, os.IsNotExist(err))
}

func TestMain_Run_NoArgs(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	err := m.Run(context.Background(), nil, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
}

func TestMain_Run_RejectsMissingUserAgent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "dossiers")
	t.Setenv("SEC_USER_AGENT", "")

	m := main.NewMain()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"build", "AAPL", "--root", root}, stdout, stderr)

	require.Error(t, err)
	assert.Equal(t, dossier.EINVALID, dossier.ErrorCode(err))
	assert.Contains(t, stderr.String(), "SEC_USER_AGENT")

	// Validation fails before storage or transport is set up.
	_, err = os.Stat(root)
	assert.True(t, os.IsNotExist(err))
}

func TestMain_Run_RejectsUserAgentWithoutContact(t *testing.T) {
	root := filepath.Join(t.TempDir(), "dossiers")

	m := main.NewMain()
	err := m.Run(context.Background(), []string{"update", "AAPL", "--root", root, "--user-agent", "curl/8.0"}, &bytes.Buffer{}, &bytes.Buffer{})

	assert.Equal(t, dossier.EINVALID, dossier.ErrorCode(err))
	assert.Contains(t, dossier.ErrorMessage(err), "contact email")
}

func TestMain_Run_ConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	root := filepath.Join(dir, "from-file")
	path := filepath.Join(dir, "dossier.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  root: "+root+"\n"), 0644))

	m := main.NewMain()
	stdout := &bytes.Buffer{}
	err := m.Run(context.Background(), []string{"history", "AAPL", "--config", path}, stdout, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "No runs recorded for AAPL")
	_, err = os.Stat(filepath.Join(root, "dossier.db"))
	assert.NoError(t, err)
}

func TestMain_Run_GlobalsBeforeCommand(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "dossiers")

	m := main.NewMain()
	stderr := &bytes.Buffer{}
	err := m.Run(context.Background(), []string{"--root", root, "--user-agent", "bogus-no-contact", "build", "AAPL"}, &bytes.Buffer{}, stderr)

	require.Error(t, err)
	assert.Equal(t, dossier.EINVALID, dossier.ErrorCode(err))
	assert.Contains(t, stderr.String(), "SEC_USER_AGENT")

	_, err = os.Stat(root)
	assert.True(t, os.IsNotExist(err))
}
