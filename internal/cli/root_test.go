package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdLoadsConfigFromFlag(t *testing.T) {
	dir := t.TempDir()
	toml := "[user]\nid = \"u-test\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o644))

	cmd := NewRootCmd(zerolog.Nop())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", dir, "config", "show", "--json"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "u-test")
}

func TestRootCmdRejectsBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	toml := "[poll]\ninterval = \"1s\"\n" // below the 5s minimum
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o644))

	cmd := NewRootCmd(zerolog.Nop())
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--config", dir, "version"})

	assert.Error(t, cmd.Execute())
}
