package db

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gripmon.db")
	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		err := RunMigrateCommand(&out, args, path)
		return out.String(), err
	}

	out, err := run("status")
	require.NoError(t, err)
	assert.Equal(t, "version 0 (dirty: false)\n", out)

	out, err = run("up")
	require.NoError(t, err)
	assert.Equal(t, "version 2 (dirty: false)\n", out)

	out, err = run("down")
	require.NoError(t, err)
	assert.Equal(t, "version 1 (dirty: false)\n", out)

	// The monitor brings the schema back up on open.
	database, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, database.Close())

	out, err = run("status")
	require.NoError(t, err)
	assert.Equal(t, "version 2 (dirty: false)\n", out)
}

func TestRunMigrateCommandUsage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunMigrateCommand(&out, []string{"help"}, ""))
	assert.Contains(t, out.String(), "status")

	out.Reset()
	assert.Error(t, RunMigrateCommand(&out, nil, "x.db"))
	assert.Contains(t, out.String(), "Usage")

	out.Reset()
	err := RunMigrateCommand(&out, []string{"sideways"}, filepath.Join(t.TempDir(), "gripmon.db"))
	assert.ErrorContains(t, err, "sideways")

	assert.Error(t, RunMigrateCommand(&out, []string{"status"}, ""))
}
