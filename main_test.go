package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/landing-go/apperror"
)

func TestNewApp_Commands(t *testing.T) {
	app := newApp()

	assert.Equal(t, "serve", app.DefaultCommand)
	require.NotNil(t, app.Command("serve"))
	migrate := app.Command("migrate")
	require.NotNil(t, migrate)

	var names []string
	for _, sub := range migrate.Subcommands {
		names = append(names, sub.Name)
	}
	assert.Equal(t, []string{"up", "down", "version"}, names)
}

func TestMigrateVersion_BadDatabaseURL(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "nosuchdriver://localhost/db")

	app := newApp()
	app.Writer = &bytes.Buffer{}
	missing := filepath.Join(t.TempDir(), ".env")

	err := app.Run([]string{"landing", "--env-file", missing, "migrate", "version"})

	require.Error(t, err)
	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.MigrationError, appErr.Type)
}

func TestEnvFileThatCannotBeRead(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}

	err := app.Run([]string{"landing", "--env-file", t.TempDir(), "migrate", "version"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading")
}
