package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dyike/EquityGo/config"
	"github.com/stretchr/testify/require"
)

func TestConfigLoaderPersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	initial := config.DefaultConfigWithRoot(dir)

	loader := newConfigLoader(
		config.WithConfigDir(dir),
		config.WithInitialConfig(initial),
	)
	require.NotNil(t, loader.mgr, "file manager must back the loader")
	require.FileExists(t, filepath.Join(dir, "config.json"))
	require.Equal(t, initial.MaxIterations, loader.current().MaxIterations)

	updated := *initial
	updated.MaxIterations = 3
	require.NoError(t, loader.mgr.Update(updated))

	require.Equal(t, 3, loader.current().MaxIterations,
		"the next session must see the edited config")
}

func TestConfigLoaderFallsBackToEnvironment(t *testing.T) {
	loader := &configLoader{fallback: config.DefaultConfigWithRoot(t.TempDir())}

	require.NotNil(t, loader.current())
	require.NotPanics(t, func() { loader.watch(context.Background()) })
}
