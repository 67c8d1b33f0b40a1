package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BenB289/BMGPanel/constants"
	"github.com/BenB289/BMGPanel/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s := New()
	s.path = path
	s.now = func() time.Time { return fixedTime }

	require.NoError(t, s.PutNest(models.Nest{ID: 1, Name: "Minecraft"}))
	require.NoError(t, s.PutEgg(models.Egg{ID: 1, NestID: 1, Name: "Paper", DockerImages: []string{"java:17"}},
		models.EggVariable{Name: "Jar", EnvVariable: "SERVER_JARFILE", Rules: "required|string"},
		models.EggVariable{Name: "Version", EnvVariable: "MC_VERSION", Rules: "required|string"},
		models.EggVariable{Name: "Build", EnvVariable: "BUILD_NUMBER", Rules: "required|string"},
	))
	require.NoError(t, s.PutServer(models.Server{ID: 2, UUID: "aaaa1111-0000-0000-0000-000000000000", EggID: 1, NestID: 1, Name: "two"}))
	require.NoError(t, s.PutServer(models.Server{ID: 1, EggID: 1, NestID: 1, Name: "one"}))
	return s
}

func envNames(vars []models.EggVariable) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.EnvVariable
	}
	return out
}

func TestReads(t *testing.T) {
	s := newTestStore(t, "")

	e, err := s.Egg(1)
	require.NoError(t, err)
	assert.Equal(t, "Paper", e.Name)
	assert.NotEmpty(t, e.UUID)
	assert.Equal(t, fixedTime, e.CreatedAt)

	_, err = s.Egg(5)
	assert.True(t, IsNotFound(err))

	n, err := s.Nest(1)
	require.NoError(t, err)
	assert.Equal(t, "Minecraft", n.Name)

	servers, err := s.ServersForEgg(1)
	require.NoError(t, err)
	require.Len(t, servers, 2)
	assert.Equal(t, "one", servers[0].Name)
	assert.Equal(t, "aaaa1111", servers[1].Identifier)

	vars, err := s.Variables(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"SERVER_JARFILE", "MC_VERSION", "BUILD_NUMBER"}, envNames(vars))
	assert.Equal(t, []int{1, 2, 3}, []int{vars[0].ID, vars[1].ID, vars[2].ID})
}

func TestEggIsCopied(t *testing.T) {
	s := newTestStore(t, "")

	e, err := s.Egg(1)
	require.NoError(t, err)
	e.DockerImages[0] = "changed"

	e, err = s.Egg(1)
	require.NoError(t, err)
	assert.Equal(t, "java:17", e.DockerImages[0])
}

func TestUpdateVariables(t *testing.T) {
	s := newTestStore(t, "")
	vars, err := s.Variables(1)
	require.NoError(t, err)

	vars[0].Name = "Server Jar"
	update := []models.EggVariable{
		vars[1],
		vars[0],
		{Name: "Memory Flags", EnvVariable: " JAVA_FLAGS ", Rules: "nullable|string"},
	}

	out, err := s.UpdateVariables(1, update)
	require.NoError(t, err)
	assert.Equal(t, []string{"MC_VERSION", "SERVER_JARFILE", "JAVA_FLAGS", "BUILD_NUMBER"}, envNames(out))
	assert.Equal(t, "Server Jar", out[1].Name)
	assert.Equal(t, 4, out[2].ID)
	assert.Equal(t, 1, out[2].EggID)

	stored, err := s.Variables(1)
	require.NoError(t, err)
	assert.Equal(t, out, stored)
}

func TestUpdateVariablesIsAtomic(t *testing.T) {
	s := newTestStore(t, "")
	before, err := s.Variables(1)
	require.NoError(t, err)

	cases := map[string][]models.EggVariable{
		"unknown id": {{ID: 99, Name: "x", EnvVariable: "X", Rules: "string"}},
		"reserved":   {before[0], {Name: "Memory", EnvVariable: "server_memory", Rules: "string"}},
		"duplicate":  {{Name: "Again", EnvVariable: "MC_VERSION", Rules: "string"}},
		"repeated":   {before[0], before[0]},
	}

	for name, update := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.UpdateVariables(1, update)
			assert.Error(t, err)

			after, err := s.Variables(1)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}

	_, err = s.UpdateVariables(7, nil)
	assert.True(t, IsNotFound(err))
}

func TestDeleteVariable(t *testing.T) {
	s := newTestStore(t, "")

	require.NoError(t, s.DeleteVariable(1, 2))

	vars, err := s.Variables(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"SERVER_JARFILE", "BUILD_NUMBER"}, envNames(vars))
	assert.Equal(t, 1, vars[0].ID)
	assert.Equal(t, 3, vars[1].ID)

	err = s.DeleteVariable(1, 2)
	assert.True(t, IsNotFound(err))
}

func TestCreateVariable(t *testing.T) {
	s := newTestStore(t, "")

	v, err := s.CreateVariable(1, models.EggVariable{Name: "Flags", EnvVariable: "FLAGS", Rules: "string"})
	require.NoError(t, err)
	assert.Equal(t, 4, v.ID)

	_, err = s.CreateVariable(1, models.EggVariable{Name: "Home", EnvVariable: "HOME", Rules: "string"})
	assert.True(t, IsConflict(err))
}

func TestOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)
	require.NoError(t, s.DeleteVariable(1, 1))

	_, err := os.Stat(filepath.Join(dir, constants.EggsPath, "1", constants.EggConfigFile))
	require.NoError(t, err)

	loaded, err := Open(dir)
	require.NoError(t, err)

	vars, err := loaded.Variables(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"MC_VERSION", "BUILD_NUMBER"}, envNames(vars))

	servers, err := loaded.ServersForEgg(1)
	require.NoError(t, err)
	assert.Len(t, servers, 2)

	v, err := loaded.CreateVariable(1, models.EggVariable{Name: "Flags", EnvVariable: "FLAGS", Rules: "string"})
	require.NoError(t, err)
	assert.Equal(t, 4, v.ID)
}

func TestOpenMissingDirectory(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)

	_, err = s.Egg(1)
	assert.Error(t, err)
}
