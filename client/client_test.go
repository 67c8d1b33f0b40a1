package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BenB289/BMGPanel/api"
	"github.com/BenB289/BMGPanel/config"
	"github.com/BenB289/BMGPanel/models"
	"github.com/BenB289/BMGPanel/store"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.New()
	require.NoError(t, s.PutEgg(models.Egg{ID: 1, NestID: 1, Name: "Paper", DockerImages: []string{"a:1", "a:2"}},
		models.EggVariable{Name: "Jar", EnvVariable: "SERVER_JARFILE", DefaultValue: "server.jar", UserViewable: true, Rules: "required|string"},
	))

	cfg := &config.Config{API: config.APIConfig{Keys: []config.APIKey{
		{Token: "ptla_eggs", Permissions: []string{"eggs"}},
		{Token: "ptla_nests", Permissions: []string{"nests"}},
	}}}
	srv := httptest.NewServer(api.New(cfg, s).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestGetEgg(t *testing.T) {
	srv := newServer(t)
	c := New(srv.URL+"/", "ptla_eggs")

	egg, err := c.GetEgg(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Paper", egg.Name)
	assert.Equal(t, "a:1", egg.DockerImage)
	assert.Nil(t, egg.Relations.Variables)

	egg, err = c.GetEgg(context.Background(), 1, "variables")
	require.NoError(t, err)
	require.Len(t, egg.Relations.Variables, 1)
	v := egg.Relations.Variables[0]
	assert.Equal(t, "SERVER_JARFILE", v.EnvVariable)
	assert.Equal(t, "server.jar", v.DefaultValue)
	assert.True(t, v.UserViewable)
	assert.False(t, v.CreatedAt.IsZero())
}

func TestRequestError(t *testing.T) {
	srv := newServer(t)

	_, err := New(srv.URL, "ptla_nests").GetEgg(context.Background(), 1)
	var re *RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusForbidden, re.Status)
	assert.Equal(t, "You do not have permission to perform this action.", re.Detail)

	_, err = New(srv.URL, "ptla_eggs").GetEgg(context.Background(), 44)
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusNotFound, re.Status)
}

func TestVariableMutations(t *testing.T) {
	srv := newServer(t)
	c := New(srv.URL, "ptla_eggs")
	ctx := context.Background()

	created, err := c.CreateEggVariable(ctx, 1, models.EggVariable{Name: "Flags", EnvVariable: "FLAGS", Rules: "string"})
	require.NoError(t, err)
	assert.Equal(t, 2, created.ID)

	created.Name = "Java Flags"
	vars, err := c.UpdateEggVariables(ctx, 1, []models.EggVariable{created})
	require.NoError(t, err)
	require.Len(t, vars, 2)
	assert.Equal(t, "Java Flags", vars[0].Name)
	assert.Equal(t, "SERVER_JARFILE", vars[1].EnvVariable)

	require.NoError(t, c.DeleteEggVariable(ctx, 1, 2))
	assert.Error(t, c.DeleteEggVariable(ctx, 1, 2))
}

func flakyServer(t *testing.T, failures int32, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func fastRetries(c *Client) *Client {
	c.http.RetryWaitMin = time.Millisecond
	c.http.RetryWaitMax = 5 * time.Millisecond
	return c
}

func TestGetEggRetriesUnavailable(t *testing.T) {
	srv, calls := flakyServer(t, 1, `{"object":"egg","attributes":{"id":1,"name":"Paper"}}`)
	c := fastRetries(New(srv.URL, "ptla_eggs"))

	egg, err := c.GetEgg(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Paper", egg.Name)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestGetEggGivesUp(t *testing.T) {
	srv, calls := flakyServer(t, 100, `{}`)
	c := fastRetries(New(srv.URL, "ptla_eggs"))

	_, err := c.GetEgg(context.Background(), 1)
	var re *RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusServiceUnavailable, re.Status)
	assert.Equal(t, int32(c.http.RetryMax+1), atomic.LoadInt32(calls))
}

func TestMutationsAreNotRetried(t *testing.T) {
	ctx := context.Background()

	srv, calls := flakyServer(t, 1, `{"object":"list","data":[]}`)
	c := fastRetries(New(srv.URL, "ptla_eggs"))
	_, err := c.UpdateEggVariables(ctx, 1, nil)
	var re *RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusServiceUnavailable, re.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	srv, calls = flakyServer(t, 1, ``)
	c = fastRetries(New(srv.URL, "ptla_eggs"))
	require.Error(t, c.DeleteEggVariable(ctx, 1, 2))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}
