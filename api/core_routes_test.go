package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BenB289/BMGPanel/config"
	"github.com/BenB289/BMGPanel/models"
	"github.com/BenB289/BMGPanel/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminToken   = "ptla_admin"
	limitedToken = "ptla_limited"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func intPtr(i int) *int {
	return &i
}

func newTestAPI(t *testing.T) (*InternalAPI, *store.Store) {
	t.Helper()

	s := store.New()
	require.NoError(t, s.PutNest(models.Nest{ID: 1, Name: "Minecraft"}))
	require.NoError(t, s.PutEgg(models.Egg{ID: 1, NestID: 1, Name: "Vanilla", DockerImages: []string{"java:8"}, ConfigFiles: `{"a":1}`, ConfigStop: "stop"}))
	require.NoError(t, s.PutEgg(models.Egg{ID: 2, NestID: 1, Name: "Paper", DockerImages: []string{"a:1", "a:2"}, ConfigFrom: intPtr(1)},
		models.EggVariable{Name: "Jar", EnvVariable: "SERVER_JARFILE", Rules: "required|string"},
		models.EggVariable{Name: "Version", EnvVariable: "MC_VERSION", Rules: "required|string"},
		models.EggVariable{Name: "Build", EnvVariable: "BUILD_NUMBER", Rules: "required|string"},
	))
	require.NoError(t, s.PutEgg(models.Egg{ID: 3, NestID: 1, Name: "Broken", ConfigStartup: `{`}))
	require.NoError(t, s.PutEgg(models.Egg{ID: 4, NestID: 1, Name: "Orphan", ConfigFrom: intPtr(42)}))
	require.NoError(t, s.PutServer(models.Server{ID: 1, EggID: 2, NestID: 1, Name: "Lobby"}))

	cfg := &config.Config{
		API: config.APIConfig{
			Keys: []config.APIKey{
				{Token: adminToken, Permissions: []string{"nests", "eggs", "servers"}},
				{Token: limitedToken, Permissions: []string{"eggs"}},
			},
		},
	}
	return New(cfg, s), s
}

func do(api *InternalAPI, method, path, token, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	api.Handler().ServeHTTP(recorder, req)
	return recorder
}

func decode(t *testing.T, r *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	out := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(r.Body.Bytes(), &out))
	return out
}

func TestHandleGetIndex(t *testing.T) {
	router := gin.New()
	recorder := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)

	router.GET("/", GetIndex)
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestIndexNeedsNoToken(t *testing.T) {
	api, _ := newTestAPI(t)

	r := do(api, "GET", "/api/application/", "", "")
	assert.Equal(t, http.StatusOK, r.Code)
	assert.NotEmpty(t, r.Header().Get("X-Request-Id"))
}

func TestAuthHandler(t *testing.T) {
	api, _ := newTestAPI(t)

	assert.Equal(t, http.StatusBadRequest, do(api, "GET", "/api/application/eggs/2", "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(api, "GET", "/api/application/eggs/2", "unknown", "").Code)
	assert.Equal(t, http.StatusOK, do(api, "GET", "/api/application/eggs/2", limitedToken, "").Code)
}

func TestGetEgg(t *testing.T) {
	api, _ := newTestAPI(t)

	r := do(api, "GET", "/api/application/nests/1/eggs/2", adminToken, "")
	require.Equal(t, http.StatusOK, r.Code)

	body := decode(t, r)
	assert.Equal(t, "egg", body["object"])
	attrs := body["attributes"].(map[string]interface{})
	assert.Equal(t, "a:1", attrs["docker_image"])
	assert.Equal(t, float64(1), attrs["config"].(map[string]interface{})["extends"])
	_, ok := attrs["relationships"]
	assert.False(t, ok)

	assert.Equal(t, http.StatusNotFound, do(api, "GET", "/api/application/nests/4/eggs/2", adminToken, "").Code)
	assert.Equal(t, http.StatusNotFound, do(api, "GET", "/api/application/eggs/9", adminToken, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(api, "GET", "/api/application/eggs/abc", adminToken, "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(api, "GET", "/api/application/eggs/3", adminToken, "").Code)
}

func TestGetEggMissingParent(t *testing.T) {
	api, _ := newTestAPI(t)

	assert.Equal(t, http.StatusOK, do(api, "GET", "/api/application/eggs/4", adminToken, "").Code)

	r := do(api, "GET", "/api/application/eggs/4?include=config", adminToken, "")
	assert.Equal(t, http.StatusInternalServerError, r.Code)
	assert.Equal(t, "The egg could not be rendered.", decode(t, r)["error"])
}

func TestGetEggIncludes(t *testing.T) {
	api, _ := newTestAPI(t)

	r := do(api, "GET", "/api/application/eggs/2?include=nest,servers,config,variables", limitedToken, "")
	require.Equal(t, http.StatusOK, r.Code)

	rel := decode(t, r)["attributes"].(map[string]interface{})["relationships"].(map[string]interface{})
	assert.Equal(t, "null_resource", rel["nest"].(map[string]interface{})["object"])
	assert.Equal(t, "null_resource", rel["servers"].(map[string]interface{})["object"])
	assert.Equal(t, "egg_config", rel["config"].(map[string]interface{})["object"])

	vars := rel["variables"].(map[string]interface{})
	assert.Equal(t, "list", vars["object"])
	assert.Len(t, vars["data"], 3)

	r = do(api, "GET", "/api/application/eggs/2?include=nest,servers", adminToken, "")
	require.Equal(t, http.StatusOK, r.Code)
	rel = decode(t, r)["attributes"].(map[string]interface{})["relationships"].(map[string]interface{})
	assert.Equal(t, "nest", rel["nest"].(map[string]interface{})["object"])
	assert.Len(t, rel["servers"].(map[string]interface{})["data"], 1)
}

func TestPatchEggVariables(t *testing.T) {
	api, s := newTestAPI(t)

	body := `[
		{"id": 2, "name": "Minecraft Version", "env_variable": "MC_VERSION", "default_value": "latest", "user_viewable": true, "user_editable": true, "rules": "required|string"},
		{"name": "Flags", "env_variable": "JAVA_FLAGS", "user_viewable": false, "user_editable": false, "rules": "nullable|string"}
	]`
	r := do(api, "PATCH", "/api/application/eggs/2/variables", adminToken, body)
	require.Equal(t, http.StatusOK, r.Code, r.Body.String())

	data := decode(t, r)["data"].([]interface{})
	require.Len(t, data, 4)
	first := data[0].(map[string]interface{})["attributes"].(map[string]interface{})
	assert.Equal(t, "Minecraft Version", first["name"])
	assert.Equal(t, true, first["user_editable"])

	vars, err := s.Variables(2)
	require.NoError(t, err)
	assert.Equal(t, "MC_VERSION", vars[0].EnvVariable)
	assert.Equal(t, "JAVA_FLAGS", vars[1].EnvVariable)
}

func TestPatchEggVariablesRejected(t *testing.T) {
	api, s := newTestAPI(t)
	before, err := s.Variables(2)
	require.NoError(t, err)

	cases := map[string]struct {
		body string
		code int
	}{
		"not a list":    {`{"id": 1}`, http.StatusBadRequest},
		"empty name":    {`[{"id": 1, "name": "", "env_variable": "SERVER_JARFILE", "user_viewable": true, "user_editable": true, "rules": "string"}]`, http.StatusUnprocessableEntity},
		"missing flag":  {`[{"id": 1, "name": "Jar", "env_variable": "SERVER_JARFILE", "user_viewable": true, "rules": "string"}]`, http.StatusUnprocessableEntity},
		"reserved name": {`[{"name": "Mem", "env_variable": "SERVER_MEMORY", "user_viewable": true, "user_editable": true, "rules": "string"}]`, http.StatusUnprocessableEntity},
		"long key":      {`[{"id": 1, "name": "Jar", "env_variable": "` + strings.Repeat("A", 192) + `", "user_viewable": true, "user_editable": true, "rules": "string"}]`, http.StatusUnprocessableEntity},
		"unknown id":    {`[{"id": 40, "name": "X", "env_variable": "X", "user_viewable": true, "user_editable": true, "rules": "string"}]`, http.StatusNotFound},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := do(api, "PATCH", "/api/application/eggs/2/variables", adminToken, tc.body)
			assert.Equal(t, tc.code, r.Code, r.Body.String())

			after, err := s.Variables(2)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestPostEggVariable(t *testing.T) {
	api, _ := newTestAPI(t)

	r := do(api, "POST", "/api/application/eggs/2/variables", adminToken,
		`{"name": "Flags", "env_variable": "JAVA_FLAGS", "user_viewable": true, "user_editable": false, "rules": "string"}`)
	require.Equal(t, http.StatusCreated, r.Code, r.Body.String())
	assert.Equal(t, "egg_variable", decode(t, r)["object"])

	r = do(api, "POST", "/api/application/eggs/2/variables", adminToken, `{"name": "Flags"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, r.Code)
}

func TestDeleteEggVariable(t *testing.T) {
	api, s := newTestAPI(t)

	r := do(api, "DELETE", "/api/application/eggs/2/variables/2", adminToken, "")
	assert.Equal(t, http.StatusNoContent, r.Code)

	vars, err := s.Variables(2)
	require.NoError(t, err)
	require.Len(t, vars, 2)
	assert.Equal(t, 1, vars[0].ID)
	assert.Equal(t, 3, vars[1].ID)

	r = do(api, "DELETE", "/api/application/eggs/2/variables/2", adminToken, "")
	assert.Equal(t, http.StatusNotFound, r.Code)
}
