// Package client talks to the panel's application API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BenB289/BMGPanel/models"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// RequestError is returned for every response outside the 2xx range.
type RequestError struct {
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("panel returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("panel returned %d: %s", e.Status, e.Detail)
}

// Client is an application API client. GET requests are retried on
// connection errors and 5xx responses, every other method is sent once.
type Client struct {
	base  string
	token string
	http  *retryablehttp.Client
}

// New returns a client for the panel at baseURL authenticating with token.
func New(baseURL, token string) *Client {
	h := retryablehttp.NewClient()
	h.HTTPClient.Timeout = 15 * time.Second
	h.RetryMax = 3
	h.RetryWaitMin = 250 * time.Millisecond
	h.RetryWaitMax = 2 * time.Second
	h.Logger = &logrusLeveledLogger{log.StandardLogger()}
	h.CheckRetry = retryIdempotent
	h.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		token: token,
		http:  h,
	}
}

type methodKey struct{}

// retryIdempotent applies the default retry policy to GET requests only.
func retryIdempotent(ctx context.Context, res *http.Response, err error) (bool, error) {
	if m, _ := ctx.Value(methodKey{}).(string); m != http.MethodGet {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, res, err)
}

type logrusLeveledLogger struct {
	*log.Logger
}

func kvToFields(keysAndValues []interface{}) log.Fields {
	fields := make(log.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		k, ok := keysAndValues[i].(string)
		if !ok {
			k = fmt.Sprint(keysAndValues[i])
		}
		fields[k] = keysAndValues[i+1]
	}
	return fields
}

func (l *logrusLeveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.WithFields(kvToFields(keysAndValues)).Error(msg)
}

func (l *logrusLeveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.WithFields(kvToFields(keysAndValues)).Info(msg)
}

func (l *logrusLeveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.WithFields(kvToFields(keysAndValues)).Debug(msg)
}

func (l *logrusLeveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.WithFields(kvToFields(keysAndValues)).Warn(msg)
}

type envelope struct {
	Object     string          `json:"object"`
	Attributes json.RawMessage `json:"attributes"`
	Data       []envelope      `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload interface{}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.WithStack(err)
		}
		payload = b
	}

	ctx = context.WithValue(ctx, methodKey{}, method)
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "client: %s %s", method, path)
	}
	defer res.Body.Close()

	log.WithFields(log.Fields{"method": method, "path": path, "status": res.StatusCode}).Debug("Panel API request finished.")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&e)
		return &RequestError{Status: res.StatusCode, Detail: e.Error}
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "client: decoding response of %s %s", method, path)
	}
	return nil
}

// Egg is an egg as returned by the API, with the relationships that were
// requested.
type Egg struct {
	ID           int      `json:"id"`
	UUID         string   `json:"uuid"`
	Name         string   `json:"name"`
	Nest         int      `json:"nest"`
	Author       string   `json:"author"`
	Description  string   `json:"description"`
	DockerImage  string   `json:"docker_image"`
	DockerImages []string `json:"docker_images"`
	Startup      string   `json:"startup"`

	Relations Relations `json:"-"`
}

// Relations holds the loaded relationships of an egg. A nil slice means the
// relationship was not loaded or not visible.
type Relations struct {
	Variables []models.EggVariable
}

// GetEgg returns an egg and the listed relationships.
func (c *Client) GetEgg(ctx context.Context, id int, includes ...string) (*Egg, error) {
	path := "/api/application/eggs/" + strconv.Itoa(id)
	if len(includes) > 0 {
		path += "?include=" + url.QueryEscape(strings.Join(includes, ","))
	}

	var env envelope
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}

	var attrs struct {
		Egg
		Relationships map[string]envelope `json:"relationships"`
	}
	if err := json.Unmarshal(env.Attributes, &attrs); err != nil {
		return nil, errors.Wrap(err, "client: decoding egg")
	}

	egg := attrs.Egg
	if rel, ok := attrs.Relationships["variables"]; ok && rel.Object == "list" {
		vars, err := decodeVariables(rel)
		if err != nil {
			return nil, err
		}
		egg.Relations.Variables = vars
	}
	return &egg, nil
}

// UpdateEggVariables replaces the variables of an egg in one request and
// returns the stored set.
func (c *Client) UpdateEggVariables(ctx context.Context, eggID int, vars []models.EggVariable) ([]models.EggVariable, error) {
	if vars == nil {
		vars = []models.EggVariable{}
	}

	var env envelope
	if err := c.do(ctx, http.MethodPatch, "/api/application/eggs/"+strconv.Itoa(eggID)+"/variables", vars, &env); err != nil {
		return nil, err
	}
	return decodeVariables(env)
}

// CreateEggVariable stores a new variable on an egg.
func (c *Client) CreateEggVariable(ctx context.Context, eggID int, v models.EggVariable) (models.EggVariable, error) {
	var env envelope
	if err := c.do(ctx, http.MethodPost, "/api/application/eggs/"+strconv.Itoa(eggID)+"/variables", v, &env); err != nil {
		return models.EggVariable{}, err
	}

	return decodeVariable(env.Attributes)
}

// DeleteEggVariable deletes a single variable of an egg.
func (c *Client) DeleteEggVariable(ctx context.Context, eggID, variableID int) error {
	return c.do(ctx, http.MethodDelete, "/api/application/eggs/"+strconv.Itoa(eggID)+"/variables/"+strconv.Itoa(variableID), nil, nil)
}

func decodeVariables(list envelope) ([]models.EggVariable, error) {
	out := make([]models.EggVariable, 0, len(list.Data))
	for _, item := range list.Data {
		v, err := decodeVariable(item.Attributes)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// decodeVariable decodes variable attributes. Timestamps are returned in UTC.
func decodeVariable(raw json.RawMessage) (models.EggVariable, error) {
	var v models.EggVariable
	if err := json.Unmarshal(raw, &v); err != nil {
		return models.EggVariable{}, errors.Wrap(err, "client: decoding variable")
	}
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return v, nil
}
