// Package transformer renders panel entities into their API representation
// and loads the optional relationships a caller asked for.
package transformer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/BenB289/BMGPanel/acl"
	"github.com/BenB289/BMGPanel/models"
	log "github.com/sirupsen/logrus"
)

// Source supplies the related entities of an egg.
type Source interface {
	Egg(id int) (*models.Egg, error)
	Nest(id int) (*models.Nest, error)
	ServersForEgg(eggID int) ([]models.Server, error)
	Variables(eggID int) ([]models.EggVariable, error)
}

// EggAttributes is the serialized form of an egg.
type EggAttributes struct {
	ID          int    `json:"id"`
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Nest        int    `json:"nest"`
	Author      string `json:"author"`
	Description string `json:"description"`
	// DockerImage is deprecated in favour of DockerImages.
	DockerImage   string              `json:"docker_image"`
	DockerImages  []string            `json:"docker_images"`
	Config        EggConfig           `json:"config"`
	Startup       string              `json:"startup"`
	Script        EggScript           `json:"script"`
	CreatedAt     *string             `json:"created_at"`
	UpdatedAt     *string             `json:"updated_at"`
	Relationships map[string]Resource `json:"relationships,omitempty"`
}

// EggConfig is the config bundle declared by an egg.
type EggConfig struct {
	Files        json.RawMessage `json:"files"`
	Startup      json.RawMessage `json:"startup"`
	Stop         string          `json:"stop"`
	FileDenylist []string        `json:"file_denylist"`
	Extends      *int            `json:"extends"`
}

// EggScript is the install script bundle declared by an egg.
type EggScript struct {
	Privileged bool   `json:"privileged"`
	Install    string `json:"install"`
	Entry      string `json:"entry"`
	Container  string `json:"container"`
	Extends    *int   `json:"extends"`
}

// InheritedConfig is the config bundle in effect for an egg that extends
// another one.
type InheritedConfig struct {
	Files   json.RawMessage `json:"files"`
	Startup json.RawMessage `json:"startup"`
	Stop    string          `json:"stop"`
}

// InheritedScript is the script bundle in effect for an egg that copies the
// script of another one.
type InheritedScript struct {
	Privileged bool   `json:"privileged"`
	Install    string `json:"install"`
	Entry      string `json:"entry"`
	Container  string `json:"container"`
}

const (
	resourceEggConfig = "egg_config"
	resourceEggScript = "egg_script"
)

type includeFunc func(t *EggTransformer, egg *models.Egg) (Resource, error)

// eggIncludes maps every relationship an egg can include to its loader.
var eggIncludes = map[string]includeFunc{
	"nest":      (*EggTransformer).includeNest,
	"servers":   (*EggTransformer).includeServers,
	"config":    (*EggTransformer).includeConfig,
	"script":    (*EggTransformer).includeScript,
	"variables": (*EggTransformer).includeVariables,
}

// AvailableEggIncludes returns the relationship names an egg supports.
func AvailableEggIncludes() []string {
	out := make([]string, 0, len(eggIncludes))
	for name := range eggIncludes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ParseIncludes splits a comma separated include parameter. Names are trimmed,
// lower cased and de-duplicated; order is kept.
func ParseIncludes(param string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range strings.Split(param, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// EggTransformer renders eggs for a single caller.
type EggTransformer struct {
	authorizer acl.Authorizer
	source     Source
	includes   []string
}

// NewEggTransformer returns a transformer that loads the named relationships
// from source. Gated relationships are only loaded when authorizer grants the
// matching capability; a nil authorizer denies everything.
func NewEggTransformer(authorizer acl.Authorizer, source Source, includes ...string) *EggTransformer {
	if authorizer == nil {
		authorizer = acl.DenyAll
	}
	return &EggTransformer{
		authorizer: authorizer,
		source:     source,
		includes:   includes,
	}
}

// IncludeError is returned when a requested relationship of an egg cannot be
// rendered, for example because the egg it inherits from is gone.
type IncludeError struct {
	Include string
	EggID   int
	Err     error
}

func (e *IncludeError) Error() string {
	return fmt.Sprintf("transformer: including %s of egg %d: %v", e.Include, e.EggID, e.Err)
}

func (e *IncludeError) Unwrap() error {
	return e.Err
}

// Transform renders egg and every requested relationship. It does not modify
// egg. Relationships that were not requested are left out of the output.
func (t *EggTransformer) Transform(egg *models.Egg) (*Item, error) {
	attrs, err := t.attributes(egg)
	if err != nil {
		return nil, err
	}

	for _, name := range t.includes {
		include, ok := eggIncludes[name]
		if !ok {
			log.WithField("include", name).Debug("Ignoring unknown egg include.")
			continue
		}

		r, err := include(t, egg)
		if err != nil {
			return nil, &IncludeError{Include: name, EggID: egg.ID, Err: err}
		}
		if attrs.Relationships == nil {
			attrs.Relationships = make(map[string]Resource)
		}
		attrs.Relationships[name] = r
	}

	return &Item{Object: models.ResourceEgg, Attributes: attrs}, nil
}

func (t *EggTransformer) attributes(egg *models.Egg) (*EggAttributes, error) {
	files, err := decodeStructured("config_files", egg.ConfigFiles)
	if err != nil {
		return nil, err
	}
	startup, err := decodeStructured("config_startup", egg.ConfigStartup)
	if err != nil {
		return nil, err
	}

	return &EggAttributes{
		ID:           egg.ID,
		UUID:         egg.UUID,
		Name:         egg.Name,
		Nest:         egg.NestID,
		Author:       egg.Author,
		Description:  egg.Description,
		DockerImage:  egg.DockerImage(),
		DockerImages: nonNil(egg.DockerImages),
		Config: EggConfig{
			Files:        files,
			Startup:      startup,
			Stop:         egg.ConfigStop,
			FileDenylist: nonNil(egg.FileDenylist),
			Extends:      egg.ConfigFrom,
		},
		Startup: egg.Startup,
		Script: EggScript{
			Privileged: egg.ScriptIsPrivileged,
			Install:    egg.ScriptInstall,
			Entry:      egg.ScriptEntry,
			Container:  egg.ScriptContainer,
			Extends:    egg.CopyScriptFrom,
		},
		CreatedAt: FormatTimestamp(egg.CreatedAt),
		UpdatedAt: FormatTimestamp(egg.UpdatedAt),
	}, nil
}

func (t *EggTransformer) includeNest(egg *models.Egg) (Resource, error) {
	if !t.authorize(acl.Nests, "nest") {
		return Null, nil
	}

	n, err := t.source.Nest(egg.NestID)
	if err != nil {
		return nil, err
	}
	return TransformNest(n), nil
}

func (t *EggTransformer) includeServers(egg *models.Egg) (Resource, error) {
	if !t.authorize(acl.Servers, "servers") {
		return Null, nil
	}

	servers, err := t.source.ServersForEgg(egg.ID)
	if err != nil {
		return nil, err
	}

	items := make([]*Item, 0, len(servers))
	for i := range servers {
		items = append(items, TransformServer(&servers[i]))
	}
	return NewCollection(items), nil
}

func (t *EggTransformer) includeConfig(egg *models.Egg) (Resource, error) {
	if egg.ConfigExtension().IsOwn() {
		return Null, nil
	}

	b, err := models.ResolveConfig(egg, t.source.Egg)
	if err != nil {
		return nil, err
	}
	files, err := decodeStructured("inherited config_files", b.Files)
	if err != nil {
		return nil, err
	}
	startup, err := decodeStructured("inherited config_startup", b.Startup)
	if err != nil {
		return nil, err
	}

	return &Item{
		Object: resourceEggConfig,
		Attributes: &InheritedConfig{
			Files:   files,
			Startup: startup,
			Stop:    b.Stop,
		},
	}, nil
}

func (t *EggTransformer) includeScript(egg *models.Egg) (Resource, error) {
	if egg.ScriptExtension().IsOwn() {
		return Null, nil
	}

	b, err := models.ResolveScript(egg, t.source.Egg)
	if err != nil {
		return nil, err
	}

	return &Item{
		Object: resourceEggScript,
		Attributes: &InheritedScript{
			Privileged: b.Privileged,
			Install:    b.Install,
			Entry:      b.Entry,
			Container:  b.Container,
		},
	}, nil
}

func (t *EggTransformer) includeVariables(egg *models.Egg) (Resource, error) {
	if !t.authorize(acl.Eggs, "variables") {
		return Null, nil
	}

	vars, err := t.source.Variables(egg.ID)
	if err != nil {
		return nil, err
	}
	return TransformVariables(vars), nil
}

func (t *EggTransformer) authorize(c acl.Capability, include string) bool {
	if t.authorizer.Authorize(c) {
		return true
	}
	log.WithField("include", include).WithField("capability", c).Debug("Caller cannot view relationship, returning an empty resource.")
	return false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
