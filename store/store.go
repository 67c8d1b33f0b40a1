// Package store keeps nests, eggs, egg variables and servers as YAML files on
// disk and serves them to the API.
package store

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BenB289/BMGPanel/constants"
	"github.com/BenB289/BMGPanel/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// eggFile is the on-disk layout of an egg: the egg itself and its variables
// in display order.
type eggFile struct {
	models.Egg `yaml:",inline"`
	Variables  []models.EggVariable `yaml:"variables"`
}

// Store is a file backed entity store. A Store created with New keeps
// everything in memory.
type Store struct {
	mu sync.RWMutex

	path    string
	nests   map[int]*models.Nest
	eggs    map[int]*eggFile
	servers map[string]*models.Server

	nextVariableID int

	// now returns the time used for created_at and updated_at values. The API
	// renders whole seconds, so sub-second precision is dropped.
	now func() time.Time
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		nests:          make(map[int]*models.Nest),
		eggs:           make(map[int]*eggFile),
		servers:        make(map[string]*models.Server),
		nextVariableID: 1,
		now:            func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Open loads every nest, egg and server stored below path. Missing
// directories are treated as empty.
func Open(path string) (*Store, error) {
	s := New()
	s.path = path

	if err := s.loadNests(filepath.Join(path, constants.NestsPath)); err != nil {
		return nil, err
	}
	if err := s.loadEggs(filepath.Join(path, constants.EggsPath)); err != nil {
		return nil, err
	}
	if err := s.loadServers(filepath.Join(path, constants.ServersPath)); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"path":    path,
		"nests":   len(s.nests),
		"eggs":    len(s.eggs),
		"servers": len(s.servers),
	}).Info("Loaded panel data from disk.")

	return s, nil
}

func readDir(path string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return entries, err
}

func (s *Store) loadNests(path string) error {
	entries, err := readDir(path)
	if err != nil {
		return errors.Wrap(err, "store: reading nests")
	}

	for _, f := range entries {
		if f.IsDir() || filepath.Ext(f.Name()) != ".yaml" {
			continue
		}
		n := &models.Nest{}
		if err := readYAML(filepath.Join(path, f.Name()), n); err != nil {
			return err
		}
		s.nests[n.ID] = n
	}
	return nil
}

func (s *Store) loadEggs(path string) error {
	entries, err := readDir(path)
	if err != nil {
		return errors.Wrap(err, "store: reading eggs")
	}

	for _, f := range entries {
		if !f.IsDir() {
			continue
		}
		e := &eggFile{}
		if err := readYAML(filepath.Join(path, f.Name(), constants.EggConfigFile), e); err != nil {
			return err
		}
		for _, v := range e.Variables {
			if v.ID >= s.nextVariableID {
				s.nextVariableID = v.ID + 1
			}
		}
		s.eggs[e.ID] = e
	}
	return nil
}

func (s *Store) loadServers(path string) error {
	entries, err := readDir(path)
	if err != nil {
		return errors.Wrap(err, "store: reading servers")
	}

	for _, f := range entries {
		if !f.IsDir() {
			continue
		}
		srv := &models.Server{}
		if err := readYAML(filepath.Join(path, f.Name(), constants.ServerConfigFile), srv); err != nil {
			return err
		}
		s.servers[srv.UUID] = srv
	}
	return nil
}

func readYAML(path string, out interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "store: reading %s", path)
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return errors.Wrapf(err, "store: decoding %s", path)
	}
	return nil
}

// writeYAML replaces the file at path by writing a sibling temporary file and
// renaming it over the original.
func writeYAML(path string, in interface{}) error {
	y, err := yaml.Marshal(in)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DefaultFolderPerms); err != nil {
		return errors.WithStack(err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, y, constants.DefaultFilePerms); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(os.Rename(tmp, path))
}

func (s *Store) nestPath(id int) string {
	return filepath.Join(s.path, constants.NestsPath, strconv.Itoa(id)+".yaml")
}

func (s *Store) eggPath(id int) string {
	return filepath.Join(s.path, constants.EggsPath, strconv.Itoa(id), constants.EggConfigFile)
}

func (s *Store) serverPath(id string) string {
	return filepath.Join(s.path, constants.ServersPath, id, constants.ServerConfigFile)
}

// persist writes v to path unless the store is memory only.
func (s *Store) persist(path string, v interface{}) error {
	if s.path == "" {
		return nil
	}
	if err := writeYAML(path, v); err != nil {
		log.WithField("path", path).WithError(err).Error("Unable to write panel data to the disk.")
		return err
	}
	return nil
}

// PutNest creates or replaces a nest.
func (s *Store) PutNest(n models.Nest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stamp(&n.UUID, &n.CreatedAt, &n.UpdatedAt)
	if err := s.persist(s.nestPath(n.ID), &n); err != nil {
		return err
	}
	s.nests[n.ID] = &n
	return nil
}

// PutEgg creates or replaces an egg together with its variables. Variables
// without an id are assigned one.
func (s *Store) PutEgg(e models.Egg, variables ...models.EggVariable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stamp(&e.UUID, &e.CreatedAt, &e.UpdatedAt)

	rec := &eggFile{Egg: cloneEgg(&e), Variables: make([]models.EggVariable, 0, len(variables))}
	for _, v := range variables {
		v.EggID = e.ID
		if v.ID == 0 {
			v.ID = s.nextVariableID
			s.nextVariableID++
		} else if v.ID >= s.nextVariableID {
			s.nextVariableID = v.ID + 1
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = s.now()
		}
		if v.UpdatedAt.IsZero() {
			v.UpdatedAt = v.CreatedAt
		}
		rec.Variables = append(rec.Variables, v)
	}

	if err := s.persist(s.eggPath(e.ID), rec); err != nil {
		return err
	}
	s.eggs[e.ID] = rec
	return nil
}

// PutServer creates or replaces a server.
func (s *Store) PutServer(srv models.Server) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stamp(&srv.UUID, &srv.CreatedAt, &srv.UpdatedAt)
	if i := strings.Index(srv.UUID, "-"); srv.Identifier == "" && i > 0 {
		srv.Identifier = srv.UUID[0:i]
	}
	if err := s.persist(s.serverPath(srv.UUID), &srv); err != nil {
		return err
	}
	s.servers[srv.UUID] = &srv
	return nil
}

// stamp fills in a missing uuid and timestamps.
func (s *Store) stamp(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if created.IsZero() {
		*created = s.now()
	}
	if updated.IsZero() {
		*updated = *created
	}
}

// Egg returns a copy of the egg with the given id.
func (s *Store) Egg(id int) (*models.Egg, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.eggs[id]
	if !ok {
		return nil, ErrEggNotFound{id}
	}
	e := cloneEgg(&rec.Egg)
	return &e, nil
}

// Nest returns a copy of the nest with the given id.
func (s *Store) Nest(id int) (*models.Nest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nests[id]
	if !ok {
		return nil, ErrNestNotFound{id}
	}
	c := *n
	return &c, nil
}

// ServersForEgg returns every server created from the egg, ordered by id.
func (s *Store) ServersForEgg(eggID int) ([]models.Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.eggs[eggID]; !ok {
		return nil, ErrEggNotFound{eggID}
	}

	out := make([]models.Server, 0)
	for _, srv := range s.servers {
		if srv.EggID == eggID {
			out = append(out, *srv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Variables returns the variables of the egg in display order.
func (s *Store) Variables(eggID int) ([]models.EggVariable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.eggs[eggID]
	if !ok {
		return nil, ErrEggNotFound{eggID}
	}
	return append([]models.EggVariable{}, rec.Variables...), nil
}

func cloneEgg(e *models.Egg) models.Egg {
	c := *e
	c.DockerImages = append([]string(nil), e.DockerImages...)
	c.FileDenylist = append([]string(nil), e.FileDenylist...)
	if e.ConfigFrom != nil {
		id := *e.ConfigFrom
		c.ConfigFrom = &id
	}
	if e.CopyScriptFrom != nil {
		id := *e.CopyScriptFrom
		c.CopyScriptFrom = &id
	}
	return c
}
