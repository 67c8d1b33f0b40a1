package store

import (
	"strings"

	"github.com/BenB289/BMGPanel/models"
	log "github.com/sirupsen/logrus"
)

// UpdateVariables applies an ordered set of variables to an egg in one step.
// A variable with an id updates the stored variable with that id, a variable
// without one is created. The order of vars becomes the stored order and any
// stored variable not named in vars keeps its relative position after them.
//
// Nothing is changed unless every variable is valid and the egg could be
// written. The full stored set is returned.
func (s *Store) UpdateVariables(eggID int, vars []models.EggVariable) ([]models.EggVariable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.eggs[eggID]
	if !ok {
		return nil, ErrEggNotFound{eggID}
	}

	existing := make(map[int]models.EggVariable, len(rec.Variables))
	for _, v := range rec.Variables {
		existing[v.ID] = v
	}

	now := s.now()
	nextID := s.nextVariableID
	seen := make(map[int]bool, len(vars))
	out := make([]models.EggVariable, 0, len(rec.Variables)+len(vars))

	for _, v := range vars {
		if v.ID == 0 {
			v.ID = nextID
			nextID++
			v.CreatedAt = now
		} else {
			old, ok := existing[v.ID]
			if !ok {
				return nil, ErrVariableNotFound{egg: eggID, id: v.ID}
			}
			if seen[v.ID] {
				return nil, ErrDuplicateVariable{name: old.EnvVariable}
			}
			v.CreatedAt = old.CreatedAt
		}
		seen[v.ID] = true
		v.EggID = eggID
		v.EnvVariable = strings.TrimSpace(v.EnvVariable)
		v.UpdatedAt = now
		out = append(out, v)
	}

	for _, v := range rec.Variables {
		if !seen[v.ID] {
			out = append(out, v)
		}
	}

	if err := checkVariables(out); err != nil {
		return nil, err
	}

	next := &eggFile{Egg: rec.Egg, Variables: out}
	next.UpdatedAt = now
	if err := s.persist(s.eggPath(eggID), next); err != nil {
		return nil, err
	}

	s.eggs[eggID] = next
	s.nextVariableID = nextID

	log.WithField("egg", eggID).WithField("variables", len(out)).Debug("Updated egg variables.")
	return append([]models.EggVariable{}, out...), nil
}

// CreateVariable appends a single variable to an egg.
func (s *Store) CreateVariable(eggID int, v models.EggVariable) (models.EggVariable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.eggs[eggID]
	if !ok {
		return models.EggVariable{}, ErrEggNotFound{eggID}
	}

	now := s.now()
	v.ID = s.nextVariableID
	v.EggID = eggID
	v.EnvVariable = strings.TrimSpace(v.EnvVariable)
	v.CreatedAt = now
	v.UpdatedAt = now

	out := append(append([]models.EggVariable{}, rec.Variables...), v)
	if err := checkVariables(out); err != nil {
		return models.EggVariable{}, err
	}

	next := &eggFile{Egg: rec.Egg, Variables: out}
	if err := s.persist(s.eggPath(eggID), next); err != nil {
		return models.EggVariable{}, err
	}

	s.eggs[eggID] = next
	s.nextVariableID++
	return v, nil
}

// DeleteVariable removes one variable from an egg. The remaining variables
// keep their ids and order.
func (s *Store) DeleteVariable(eggID, variableID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.eggs[eggID]
	if !ok {
		return ErrEggNotFound{eggID}
	}

	out := make([]models.EggVariable, 0, len(rec.Variables))
	for _, v := range rec.Variables {
		if v.ID != variableID {
			out = append(out, v)
		}
	}
	if len(out) == len(rec.Variables) {
		return ErrVariableNotFound{egg: eggID, id: variableID}
	}

	next := &eggFile{Egg: rec.Egg, Variables: out}
	if err := s.persist(s.eggPath(eggID), next); err != nil {
		return err
	}

	s.eggs[eggID] = next
	log.WithField("egg", eggID).WithField("variable", variableID).Info("Deleted egg variable.")
	return nil
}

func checkVariables(vars []models.EggVariable) error {
	names := make(map[string]bool, len(vars))
	for _, v := range vars {
		key := strings.ToUpper(v.EnvVariable)
		if models.IsReservedEnvironmentName(key) {
			return ErrReservedVariable{name: v.EnvVariable}
		}
		if names[key] {
			return ErrDuplicateVariable{name: v.EnvVariable}
		}
		names[key] = true
	}
	return nil
}
