// Package form implements the workflow for editing the variables of an egg:
// load them, edit them locally, then save the whole list or delete single
// variables, keeping a local copy in sync with what the panel stored.
package form

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/BenB289/BMGPanel/client"
	"github.com/BenB289/BMGPanel/flash"
	"github.com/BenB289/BMGPanel/models"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// FlashKey is the key every error of the form is flashed under.
const FlashKey = "egg"

var (
	ErrNotLoaded       = errors.New("form: variables have not been loaded")
	ErrSubmitBlocked   = errors.New("form: submit is disabled")
	ErrBusy            = errors.New("form: another request is in progress")
	ErrNotConfirmed    = errors.New("form: delete has not been confirmed")
	ErrNotPersisted    = errors.New("form: variable has not been saved yet")
	ErrUnknownVariable = errors.New("form: variable is not part of this egg")
)

// API is the part of the panel client the form uses.
type API interface {
	GetEgg(ctx context.Context, id int, includes ...string) (*client.Egg, error)
	UpdateEggVariables(ctx context.Context, eggID int, vars []models.EggVariable) ([]models.EggVariable, error)
	DeleteEggVariable(ctx context.Context, eggID, variableID int) error
}

// State is the stage the form is in.
type State int

const (
	// Idle is the state before loading and after a successful submit.
	Idle State = iota
	// Editing is the state while the user can change variables.
	Editing
	// Submitting is the state while a bulk update is in flight.
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	}
	return "unknown"
}

// FieldError is a failed rule of one variable.
type FieldError struct {
	Index int
	Field string
	Rule  string
}

// VariablesForm edits the variables of a single egg. Its methods are safe to
// call from several goroutines but at most one request runs at a time.
type VariablesForm struct {
	mu sync.Mutex

	api      API
	flashes  *flash.Store
	eggID    int
	validate *validator.Validate

	state  State
	dirty  bool
	egg    *client.Egg
	values []models.EggVariable

	loading    bool
	confirming map[int]bool
	deleting   map[int]bool
}

// New returns a form for the egg with the given id. Errors are flashed to
// flashes under FlashKey. A nil flashes gets a store of its own.
func New(api API, flashes *flash.Store, eggID int) *VariablesForm {
	if flashes == nil {
		flashes = &flash.Store{}
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	models.RegisterValidations(v)

	return &VariablesForm{
		api:        api,
		flashes:    flashes,
		eggID:      eggID,
		validate:   v,
		confirming: make(map[int]bool),
		deleting:   make(map[int]bool),
	}
}

func cloneVariables(vars []models.EggVariable) []models.EggVariable {
	return append([]models.EggVariable{}, vars...)
}

// Load fetches the egg with its variables and resets the form to them.
func (f *VariablesForm) Load(ctx context.Context) error {
	f.mu.Lock()
	if f.busy() {
		f.mu.Unlock()
		return ErrBusy
	}
	f.loading = true
	f.mu.Unlock()

	egg, err := f.api.GetEgg(ctx, f.eggID, "variables")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false

	if err != nil {
		f.flashes.ClearAndAddHTTPError(FlashKey, err)
		return err
	}

	if egg.Relations.Variables == nil {
		egg.Relations.Variables = []models.EggVariable{}
	}
	f.egg = egg
	f.values = cloneVariables(egg.Relations.Variables)
	f.dirty = false
	f.state = Editing
	f.confirming = make(map[int]bool)

	log.WithField("egg", f.eggID).WithField("variables", len(f.values)).Debug("Loaded egg variables into the form.")
	return nil
}

// busy reports whether a request is in flight. f.mu must be held.
func (f *VariablesForm) busy() bool {
	return f.loading || f.state == Submitting || len(f.deleting) > 0
}

// State returns the current state.
func (f *VariablesForm) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Dirty reports whether the variables were changed since they were loaded or
// last saved.
func (f *VariablesForm) Dirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty
}

// Egg returns the cached egg, or nil before Load.
func (f *VariablesForm) Egg() *client.Egg {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.egg == nil {
		return nil
	}
	e := *f.egg
	e.Relations.Variables = cloneVariables(f.egg.Relations.Variables)
	return &e
}

// Cached returns the variables as last confirmed by the panel.
func (f *VariablesForm) Cached() []models.EggVariable {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.egg == nil {
		return nil
	}
	return cloneVariables(f.egg.Relations.Variables)
}

// Variables returns the variables being edited, in order.
func (f *VariablesForm) Variables() []models.EggVariable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneVariables(f.values)
}

// Edit changes the variable at index i.
func (f *VariablesForm) Edit(i int, fn func(v *models.EggVariable)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.egg == nil {
		return ErrNotLoaded
	}
	if f.state == Submitting {
		return ErrBusy
	}
	if i < 0 || i >= len(f.values) {
		return errors.Errorf("form: no variable at position %d", i)
	}

	id := f.values[i].ID
	fn(&f.values[i])
	f.values[i].ID = id
	f.values[i].EggID = f.eggID

	f.dirty = true
	f.state = Editing
	return nil
}

// Add appends an empty variable and returns its position. It is stored on
// the next Submit.
func (f *VariablesForm) Add() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.egg == nil {
		return 0, ErrNotLoaded
	}
	if f.state == Submitting {
		return 0, ErrBusy
	}

	f.values = append(f.values, models.EggVariable{EggID: f.eggID})
	f.dirty = true
	f.state = Editing
	return len(f.values) - 1, nil
}

// Validate checks every variable and returns the failed rules.
func (f *VariablesForm) Validate() []FieldError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fieldErrors()
}

func (f *VariablesForm) fieldErrors() []FieldError {
	var out []FieldError
	for i := range f.values {
		err := f.validate.Struct(&f.values[i])
		if err == nil {
			continue
		}

		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			out = append(out, FieldError{Index: i, Rule: err.Error()})
			continue
		}
		for _, fe := range verrs {
			out = append(out, FieldError{Index: i, Field: fe.Field(), Rule: fe.ActualTag()})
		}
	}
	return out
}

// CanSubmit reports whether the save control is enabled: the form is loaded,
// every variable is valid and no request is in flight.
func (f *VariablesForm) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canSubmit()
}

func (f *VariablesForm) canSubmit() bool {
	return f.egg != nil && !f.busy() && len(f.fieldErrors()) == 0
}

// Submit sends every variable in one request. On success the panel's answer
// replaces both the cache and the edited variables. On failure the error is
// flashed and the edits are kept. ErrSubmitBlocked is returned without a
// request when CanSubmit is false.
func (f *VariablesForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.egg == nil {
		f.mu.Unlock()
		return ErrNotLoaded
	}
	if !f.canSubmit() {
		f.mu.Unlock()
		return ErrSubmitBlocked
	}
	values := cloneVariables(f.values)
	f.state = Submitting
	f.mu.Unlock()

	f.flashes.Clear(FlashKey)
	vars, err := f.api.UpdateEggVariables(ctx, f.eggID, values)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.state = Editing
		f.dirty = true
		f.flashes.ClearAndAddHTTPError(FlashKey, err)
		return err
	}

	f.egg.Relations.Variables = cloneVariables(vars)
	f.values = cloneVariables(vars)
	f.dirty = false
	f.state = Idle
	return nil
}

// RequestDelete asks for confirmation before deleting the variable with id.
func (f *VariablesForm) RequestDelete(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.egg == nil {
		return ErrNotLoaded
	}
	if id == 0 {
		return ErrNotPersisted
	}
	if indexOf(f.egg.Relations.Variables, id) < 0 {
		return ErrUnknownVariable
	}

	f.confirming[id] = true
	return nil
}

// CancelDelete dismisses the confirmation for id.
func (f *VariablesForm) CancelDelete(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.confirming, id)
}

// Confirming reports whether the delete of id waits for confirmation.
func (f *VariablesForm) Confirming(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirming[id]
}

// DeleteEnabled reports whether the delete control of id can be used.
func (f *VariablesForm) DeleteEnabled(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.egg != nil && !f.busy() && indexOf(f.egg.Relations.Variables, id) >= 0
}

// ConfirmDelete deletes the variable with id after RequestDelete. On success
// it is removed from the cache and the edited variables, everything else
// keeps its order. On failure nothing changes locally and the error is
// flashed.
func (f *VariablesForm) ConfirmDelete(ctx context.Context, id int) error {
	f.mu.Lock()
	if !f.confirming[id] {
		f.mu.Unlock()
		return ErrNotConfirmed
	}
	if f.busy() {
		f.mu.Unlock()
		return ErrBusy
	}
	f.deleting[id] = true
	f.mu.Unlock()

	err := f.api.DeleteEggVariable(ctx, f.eggID, id)

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.deleting, id)

	if err != nil {
		f.flashes.ClearAndAddHTTPError(FlashKey, err)
		return err
	}

	delete(f.confirming, id)
	f.egg.Relations.Variables = without(f.egg.Relations.Variables, id)
	f.values = without(f.values, id)

	log.WithField("egg", f.eggID).WithField("variable", id).Info("Deleted egg variable.")
	return nil
}

func indexOf(vars []models.EggVariable, id int) int {
	for i, v := range vars {
		if v.ID == id {
			return i
		}
	}
	return -1
}

func without(vars []models.EggVariable, id int) []models.EggVariable {
	out := make([]models.EggVariable, 0, len(vars))
	for _, v := range vars {
		if v.ID != id {
			out = append(out, v)
		}
	}
	return out
}
