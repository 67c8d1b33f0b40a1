package models

import "github.com/pkg/errors"

// Extension says whether a bundle is declared by the egg itself or inherited
// from another egg. The zero value is Own.
type Extension struct {
	parent *int
}

// Own is an extension for a bundle the egg declares itself.
func Own() Extension {
	return Extension{}
}

// InheritsFrom is an extension for a bundle copied from the egg with the given
// id.
func InheritsFrom(parentID int) Extension {
	return Extension{parent: &parentID}
}

func extensionOf(id *int) Extension {
	if id == nil {
		return Own()
	}
	return InheritsFrom(*id)
}

// IsOwn reports whether the bundle is not inherited.
func (e Extension) IsOwn() bool {
	return e.parent == nil
}

// ParentID returns the referenced egg id and true for an inherited bundle.
func (e Extension) ParentID() (int, bool) {
	if e.parent == nil {
		return 0, false
	}
	return *e.parent, true
}

// ConfigBundle is the configuration part of an egg. Files and Startup hold
// encoded JSON text.
type ConfigBundle struct {
	Files   string
	Startup string
	Stop    string
}

// ScriptBundle is the installation script part of an egg.
type ScriptBundle struct {
	Privileged bool
	Install    string
	Entry      string
	Container  string
}

// EggLookup returns the egg with the given id.
type EggLookup func(id int) (*Egg, error)

// ResolveConfig returns the config bundle in effect for egg. For an own bundle
// that is the egg's declared config. For an inherited one every field the egg
// leaves empty is taken from the referenced egg. Only one level of inheritance
// is followed.
func ResolveConfig(egg *Egg, lookup EggLookup) (ConfigBundle, error) {
	own := egg.OwnConfig()
	id, ok := egg.ConfigExtension().ParentID()
	if !ok {
		return own, nil
	}

	parent, err := lookup(id)
	if err != nil {
		return ConfigBundle{}, errors.Wrapf(err, "models: resolving config of egg %d from egg %d", egg.ID, id)
	}

	return ConfigBundle{
		Files:   firstNonEmpty(own.Files, parent.ConfigFiles),
		Startup: firstNonEmpty(own.Startup, parent.ConfigStartup),
		Stop:    firstNonEmpty(own.Stop, parent.ConfigStop),
	}, nil
}

// ResolveScript returns the script bundle in effect for egg, following the
// same rules as ResolveConfig. The privileged flag is never inherited.
func ResolveScript(egg *Egg, lookup EggLookup) (ScriptBundle, error) {
	own := egg.OwnScript()
	id, ok := egg.ScriptExtension().ParentID()
	if !ok {
		return own, nil
	}

	parent, err := lookup(id)
	if err != nil {
		return ScriptBundle{}, errors.Wrapf(err, "models: resolving script of egg %d from egg %d", egg.ID, id)
	}

	return ScriptBundle{
		Privileged: own.Privileged,
		Install:    firstNonEmpty(own.Install, parent.ScriptInstall),
		Entry:      firstNonEmpty(own.Entry, parent.ScriptEntry),
		Container:  firstNonEmpty(own.Container, parent.ScriptContainer),
	}, nil
}

func firstNonEmpty(own, inherited string) string {
	if own != "" {
		return own
	}
	return inherited
}
