package models

import "time"

// ResourceEgg is the object name used when an egg is serialized.
const ResourceEgg = "egg"

// Egg is a server software template. The config and script fields are the
// values declared by this egg; when ConfigFrom or CopyScriptFrom is set the
// effective values are resolved from the referenced egg with ResolveConfig and
// ResolveScript.
type Egg struct {
	ID          int    `yaml:"id"`
	UUID        string `yaml:"uuid"`
	NestID      int    `yaml:"nest"`
	Author      string `yaml:"author"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	DockerImages []string `yaml:"docker_images"`
	Startup      string   `yaml:"startup"`

	// ConfigFiles and ConfigStartup are JSON documents stored as text.
	ConfigFiles   string   `yaml:"config_files"`
	ConfigStartup string   `yaml:"config_startup"`
	ConfigStop    string   `yaml:"config_stop"`
	FileDenylist  []string `yaml:"file_denylist"`
	ConfigFrom    *int     `yaml:"config_from"`

	ScriptIsPrivileged bool   `yaml:"script_is_privileged"`
	ScriptInstall      string `yaml:"script_install"`
	ScriptEntry        string `yaml:"script_entry"`
	ScriptContainer    string `yaml:"script_container"`
	CopyScriptFrom     *int   `yaml:"copy_script_from"`

	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// DockerImage returns the first image of the egg, or an empty string when it
// has none. Kept for consumers of the single image field.
func (e *Egg) DockerImage() string {
	if len(e.DockerImages) > 0 {
		return e.DockerImages[0]
	}
	return ""
}

// ConfigExtension returns where the config bundle of this egg comes from.
func (e *Egg) ConfigExtension() Extension {
	return extensionOf(e.ConfigFrom)
}

// ScriptExtension returns where the install script bundle of this egg comes
// from.
func (e *Egg) ScriptExtension() Extension {
	return extensionOf(e.CopyScriptFrom)
}

// OwnConfig returns the config bundle declared by this egg.
func (e *Egg) OwnConfig() ConfigBundle {
	return ConfigBundle{
		Files:   e.ConfigFiles,
		Startup: e.ConfigStartup,
		Stop:    e.ConfigStop,
	}
}

// OwnScript returns the script bundle declared by this egg.
func (e *Egg) OwnScript() ScriptBundle {
	return ScriptBundle{
		Privileged: e.ScriptIsPrivileged,
		Install:    e.ScriptInstall,
		Entry:      e.ScriptEntry,
		Container:  e.ScriptContainer,
	}
}

// Nest is a category owning eggs.
type Nest struct {
	ID          int       `yaml:"id"`
	UUID        string    `yaml:"uuid"`
	Author      string    `yaml:"author"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

// Server is an instance created from an egg.
type Server struct {
	ID          int       `yaml:"id"`
	UUID        string    `yaml:"uuid"`
	Identifier  string    `yaml:"identifier"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	NestID      int       `yaml:"nest"`
	EggID       int       `yaml:"egg"`
	Suspended   bool      `yaml:"suspended"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}
