package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/BenB289/BMGPanel/constants"
	"github.com/go-playground/validator/v10"
)

// ResourceEggVariable is the object name used when a variable is serialized.
const ResourceEggVariable = "egg_variable"

// ReservedEnvironmentNames cannot be used as the key of an egg variable since
// they are set for every server by the daemon.
var ReservedEnvironmentNames = []string{
	"SERVER_MEMORY",
	"SERVER_IP",
	"SERVER_PORT",
	"ENV",
	"HOME",
	"USER",
	"STARTUP",
	"SERVER_UUID",
	"UUID",
}

// IsReservedEnvironmentName reports whether name is one of
// ReservedEnvironmentNames. The comparison ignores case.
func IsReservedEnvironmentName(name string) bool {
	for _, r := range ReservedEnvironmentNames {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}

// VariableFieldTag checks the name and the environment key of a variable.
// It is an alias that RegisterValidations adds to a validator.
const VariableFieldTag = "variable_field"

// RegisterValidations adds the aliases used by the tags of EggVariable to v.
func RegisterValidations(v *validator.Validate) {
	v.RegisterAlias(VariableFieldTag, fmt.Sprintf("required,min=1,max=%d", constants.MaxVariableFieldLength))
}

// EggVariable is an environment variable declared by an egg. An ID of zero
// marks a variable that has not been stored yet.
type EggVariable struct {
	ID           int       `json:"id" yaml:"id"`
	EggID        int       `json:"egg_id" yaml:"egg_id"`
	Name         string    `json:"name" yaml:"name" validate:"variable_field"`
	Description  string    `json:"description" yaml:"description"`
	EnvVariable  string    `json:"env_variable" yaml:"env_variable" validate:"variable_field"`
	DefaultValue string    `json:"default_value" yaml:"default_value"`
	UserViewable bool      `json:"user_viewable" yaml:"user_viewable"`
	UserEditable bool      `json:"user_editable" yaml:"user_editable"`
	Rules        string    `json:"rules" yaml:"rules" validate:"required"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}

// IsNew reports whether the variable has never been stored.
func (v *EggVariable) IsNew() bool {
	return v.ID == 0
}
