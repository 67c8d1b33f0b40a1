package models

import (
	"strings"
	"testing"

	"github.com/BenB289/BMGPanel/constants"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariableFieldLength(t *testing.T) {
	v := validator.New()
	RegisterValidations(v)

	ok := EggVariable{Name: "Jar", EnvVariable: strings.Repeat("A", constants.MaxVariableFieldLength), Rules: "string"}
	assert.NoError(t, v.Struct(&ok))

	long := ok
	long.EnvVariable += "A"
	err := v.Struct(&long)
	require.Error(t, err)

	verrs := err.(validator.ValidationErrors)
	require.Len(t, verrs, 1)
	assert.Equal(t, "EnvVariable", verrs[0].Field())
	assert.Equal(t, "max", verrs[0].ActualTag())

	empty := ok
	empty.Name = ""
	assert.Error(t, v.Struct(&empty))
}
