package transformer

import "github.com/BenB289/BMGPanel/models"

// VariableAttributes is the serialized form of an egg variable.
type VariableAttributes struct {
	ID           int     `json:"id"`
	EggID        int     `json:"egg_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	EnvVariable  string  `json:"env_variable"`
	DefaultValue string  `json:"default_value"`
	UserViewable bool    `json:"user_viewable"`
	UserEditable bool    `json:"user_editable"`
	Rules        string  `json:"rules"`
	CreatedAt    *string `json:"created_at"`
	UpdatedAt    *string `json:"updated_at"`
}

// TransformVariable renders a single egg variable.
func TransformVariable(v *models.EggVariable) *Item {
	return &Item{
		Object: models.ResourceEggVariable,
		Attributes: &VariableAttributes{
			ID:           v.ID,
			EggID:        v.EggID,
			Name:         v.Name,
			Description:  v.Description,
			EnvVariable:  v.EnvVariable,
			DefaultValue: v.DefaultValue,
			UserViewable: v.UserViewable,
			UserEditable: v.UserEditable,
			Rules:        v.Rules,
			CreatedAt:    FormatTimestamp(v.CreatedAt),
			UpdatedAt:    FormatTimestamp(v.UpdatedAt),
		},
	}
}

// TransformVariables renders variables as a list, keeping their order.
func TransformVariables(vars []models.EggVariable) *Collection {
	items := make([]*Item, 0, len(vars))
	for i := range vars {
		items = append(items, TransformVariable(&vars[i]))
	}
	return NewCollection(items)
}
