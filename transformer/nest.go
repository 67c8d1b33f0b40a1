package transformer

import "github.com/BenB289/BMGPanel/models"

const resourceNest = "nest"

// NestAttributes is the serialized form of a nest.
type NestAttributes struct {
	ID          int     `json:"id"`
	UUID        string  `json:"uuid"`
	Author      string  `json:"author"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CreatedAt   *string `json:"created_at"`
	UpdatedAt   *string `json:"updated_at"`
}

// TransformNest renders a nest.
func TransformNest(n *models.Nest) *Item {
	return &Item{
		Object: resourceNest,
		Attributes: &NestAttributes{
			ID:          n.ID,
			UUID:        n.UUID,
			Author:      n.Author,
			Name:        n.Name,
			Description: n.Description,
			CreatedAt:   FormatTimestamp(n.CreatedAt),
			UpdatedAt:   FormatTimestamp(n.UpdatedAt),
		},
	}
}
