package transformer

import "github.com/BenB289/BMGPanel/models"

const resourceServer = "server"

// ServerAttributes is the serialized form of a server.
type ServerAttributes struct {
	ID          int     `json:"id"`
	UUID        string  `json:"uuid"`
	Identifier  string  `json:"identifier"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Suspended   bool    `json:"suspended"`
	Nest        int     `json:"nest"`
	Egg         int     `json:"egg"`
	CreatedAt   *string `json:"created_at"`
	UpdatedAt   *string `json:"updated_at"`
}

// TransformServer renders a server.
func TransformServer(s *models.Server) *Item {
	return &Item{
		Object: resourceServer,
		Attributes: &ServerAttributes{
			ID:          s.ID,
			UUID:        s.UUID,
			Identifier:  s.Identifier,
			Name:        s.Name,
			Description: s.Description,
			Suspended:   s.Suspended,
			Nest:        s.NestID,
			Egg:         s.EggID,
			CreatedAt:   FormatTimestamp(s.CreatedAt),
			UpdatedAt:   FormatTimestamp(s.UpdatedAt),
		},
	}
}
