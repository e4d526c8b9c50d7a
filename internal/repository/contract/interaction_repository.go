package contract

import (
	"context"

	"prepxl-be/internal/entity"
	"prepxl-be/internal/repository/specification"
)

type InteractionRepository interface {
	// Create persists the interaction and writes the canonical stored record
	// (assigned id, timestamp) back into the argument.
	Create(ctx context.Context, interaction *entity.Interaction) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Interaction, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
