package shared

import (
	"fmt"

	internalShared "github.com/odyssey-erp/odyssey-store/internal/shared"
)

var (
	ErrNotFound  = fmt.Errorf("masterdata: %w", internalShared.ErrNotFound)
	ErrDuplicate = fmt.Errorf("masterdata: duplicate entry: %w", internalShared.ErrConflict)
	ErrInUse     = fmt.Errorf("masterdata: still referenced: %w", internalShared.ErrConflict)
	ErrInvalidID = internalShared.NewValidationError("id", "invalid ID")
)
