package suppliers

import (
	"strings"

	"github.com/odyssey-erp/odyssey-store/internal/shared"
)

func (s *Service) validate(in Input) (Input, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.OrderContactURL = strings.TrimSpace(in.OrderContactURL)
	if err := shared.Validate(in); err != nil {
		return Input{}, err
	}
	return in, nil
}
