package proveedores

import (
	"fmt"
	"strings"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/masterdata/shared"
)

func (s *Service) validate(p Proveedor) error {
	if strings.TrimSpace(p.Nombre) == "" {
		return fmt.Errorf("%w: nombre requerido", shared.ErrValidation)
	}
	return nil
}
