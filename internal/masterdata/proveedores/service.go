package proveedores

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/masterdata/shared"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/platform/cache"
)

const claveOpciones = "opciones:proveedores"

// Service keeps the supplier directory and its options cache coherent:
// every write invalidates the cached selector listing.
type Service struct {
	repo     Repository
	opciones *cache.OptionsCache
	carga    singleflight.Group
}

func NewService(repo Repository, opciones *cache.OptionsCache) *Service {
	return &Service{repo: repo, opciones: opciones}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Proveedor, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Proveedor, error) {
	if id <= 0 {
		return Proveedor{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

// Options serves the id/name listing for selector widgets, cached in
// Redis until the next directory write. Concurrent misses collapse into
// a single database load.
func (s *Service) Options(ctx context.Context) ([]Opcion, error) {
	var opciones []Opcion
	if hit, err := s.opciones.Get(ctx, claveOpciones, &opciones); err == nil && hit {
		return opciones, nil
	}
	resultado, err, _ := s.carga.Do(claveOpciones, func() (any, error) {
		cargadas, err := s.repo.Options(ctx)
		if err != nil {
			return nil, err
		}
		_ = s.opciones.Set(ctx, claveOpciones, cargadas)
		return cargadas, nil
	})
	if err != nil {
		return nil, err
	}
	return resultado.([]Opcion), nil
}

func (s *Service) Create(ctx context.Context, p Proveedor) (Proveedor, error) {
	if err := s.validate(p); err != nil {
		return Proveedor{}, err
	}
	creado, err := s.repo.Create(ctx, p)
	if err != nil {
		return Proveedor{}, err
	}
	_ = s.opciones.Invalidate(ctx, claveOpciones)
	return creado, nil
}

func (s *Service) Update(ctx context.Context, id int64, p Proveedor) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := s.validate(p); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, p); err != nil {
		return err
	}
	_ = s.opciones.Invalidate(ctx, claveOpciones)
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.opciones.Invalidate(ctx, claveOpciones)
	return nil
}
