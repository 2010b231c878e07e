package clientes

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/masterdata/shared"
	"github.com/fermingonzalezs/sistema-update-sub002/internal/platform/cache"
)

const claveOpciones = "opciones:clientes"

// Service mirrors the supplier directory for customers, including the
// cached selector listing.
type Service struct {
	repo     Repository
	opciones *cache.OptionsCache
	carga    singleflight.Group
}

func NewService(repo Repository, opciones *cache.OptionsCache) *Service {
	return &Service{repo: repo, opciones: opciones}
}

func (s *Service) validate(c Cliente) error {
	if strings.TrimSpace(c.Nombre) == "" {
		return fmt.Errorf("%w: nombre requerido", shared.ErrValidation)
	}
	return nil
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Cliente, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Cliente, error) {
	if id <= 0 {
		return Cliente{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

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

func (s *Service) Create(ctx context.Context, c Cliente) (Cliente, error) {
	if err := s.validate(c); err != nil {
		return Cliente{}, err
	}
	creado, err := s.repo.Create(ctx, c)
	if err != nil {
		return Cliente{}, err
	}
	_ = s.opciones.Invalidate(ctx, claveOpciones)
	return creado, nil
}

func (s *Service) Update(ctx context.Context, id int64, c Cliente) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := s.validate(c); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, c); err != nil {
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
