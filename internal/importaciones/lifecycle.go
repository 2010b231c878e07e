package importaciones

import (
	"context"
	"fmt"
	"time"
)

// Avanzar moves the receipt exactly one step forward along the fixed
// sequence. Advancing into EN_DEPOSITO_USA stamps the depot arrival date
// when it was not recorded yet.
func (s *Service) Avanzar(ctx context.Context, id int64) (ReciboImportacion, error) {
	recibo, err := s.repo.GetRecibo(ctx, id)
	if err != nil {
		return ReciboImportacion{}, err
	}
	siguiente, ok := recibo.Estado.Siguiente()
	if !ok {
		return ReciboImportacion{}, &TransitionError{Desde: recibo.Estado}
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if siguiente == EstadoEnDepositoUSA && recibo.FechaDepositoUSA == nil {
			if err := tx.SetFechaDepositoUSA(ctx, id, time.Now()); err != nil {
				return err
			}
		}
		return tx.UpdateEstado(ctx, id, siguiente)
	})
	if err != nil {
		return ReciboImportacion{}, err
	}
	s.recordAudit(ctx, "RECIBO_AVANZAR", id, map[string]any{"desde": recibo.Estado, "hasta": siguiente})
	return s.repo.GetRecibo(ctx, id)
}

// Revertir moves the receipt exactly one step backward. It exists for
// operational correction; reception fields already written stay in place
// and are only changed through the edit flow.
func (s *Service) Revertir(ctx context.Context, id int64) (ReciboImportacion, error) {
	recibo, err := s.repo.GetRecibo(ctx, id)
	if err != nil {
		return ReciboImportacion{}, err
	}
	anterior, ok := recibo.Estado.Anterior()
	if !ok {
		return ReciboImportacion{}, &TransitionError{Desde: recibo.Estado}
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateEstado(ctx, id, anterior)
	})
	if err != nil {
		return ReciboImportacion{}, err
	}
	s.recordAudit(ctx, "RECIBO_REVERTIR", id, map[string]any{"desde": recibo.Estado, "hasta": anterior})
	return s.repo.GetRecibo(ctx, id)
}

// MarcarArriboDepositoUSA records arrival at the origin-country depot,
// transitioning EN_TRANSITO_USA -> EN_DEPOSITO_USA with an explicit date.
func (s *Service) MarcarArriboDepositoUSA(ctx context.Context, id int64, fecha time.Time) (ReciboImportacion, error) {
	if fecha.IsZero() {
		return ReciboImportacion{}, fmt.Errorf("%w: fecha de arribo requerida", ErrValidation)
	}
	recibo, err := s.repo.GetRecibo(ctx, id)
	if err != nil {
		return ReciboImportacion{}, err
	}
	if recibo.Estado != EstadoEnTransitoUSA {
		return ReciboImportacion{}, &TransitionError{Desde: recibo.Estado, Hasta: EstadoEnDepositoUSA}
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.SetFechaDepositoUSA(ctx, id, fecha); err != nil {
			return err
		}
		return tx.UpdateEstado(ctx, id, EstadoEnDepositoUSA)
	})
	if err != nil {
		return ReciboImportacion{}, err
	}
	s.recordAudit(ctx, "RECIBO_ARRIBO_DEPOSITO", id, map[string]any{"fecha": fecha.Format("2006-01-02")})
	return s.repo.GetRecibo(ctx, id)
}

// RecepcionInput carries the data captured at physical reception.
type RecepcionInput struct {
	FechaRecepcion       time.Time
	PesoTotalConEmbalaje float64
	PesoTotalSinEmbalaje float64
	PrecioPorKilo        float64
	PagoCourier          float64
	CostoPicking         float64
	// PesosReales maps item id -> measured unit weight in kilograms.
	// Missing entries fall back to the item's estimated weight.
	PesosReales map[int64]float64
}

// Recepcionar is the terminal transition, only valid from EN_DEPOSITO_ARG.
// It runs the weight-proportional cost allocation and persists the
// reception summary plus every per-item landed cost in one transaction.
func (s *Service) Recepcionar(ctx context.Context, id int64, input RecepcionInput) (ReciboImportacion, error) {
	if input.FechaRecepcion.IsZero() {
		return ReciboImportacion{}, fmt.Errorf("%w: fecha de recepcion requerida", ErrValidation)
	}
	if input.PesoTotalSinEmbalaje <= 0 {
		return ReciboImportacion{}, fmt.Errorf("%w: peso total sin embalaje requerido", ErrValidation)
	}
	if input.PrecioPorKilo <= 0 {
		return ReciboImportacion{}, fmt.Errorf("%w: precio por kilo requerido", ErrValidation)
	}
	if input.PagoCourier < 0 || input.CostoPicking < 0 {
		return ReciboImportacion{}, fmt.Errorf("%w: costos adicionales negativos", ErrValidation)
	}

	recibo, err := s.repo.GetRecibo(ctx, id)
	if err != nil {
		return ReciboImportacion{}, err
	}
	if recibo.Estado != EstadoEnDepositoARG {
		return ReciboImportacion{}, &TransitionError{Desde: recibo.Estado, Hasta: EstadoRecepcionado}
	}

	lineas := make([]LineaAsignacion, len(recibo.Items))
	for i, item := range recibo.Items {
		linea := LineaAsignacion{
			ItemID:         item.ID,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			PesoEstimado:   item.PesoEstimado,
		}
		if peso, ok := input.PesosReales[item.ID]; ok {
			if peso < 0 {
				return ReciboImportacion{}, fmt.Errorf("%w: peso real negativo en item %d", ErrValidation, item.ID)
			}
			linea.PesoReal = &peso
		}
		lineas[i] = linea
	}

	datos := DatosRecepcion{
		FechaRecepcion:       input.FechaRecepcion,
		PesoTotalConEmbalaje: input.PesoTotalConEmbalaje,
		PesoTotalSinEmbalaje: input.PesoTotalSinEmbalaje,
		PrecioPorKilo:        input.PrecioPorKilo,
		PagoCourier:          input.PagoCourier,
		CostoPicking:         input.CostoPicking,
		TotalAdicionales:     redondear(input.PagoCourier + input.CostoPicking),
	}
	asignaciones, err := AsignarCostos(lineas, datos.TotalAdicionales)
	if err != nil {
		return ReciboImportacion{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.SetRecepcion(ctx, id, datos); err != nil {
			return err
		}
		for _, a := range asignaciones {
			if err := tx.SetAsignacionItem(ctx, a.ItemID, a.PesoUnitario, a.CostoUnitario, a.CostoFinalUnitario); err != nil {
				return err
			}
		}
		return tx.UpdateEstado(ctx, id, EstadoRecepcionado)
	})
	if err != nil {
		return ReciboImportacion{}, err
	}

	s.recordAudit(ctx, "RECIBO_RECEPCION", id, map[string]any{
		"numero":            recibo.Numero,
		"total_adicionales": datos.TotalAdicionales,
	})
	actualizado, err := s.repo.GetRecibo(ctx, id)
	if err != nil {
		return ReciboImportacion{}, err
	}
	if s.integration != nil {
		evt := ReciboRecepcionadoEvent{
			ID:               actualizado.ID,
			Numero:           actualizado.Numero,
			ProveedorID:      actualizado.ProveedorID,
			FechaRecepcion:   datos.FechaRecepcion,
			TotalAdicionales: datos.TotalAdicionales,
		}
		for _, item := range actualizado.Items {
			linea := LineaReciboEvent{ItemID: item.ID, Cantidad: item.Cantidad}
			if item.CostoFinalUnitario != nil {
				linea.CostoFinalUnitario = *item.CostoFinalUnitario
			}
			evt.Lineas = append(evt.Lineas, linea)
		}
		if err := s.integration.HandleReciboRecepcionado(ctx, evt); err != nil {
			return ReciboImportacion{}, err
		}
	}
	return actualizado, nil
}
