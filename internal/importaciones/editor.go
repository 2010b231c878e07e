package importaciones

import (
	"context"
	"fmt"
	"strings"
)

// ItemEdicion is the desired final shape of one line item. A zero ID marks
// a new item; persisted items absent from the edit are deleted.
type ItemEdicion struct {
	ID             int64
	Descripcion    string
	Cantidad       int
	PrecioUnitario float64
	PesoEstimado   float64
	Link           *string
	Notas          *string
	// PesoReal only matters on a RECEPCIONADO receipt, where changing it
	// forces a cost recalculation.
	PesoReal *float64
}

// EdicionInput reconciles an in-place edit of a receipt.
type EdicionInput struct {
	Header HeaderUpdate
	// PagoCourier / CostoPicking correct the reception cost pool. Only
	// honoured once the receipt is RECEPCIONADO.
	PagoCourier  *float64
	CostoPicking *float64
	Items        []ItemEdicion
}

type edicionDiff struct {
	insertar  []ItemEdicion
	modificar []ItemImportacion
	eliminar  []int64
	// recalcular is true when a money-relevant field changed on a
	// finalized receipt: courier, picking, any quantity, any real weight,
	// or an item add/remove.
	recalcular bool
	campos     []string
}

// EditarRecibo applies header changes, reconciles line items against the
// persisted set issuing only the necessary writes, and re-runs the cost
// allocation when the edit invalidates it. The whole sequence commits as
// one transaction, so a partial failure leaves the receipt untouched.
func (s *Service) EditarRecibo(ctx context.Context, id int64, input EdicionInput) (ReciboImportacion, error) {
	recibo, err := s.repo.GetRecibo(ctx, id)
	if err != nil {
		return ReciboImportacion{}, err
	}

	// All validation happens before any persistence call.
	if len(input.Items) == 0 {
		return ReciboImportacion{}, fmt.Errorf("%w: el recibo debe conservar al menos un item", ErrValidation)
	}
	for _, item := range input.Items {
		if strings.TrimSpace(item.Descripcion) == "" {
			return ReciboImportacion{}, fmt.Errorf("%w: descripcion requerida", ErrValidation)
		}
		if item.Cantidad <= 0 {
			return ReciboImportacion{}, fmt.Errorf("%w: cantidad debe ser positiva", ErrValidation)
		}
		if item.PrecioUnitario < 0 {
			return ReciboImportacion{}, fmt.Errorf("%w: precio unitario negativo", ErrValidation)
		}
	}
	if input.Header.MetodoPago != nil && !input.Header.MetodoPago.IsValid() {
		return ReciboImportacion{}, fmt.Errorf("%w: metodo de pago invalido", ErrValidation)
	}
	if input.PagoCourier != nil && *input.PagoCourier < 0 {
		return ReciboImportacion{}, fmt.Errorf("%w: pago courier negativo", ErrValidation)
	}
	if input.CostoPicking != nil && *input.CostoPicking < 0 {
		return ReciboImportacion{}, fmt.Errorf("%w: costo picking negativo", ErrValidation)
	}

	diff, err := calcularDiff(recibo, input)
	if err != nil {
		return ReciboImportacion{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if !input.Header.vacio() {
			if err := tx.UpdateHeader(ctx, id, input.Header); err != nil {
				return err
			}
		}
		for _, itemID := range diff.eliminar {
			if err := tx.DeleteItem(ctx, itemID); err != nil {
				return err
			}
		}
		for _, item := range diff.modificar {
			if err := tx.UpdateItem(ctx, item); err != nil {
				return err
			}
		}
		nuevos := make(map[int]int64, len(diff.insertar))
		for i, item := range diff.insertar {
			nuevoID, err := tx.InsertItem(ctx, ItemImportacion{
				ReciboID:       id,
				Descripcion:    strings.TrimSpace(item.Descripcion),
				Cantidad:       item.Cantidad,
				PrecioUnitario: item.PrecioUnitario,
				PrecioTotal:    redondear(float64(item.Cantidad) * item.PrecioUnitario),
				PesoEstimado:   item.PesoEstimado,
				Link:           item.Link,
				Notas:          item.Notas,
			})
			if err != nil {
				return err
			}
			nuevos[i] = nuevoID
		}
		if !diff.recalcular {
			return nil
		}
		return s.recalcularEnTx(ctx, tx, recibo, input, nuevos)
	})
	if err != nil {
		return ReciboImportacion{}, err
	}

	s.recordAudit(ctx, "RECIBO_EDIT", id, map[string]any{
		"numero":      recibo.Numero,
		"campos":      diff.campos,
		"recalculado": diff.recalcular,
	})
	return s.repo.GetRecibo(ctx, id)
}

// recalcularEnTx re-runs allocation over the post-edit line set using the
// possibly corrected cost pool, inside the caller's transaction.
func (s *Service) recalcularEnTx(ctx context.Context, tx TxRepository, recibo ReciboImportacion, input EdicionInput, nuevos map[int]int64) error {
	datos := *recibo.Recepcion
	if input.PagoCourier != nil {
		datos.PagoCourier = *input.PagoCourier
	}
	if input.CostoPicking != nil {
		datos.CostoPicking = *input.CostoPicking
	}
	datos.TotalAdicionales = redondear(datos.PagoCourier + datos.CostoPicking)

	previos := make(map[int64]ItemImportacion, len(recibo.Items))
	for _, item := range recibo.Items {
		previos[item.ID] = item
	}

	var lineas []LineaAsignacion
	for i, item := range input.Items {
		linea := LineaAsignacion{
			ItemID:         item.ID,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			PesoEstimado:   item.PesoEstimado,
			PesoReal:       item.PesoReal,
		}
		if linea.ItemID == 0 {
			linea.ItemID = nuevos[i]
		}
		// An edit that does not touch the weight keeps the one measured at
		// reception.
		if linea.PesoReal == nil {
			if previo, ok := previos[item.ID]; ok && previo.PesoReal != nil {
				linea.PesoReal = previo.PesoReal
			}
		}
		lineas = append(lineas, linea)
	}

	asignaciones, err := AsignarCostos(lineas, datos.TotalAdicionales)
	if err != nil {
		return err
	}
	if err := tx.SetRecepcion(ctx, recibo.ID, datos); err != nil {
		return err
	}
	for _, a := range asignaciones {
		if err := tx.SetAsignacionItem(ctx, a.ItemID, a.PesoUnitario, a.CostoUnitario, a.CostoFinalUnitario); err != nil {
			return err
		}
	}
	return nil
}

func calcularDiff(recibo ReciboImportacion, input EdicionInput) (edicionDiff, error) {
	var diff edicionDiff

	previos := make(map[int64]ItemImportacion, len(recibo.Items))
	for _, item := range recibo.Items {
		previos[item.ID] = item
	}
	vistos := make(map[int64]bool, len(input.Items))

	for _, editado := range input.Items {
		if editado.ID == 0 {
			diff.insertar = append(diff.insertar, editado)
			diff.campos = append(diff.campos, "items:alta")
			continue
		}
		previo, ok := previos[editado.ID]
		if !ok {
			return edicionDiff{}, fmt.Errorf("%w: item %d no pertenece al recibo", ErrNotFound, editado.ID)
		}
		vistos[editado.ID] = true

		cambio := false
		if previo.Descripcion != strings.TrimSpace(editado.Descripcion) {
			cambio = true
			diff.campos = append(diff.campos, "descripcion")
		}
		if previo.Cantidad != editado.Cantidad {
			cambio = true
			diff.campos = append(diff.campos, "cantidad")
		}
		if previo.PrecioUnitario != editado.PrecioUnitario {
			cambio = true
			diff.campos = append(diff.campos, "precio_unitario")
		}
		if previo.PesoEstimado != editado.PesoEstimado {
			cambio = true
			diff.campos = append(diff.campos, "peso_estimado")
		}
		if !igualesPtr(previo.Link, editado.Link) {
			cambio = true
			diff.campos = append(diff.campos, "link")
		}
		if !igualesPtr(previo.Notas, editado.Notas) {
			cambio = true
			diff.campos = append(diff.campos, "notas_item")
		}
		pesoCambio := editado.PesoReal != nil && !igualesFloatPtr(previo.PesoReal, editado.PesoReal)
		if cambio || pesoCambio {
			actualizado := previo
			actualizado.Descripcion = strings.TrimSpace(editado.Descripcion)
			actualizado.Cantidad = editado.Cantidad
			actualizado.PrecioUnitario = editado.PrecioUnitario
			actualizado.PrecioTotal = redondear(float64(editado.Cantidad) * editado.PrecioUnitario)
			actualizado.PesoEstimado = editado.PesoEstimado
			actualizado.Link = editado.Link
			actualizado.Notas = editado.Notas
			if editado.PesoReal != nil {
				actualizado.PesoReal = editado.PesoReal
			}
			diff.modificar = append(diff.modificar, actualizado)
		}
		if recibo.Estado == EstadoRecepcionado && (previo.Cantidad != editado.Cantidad || pesoCambio) {
			diff.recalcular = true
		}
	}

	for id := range previos {
		if !vistos[id] {
			diff.eliminar = append(diff.eliminar, id)
			diff.campos = append(diff.campos, "items:baja")
		}
	}

	if recibo.Estado == EstadoRecepcionado {
		if len(diff.insertar) > 0 || len(diff.eliminar) > 0 {
			diff.recalcular = true
		}
		if recibo.Recepcion != nil {
			if input.PagoCourier != nil && *input.PagoCourier != recibo.Recepcion.PagoCourier {
				diff.recalcular = true
				diff.campos = append(diff.campos, "pago_courier")
			}
			if input.CostoPicking != nil && *input.CostoPicking != recibo.Recepcion.CostoPicking {
				diff.recalcular = true
				diff.campos = append(diff.campos, "costo_picking")
			}
		}
	}
	if diff.recalcular && recibo.Recepcion == nil {
		return edicionDiff{}, fmt.Errorf("%w: el recibo no tiene datos de recepcion", ErrValidation)
	}
	return diff, nil
}

func igualesPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func igualesFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
