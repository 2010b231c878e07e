package importaciones

import (
	"fmt"
	"math"
)

// LineaAsignacion is the allocator's view of a line item at reception time.
type LineaAsignacion struct {
	ItemID         int64
	Cantidad       int
	PrecioUnitario float64
	PesoEstimado   float64
	// PesoReal is the measured unit weight. When nil, the estimated weight
	// is used instead so the line is not starved of its allocation. An
	// explicit zero keeps the line out of the distribution.
	PesoReal *float64
}

// Asignacion is the allocation result for one line item.
type Asignacion struct {
	ItemID             int64
	PesoUnitario       float64
	PesoTotal          float64
	CostoAsignado      float64
	CostoUnitario      float64
	CostoFinalUnitario float64
}

// AsignarCostos distributes totalAdicional across the lines proportionally
// to their real total weight (unit weight times quantity). Freight and
// customs scale with physical weight, not declared value, so the split is
// weight-based rather than price-based.
//
// A zero grand total weight allocates zero to every line. Results are
// rounded to cents; any rounding remainder lands on the heaviest line so
// the allocations always sum to totalAdicional.
func AsignarCostos(lineas []LineaAsignacion, totalAdicional float64) ([]Asignacion, error) {
	if len(lineas) == 0 {
		return nil, fmt.Errorf("%w: sin items para asignar", ErrValidation)
	}
	if totalAdicional < 0 {
		return nil, fmt.Errorf("%w: costo adicional negativo", ErrValidation)
	}

	resultados := make([]Asignacion, len(lineas))
	var pesoTotal float64
	for i, linea := range lineas {
		if linea.Cantidad <= 0 {
			return nil, fmt.Errorf("%w: cantidad invalida en item %d", ErrValidation, linea.ItemID)
		}
		peso := linea.PesoEstimado
		if linea.PesoReal != nil {
			peso = *linea.PesoReal
		}
		if peso < 0 {
			return nil, fmt.Errorf("%w: peso negativo en item %d", ErrValidation, linea.ItemID)
		}
		resultados[i] = Asignacion{
			ItemID:       linea.ItemID,
			PesoUnitario: peso,
			PesoTotal:    peso * float64(linea.Cantidad),
		}
		pesoTotal += resultados[i].PesoTotal
	}

	if pesoTotal == 0 {
		for i, linea := range lineas {
			resultados[i].CostoFinalUnitario = redondear(linea.PrecioUnitario)
		}
		return resultados, nil
	}

	var asignado float64
	for i := range resultados {
		proporcion := resultados[i].PesoTotal / pesoTotal
		resultados[i].CostoAsignado = redondear(proporcion * totalAdicional)
		asignado += resultados[i].CostoAsignado
	}

	// Rounding can leave a few cents unassigned; push them onto the line
	// with the most weight.
	diferencia := redondear(totalAdicional - asignado)
	if diferencia != 0 {
		mayor := 0
		for i := range resultados {
			if resultados[i].PesoTotal > resultados[mayor].PesoTotal {
				mayor = i
			}
		}
		resultados[mayor].CostoAsignado = redondear(resultados[mayor].CostoAsignado + diferencia)
	}

	for i, linea := range lineas {
		resultados[i].CostoUnitario = redondear(resultados[i].CostoAsignado / float64(linea.Cantidad))
		resultados[i].CostoFinalUnitario = redondear(linea.PrecioUnitario + resultados[i].CostoUnitario)
	}
	return resultados, nil
}

func redondear(valor float64) float64 {
	return math.Round(valor*100) / 100
}
