package importaciones

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestAsignarCostosProporcionalAlPeso(t *testing.T) {
	lineas := []LineaAsignacion{
		{ItemID: 1, Cantidad: 2, PrecioUnitario: 100, PesoEstimado: 1.0},
		{ItemID: 2, Cantidad: 1, PrecioUnitario: 50, PesoEstimado: 0.5},
	}

	asignaciones, err := AsignarCostos(lineas, 30)
	require.NoError(t, err)
	require.Len(t, asignaciones, 2)

	require.InDelta(t, 24.0, asignaciones[0].CostoAsignado, 0.001)
	require.InDelta(t, 12.0, asignaciones[0].CostoUnitario, 0.001)
	require.InDelta(t, 112.0, asignaciones[0].CostoFinalUnitario, 0.001)

	require.InDelta(t, 6.0, asignaciones[1].CostoAsignado, 0.001)
	require.InDelta(t, 6.0, asignaciones[1].CostoUnitario, 0.001)
	require.InDelta(t, 56.0, asignaciones[1].CostoFinalUnitario, 0.001)
}

func TestAsignarCostosConservaElTotal(t *testing.T) {
	lineas := []LineaAsignacion{
		{ItemID: 1, Cantidad: 3, PrecioUnitario: 10, PesoEstimado: 0.33},
		{ItemID: 2, Cantidad: 1, PrecioUnitario: 20, PesoEstimado: 0.27},
		{ItemID: 3, Cantidad: 2, PrecioUnitario: 5, PesoEstimado: 0.41},
	}

	asignaciones, err := AsignarCostos(lineas, 100)
	require.NoError(t, err)

	var suma float64
	for _, a := range asignaciones {
		suma += a.CostoAsignado
	}
	require.InDelta(t, 100.0, suma, 0.001)
}

func TestAsignarCostosRestoEnLaLineaMasPesada(t *testing.T) {
	// Three equal lines cannot split 1.00 evenly in cents; the extra cent
	// must land on a single line and the total must still close.
	lineas := []LineaAsignacion{
		{ItemID: 1, Cantidad: 1, PrecioUnitario: 10, PesoEstimado: 1.0},
		{ItemID: 2, Cantidad: 1, PrecioUnitario: 10, PesoEstimado: 1.0},
		{ItemID: 3, Cantidad: 1, PrecioUnitario: 10, PesoEstimado: 1.0},
	}

	asignaciones, err := AsignarCostos(lineas, 1)
	require.NoError(t, err)

	var suma float64
	for _, a := range asignaciones {
		suma += a.CostoAsignado
	}
	require.InDelta(t, 1.0, suma, 0.001)
}

func TestAsignarCostosPesoRealReemplazaEstimado(t *testing.T) {
	lineas := []LineaAsignacion{
		{ItemID: 1, Cantidad: 1, PrecioUnitario: 100, PesoEstimado: 1.0, PesoReal: ptr(3.0)},
		{ItemID: 2, Cantidad: 1, PrecioUnitario: 100, PesoEstimado: 1.0},
	}

	asignaciones, err := AsignarCostos(lineas, 40)
	require.NoError(t, err)

	require.InDelta(t, 30.0, asignaciones[0].CostoAsignado, 0.001)
	require.InDelta(t, 10.0, asignaciones[1].CostoAsignado, 0.001)
}

func TestAsignarCostosPesoRealCeroExcluyeLaLinea(t *testing.T) {
	lineas := []LineaAsignacion{
		{ItemID: 1, Cantidad: 1, PrecioUnitario: 100, PesoEstimado: 1.0, PesoReal: ptr(0.0)},
		{ItemID: 2, Cantidad: 2, PrecioUnitario: 50, PesoEstimado: 1.0},
	}

	asignaciones, err := AsignarCostos(lineas, 20)
	require.NoError(t, err)

	require.Zero(t, asignaciones[0].CostoAsignado)
	require.InDelta(t, 100.0, asignaciones[0].CostoFinalUnitario, 0.001)
	require.InDelta(t, 20.0, asignaciones[1].CostoAsignado, 0.001)
}

func TestAsignarCostosPesoTotalCero(t *testing.T) {
	lineas := []LineaAsignacion{
		{ItemID: 1, Cantidad: 2, PrecioUnitario: 75, PesoEstimado: 0},
		{ItemID: 2, Cantidad: 1, PrecioUnitario: 30, PesoEstimado: 0},
	}

	asignaciones, err := AsignarCostos(lineas, 50)
	require.NoError(t, err)

	for _, a := range asignaciones {
		require.Zero(t, a.CostoAsignado)
		require.Zero(t, a.CostoUnitario)
	}
	require.InDelta(t, 75.0, asignaciones[0].CostoFinalUnitario, 0.001)
	require.InDelta(t, 30.0, asignaciones[1].CostoFinalUnitario, 0.001)
}

func TestAsignarCostosItemUnicoAbsorbeTodo(t *testing.T) {
	lineas := []LineaAsignacion{
		{ItemID: 1, Cantidad: 4, PrecioUnitario: 25, PesoEstimado: 0.8},
	}

	asignaciones, err := AsignarCostos(lineas, 18)
	require.NoError(t, err)
	require.InDelta(t, 18.0, asignaciones[0].CostoAsignado, 0.001)
	require.InDelta(t, 4.5, asignaciones[0].CostoUnitario, 0.001)
	require.InDelta(t, 29.5, asignaciones[0].CostoFinalUnitario, 0.001)
}

func TestAsignarCostosEntradasInvalidas(t *testing.T) {
	_, err := AsignarCostos(nil, 10)
	require.ErrorIs(t, err, ErrValidation)

	_, err = AsignarCostos([]LineaAsignacion{{ItemID: 1, Cantidad: 1, PesoEstimado: 1}}, -5)
	require.ErrorIs(t, err, ErrValidation)

	_, err = AsignarCostos([]LineaAsignacion{{ItemID: 1, Cantidad: 0, PesoEstimado: 1}}, 10)
	require.ErrorIs(t, err, ErrValidation)

	_, err = AsignarCostos([]LineaAsignacion{{ItemID: 1, Cantidad: 1, PesoEstimado: 1, PesoReal: ptr(-2.0)}}, 10)
	require.ErrorIs(t, err, ErrValidation)
}
