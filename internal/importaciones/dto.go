package importaciones

import (
	"fmt"
	"time"
)

const formatoFecha = "2006-01-02"

type itemRequest struct {
	ID             int64   `json:"id"`
	Descripcion    string  `json:"descripcion" validate:"required"`
	Cantidad       int     `json:"cantidad" validate:"required,gt=0"`
	PrecioUnitario float64 `json:"precio_unitario" validate:"gte=0"`
	PesoEstimado   float64 `json:"peso_estimado" validate:"gte=0"`
	Link           *string `json:"link"`
	Notas          *string `json:"notas"`
	PesoReal       *float64 `json:"peso_real"`
}

type crearReciboRequest struct {
	ProveedorID   int64         `json:"proveedor_id" validate:"required,gt=0"`
	ClienteID     *int64        `json:"cliente_id"`
	FechaCompra   string        `json:"fecha_compra" validate:"required"`
	MetodoPago    string        `json:"metodo_pago" validate:"required"`
	Tracking      *string       `json:"tracking"`
	Transportista *string       `json:"transportista"`
	FechaEstimada *string       `json:"fecha_estimada"`
	Notas         *string       `json:"notas"`
	Items         []itemRequest `json:"items" validate:"required,min=1,dive"`
}

func (req crearReciboRequest) toInput() (CrearReciboInput, error) {
	fechaCompra, err := time.Parse(formatoFecha, req.FechaCompra)
	if err != nil {
		return CrearReciboInput{}, fmt.Errorf("%w: fecha_compra invalida", ErrValidation)
	}
	fechaEstimada, err := parseFechaOpc(req.FechaEstimada)
	if err != nil {
		return CrearReciboInput{}, fmt.Errorf("%w: fecha_estimada invalida", ErrValidation)
	}
	input := CrearReciboInput{
		ProveedorID:   req.ProveedorID,
		ClienteID:     req.ClienteID,
		FechaCompra:   fechaCompra,
		MetodoPago:    MetodoPago(req.MetodoPago),
		Tracking:      req.Tracking,
		Transportista: req.Transportista,
		FechaEstimada: fechaEstimada,
		Notas:         req.Notas,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, ItemInput{
			Descripcion:    item.Descripcion,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			PesoEstimado:   item.PesoEstimado,
			Link:           item.Link,
			Notas:          item.Notas,
		})
	}
	return input, nil
}

type actualizarReciboRequest struct {
	ProveedorID   *int64  `json:"proveedor_id"`
	ClienteID     *int64  `json:"cliente_id"`
	FechaCompra   *string `json:"fecha_compra"`
	MetodoPago    *string `json:"metodo_pago"`
	Tracking      *string `json:"tracking"`
	Transportista *string `json:"transportista"`
	FechaEstimada *string `json:"fecha_estimada"`
	Notas         *string `json:"notas"`
}

func (req actualizarReciboRequest) toHeaderUpdate() (HeaderUpdate, error) {
	cambios := HeaderUpdate{
		ProveedorID:   req.ProveedorID,
		ClienteID:     req.ClienteID,
		Tracking:      req.Tracking,
		Transportista: req.Transportista,
		Notas:         req.Notas,
	}
	if req.FechaCompra != nil {
		fecha, err := time.Parse(formatoFecha, *req.FechaCompra)
		if err != nil {
			return HeaderUpdate{}, fmt.Errorf("%w: fecha_compra invalida", ErrValidation)
		}
		cambios.FechaCompra = &fecha
	}
	if req.MetodoPago != nil {
		metodo := MetodoPago(*req.MetodoPago)
		cambios.MetodoPago = &metodo
	}
	fechaEstimada, err := parseFechaOpc(req.FechaEstimada)
	if err != nil {
		return HeaderUpdate{}, fmt.Errorf("%w: fecha_estimada invalida", ErrValidation)
	}
	cambios.FechaEstimada = fechaEstimada
	return cambios, nil
}

type arriboRequest struct {
	Fecha string `json:"fecha" validate:"required"`
}

type recepcionRequest struct {
	FechaRecepcion       string             `json:"fecha_recepcion" validate:"required"`
	PesoTotalConEmbalaje float64            `json:"peso_total_con_embalaje" validate:"gte=0"`
	PesoTotalSinEmbalaje float64            `json:"peso_total_sin_embalaje" validate:"required,gt=0"`
	PrecioPorKilo        float64            `json:"precio_por_kilo" validate:"required,gt=0"`
	PagoCourier          float64            `json:"pago_courier" validate:"gte=0"`
	CostoPicking         float64            `json:"costo_picking" validate:"gte=0"`
	PesosReales          map[int64]float64  `json:"pesos_reales"`
}

func (req recepcionRequest) toInput() (RecepcionInput, error) {
	fecha, err := time.Parse(formatoFecha, req.FechaRecepcion)
	if err != nil {
		return RecepcionInput{}, fmt.Errorf("%w: fecha_recepcion invalida", ErrValidation)
	}
	return RecepcionInput{
		FechaRecepcion:       fecha,
		PesoTotalConEmbalaje: req.PesoTotalConEmbalaje,
		PesoTotalSinEmbalaje: req.PesoTotalSinEmbalaje,
		PrecioPorKilo:        req.PrecioPorKilo,
		PagoCourier:          req.PagoCourier,
		CostoPicking:         req.CostoPicking,
		PesosReales:          req.PesosReales,
	}, nil
}

type edicionRequest struct {
	actualizarReciboRequest
	PagoCourier  *float64      `json:"pago_courier"`
	CostoPicking *float64      `json:"costo_picking"`
	Items        []itemRequest `json:"items" validate:"required,min=1,dive"`
}

func (req edicionRequest) toInput() (EdicionInput, error) {
	header, err := req.toHeaderUpdate()
	if err != nil {
		return EdicionInput{}, err
	}
	input := EdicionInput{
		Header:       header,
		PagoCourier:  req.PagoCourier,
		CostoPicking: req.CostoPicking,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, ItemEdicion{
			ID:             item.ID,
			Descripcion:    item.Descripcion,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			PesoEstimado:   item.PesoEstimado,
			Link:           item.Link,
			Notas:          item.Notas,
			PesoReal:       item.PesoReal,
		})
	}
	return input, nil
}

type conversionRequest struct {
	// PreciosEditados overrides the allocated landed cost per item id.
	PreciosEditados map[int64]float64 `json:"precios_editados"`
}

func parseFechaOpc(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(formatoFecha, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
