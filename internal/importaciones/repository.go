package importaciones

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence over
// importaciones_recibos and importaciones_items.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return wrapPersistence(err)
	}
	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapPersistence(err)
	}
	return nil
}

const columnasRecibo = `r.id, r.numero, r.proveedor_id, r.cliente_id, r.fecha_compra,
	r.metodo_pago, r.estado, r.tracking, r.transportista, r.fecha_estimada, r.notas,
	r.fecha_deposito_usa, r.fecha_recepcion, r.peso_total_con_embalaje,
	r.peso_total_sin_embalaje, r.precio_por_kilo, r.pago_courier, r.costo_picking,
	r.total_adicionales, r.created_at, r.updated_at,
	COALESCE(p.nombre, '') AS proveedor_nombre, c.nombre AS cliente_nombre`

const joinsDirectorio = `
	FROM importaciones_recibos r
	LEFT JOIN proveedores p ON p.id = r.proveedor_id
	LEFT JOIN clientes c ON c.id = r.cliente_id`

// GetRecibo returns a receipt hydrated with directory names and items.
func (r *Repository) GetRecibo(ctx context.Context, id int64) (ReciboImportacion, error) {
	query := `SELECT ` + columnasRecibo + joinsDirectorio + ` WHERE r.id = $1`
	recibo, err := escanearRecibo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReciboImportacion{}, ErrNotFound
		}
		return ReciboImportacion{}, wrapPersistence(err)
	}
	items, err := r.itemsDeRecibos(ctx, []int64{id})
	if err != nil {
		return ReciboImportacion{}, err
	}
	recibo.Items = items[id]
	return recibo, nil
}

// ListRecibos returns receipts ordered by purchase date descending,
// hydrated with directory names and line items.
func (r *Repository) ListRecibos(ctx context.Context, filtro FiltroRecibos) ([]ReciboImportacion, error) {
	query := `SELECT ` + columnasRecibo + joinsDirectorio + ` WHERE 1=1`
	args := []any{}
	argNum := 0

	if filtro.Estado != "" {
		argNum++
		query += ` AND r.estado = $` + strconv.Itoa(argNum)
		args = append(args, string(filtro.Estado))
	}
	if filtro.ProveedorID > 0 {
		argNum++
		query += ` AND r.proveedor_id = $` + strconv.Itoa(argNum)
		args = append(args, filtro.ProveedorID)
	}
	if filtro.Buscar != "" {
		argNum++
		query += ` AND (r.numero ILIKE $` + strconv.Itoa(argNum) + ` OR r.tracking ILIKE $` + strconv.Itoa(argNum) + `)`
		args = append(args, "%"+filtro.Buscar+"%")
	}
	query += ` ORDER BY r.fecha_compra DESC, r.id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	defer rows.Close()

	var recibos []ReciboImportacion
	var ids []int64
	for rows.Next() {
		recibo, err := escanearRecibo(rows)
		if err != nil {
			return nil, wrapPersistence(err)
		}
		recibos = append(recibos, recibo)
		ids = append(ids, recibo.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPersistence(err)
	}
	if len(ids) == 0 {
		return recibos, nil
	}
	porRecibo, err := r.itemsDeRecibos(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range recibos {
		recibos[i].Items = porRecibo[recibos[i].ID]
	}
	return recibos, nil
}

const columnasItem = `id, recibo_id, descripcion, cantidad, precio_unitario,
	precio_total, peso_estimado, link, notas, peso_real,
	costos_adicionales_unitario, costo_final_unitario`

func (r *Repository) itemsDeRecibos(ctx context.Context, reciboIDs []int64) (map[int64][]ItemImportacion, error) {
	query := `SELECT ` + columnasItem + ` FROM importaciones_items WHERE recibo_id = ANY($1) ORDER BY id`
	rows, err := r.pool.Query(ctx, query, reciboIDs)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	defer rows.Close()

	items := make(map[int64][]ItemImportacion, len(reciboIDs))
	for rows.Next() {
		var it ItemImportacion
		if err := rows.Scan(
			&it.ID, &it.ReciboID, &it.Descripcion, &it.Cantidad, &it.PrecioUnitario,
			&it.PrecioTotal, &it.PesoEstimado, &it.Link, &it.Notas, &it.PesoReal,
			&it.CostosAdicionalesUnitario, &it.CostoFinalUnitario,
		); err != nil {
			return nil, wrapPersistence(err)
		}
		items[it.ReciboID] = append(items[it.ReciboID], it)
	}
	return items, wrapPersistence(rows.Err())
}

type filaEscaneable interface {
	Scan(dest ...any) error
}

func escanearRecibo(fila filaEscaneable) (ReciboImportacion, error) {
	var rec ReciboImportacion
	var metodo, estado string
	var fechaRecepcion *time.Time
	var conEmbalaje, sinEmbalaje, precioKilo, courier, picking, adicionales *float64
	err := fila.Scan(
		&rec.ID, &rec.Numero, &rec.ProveedorID, &rec.ClienteID, &rec.FechaCompra,
		&metodo, &estado, &rec.Tracking, &rec.Transportista, &rec.FechaEstimada, &rec.Notas,
		&rec.FechaDepositoUSA, &fechaRecepcion, &conEmbalaje,
		&sinEmbalaje, &precioKilo, &courier, &picking,
		&adicionales, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.ProveedorNombre, &rec.ClienteNombre,
	)
	if err != nil {
		return ReciboImportacion{}, err
	}
	rec.MetodoPago = MetodoPago(metodo)
	rec.Estado = EstadoRecibo(estado)
	if fechaRecepcion != nil {
		rec.Recepcion = &DatosRecepcion{
			FechaRecepcion:       *fechaRecepcion,
			PesoTotalConEmbalaje: valorFloat(conEmbalaje),
			PesoTotalSinEmbalaje: valorFloat(sinEmbalaje),
			PrecioPorKilo:        valorFloat(precioKilo),
			PagoCourier:          valorFloat(courier),
			CostoPicking:         valorFloat(picking),
			TotalAdicionales:     valorFloat(adicionales),
		}
	}
	return rec, nil
}

func valorFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// ProximoNumero increments the per-year counter row atomically, starting
// at 1 for a year with no receipts yet.
func (tx *txRepo) ProximoNumero(ctx context.Context, anio int) (int, error) {
	const query = `INSERT INTO numeradores_recibos (anio, ultimo) VALUES ($1, 1)
		ON CONFLICT (anio) DO UPDATE SET ultimo = numeradores_recibos.ultimo + 1
		RETURNING ultimo`
	var secuencia int
	if err := tx.tx.QueryRow(ctx, query, anio).Scan(&secuencia); err != nil {
		return 0, wrapPersistence(err)
	}
	return secuencia, nil
}

func (tx *txRepo) CreateRecibo(ctx context.Context, recibo ReciboImportacion) (int64, error) {
	const query = `INSERT INTO importaciones_recibos
		(numero, proveedor_id, cliente_id, fecha_compra, metodo_pago, estado,
		 tracking, transportista, fecha_estimada, notas, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id`
	var id int64
	err := tx.tx.QueryRow(ctx, query,
		recibo.Numero, recibo.ProveedorID, recibo.ClienteID, recibo.FechaCompra,
		string(recibo.MetodoPago), string(recibo.Estado),
		recibo.Tracking, recibo.Transportista, recibo.FechaEstimada, recibo.Notas,
	).Scan(&id)
	if err != nil {
		return 0, wrapPersistence(err)
	}
	return id, nil
}

func (tx *txRepo) UpdateHeader(ctx context.Context, id int64, cambios HeaderUpdate) error {
	set := []string{}
	args := []any{}
	agregar := func(columna string, valor any) {
		args = append(args, valor)
		set = append(set, fmt.Sprintf("%s = $%d", columna, len(args)))
	}
	if cambios.ProveedorID != nil {
		agregar("proveedor_id", *cambios.ProveedorID)
	}
	if cambios.ClienteID != nil {
		agregar("cliente_id", *cambios.ClienteID)
	}
	if cambios.FechaCompra != nil {
		agregar("fecha_compra", *cambios.FechaCompra)
	}
	if cambios.MetodoPago != nil {
		agregar("metodo_pago", string(*cambios.MetodoPago))
	}
	if cambios.Tracking != nil {
		agregar("tracking", *cambios.Tracking)
	}
	if cambios.Transportista != nil {
		agregar("transportista", *cambios.Transportista)
	}
	if cambios.FechaEstimada != nil {
		agregar("fecha_estimada", *cambios.FechaEstimada)
	}
	if cambios.Notas != nil {
		agregar("notas", *cambios.Notas)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	query := "UPDATE importaciones_recibos SET " + joinSet(set) +
		fmt.Sprintf(", updated_at = NOW() WHERE id = $%d", len(args))
	return tx.exec(ctx, query, args...)
}

func joinSet(set []string) string {
	out := ""
	for i, s := range set {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

func (tx *txRepo) UpdateEstado(ctx context.Context, id int64, estado EstadoRecibo) error {
	return tx.exec(ctx,
		`UPDATE importaciones_recibos SET estado = $1, updated_at = NOW() WHERE id = $2`,
		string(estado), id)
}

func (tx *txRepo) SetFechaDepositoUSA(ctx context.Context, id int64, fecha time.Time) error {
	return tx.exec(ctx,
		`UPDATE importaciones_recibos SET fecha_deposito_usa = $1, updated_at = NOW() WHERE id = $2`,
		fecha, id)
}

func (tx *txRepo) SetRecepcion(ctx context.Context, id int64, datos DatosRecepcion) error {
	return tx.exec(ctx,
		`UPDATE importaciones_recibos SET
			fecha_recepcion = $1, peso_total_con_embalaje = $2,
			peso_total_sin_embalaje = $3, precio_por_kilo = $4,
			pago_courier = $5, costo_picking = $6, total_adicionales = $7,
			updated_at = NOW()
		WHERE id = $8`,
		datos.FechaRecepcion, datos.PesoTotalConEmbalaje, datos.PesoTotalSinEmbalaje,
		datos.PrecioPorKilo, datos.PagoCourier, datos.CostoPicking,
		datos.TotalAdicionales, id)
}

// DeleteRecibo removes the receipt row; items cascade at the schema level.
func (tx *txRepo) DeleteRecibo(ctx context.Context, id int64) (bool, error) {
	tag, err := tx.tx.Exec(ctx, `DELETE FROM importaciones_recibos WHERE id = $1`, id)
	if err != nil {
		return false, wrapPersistence(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (tx *txRepo) InsertItem(ctx context.Context, item ItemImportacion) (int64, error) {
	const query = `INSERT INTO importaciones_items
		(recibo_id, descripcion, cantidad, precio_unitario, precio_total,
		 peso_estimado, link, notas, peso_real, costos_adicionales_unitario,
		 costo_final_unitario)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	var id int64
	err := tx.tx.QueryRow(ctx, query,
		item.ReciboID, item.Descripcion, item.Cantidad, item.PrecioUnitario,
		item.PrecioTotal, item.PesoEstimado, item.Link, item.Notas,
		item.PesoReal, item.CostosAdicionalesUnitario, item.CostoFinalUnitario,
	).Scan(&id)
	if err != nil {
		return 0, wrapPersistence(err)
	}
	return id, nil
}

func (tx *txRepo) UpdateItem(ctx context.Context, item ItemImportacion) error {
	return tx.exec(ctx,
		`UPDATE importaciones_items SET
			descripcion = $1, cantidad = $2, precio_unitario = $3,
			precio_total = $4, peso_estimado = $5, link = $6, notas = $7,
			peso_real = $8
		WHERE id = $9`,
		item.Descripcion, item.Cantidad, item.PrecioUnitario, item.PrecioTotal,
		item.PesoEstimado, item.Link, item.Notas, item.PesoReal, item.ID)
}

func (tx *txRepo) DeleteItem(ctx context.Context, id int64) error {
	return tx.exec(ctx, `DELETE FROM importaciones_items WHERE id = $1`, id)
}

func (tx *txRepo) SetAsignacionItem(ctx context.Context, itemID int64, pesoReal, costoUnitario, costoFinal float64) error {
	return tx.exec(ctx,
		`UPDATE importaciones_items SET
			peso_real = $1, costos_adicionales_unitario = $2, costo_final_unitario = $3
		WHERE id = $4`,
		pesoReal, costoUnitario, costoFinal, itemID)
}

func (tx *txRepo) exec(ctx context.Context, query string, args ...any) error {
	if _, err := tx.tx.Exec(ctx, query, args...); err != nil {
		return wrapPersistence(err)
	}
	return nil
}

// wrapPersistence surfaces the store's own message behind ErrPersistence
// so the UI can show it verbatim.
func wrapPersistence(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s", ErrPersistence, pgErr.Message)
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
