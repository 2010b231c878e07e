package compras

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for the ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertCompras writes the batch inside one transaction.
func (r *Repository) InsertCompras(ctx context.Context, entradas []Compra) ([]Compra, error) {
	const query = `INSERT INTO compras
		(item, cantidad, precio_unitario, total, proveedor_id, metodo_pago,
		 recibo_origen_id, tracking, transportista, precio_origen, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	now := time.Now()
	insertadas := make([]Compra, len(entradas))
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for i, fila := range entradas {
			fila.CreatedAt = now
			if err := tx.QueryRow(ctx, query,
				fila.Item, fila.Cantidad, fila.PrecioUnitario, fila.Total,
				fila.ProveedorID, fila.MetodoPago, fila.ReciboOrigenID,
				fila.Tracking, fila.Transportista, fila.PrecioOrigen, now,
			).Scan(&fila.ID); err != nil {
				return err
			}
			insertadas[i] = fila
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return insertadas, nil
}

// GetCompra fetches one row by id.
func (r *Repository) GetCompra(ctx context.Context, id int64) (Compra, error) {
	const query = `SELECT id, item, cantidad, precio_unitario, total, proveedor_id,
		metodo_pago, recibo_origen_id, tracking, transportista,
		COALESCE(precio_origen, ''), created_at
		FROM compras WHERE id = $1`
	var c Compra
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Item, &c.Cantidad, &c.PrecioUnitario, &c.Total, &c.ProveedorID,
		&c.MetodoPago, &c.ReciboOrigenID, &c.Tracking, &c.Transportista,
		&c.PrecioOrigen, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Compra{}, ErrNotFound
		}
		return Compra{}, err
	}
	return c, nil
}

// ListCompras returns rows newest first.
func (r *Repository) ListCompras(ctx context.Context, filtro Filtro) ([]Compra, error) {
	query := `SELECT id, item, cantidad, precio_unitario, total, proveedor_id,
		metodo_pago, recibo_origen_id, tracking, transportista,
		COALESCE(precio_origen, ''), created_at
		FROM compras WHERE 1=1`
	args := []any{}
	argNum := 0

	if filtro.ProveedorID > 0 {
		argNum++
		query += ` AND proveedor_id = $` + strconv.Itoa(argNum)
		args = append(args, filtro.ProveedorID)
	}
	if filtro.ReciboOrigenID > 0 {
		argNum++
		query += ` AND recibo_origen_id = $` + strconv.Itoa(argNum)
		args = append(args, filtro.ReciboOrigenID)
	}
	if filtro.Buscar != "" {
		argNum++
		query += ` AND item ILIKE $` + strconv.Itoa(argNum)
		args = append(args, "%"+filtro.Buscar+"%")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var filas []Compra
	for rows.Next() {
		var c Compra
		if err := rows.Scan(
			&c.ID, &c.Item, &c.Cantidad, &c.PrecioUnitario, &c.Total, &c.ProveedorID,
			&c.MetodoPago, &c.ReciboOrigenID, &c.Tracking, &c.Transportista,
			&c.PrecioOrigen, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		filas = append(filas, c)
	}
	return filas, rows.Err()
}
