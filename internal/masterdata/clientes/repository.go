package clientes

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Cliente, int, error)
	Get(ctx context.Context, id int64) (Cliente, error)
	Options(ctx context.Context) ([]Opcion, error)
	Create(ctx context.Context, c Cliente) (Cliente, error)
	Update(ctx context.Context, id int64, c Cliente) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columnas = `id, nombre, email, telefono, direccion, notas, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Cliente, int, error) {
	query := `SELECT ` + columnas + ` FROM clientes WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Buscar != "" {
		argCount++
		query += ` AND (nombre ILIKE $` + strconv.Itoa(argCount) + ` OR email ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Buscar+"%")
	}

	countQuery := `SELECT COUNT(*) FROM clientes WHERE 1=1`
	countArgs := []any{}
	if filters.Buscar != "" {
		countQuery += ` AND (nombre ILIKE $1 OR email ILIKE $1)`
		countArgs = append(countArgs, "%"+filters.Buscar+"%")
	}
	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY nombre ASC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var lista []Cliente
	for rows.Next() {
		var c Cliente
		if err := rows.Scan(&c.ID, &c.Nombre, &c.Email, &c.Telefono, &c.Direccion, &c.Notas, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		lista = append(lista, c)
	}
	return lista, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Cliente, error) {
	var c Cliente
	err := r.db.QueryRow(ctx, `SELECT `+columnas+` FROM clientes WHERE id = $1`, id).
		Scan(&c.ID, &c.Nombre, &c.Email, &c.Telefono, &c.Direccion, &c.Notas, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cliente{}, shared.ErrNotFound
	}
	return c, err
}

func (r *repository) Options(ctx context.Context) ([]Opcion, error) {
	rows, err := r.db.Query(ctx, `SELECT id, nombre FROM clientes ORDER BY nombre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opciones []Opcion
	for rows.Next() {
		var o Opcion
		if err := rows.Scan(&o.ID, &o.Nombre); err != nil {
			return nil, err
		}
		opciones = append(opciones, o)
	}
	return opciones, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Cliente) (Cliente, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx,
		`INSERT INTO clientes (nombre, email, telefono, direccion, notas, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		c.Nombre, c.Email, c.Telefono, c.Direccion, c.Notas, now).Scan(&c.ID)
	if err != nil {
		return Cliente{}, err
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (r *repository) Update(ctx context.Context, id int64, c Cliente) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE clientes SET nombre = $1, email = $2, telefono = $3, direccion = $4,
		 notas = $5, updated_at = $6 WHERE id = $7`,
		c.Nombre, c.Email, c.Telefono, c.Direccion, c.Notas, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clientes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
