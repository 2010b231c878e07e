package proveedores

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fermingonzalezs/sistema-update-sub002/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Proveedor, int, error)
	Get(ctx context.Context, id int64) (Proveedor, error)
	Options(ctx context.Context) ([]Opcion, error)
	Create(ctx context.Context, p Proveedor) (Proveedor, error)
	Update(ctx context.Context, id int64, p Proveedor) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columnas = `id, nombre, cuit, email, telefono, direccion, notas, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Proveedor, int, error) {
	query := `SELECT ` + columnas + ` FROM proveedores WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Buscar != "" {
		argCount++
		query += ` AND (nombre ILIKE $` + strconv.Itoa(argCount) + ` OR cuit ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Buscar+"%")
	}

	countQuery := `SELECT COUNT(*) FROM proveedores WHERE 1=1`
	countArgs := []any{}
	if filters.Buscar != "" {
		countQuery += ` AND (nombre ILIKE $1 OR cuit ILIKE $1)`
		countArgs = append(countArgs, "%"+filters.Buscar+"%")
	}
	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
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

	var lista []Proveedor
	for rows.Next() {
		var p Proveedor
		if err := rows.Scan(&p.ID, &p.Nombre, &p.CUIT, &p.Email, &p.Telefono, &p.Direccion, &p.Notas, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		lista = append(lista, p)
	}
	return lista, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Proveedor, error) {
	var p Proveedor
	err := r.db.QueryRow(ctx, `SELECT `+columnas+` FROM proveedores WHERE id = $1`, id).
		Scan(&p.ID, &p.Nombre, &p.CUIT, &p.Email, &p.Telefono, &p.Direccion, &p.Notas, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Proveedor{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) Options(ctx context.Context) ([]Opcion, error) {
	rows, err := r.db.Query(ctx, `SELECT id, nombre FROM proveedores ORDER BY nombre`)
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

func (r *repository) Create(ctx context.Context, p Proveedor) (Proveedor, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx,
		`INSERT INTO proveedores (nombre, cuit, email, telefono, direccion, notas, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
		p.Nombre, p.CUIT, p.Email, p.Telefono, p.Direccion, p.Notas, now).Scan(&p.ID)
	if err != nil {
		return Proveedor{}, mapPgError(err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func (r *repository) Update(ctx context.Context, id int64, p Proveedor) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE proveedores SET nombre = $1, cuit = $2, email = $3, telefono = $4,
		 direccion = $5, notas = $6, updated_at = $7 WHERE id = $8`,
		p.Nombre, p.CUIT, p.Email, p.Telefono, p.Direccion, p.Notas, time.Now(), id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM proveedores WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "created_at":
		return "created_at " + dir
	default:
		return "nombre " + dir
	}
}
