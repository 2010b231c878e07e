package proveedores

import "time"

// Proveedor is one supplier in the purchasing directory.
type Proveedor struct {
	ID        int64     `json:"id"`
	Nombre    string    `json:"nombre"`
	CUIT      string    `json:"cuit"`
	Email     string    `json:"email"`
	Telefono  string    `json:"telefono"`
	Direccion string    `json:"direccion"`
	Notas     string    `json:"notas"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Opcion is the reduced shape served to selector widgets.
type Opcion struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}
