package clientes

import "time"

// Cliente is one customer in the directory. A receipt may optionally be
// bought on behalf of a customer.
type Cliente struct {
	ID        int64     `json:"id"`
	Nombre    string    `json:"nombre"`
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
