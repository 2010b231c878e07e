package shared

import "errors"

var (
	ErrNotFound   = errors.New("registro no encontrado")
	ErrDuplicate  = errors.New("registro duplicado")
	ErrValidation = errors.New("datos invalidos")
	ErrInvalidID  = errors.New("id invalido")
)
