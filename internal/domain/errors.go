package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")

	// ErrDuplicateMovement señala una colisión de clave de idempotencia en el
	// kardex: el evento de negocio ya fue asentado. Los callers deben tratarlo
	// como éxito (no-op), nunca como fallo hacia el usuario final.
	ErrDuplicateMovement = errors.New("movimiento ya asentado para esa referencia")

	// ErrInvalidTransition señala una transición de estado no permitida en un
	// documento (ej. recibir un traslado que nunca fue enviado).
	ErrInvalidTransition = errors.New("transición de estado no permitida")
)
