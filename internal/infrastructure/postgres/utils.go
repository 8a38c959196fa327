package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation reporta si err es una violación de restricción UNIQUE
// (SQLSTATE 23505). Se usa para mapear colisiones de idempotencia y de SKU
// a errores de dominio.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// isNoRows reporta si err es pgx.ErrNoRows (los Get* devuelven nil, nil).
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
