package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// Códigos SQLSTATE que se traducen a errores de dominio o se reintentan.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isRetryable conflictos de concurrencia que se resuelven repitiendo la transacción completa.
func isRetryable(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// mapError envuelve err con op y lo traduce al error de dominio cuando el código lo permite.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, op)
	}
	switch pgCode(err) {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s: %v", domain.ErrConflict, op, err)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s: %v", domain.ErrNotFound, op, err)
	case codeCheckViolation:
		return fmt.Errorf("%w: %s: %v", domain.ErrInsufficientStock, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// escapeLike escapa los comodines de LIKE/ILIKE.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
