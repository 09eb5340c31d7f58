package postgres

import (
	"strconv"
	"strings"
)

// sqlBuilder arma WHERE dinámicos con placeholders "?" que build numera como $1, $2, ...
type sqlBuilder struct {
	conds  []string
	args   []any
	limit  int
	offset int
	paged  bool
}

func newSQLBuilder() *sqlBuilder {
	return &sqlBuilder{}
}

func (b *sqlBuilder) where(cond string, args ...any) *sqlBuilder {
	b.conds = append(b.conds, cond)
	b.args = append(b.args, args...)
	return b
}

// page devuelve una copia con LIMIT/OFFSET; el original sigue sirviendo para el COUNT.
func (b *sqlBuilder) page(limit, offset int) *sqlBuilder {
	c := &sqlBuilder{
		conds:  append([]string(nil), b.conds...),
		args:   append([]any(nil), b.args...),
		limit:  limit,
		offset: offset,
		paged:  limit > 0,
	}
	return c
}

func (b *sqlBuilder) build(base, suffix string) (string, []any) {
	var sb strings.Builder
	sb.WriteString(base)
	if len(b.conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.conds, " AND "))
	}
	if suffix != "" {
		sb.WriteString(" ")
		sb.WriteString(suffix)
	}
	args := append([]any(nil), b.args...)
	if b.paged {
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, b.limit, b.offset)
	}
	return numberPlaceholders(sb.String()), args
}

func numberPlaceholders(sql string) string {
	var sb strings.Builder
	sb.Grow(len(sql) + 8)
	n := 0
	for _, r := range sql {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
