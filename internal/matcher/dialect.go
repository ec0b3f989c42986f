package matcher

import (
	"fmt"
	"strings"
)

// Dialect renders the SQL fragments that differ between backing stores
type Dialect interface {
	// Name is the driver name ("postgres", "mysql")
	Name() string

	// QuoteIdent quotes a single identifier (column or table part)
	QuoteIdent(name string) string

	// Placeholder returns the bind parameter for the n-th argument (1-based)
	Placeholder(n int) string

	// ILike renders a case-insensitive LIKE of column against a bound pattern
	ILike(column, param string) string

	// ByteOrder renders an ORDER BY expression comparing raw bytes
	ByteOrder(column string) string
}

// Postgres is the PostgreSQL dialect
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Postgres) ILike(column, param string) string {
	return column + " ILIKE " + param
}

func (Postgres) ByteOrder(column string) string {
	return column + ` COLLATE "C"`
}

// MySQL is the MySQL / MariaDB dialect
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) Placeholder(int) string { return "?" }

func (MySQL) ILike(column, param string) string {
	return "LOWER(" + column + ") LIKE LOWER(" + param + ")"
}

func (MySQL) ByteOrder(column string) string {
	return "CAST(" + column + " AS BINARY)"
}

// DialectFor returns the dialect registered for a driver name
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql":
		return Postgres{}, nil
	case "mysql":
		return MySQL{}, nil
	default:
		return nil, fmt.Errorf("unsupported SQL dialect: %s (supported: 'postgres', 'mysql')", driver)
	}
}

// quoteQualified quotes each dot-separated part of a (possibly schema-qualified) name
func quoteQualified(d Dialect, name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdent(p)
	}
	return strings.Join(parts, ".")
}
