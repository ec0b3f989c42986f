// Package matcher builds the parameterized address queries and owns the
// ranking rules for fuzzy search.
package matcher

import (
	"errors"
	"fmt"
	"strings"
)

// Result caps per match mode
const (
	FuzzyLimit = 50
	ExactLimit = 10
)

// Projection aliases; stores scan rows by these names
const (
	AliasFullAddress = "full_address"
	AliasCity        = "city"
	AliasZipCode     = "zip_code"
)

// DefaultTable is the relation holding the address records
const DefaultTable = "team_cool_and_gang.pinellas_fl"

// Schema names the relation and the columns mapped onto AddressRecord
type Schema struct {
	Table             string
	FullAddressColumn string
	CityColumn        string
	ZipCodeColumn     string
}

// DefaultSchema returns the schema of the county address table
func DefaultSchema() Schema {
	return Schema{
		Table:             DefaultTable,
		FullAddressColumn: "Full Address",
		CityColumn:        "Mailing City",
		ZipCodeColumn:     "zipcode",
	}
}

// WithTable returns a copy of the schema reading from another relation
func (s Schema) WithTable(table string) Schema {
	s.Table = table
	return s
}

// Validate checks that every name is present
func (s Schema) Validate() error {
	if strings.TrimSpace(s.Table) == "" {
		return errors.New("schema: table name is required")
	}
	if s.FullAddressColumn == "" || s.CityColumn == "" || s.ZipCodeColumn == "" {
		return errors.New("schema: all column names are required")
	}
	return nil
}

// Statement is a rendered SQL statement with its bound arguments
type Statement struct {
	SQL  string
	Args []any
}

// Builder renders fuzzy and exact lookups for one dialect and schema
type Builder struct {
	dialect Dialect
	schema  Schema
}

// NewBuilder creates a query builder
func NewBuilder(dialect Dialect, schema Schema) *Builder {
	return &Builder{dialect: dialect, schema: schema}
}

// Dialect returns the dialect this builder renders for
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Fuzzy renders the containment lookup ordered by rank, then raw address
//
// Bound arguments:
//
//	1: %term%  containment filter
//	2: term    rank 0 (equality)
//	3: term%   rank 1 (prefix)
func (b *Builder) Fuzzy(term string) Statement {
	d := b.dialect
	col := d.QuoteIdent(b.schema.FullAddressColumn)
	escaped := EscapeLike(term)

	var sb strings.Builder
	sb.WriteString(b.selectFrom())
	fmt.Fprintf(&sb, " WHERE %s", d.ILike(col, d.Placeholder(1)))
	fmt.Fprintf(&sb, " ORDER BY CASE WHEN LOWER(%s) = LOWER(%s) THEN %d WHEN %s THEN %d ELSE %d END, %s",
		col, d.Placeholder(2), RankExact,
		d.ILike(col, d.Placeholder(3)), RankPrefix,
		RankContains,
		d.ByteOrder(col),
	)
	fmt.Fprintf(&sb, " LIMIT %d", FuzzyLimit)

	return Statement{
		SQL:  sb.String(),
		Args: []any{"%" + escaped + "%", term, escaped + "%"},
	}
}

// Exact renders the case-insensitive equality lookup
func (b *Builder) Exact(term string) Statement {
	d := b.dialect
	col := d.QuoteIdent(b.schema.FullAddressColumn)

	var sb strings.Builder
	sb.WriteString(b.selectFrom())
	fmt.Fprintf(&sb, " WHERE LOWER(%s) = LOWER(%s)", col, d.Placeholder(1))
	fmt.Fprintf(&sb, " LIMIT %d", ExactLimit)

	return Statement{
		SQL:  sb.String(),
		Args: []any{term},
	}
}

func (b *Builder) selectFrom() string {
	d := b.dialect
	return fmt.Sprintf("SELECT %s AS %s, %s AS %s, %s AS %s FROM %s",
		d.QuoteIdent(b.schema.FullAddressColumn), AliasFullAddress,
		d.QuoteIdent(b.schema.CityColumn), AliasCity,
		d.QuoteIdent(b.schema.ZipCodeColumn), AliasZipCode,
		quoteQualified(d, b.schema.Table),
	)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters so the term matches literally
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}
