package schema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/migen/pkg/entity"
)

const (
	defaultLength    = 255
	defaultPrecision = 19
	defaultScale     = 2

	// JSONType is the column type of fields stored as JSON documents.
	JSONType = "JSONB"
)

// fixed maps logical type names (lower case) to SQL types that take no parameters.
var fixed = map[string]string{
	"text":           "TEXT",
	"integer":        "INTEGER",
	"int":            "INTEGER",
	"long":           "BIGINT",
	"short":          "SMALLINT",
	"byte":           "SMALLINT",
	"boolean":        "BOOLEAN",
	"bool":           "BOOLEAN",
	"float":          "REAL",
	"double":         "DOUBLE PRECISION",
	"localdate":      "DATE",
	"date":           "DATE",
	"localtime":      "TIME",
	"localdatetime":  "TIMESTAMP",
	"instant":        "TIMESTAMP WITH TIME ZONE",
	"zoneddatetime":  "TIMESTAMP WITH TIME ZONE",
	"offsetdatetime": "TIMESTAMP WITH TIME ZONE",
	"uuid":           "UUID",
	"blob":           "BYTEA",
	"json":           JSONType,
}

// SQLType returns the column type for a scalar field. Length, precision and
// scale set on the field take precedence over type parameters.
//
// Examples:
//   - String -> VARCHAR(255)
//   - String(80) -> VARCHAR(80)
//   - BigDecimal(10,4) -> NUMERIC(10,4)
//   - byte[] -> BYTEA
func SQLType(f *entity.Field) (string, error) {
	if f.JSON != "" {
		return JSONType, nil
	}

	t := f.Type
	if t == nil {
		return "", errors.Wrapf(ErrUnknownType, "field %s has no type", f.Name)
	}

	if t.IsCollection() {
		t = t.Element
	}

	return typeFor(t, f.Length, f.Precision, f.Scale)
}

// ElementSQLType returns the column type of the element of a collection field.
func ElementSQLType(f *entity.Field) (string, error) {
	if !f.IsCollection() {
		return "", errors.Errorf("field %s is not a collection", f.Name)
	}

	return typeFor(f.Type.Element, f.Length, f.Precision, f.Scale)
}

func typeFor(t *entity.TypeExpr, length, precision, scale int) (string, error) {
	name := strings.ToLower(t.Name)

	if t.Array {
		if name == "byte" {
			return "BYTEA", nil
		}
		return "", errors.Wrapf(ErrUnknownType, "%s", t)
	}

	switch name {
	case "string", "char", "enum":
		if length == 0 {
			length = t.Param(0, defaultLength)
		}
		return fmt.Sprintf("VARCHAR(%d)", length), nil
	case "bigdecimal", "decimal", "numeric":
		if precision == 0 {
			precision = t.Param(0, defaultPrecision)
		}
		if scale == 0 {
			scale = t.Param(1, defaultScale)
		}
		return fmt.Sprintf("NUMERIC(%d,%d)", precision, scale), nil
	}

	if sql, ok := fixed[name]; ok {
		return sql, nil
	}

	return "", errors.Wrapf(ErrUnknownType, "%s", t)
}
