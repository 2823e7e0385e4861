package entity

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidType is returned when a field type expression cannot be parsed.
	ErrInvalidType = errors.New("invalid type expression")

	collectionTypes = map[string]struct{}{
		"list":       {},
		"set":        {},
		"collection": {},
	}

	typeLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Int", Pattern: `\d+`},
		{Name: "Punct", Pattern: `[<>()\[\],]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	typeParser = participle.MustBuild[TypeExpr](
		participle.Lexer(typeLexer),
		participle.Elide("Whitespace"),
	)
)

// TypeExpr is a parsed field type expression.
//
// Grammar:
//
//	TypeExpr = Ident [ "<" TypeExpr ">" ] [ "[" "]" ] [ "(" Int { "," Int } ")" ]
type TypeExpr struct {
	Name    string    `parser:"@Ident"`
	Element *TypeExpr `parser:"( '<' @@ '>' )?"`
	Array   bool      `parser:"@( '[' ']' )?"`
	Params  []int     `parser:"( '(' @Int ( ',' @Int )* ')' )?"`
}

// ParseType parses a field type expression such as "String(200)" or "List<Long>".
//
// Example:
//
//	t, err := entity.ParseType("BigDecimal(10,2)")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(t.Name, t.Params) // BigDecimal [10 2]
func ParseType(expr string) (*TypeExpr, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.Wrap(ErrInvalidType, "empty type expression")
	}

	t, err := typeParser.ParseString("", expr)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidType, "%s: %v", expr, err)
	}

	if t.IsCollection() && t.Element.IsCollection() {
		return nil, errors.Wrapf(ErrInvalidType, "%s: nested collections are not supported", expr)
	}

	if t.Element != nil && !t.IsCollection() {
		return nil, errors.Wrapf(ErrInvalidType, "%s: %s is not a collection type", expr, t.Name)
	}

	return t, nil
}

// IsCollection reports whether the expression is a simple collection type.
func (t *TypeExpr) IsCollection() bool {
	if t == nil || t.Element == nil {
		return false
	}

	_, ok := collectionTypes[strings.ToLower(t.Name)]
	return ok
}

// Param returns the i-th parameter or def when absent.
func (t *TypeExpr) Param(i, def int) int {
	if t == nil || i >= len(t.Params) {
		return def
	}

	return t.Params[i]
}

// String renders the expression back to its canonical form.
func (t *TypeExpr) String() string {
	if t == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(t.Name)
	if t.Element != nil {
		sb.WriteString("<" + t.Element.String() + ">")
	}
	if t.Array {
		sb.WriteString("[]")
	}
	if len(t.Params) > 0 {
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = strconv.Itoa(p)
		}
		sb.WriteString("(" + strings.Join(params, ",") + ")")
	}

	return sb.String()
}
