package render

import (
	"bytes"
	"embed"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"github.com/pseudomuto/migen/pkg/utils"
)

// Template ids understood by the default renderer.
const (
	Sequence          = "sequence"
	TableGenerator    = "table_generator"
	CreateTable       = "create_table"
	ElementCollection = "element_collection"
	JoinTable         = "join_table"
	AddForeignKeys    = "add_foreign_keys"
	AlterTable        = "alter_table"
)

var (
	//go:embed templates/*.sql.tmpl
	templateFS embed.FS

	// ErrUnknownTemplate is returned when rendering an id with no template.
	ErrUnknownTemplate = errors.New("unknown template")
)

type (
	// Renderer turns a template id and its context into text. Rendering must
	// not depend on anything but its inputs.
	Renderer interface {
		Render(templateID string, data any) (string, error)
	}

	// TemplateRenderer renders the embedded DDL templates.
	TemplateRenderer struct {
		tmpl *template.Template
	}
)

// New parses the embedded templates.
func New() (*TemplateRenderer, error) {
	funcs := template.FuncMap{
		"quote": utils.QuoteIdentifier,
		"join":  strings.Join,
	}

	tmpl, err := template.New("ddl").Funcs(funcs).ParseFS(templateFS, "templates/*.sql.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}

	return &TemplateRenderer{tmpl: tmpl}, nil
}

// Render executes the template with the given id. The result has no leading
// or trailing whitespace.
//
// Example:
//
//	r, _ := render.New()
//	sql, err := r.Render(render.Sequence, &schema.SequenceContext{Name: "book_seq", Start: 1, Increment: 50})
//	// CREATE SEQUENCE book_seq START WITH 1 INCREMENT BY 50;
func (r *TemplateRenderer) Render(templateID string, data any) (string, error) {
	t := r.tmpl.Lookup(templateID + ".sql.tmpl")
	if t == nil {
		return "", errors.Wrapf(ErrUnknownTemplate, "%s", templateID)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "failed to render %s", templateID)
	}

	return strings.TrimSpace(buf.String()), nil
}
