package schema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/migen/pkg/entity"
	"github.com/pseudomuto/migen/pkg/manifest"
	"github.com/pseudomuto/migen/pkg/utils"
)

type (
	// ContextBuilder turns entity descriptors into rendering contexts, one per
	// DDL artifact kind.
	ContextBuilder interface {
		Sequence(e *entity.Entity) (*SequenceContext, error)
		TableGenerator(e *entity.Entity) (*TableGeneratorContext, error)
		CreateTable(m *Model, e *entity.Entity) (*TableContext, error)
		ElementCollections(e *entity.Entity) ([]*TableContext, error)
		JoinTables(m *Model, e *entity.Entity) ([]*TableContext, error)
		DesiredColumns(m *Model, e *entity.Entity) ([]manifest.ColumnState, error)
		DesiredForeignKeys(m *Model, e *entity.Entity) ([]manifest.FkState, error)
		AlterTable(table string, diff *DiffResult, fks []manifest.FkState) *AlterTableContext
	}

	// DefaultBuilder is the PostgreSQL ContextBuilder.
	DefaultBuilder struct{}

	// ColumnDef is a column in a create table statement.
	ColumnDef struct {
		Name       string
		Type       string
		Nullable   bool
		Unique     bool
		Identity   bool
		PrimaryKey bool
	}

	// ForeignKeyDef is a named foreign key constraint on Table.
	ForeignKeyDef struct {
		Table            string
		Column           string
		ReferencedTable  string
		ReferencedColumn string
	}

	// SequenceContext renders a sequence backing an entity identifier.
	SequenceContext struct {
		Table     string
		Name      string
		Start     int
		Increment int
	}

	// TableGeneratorContext renders a table generator backing an entity identifier.
	TableGeneratorContext struct {
		Table   string
		Name    string
		Key     string
		Initial int
	}

	// TableContext renders a create table statement. It is used for entity
	// tables, element collection tables and join tables.
	TableContext struct {
		// Owner is the table of the entity the table belongs to. For entity
		// tables it equals Table.
		Owner       string
		Table       string
		Columns     []ColumnDef
		ForeignKeys []ForeignKeyDef
	}

	// AlterTableContext renders the changes to an existing table.
	AlterTableContext struct {
		Table       string
		Added       []manifest.ColumnState
		Removed     []manifest.ColumnState
		Modified    []ColumnChange
		ForeignKeys []ForeignKeyDef
	}
)

// NewContextBuilder returns the default ContextBuilder.
func NewContextBuilder() *DefaultBuilder {
	return &DefaultBuilder{}
}

// Sequence returns the sequence for entities using auto or sequence generation.
func (b *DefaultBuilder) Sequence(e *entity.Entity) (*SequenceContext, error) {
	if !e.UsesSequence() {
		return nil, errors.Errorf("%s does not use a sequence", e.Name)
	}

	inc := e.IDField().AllocationSize
	if inc <= 0 {
		inc = entity.DefaultAllocationSize
	}

	return &SequenceContext{
		Table:     e.TableName(),
		Name:      SequenceName(e),
		Start:     1,
		Increment: inc,
	}, nil
}

// TableGenerator returns the generator table for entities using table generation.
func (b *DefaultBuilder) TableGenerator(e *entity.Entity) (*TableGeneratorContext, error) {
	if !e.UsesTableGenerator() {
		return nil, errors.Errorf("%s does not use a table generator", e.Name)
	}

	return &TableGeneratorContext{
		Table:   e.TableName(),
		Name:    TableGeneratorName(e),
		Key:     e.TableName(),
		Initial: 1,
	}, nil
}

// CreateTable returns the create table context for the entity, including the
// columns implied by reverse relations. Foreign key constraints are not part
// of it since referenced tables may not exist yet.
func (b *DefaultBuilder) CreateTable(m *Model, e *entity.Entity) (*TableContext, error) {
	cols, err := b.columns(m, e)
	if err != nil {
		return nil, err
	}

	return &TableContext{Owner: e.TableName(), Table: e.TableName(), Columns: cols}, nil
}

// DesiredColumns returns the columns the entity's table should have.
func (b *DefaultBuilder) DesiredColumns(m *Model, e *entity.Entity) ([]manifest.ColumnState, error) {
	cols, err := b.columns(m, e)
	if err != nil {
		return nil, err
	}

	return columnStates(cols), nil
}

// DesiredForeignKeys returns the foreign keys the entity's table should have:
// one per owning relation followed by the ones implied by reverse relations.
func (b *DefaultBuilder) DesiredForeignKeys(m *Model, e *entity.Entity) ([]manifest.FkState, error) {
	var fks []manifest.FkState
	for _, rel := range e.Relations {
		if !rel.Owning() {
			continue
		}

		target, err := m.Entity(rel.Target)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", e.Name, rel.Name)
		}

		fks = append(fks, manifest.FkState{
			Column:           rel.ColumnName(),
			ReferencedTable:  target.TableName(),
			ReferencedColumn: target.IDField().ColumnName(),
		})
	}

	for _, implied := range m.Reverse[e.TableName()] {
		fks = append(fks, implied.ForeignKey)
	}

	return fks, nil
}

// ElementCollections returns one table per simple collection field. Each
// table is named <table>_<column> and references the owner's identifier.
func (b *DefaultBuilder) ElementCollections(e *entity.Entity) ([]*TableContext, error) {
	owner := e.TableName()
	id := e.IDField()
	idType, err := SQLType(id)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", e.Name, id.Name)
	}

	var out []*TableContext
	for _, f := range e.CollectionFields() {
		elemType, err := ElementSQLType(f)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", e.Name, f.Name)
		}

		table := ElementCollectionName(e, f)
		ownerCol := utils.JoinColumnName(e.Name)
		out = append(out, &TableContext{
			Owner: owner,
			Table: table,
			Columns: []ColumnDef{
				{Name: ownerCol, Type: idType},
				{Name: f.ColumnName(), Type: elemType, Nullable: !f.Required},
			},
			ForeignKeys: []ForeignKeyDef{
				{Table: table, Column: ownerCol, ReferencedTable: owner, ReferencedColumn: id.ColumnName()},
			},
		})
	}

	return out, nil
}

// JoinTables returns the join tables of the entity's many-to-many relations.
// Columns are always laid out from the owning side so that both sides of a
// relation produce identical DDL.
func (b *DefaultBuilder) JoinTables(m *Model, e *entity.Entity) ([]*TableContext, error) {
	var out []*TableContext
	for _, rel := range e.Relations {
		if rel.Kind != entity.ManyToMany {
			continue
		}

		owner, inverse, ownerRel, err := owningSide(m, e, rel)
		if err != nil {
			return nil, err
		}

		ctx, err := joinTable(e.TableName(), owner, inverse, ownerRel)
		if err != nil {
			return nil, err
		}

		// the inverse side may name the table explicitly
		if rel.JoinTable != "" && rel.MappedBy != "" {
			ctx.Table = rel.JoinTable
			for i := range ctx.ForeignKeys {
				ctx.ForeignKeys[i].Table = rel.JoinTable
			}
		}

		out = append(out, ctx)
	}

	return out, nil
}

// AlterTable returns the alter context for a column diff and a set of new
// foreign keys. Either may be empty.
func (b *DefaultBuilder) AlterTable(table string, diff *DiffResult, fks []manifest.FkState) *AlterTableContext {
	ctx := &AlterTableContext{Table: table}
	if diff != nil {
		ctx.Added = diff.Added
		ctx.Removed = diff.Removed
		ctx.Modified = diff.Modified
	}

	for _, fk := range fks {
		ctx.ForeignKeys = append(ctx.ForeignKeys, ForeignKeyDef{
			Table:            table,
			Column:           fk.Column,
			ReferencedTable:  fk.ReferencedTable,
			ReferencedColumn: fk.ReferencedColumn,
		})
	}

	return ctx
}

func (b *DefaultBuilder) columns(m *Model, e *entity.Entity) ([]ColumnDef, error) {
	if e.Embeddable {
		return nil, errors.Errorf("%s is embeddable and has no table", e.Name)
	}

	var cols []ColumnDef
	for _, f := range e.Fields {
		switch {
		case f.IsCollection():
			continue
		case f.Embedded != "":
			flat, err := flatten(m, f, f.ColumnName(), f.Required, map[string]bool{e.Name: true})
			if err != nil {
				return nil, errors.Wrapf(err, "%s.%s", e.Name, f.Name)
			}
			cols = append(cols, flat...)
		default:
			col, err := fieldColumn(f)
			if err != nil {
				return nil, errors.Wrapf(err, "%s.%s", e.Name, f.Name)
			}
			col.Identity = f.ID && f.Generation == entity.GenerationIdentity
			cols = append(cols, col)
		}
	}

	for _, rel := range e.Relations {
		if !rel.Owning() {
			continue
		}

		target, err := m.Entity(rel.Target)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", e.Name, rel.Name)
		}

		idType, err := SQLType(target.IDField())
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", e.Name, rel.Name)
		}

		cols = append(cols, ColumnDef{
			Name:     rel.ColumnName(),
			Type:     idType,
			Nullable: !rel.Required,
			Unique:   rel.Kind == entity.OneToOne,
		})
	}

	for _, implied := range m.Reverse[e.TableName()] {
		cols = append(cols, ColumnDef{
			Name:     implied.Column.Name,
			Type:     implied.Column.Type,
			Nullable: implied.Column.Nullable,
			Unique:   implied.Column.Unique,
		})
	}

	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c.Name] {
			return nil, errors.Errorf("%s: duplicate column %s", e.Name, c.Name)
		}
		seen[c.Name] = true
	}

	return cols, nil
}

func fieldColumn(f *entity.Field) (ColumnDef, error) {
	sqlType, err := SQLType(f)
	if err != nil {
		return ColumnDef{}, err
	}

	return ColumnDef{
		Name:       f.ColumnName(),
		Type:       sqlType,
		Nullable:   !f.ID && !f.Required,
		Unique:     !f.ID && f.Unique,
		PrimaryKey: f.ID,
	}, nil
}

// flatten returns the columns of an embedded value, prefixed with the
// embedding field's column name. Embeddables may embed other embeddables.
func flatten(m *Model, f *entity.Field, prefix string, required bool, visiting map[string]bool) ([]ColumnDef, error) {
	if visiting[f.Embedded] {
		return nil, errors.Errorf("embedding cycle through %s", f.Embedded)
	}

	target, err := m.Entity(f.Embedded)
	if err != nil {
		return nil, err
	}

	visiting[f.Embedded] = true
	defer delete(visiting, f.Embedded)

	var cols []ColumnDef
	for _, ef := range target.Fields {
		name := prefix + "_" + ef.ColumnName()
		if ef.Embedded != "" {
			nested, err := flatten(m, ef, name, required && ef.Required, visiting)
			if err != nil {
				return nil, err
			}
			cols = append(cols, nested...)
			continue
		}

		if ef.IsCollection() {
			return nil, errors.Errorf("%s.%s: collections are not supported in embeddables", target.Name, ef.Name)
		}

		col, err := fieldColumn(ef)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", target.Name, ef.Name)
		}
		col.Name = name
		col.Nullable = !(required && ef.Required)
		cols = append(cols, col)
	}

	return cols, nil
}

// owningSide returns the owner entity, the inverse entity and the owning
// relation of a many-to-many relation declared on e.
func owningSide(m *Model, e *entity.Entity, rel *entity.Relation) (*entity.Entity, *entity.Entity, *entity.Relation, error) {
	target, err := m.Entity(rel.Target)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "%s.%s", e.Name, rel.Name)
	}

	if rel.MappedBy == "" {
		return e, target, rel, nil
	}

	ownerRel := target.Relation(rel.MappedBy)
	if ownerRel == nil {
		return nil, nil, nil, errors.Wrapf(ErrReferenceNotFound, "%s.%s is mapped by %s.%s", e.Name, rel.Name, target.Name, rel.MappedBy)
	}

	return target, e, ownerRel, nil
}

func joinTable(current string, owner, inverse *entity.Entity, rel *entity.Relation) (*TableContext, error) {
	ownerID, inverseID := owner.IDField(), inverse.IDField()

	ownerType, err := SQLType(ownerID)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", owner.Name, rel.Name)
	}
	inverseType, err := SQLType(inverseID)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", owner.Name, rel.Name)
	}

	table := JoinTableName(owner, rel)
	ownerCol := utils.JoinColumnName(owner.Name)
	inverseCol := utils.JoinColumnName(inverse.Name)
	if ownerCol == inverseCol {
		inverseCol = utils.Singular(rel.Name) + "_id"
	}

	return &TableContext{
		Owner: current,
		Table: table,
		Columns: []ColumnDef{
			{Name: ownerCol, Type: ownerType, PrimaryKey: true},
			{Name: inverseCol, Type: inverseType, PrimaryKey: true},
		},
		ForeignKeys: []ForeignKeyDef{
			{Table: table, Column: ownerCol, ReferencedTable: owner.TableName(), ReferencedColumn: ownerID.ColumnName()},
			{Table: table, Column: inverseCol, ReferencedTable: inverse.TableName(), ReferencedColumn: inverseID.ColumnName()},
		},
	}, nil
}

// SequenceName returns the name of the sequence backing an entity identifier.
func SequenceName(e *entity.Entity) string {
	return e.TableName() + "_seq"
}

// TableGeneratorName returns the name of the generator table of an entity.
func TableGeneratorName(e *entity.Entity) string {
	return e.TableName() + "_id_gen"
}

// ElementCollectionName returns the table holding a collection field.
func ElementCollectionName(e *entity.Entity, f *entity.Field) string {
	return e.TableName() + "_" + f.ColumnName()
}

// JoinTableName returns the join table of an owning many-to-many relation.
func JoinTableName(owner *entity.Entity, rel *entity.Relation) string {
	if rel.JoinTable != "" {
		return rel.JoinTable
	}

	return owner.TableName() + "_" + utils.SnakeCase(rel.Name)
}

// PrimaryKey returns the primary key columns.
func (t *TableContext) PrimaryKey() []string {
	var pk []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}

	return pk
}

// Definitions returns the column and constraint definitions of the table in
// the order they are rendered.
func (t *TableContext) Definitions() []string {
	defs := make([]string, 0, len(t.Columns)+len(t.ForeignKeys)+1)
	for _, c := range t.Columns {
		defs = append(defs, c.Definition())
	}

	if pk := t.PrimaryKey(); len(pk) > 0 {
		defs = append(defs, fmt.Sprintf(
			"CONSTRAINT %s PRIMARY KEY (%s)",
			utils.QuoteIdentifier(PrimaryKeyName(t.Table)),
			quoteAll(pk),
		))
	}

	for _, c := range t.Columns {
		if c.Unique {
			defs = append(defs, fmt.Sprintf(
				"CONSTRAINT %s UNIQUE (%s)",
				utils.QuoteIdentifier(UniqueName(t.Table, c.Name)),
				utils.QuoteIdentifier(c.Name),
			))
		}
	}

	for _, fk := range t.ForeignKeys {
		defs = append(defs, "CONSTRAINT "+fk.Clause())
	}

	return defs
}

// ColumnStates returns the manifest form of the columns.
func (t *TableContext) ColumnStates() []manifest.ColumnState {
	return columnStates(t.Columns)
}

// ForeignKeyStates returns the manifest form of the inline foreign keys.
func (t *TableContext) ForeignKeyStates() []manifest.FkState {
	var out []manifest.FkState
	for _, fk := range t.ForeignKeys {
		out = append(out, fk.State())
	}

	return out
}

// Definition renders the column for a create table statement.
func (c ColumnDef) Definition() string {
	var sb strings.Builder
	sb.WriteString(utils.QuoteIdentifier(c.Name))
	sb.WriteString(" ")
	sb.WriteString(c.Type)
	if c.Identity {
		sb.WriteString(" GENERATED BY DEFAULT AS IDENTITY")
	}
	if !c.Nullable {
		sb.WriteString(" NOT NULL")
	}

	return sb.String()
}

// State returns the manifest form of the column.
func (c ColumnDef) State() manifest.ColumnState {
	return manifest.ColumnState{
		Name:     c.Name,
		Type:     c.Type,
		Nullable: c.Nullable,
		Unique:   c.Unique,
	}
}

// Name returns the constraint name, fk_<table>_<column>.
func (fk ForeignKeyDef) Name() string {
	return "fk_" + fk.Table + "_" + fk.Column
}

// Clause renders "<name> FOREIGN KEY (<column>) REFERENCES <table> (<column>)".
func (fk ForeignKeyDef) Clause() string {
	return fmt.Sprintf(
		"%s FOREIGN KEY (%s) REFERENCES %s (%s)",
		utils.QuoteIdentifier(fk.Name()),
		utils.QuoteIdentifier(fk.Column),
		utils.QuoteIdentifier(fk.ReferencedTable),
		utils.QuoteIdentifier(fk.ReferencedColumn),
	)
}

// State returns the manifest form of the foreign key.
func (fk ForeignKeyDef) State() manifest.FkState {
	return manifest.FkState{
		Column:           fk.Column,
		ReferencedTable:  fk.ReferencedTable,
		ReferencedColumn: fk.ReferencedColumn,
	}
}

// PrimaryKeyName returns pk_<table>.
func PrimaryKeyName(table string) string {
	return "pk_" + table
}

// UniqueName returns ux_<table>_<column>.
func UniqueName(table, column string) string {
	return "ux_" + table + "_" + column
}

// IsEmpty reports whether there is nothing to alter.
func (a *AlterTableContext) IsEmpty() bool {
	return len(a.Added) == 0 && len(a.Removed) == 0 && len(a.Modified) == 0 && len(a.ForeignKeys) == 0
}

// HasColumnChanges reports whether the context alters columns.
func (a *AlterTableContext) HasColumnChanges() bool {
	return len(a.Added) > 0 || len(a.Removed) > 0 || len(a.Modified) > 0
}

func columnStates(cols []ColumnDef) []manifest.ColumnState {
	out := make([]manifest.ColumnState, len(cols))
	for i, c := range cols {
		out[i] = c.State()
	}

	return out
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = utils.QuoteIdentifier(n)
	}

	return strings.Join(quoted, ", ")
}
