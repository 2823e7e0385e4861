// Package schema computes the desired PostgreSQL schema of an entity set.
//
// It covers four concerns:
//   - SQL type mapping for field type expressions (SQLType)
//   - the Reverse-Relation Resolver, a pre-pass over all entities that finds
//     foreign key columns implied by one-to-many relations (Resolver)
//   - rendering contexts for every DDL artifact kind (ContextBuilder)
//   - column level comparison of recorded and desired tables (Differ)
//
// Usage:
//
//	reverse, err := schema.NewResolver().Resolve(entities)
//	if err != nil {
//		return err // wraps schema.ErrReferenceNotFound for dangling references
//	}
//
//	model := schema.NewModel(entities, reverse)
//	builder := schema.NewContextBuilder()
//
//	ctx, err := builder.CreateTable(model, book)
//	if err != nil {
//		return err
//	}
//
//	desired := ctx.ColumnStates()
//	diff := schema.NewDiffer().Diff(recorded, desired)
//	if !diff.IsEmpty() {
//		alter := builder.AlterTable("book", diff, nil)
//		// render alter
//	}
//
// Naming conventions:
//   - sequences: <table>_seq
//   - table generators: <table>_id_gen
//   - element collections: <table>_<column>
//   - join tables: the declared name, or <owner table>_<relation>
//   - constraints: pk_<table>, fk_<table>_<column>, ux_<table>_<column>
package schema
