// Package manifest records which schema elements previous sessions already
// synthesized.
//
// The persisted MigrationState is the only source of truth about the database
// schema: there is no live introspection. A session loads it through a Store,
// wraps it in a Builder that every step of the session consults and mutates,
// and finally persists the Builder's result.
//
// Example:
//
//	store := manifest.NewFileStore(".migen/manifest.yaml", 1)
//	state, err := store.Load()
//	if err != nil {
//		slog.Warn("starting from an empty manifest", "err", err)
//	}
//
//	b := manifest.NewBuilder(state)
//	if !b.HasEntity("book") {
//		err := b.ApplyCreate("book", "book", manifest.Creation{
//			Kind:    manifest.KindTable,
//			Columns: columns,
//			Content: ddl,
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//	}
//
//	final, err := b.Build()
//	if err != nil {
//		log.Fatal(err)
//	}
//	final.LastVersion = allocator.Current()
//	if err := store.Save(final); err != nil {
//		log.Fatal(err)
//	}
package manifest
