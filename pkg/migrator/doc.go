// Package migrator synthesizes versioned PostgreSQL migration files from
// entity descriptors.
//
// The Synthesizer compares the schema recorded in the manifest with the one
// described by the entities and writes only the DDL that is missing:
//   - sequences and table generators backing identifiers
//   - create table scripts for new tables
//   - element collection tables
//   - join tables, emitted once no matter how many entities reference them
//   - alter scripts for column changes and new foreign keys
//
// Every script is written to its own file named V<version>__<description>.sql.
// Versions continue from the manifest's last version without gaps.
//
// Example usage:
//
//	r, err := render.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	s, err := migrator.NewSynthesizer(migrator.SynthesizerParams{
//		Enabled:  true,
//		Baseline: 1,
//		Store:    manifest.NewFileStore(".migen/manifest.yaml", 1),
//		Renderer: r,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res, err := s.Run(ctx, entities, "db/migration")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, f := range res.Files {
//		fmt.Println("wrote", f)
//	}
//
// The migrations directory also holds migen.sum, a chained hash of every
// migration used to detect edited or reordered files (see SumFile).
package migrator
