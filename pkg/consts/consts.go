package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// ConfigFile is the name of the project configuration file
	ConfigFile = "migen.yaml"

	// SumFile is the name of the integrity file kept in the migrations directory
	SumFile = "migen.sum"

	// DefaultEntitiesFile is the default entity descriptor file
	DefaultEntitiesFile = "entities.yaml"

	// DefaultMigrationsDir is the default migrations directory under the project root
	DefaultMigrationsDir = "db/migration"

	// DefaultManifestFile is the default location of the persisted migration manifest
	DefaultManifestFile = ".migen/manifest.yaml"

	// DefaultBaselineVersion is the lastVersion of an empty manifest. V1 is
	// reserved for the project's baseline migration.
	DefaultBaselineVersion = 1
)
