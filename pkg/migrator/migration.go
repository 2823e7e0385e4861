package migrator

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/pseudomuto/migen/pkg/consts"
)

var fileNamePattern = regexp.MustCompile(`^V(\d+)__(.+)\.sql$`)

type (
	// Migration is a single versioned migration file.
	Migration struct {
		Version     int
		Description string
		Name        string
		Content     []byte
	}

	// MigrationDir is the set of migrations in a directory, sorted by version.
	MigrationDir struct {
		Migrations []*Migration

		// SumFile is the recorded sum file, or nil when the directory has none.
		SumFile *SumFile

		fs fs.FS
	}
)

// FileName returns V<version>__<description>.sql.
func FileName(version int, description string) string {
	return fmt.Sprintf("V%d__%s.sql", version, description)
}

// ParseFileName extracts the version and description from a migration file
// name. It reports false for files that are not migrations.
func ParseFileName(name string) (int, string, bool) {
	m := fileNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}

	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}

	return v, m[2], true
}

// LoadMigrationDir reads the migrations at the top level of dir. Files that
// do not match V<version>__<description>.sql are ignored. Migrations are
// ordered numerically, so V10 follows V9.
//
// Example:
//
//	dir, err := migrator.LoadMigrationDir(os.DirFS("db/migration"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, m := range dir.Migrations {
//		fmt.Println(m.Version, m.Description)
//	}
func LoadMigrationDir(dir fs.FS) (*MigrationDir, error) {
	entries, err := fs.ReadDir(dir, ".")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migration directory")
	}

	md := &MigrationDir{fs: dir}
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if name == consts.SumFile {
			if md.SumFile, err = readSumFile(dir, name); err != nil {
				return nil, err
			}
			continue
		}

		version, desc, ok := ParseFileName(name)
		if !ok {
			continue
		}
		if other, dup := seen[version]; dup {
			return nil, errors.Errorf("duplicate migration version %d: %s and %s", version, other, name)
		}
		seen[version] = name

		content, err := fs.ReadFile(dir, name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read migration: %s", name)
		}

		md.Migrations = append(md.Migrations, &Migration{
			Version:     version,
			Description: desc,
			Name:        name,
			Content:     content,
		})
	}

	sort.Slice(md.Migrations, func(i, j int) bool {
		return md.Migrations[i].Version < md.Migrations[j].Version
	})

	return md, nil
}

// LastVersion returns the highest version in the directory, or 0.
func (m *MigrationDir) LastVersion() int {
	if len(m.Migrations) == 0 {
		return 0
	}

	return m.Migrations[len(m.Migrations)-1].Version
}

// Rehash computes a sum file over the current migrations.
func (m *MigrationDir) Rehash() *SumFile {
	sum := NewSumFile()
	for _, mig := range m.Migrations {
		sum.Add(mig.Name, mig.Content)
	}

	return sum
}

// Validate compares the recorded sum file with the migrations on disk and
// returns the names of files that do not match. A directory without a sum
// file is an error.
func (m *MigrationDir) Validate() ([]string, error) {
	if m.SumFile == nil {
		return nil, errors.Errorf("%s not found", consts.SumFile)
	}

	return m.Rehash().Diff(m.SumFile), nil
}

// WriteSumFile writes sum to <dir>/migen.sum.
func WriteSumFile(dir string, sum *SumFile) error {
	path := filepath.Join(dir, consts.SumFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, consts.ModeFile)
	if err != nil {
		return errors.Wrapf(err, "failed to create sum file: %s", path)
	}

	if _, err := sum.WriteTo(f); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to write sum file: %s", path)
	}

	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close sum file: %s", path)
	}

	return nil
}

// Rehash reloads the migrations in dir and rewrites its sum file. It returns
// the new sum file.
func Rehash(dir string) (*SumFile, error) {
	md, err := LoadMigrationDir(os.DirFS(dir))
	if err != nil {
		return nil, err
	}

	sum := md.Rehash()
	if err := WriteSumFile(dir, sum); err != nil {
		return nil, err
	}

	return sum, nil
}

func readSumFile(dir fs.FS, name string) (*SumFile, error) {
	f, err := dir.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open: %s", name)
	}
	defer func() { _ = f.Close() }()

	sum, err := ReadSumFile(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load sum file: %s", name)
	}

	return sum, nil
}

func writeMigration(dir string, version int, description, content string) (string, error) {
	if err := os.MkdirAll(dir, consts.ModeDir); err != nil {
		return "", errors.Wrapf(err, "failed to create migrations directory: %s", dir)
	}

	path := filepath.Join(dir, FileName(version, description))

	// never replace an existing migration
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, consts.ModeFile)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create migration: %s", path)
	}

	if _, err := f.WriteString(content + "\n"); err != nil {
		_ = f.Close()
		return "", errors.Wrapf(err, "failed to write migration: %s", path)
	}

	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "failed to close migration: %s", path)
	}

	return path, nil
}

// lastVersionOnDisk returns the highest migration version in dir, or 0 when
// dir does not exist.
func lastVersionOnDisk(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read migrations directory: %s", dir)
	}

	last := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		if v, _, ok := ParseFileName(e.Name()); ok && v > last {
			last = v
		}
	}

	return last, nil
}
