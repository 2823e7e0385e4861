package migrator

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pseudomuto/migen/pkg/compare"
	"github.com/pseudomuto/migen/pkg/entity"
	"github.com/pseudomuto/migen/pkg/manifest"
	"github.com/pseudomuto/migen/pkg/render"
	"github.com/pseudomuto/migen/pkg/schema"
)

// State is the terminal state of a call to Run.
type State int

const (
	// Disabled means migration generation is turned off.
	Disabled State = iota

	// AlreadyRun means the session already ran; nothing was done.
	AlreadyRun

	// Completed means the pipeline ran and the manifest was saved.
	Completed
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case AlreadyRun:
		return "already-run"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

type (
	// SynthesizerParams are the collaborators of a Synthesizer. Store and
	// Renderer are required, the others have defaults.
	SynthesizerParams struct {
		Enabled  bool
		Baseline int

		Store    manifest.Store
		Renderer render.Renderer
		Resolver schema.Resolver
		Contexts schema.ContextBuilder
		Differ   schema.Differ
		Logger   *slog.Logger
	}

	// Result describes what a call to Run did.
	Result struct {
		State State

		// Files are the paths of the migrations written, in version order.
		Files []string

		// LastVersion is the persisted last version after the run.
		LastVersion int
	}

	// Synthesizer computes and writes the migrations needed to bring the
	// schema recorded in the manifest up to date with a set of entities.
	//
	// A Synthesizer represents one generation session: the first call to Run
	// does all the work for every entity and later calls return AlreadyRun.
	// Create a new Synthesizer for every session.
	Synthesizer struct {
		params SynthesizerParams
		log    *slog.Logger
		ran    bool
	}

	// session holds the state of a single pipeline run.
	session struct {
		*Synthesizer

		model     *schema.Model
		builder   *manifest.Builder
		versions  *VersionAllocator
		outputDir string
		scripts   []script

		// column diffs of existing tables, applied in the second pass
		pending map[string]pendingAlter
	}

	pendingAlter struct {
		diff    *schema.DiffResult
		columns []manifest.ColumnState
	}

	// script is a rendered migration waiting to be flushed.
	script struct {
		version     int
		description string
		content     string
	}
)

// NewSynthesizer returns a Synthesizer for a new session.
func NewSynthesizer(p SynthesizerParams) (*Synthesizer, error) {
	if p.Store == nil {
		return nil, errors.New("synthesizer requires a manifest store")
	}
	if p.Renderer == nil {
		return nil, errors.New("synthesizer requires a renderer")
	}

	if p.Resolver == nil {
		p.Resolver = schema.NewResolver()
	}
	if p.Contexts == nil {
		p.Contexts = schema.NewContextBuilder()
	}
	if p.Differ == nil {
		p.Differ = schema.NewDiffer()
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}

	return &Synthesizer{params: p, log: p.Logger}, nil
}

// Run synthesizes the migrations for entities into outputDir.
//
// The pipeline runs once per Synthesizer. It loads the manifest, resolves
// reverse relations across all entities and then processes entities in the
// given order in two passes:
//
//  1. sequences and table generators, create table scripts (or column diffs
//     for known tables) and element collection tables
//  2. join tables and alter scripts (column changes and new foreign keys)
//
// Versions are allocated in that order, so the join tables and alter scripts
// of the first entity are numbered after the creates of the last one. This
// guarantees every referenced table exists before a constraint points at it.
//
// Versions continue from the manifest's last version, or from the highest
// version already in outputDir when that is greater. Scripts are rendered in
// memory and only written once every entity has been processed. On error no
// file is left behind and the manifest is not saved.
func (s *Synthesizer) Run(ctx context.Context, entities []*entity.Entity, outputDir string) (*Result, error) {
	if !s.params.Enabled {
		s.log.Debug("migration generation disabled")
		return &Result{State: Disabled}, nil
	}

	if s.ran {
		return &Result{State: AlreadyRun}, nil
	}
	s.ran = true

	state, err := s.params.Store.Load()
	if err != nil {
		s.log.Warn("starting from an empty manifest", "err", err)
	}
	if state == nil {
		state = manifest.Empty(s.params.Baseline)
	}

	reverse, err := s.params.Resolver.Resolve(entities)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve relations")
	}

	start, err := lastVersionOnDisk(outputDir)
	if err != nil {
		return nil, err
	}
	if start > state.LastVersion {
		s.log.Warn("migrations directory is ahead of the manifest", "lastVersion", state.LastVersion, "onDisk", start)
	} else {
		start = state.LastVersion
	}

	sess := &session{
		Synthesizer: s,
		model:       schema.NewModel(entities, reverse),
		builder:     manifest.NewBuilder(state),
		versions:    NewVersionAllocator(start),
		outputDir:   outputDir,
		pending:     make(map[string]pendingAlter),
	}

	s.log.Info("synthesizing migrations", "entities", len(entities), "lastVersion", state.LastVersion)
	if err := sess.run(ctx); err != nil {
		return nil, err
	}

	final, err := sess.builder.Build()
	if err != nil {
		return nil, err
	}

	final.LastVersion = sess.versions.Current()
	final.Session = uuid.NewString()
	final.UpdatedAt = time.Now().UTC()

	files, err := sess.flush()
	if err != nil {
		return nil, err
	}

	if err := s.params.Store.Save(final); err != nil {
		removeAll(files)
		return nil, errors.Wrap(err, "failed to save manifest")
	}

	s.log.Info("migrations synthesized", "files", len(files), "lastVersion", final.LastVersion)
	return &Result{
		State:       Completed,
		Files:       files,
		LastVersion: final.LastVersion,
	}, nil
}

func (s *session) run(ctx context.Context) error {
	tables := s.tableEntities()

	for _, e := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.idGenerator(e); err != nil {
			return errors.Wrapf(err, "entity %s", e.Name)
		}
		if err := s.table(e); err != nil {
			return errors.Wrapf(err, "entity %s", e.Name)
		}
		if err := s.elementCollections(e); err != nil {
			return errors.Wrapf(err, "entity %s", e.Name)
		}
	}

	for _, e := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.joinTables(e); err != nil {
			return errors.Wrapf(err, "entity %s", e.Name)
		}
		if err := s.alterTable(e); err != nil {
			return errors.Wrapf(err, "entity %s", e.Name)
		}
	}

	return nil
}

func (s *session) tableEntities() []*entity.Entity {
	var out []*entity.Entity
	for _, e := range s.model.Entities {
		if !e.Embeddable {
			out = append(out, e)
		}
	}

	return out
}

// idGenerator emits the sequence or table generator backing the identifier.
func (s *session) idGenerator(e *entity.Entity) error {
	table := e.TableName()

	switch {
	case e.UsesSequence():
		ctx, err := s.params.Contexts.Sequence(e)
		if err != nil {
			return err
		}
		return s.artifact(manifest.KindSequence, table, ctx.Name, render.Sequence, ctx, "create_"+table+"_sequence")
	case e.UsesTableGenerator():
		ctx, err := s.params.Contexts.TableGenerator(e)
		if err != nil {
			return err
		}
		return s.artifact(manifest.KindTableGenerator, table, ctx.Name, render.TableGenerator, ctx, "create_"+table+"_table_generator")
	default:
		return nil
	}
}

func (s *session) artifact(kind manifest.ArtifactKind, owner, name, templateID string, data any, description string) error {
	content, err := s.render(templateID, data)
	if err != nil {
		return err
	}

	if done, err := s.recorded(kind, owner, name, content); err != nil || done {
		return err
	}

	if err := s.write(description, content); err != nil {
		return err
	}

	return s.builder.ApplyCreate(owner, name, manifest.Creation{Kind: kind, Content: content})
}

// recorded reports whether an identical artifact exists. An artifact with the
// same identity but different content is an ErrArtifactConflict.
func (s *session) recorded(kind manifest.ArtifactKind, owner, name, content string) (bool, error) {
	if s.builder.HasArtifact(kind, owner, name, content) {
		s.log.Debug("artifact already emitted", "kind", kind, "owner", owner, "name", name)
		return true, nil
	}

	if s.builder.FindArtifact(kind, owner, name) != nil {
		return false, errors.Wrapf(ErrArtifactConflict, "%s %s", kind, name)
	}

	return false, nil
}

// table emits the create table script of a new table, or records the column
// diff of a known one for the second pass.
func (s *session) table(e *entity.Entity) error {
	table := e.TableName()

	if existing := s.builder.Entity(table); existing != nil {
		desired, err := s.params.Contexts.DesiredColumns(s.model, e)
		if err != nil {
			return err
		}

		diff := s.params.Differ.Diff(existing, desired)
		if diff.IsEmpty() {
			s.log.Debug("table unchanged", "table", table)
			return nil
		}

		s.pending[table] = pendingAlter{diff: diff, columns: desired}
		return nil
	}

	ctx, err := s.params.Contexts.CreateTable(s.model, e)
	if err != nil {
		return err
	}

	content, err := s.render(render.CreateTable, ctx)
	if err != nil {
		return err
	}

	if err := s.write("create_"+table+"_table", content); err != nil {
		return err
	}

	return s.builder.ApplyCreate(table, table, manifest.Creation{
		Kind:    manifest.KindTable,
		Columns: ctx.ColumnStates(),
		Content: content,
	})
}

// elementCollections emits one script holding every new collection table of
// the entity.
func (s *session) elementCollections(e *entity.Entity) error {
	tables, err := s.params.Contexts.ElementCollections(e)
	if err != nil {
		return err
	}

	type created struct {
		ctx     *schema.TableContext
		content string
	}

	owner := e.TableName()
	var fresh []created
	for _, t := range tables {
		content, err := s.render(render.ElementCollection, t)
		if err != nil {
			return err
		}

		done, err := s.recorded(manifest.KindElementCollection, owner, t.Table, content)
		if err != nil {
			return err
		}
		if done || s.builder.HasEntity(t.Table) {
			continue
		}

		fresh = append(fresh, created{ctx: t, content: content})
	}

	if len(fresh) == 0 {
		return nil
	}

	contents := make([]string, len(fresh))
	for i, c := range fresh {
		contents[i] = c.content
	}

	if err := s.write("create_"+owner+"_element_collections", strings.Join(contents, "\n\n")); err != nil {
		return err
	}

	for _, c := range fresh {
		if err := s.builder.ApplyCreate(owner, c.ctx.Table, manifest.Creation{
			Kind:        manifest.KindElementCollection,
			Columns:     c.ctx.ColumnStates(),
			ForeignKeys: c.ctx.ForeignKeyStates(),
			Content:     c.content,
		}); err != nil {
			return err
		}
	}

	return nil
}

// joinTables emits the join tables of the entity that no entity recorded yet.
func (s *session) joinTables(e *entity.Entity) error {
	joins, err := s.params.Contexts.JoinTables(s.model, e)
	if err != nil {
		return err
	}

	owner := e.TableName()
	for _, j := range joins {
		if s.builder.HasJoin(j.Table) {
			s.log.Debug("join table already emitted", "table", j.Table)
			continue
		}

		content, err := s.render(render.JoinTable, j)
		if err != nil {
			return err
		}

		if err := s.write("create_"+j.Table, content); err != nil {
			return err
		}

		if err := s.builder.ApplyCreate(owner, j.Table, manifest.Creation{
			Kind:    manifest.KindJoinTable,
			Content: content,
		}); err != nil {
			return err
		}
	}

	return nil
}

// alterTable emits the column changes and new foreign keys of the entity's
// table as one script.
func (s *session) alterTable(e *entity.Entity) error {
	table := e.TableName()

	desired, err := s.params.Contexts.DesiredForeignKeys(s.model, e)
	if err != nil {
		return err
	}

	var recorded []manifest.FkState
	if existing := s.builder.Entity(table); existing != nil {
		recorded = existing.ForeignKeys
	}

	fks := compare.Subtract(desired, recorded)
	pending := s.pending[table]

	ctx := s.params.Contexts.AlterTable(table, pending.diff, fks)
	if ctx.IsEmpty() {
		return nil
	}

	templateID := render.AddForeignKeys
	if ctx.HasColumnChanges() {
		templateID = render.AlterTable
	}

	content, err := s.render(templateID, ctx)
	if err != nil {
		return err
	}

	if err := s.write("alter_table_"+table, content); err != nil {
		return err
	}

	return s.builder.ApplyAlter(table, pending.columns, fks)
}

func (s *session) render(templateID string, data any) (string, error) {
	content, err := s.params.Renderer.Render(templateID, data)
	if err != nil {
		return "", errors.Wrapf(err, "failed to render %s", templateID)
	}

	return content, nil
}

// write allocates the next version and queues the migration.
func (s *session) write(description, content string) error {
	version := s.versions.Next()
	s.scripts = append(s.scripts, script{version: version, description: description, content: content})
	s.log.Debug("rendered migration", "version", version, "description", description)
	return nil
}

// flush writes the queued migrations in version order. When one fails, the
// files already written are removed.
func (s *session) flush() ([]string, error) {
	files := make([]string, 0, len(s.scripts))
	for _, sc := range s.scripts {
		path, err := writeMigration(s.outputDir, sc.version, sc.description, sc.content)
		if err != nil {
			removeAll(files)
			return nil, err
		}

		files = append(files, path)
		s.log.Info("wrote migration", "version", sc.version, "file", path)
	}

	return files, nil
}

func removeAll(files []string) {
	for _, f := range files {
		_ = os.Remove(f)
	}
}
