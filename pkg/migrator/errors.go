package migrator

import "github.com/pkg/errors"

// ErrArtifactConflict is returned when a recorded DDL artifact (same kind,
// owner and name) would now render to different content. Changing an emitted
// sequence or element collection in place is not supported.
var ErrArtifactConflict = errors.New("artifact content changed since it was emitted")
