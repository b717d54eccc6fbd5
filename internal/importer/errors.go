package importer

import (
	"errors"
	"fmt"
)

// Stage identifies which step of the import pipeline failed. Authorship and
// reference replacement are independently atomic, so a reference-stage
// failure means the authorship update already committed; the stage lets
// callers tell that partial success apart.
type Stage string

const (
	StageFetch      Stage = "fetch"      // Provider call failed; nothing was mutated
	StageCheckpoint Stage = "checkpoint" // Raw metadata could not be persisted
	StageParse      Stage = "parse"      // Stored metadata is undecodable
	StageMetadata   Stage = "metadata"   // Title/date update failed
	StageAuthors    Stage = "authors"    // Authorship replacement rolled back
	StageReferences Stage = "references" // Reference replacement rolled back; authors committed
)

// Error wraps a pipeline failure with the stage it occurred in.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("import %s stage: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StageOf returns the failed stage, or "" for non-import errors.
func StageOf(err error) Stage {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Stage
	}
	return ""
}
