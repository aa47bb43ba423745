package coord

import (
	"errors"
	"fmt"
)

var (
	// ErrDeletionBlocked is returned when a coordinate still has dependents.
	ErrDeletionBlocked = errors.New("coordinate has dependents")

	// ErrGeometryAttached is returned when a coordinate is still referenced
	// by geometry and deletion was requested directly.
	ErrGeometryAttached = errors.New("coordinate has attached geometry")

	// ErrOriginImmutable is returned when deleting or rewiring an origin.
	ErrOriginImmutable = errors.New("origin coordinate cannot be removed")

	// ErrDeleted is returned for operations on an already deleted coordinate.
	ErrDeleted = errors.New("coordinate already deleted")

	// ErrAxisLookupMiss is returned when no axis contains a coordinate.
	ErrAxisLookupMiss = errors.New("coordinate not found on any axis")

	// ErrWrongAxis is returned when a coordinate is used in a slot belonging
	// to a different axis.
	ErrWrongAxis = errors.New("coordinate belongs to another axis")

	// ErrParentsWired is returned when parents are set a second time.
	ErrParentsWired = errors.New("coordinate parents already set")

	// ErrDraftParent is returned when persisting a committed coordinate whose
	// parent is still a draft.
	ErrDraftParent = errors.New("committed coordinate depends on a draft")
)

// ReferenceKind names what a persisted record failed to resolve.
type ReferenceKind string

const (
	RefParent    ReferenceKind = "parent"
	RefParameter ReferenceKind = "parameter"
	// RefCoordinate is a geometry record pointing at a coordinate.
	RefCoordinate ReferenceKind = "coordinate"
)

// DanglingReferenceError reports a persisted id that could not be resolved
// while reconstructing a coordinate graph. It aborts the load.
type DanglingReferenceError struct {
	Axis      AxisID
	RecordID  string // the record holding the reference
	Kind      ReferenceKind
	MissingID string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("axis %s: record %s references missing %s %s",
		e.Axis, e.RecordID, e.Kind, e.MissingID)
}

// CorruptGraphError reports a structurally invalid persisted graph that is
// not a missing reference, such as duplicate ids or a parent cycle.
type CorruptGraphError struct {
	Axis    AxisID
	ID      string
	Message string
}

func (e *CorruptGraphError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("axis %s: %s", e.Axis, e.Message)
	}
	return fmt.Sprintf("axis %s: coordinate %s: %s", e.Axis, e.ID, e.Message)
}
