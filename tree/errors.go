package tree

import "fmt"

// UnsupportedError reports a construct outside the subset the pipeline lowers.
type UnsupportedError struct {
	Kind string
	Pos  Position
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: unsupported construct: %s", e.Pos, e.Kind)
}

// AssignTargetError reports an assignment whose left-hand side is not a
// plain variable.
type AssignTargetError struct {
	Pos Position
}

func (e *AssignTargetError) Error() string {
	return fmt.Sprintf("%s: assignment target must be a variable", e.Pos)
}
