// Package journeyctx maps workflow variables, session state and execution
// context into journey context, with dependency-ordered dynamic-variable
// resolution and edge-mirroring context inheritance.
package journeyctx

import "errors"

var (
	// ErrCircularVariableDependency is fatal: dynamic variables must form a
	// DAG, unlike structural loops which are a legitimate pattern.
	ErrCircularVariableDependency = errors.New("circular dynamic variable dependency")

	// ErrInheritanceCycle is fatal: the context inheritance hierarchy must
	// be a DAG.
	ErrInheritanceCycle = errors.New("context inheritance cycle")
)
