package importer

import (
	"fmt"
	"strings"
)

// Stage is the pipeline step an error came from.
type Stage uint8

const (
	StageParse Stage = iota
	StageMaterial
	StageMesh
	StageScene
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageParse:
		return "parse"
	case StageMaterial:
		return "material"
	case StageMesh:
		return "mesh"
	case StageScene:
		return "scene"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// ImportError describes which stage and which element of a document failed.
// Index and Primitive are -1 when they do not apply.
type ImportError struct {
	Source    string
	Stage     Stage
	Index     int
	Primitive int
	Err       error
}

func (e *ImportError) Error() string {
	var b strings.Builder
	b.WriteString("import")
	if e.Source != "" {
		fmt.Fprintf(&b, " %s", e.Source)
	}
	fmt.Fprintf(&b, ": %s", e.Stage)
	if e.Index >= 0 {
		fmt.Fprintf(&b, " %d", e.Index)
	}
	if e.Primitive >= 0 {
		fmt.Fprintf(&b, " primitive %d", e.Primitive)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *ImportError) Unwrap() error {
	return e.Err
}
