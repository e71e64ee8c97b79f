// Package script applies TOML edit scripts to an editor.
//
// A script is a list of steps, each naming one modeling operation:
//
//	name = "add review"
//
//	[[step]]
//	op = "createShape"
//	id = "Task_Review"
//	type = "task"
//	x = 350
//	y = 120
//
//	[[step]]
//	op = "connect"
//	source = "StartEvent_1"
//	target = "Task_Review"
//
//	[[step]]
//	op = "move"
//	ids = ["Task_Review"]
//	dx = 40
//
// Every step is one undo step. With [Options.Atomic] a failing step undoes
// the steps applied before it.
package script

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowmodel/pkg/command"
	"github.com/matzehuels/flowmodel/pkg/editor"
	"github.com/matzehuels/flowmodel/pkg/errors"
	"github.com/matzehuels/flowmodel/pkg/model"
	"github.com/matzehuels/flowmodel/pkg/modeling"
)

// Operation names.
const (
	OpCreateShape = "createShape"
	OpCreateLabel = "createLabel"
	OpConnect     = "connect"
	OpMove        = "move"
	OpResize      = "resize"
	OpRemove      = "remove"
	OpUpdate      = "update"
	OpColor       = "color"
	OpWaypoints   = "waypoints"
	OpAlign       = "align"
	OpDistribute  = "distribute"
	OpUndo        = "undo"
	OpRedo        = "redo"
	OpAction      = "action"
)

// Script is a named list of steps.
type Script struct {
	Name  string `toml:"name"`
	Steps []Step `toml:"step"`
}

// Step is one operation. Only the fields of its Op are read.
type Step struct {
	Op string `toml:"op"`

	ID     string  `toml:"id"`
	Type   string  `toml:"type"`
	Name   string  `toml:"name"`
	Parent string  `toml:"parent"`
	X      float64 `toml:"x"`
	Y      float64 `toml:"y"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`

	Source string `toml:"source"`
	Target string `toml:"target"`
	Text   string `toml:"text"`

	IDs []string `toml:"ids"`
	DX  float64  `toml:"dx"`
	DY  float64  `toml:"dy"`

	Props     map[string]any `toml:"props"`
	Fill      string         `toml:"fill"`
	Stroke    string         `toml:"stroke"`
	Waypoints [][2]float64   `toml:"waypoints"`
	Alignment string         `toml:"alignment"`
	Axis      string         `toml:"axis"`

	Action  string         `toml:"action"`
	Options map[string]any `toml:"options"`
}

// Parse decodes a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse script")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown script key %q", undecoded[0].String())
	}
	for i, st := range s.Steps {
		if st.Op == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "step %d: missing op", i+1)
		}
	}
	return &s, nil
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Options configures [Apply].
type Options struct {
	// Atomic undoes the applied steps when a step fails.
	Atomic bool
}

// Result reports what [Apply] did.
type Result struct {
	Applied int
	// Created lists the ids of elements created by the script.
	Created []string
}

// StepError is returned when a step fails.
type StepError struct {
	Index int
	Op    string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.Op, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Apply runs the steps of s against ed in order.
func Apply(ed *editor.Editor, s *Script, opts Options) (Result, error) {
	var res Result
	start := position(ed.Stack())
	for i, st := range s.Steps {
		created, err := apply(ed, st)
		if err != nil {
			if opts.Atomic {
				rewind(ed.Stack(), start)
				res.Created = nil
			}
			return res, &StepError{Index: i, Op: st.Op, Err: err}
		}
		res.Applied++
		res.Created = append(res.Created, created...)
	}
	return res, nil
}

// position returns the number of history entries that are not undone.
func position(stack *command.Stack) int {
	n := 0
	for _, e := range stack.Entries() {
		if !e.Undone {
			n++
		}
	}
	return n
}

// rewind undoes or redoes until the history is back at pos.
func rewind(stack *command.Stack, pos int) {
	for p := position(stack); p != pos; p = position(stack) {
		var err error
		if p > pos {
			err = stack.Undo()
		} else {
			err = stack.Redo()
		}
		if err != nil {
			return
		}
	}
}

// apply runs one step and returns the ids of the elements it created.
func apply(ed *editor.Editor, st Step) ([]string, error) {
	m := ed.Modeling()
	f := m.Factory()
	parent := st.Parent
	if parent == "" && ed.Diagram() != "" {
		parent = ed.Diagram()
	}

	switch st.Op {
	case OpCreateShape:
		shape := f.Shape(model.ShapeAttrs{ID: st.ID, Type: st.Type, Width: st.Width, Height: st.Height, Props: nameProps(st)})
		el, err := m.CreateShape(shape, model.Point{X: st.X, Y: st.Y}, parent, -1)
		if err != nil {
			return nil, err
		}
		return []string{el.ID}, nil

	case OpCreateLabel:
		el, err := m.CreateLabel(st.Target, model.Point{X: st.X, Y: st.Y}, st.Text)
		if err != nil {
			return nil, err
		}
		return []string{el.ID}, nil

	case OpConnect:
		var conn *model.Element
		if st.ID != "" || st.Type != "" {
			conn = f.Connection(st.ID, st.Type, st.Source, st.Target, nil)
		}
		el, err := m.Connect(st.Source, st.Target, conn)
		if err != nil {
			return nil, err
		}
		return []string{el.ID}, nil

	case OpMove:
		return nil, m.MoveElements(st.IDs, model.Point{X: st.DX, Y: st.DY}, st.Parent)

	case OpResize:
		return nil, m.ResizeShape(st.ID, model.Rect{X: st.X, Y: st.Y, Width: st.Width, Height: st.Height})

	case OpRemove:
		return nil, m.RemoveElements(st.IDs)

	case OpUpdate:
		return nil, m.UpdateProperties(st.ID, nameProps(st))

	case OpColor:
		return nil, m.SetColor(st.IDs, model.Color{Fill: st.Fill, Stroke: st.Stroke})

	case OpWaypoints:
		wps := make([]model.Point, len(st.Waypoints))
		for i, p := range st.Waypoints {
			wps[i] = model.Point{X: p[0], Y: p[1]}
		}
		return nil, m.UpdateWaypoints(st.ID, wps)

	case OpAlign:
		return nil, m.AlignElements(st.IDs, modeling.Alignment(st.Alignment))

	case OpDistribute:
		axis := modeling.Axis(st.Axis)
		if axis == "" {
			axis = modeling.AxisHorizontal
		}
		return nil, m.DistributeElements(st.IDs, axis)

	case OpUndo:
		return nil, ed.Stack().Undo()

	case OpRedo:
		return nil, ed.Stack().Redo()

	case OpAction:
		acts, err := editor.Service[*editor.Actions](ed, editor.ServiceEditorActions)
		if err != nil {
			return nil, err
		}
		_, err = acts.Trigger(st.Action, editor.ActionOptions(st.Options))
		return nil, err

	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown op %q", st.Op)
	}
}

// nameProps merges the name shorthand into the step's properties.
func nameProps(st Step) map[string]any {
	if st.Name == "" {
		return st.Props
	}
	props := make(map[string]any, len(st.Props)+1)
	for k, v := range st.Props {
		props[k] = v
	}
	props["name"] = st.Name
	return props
}
