package editor

import (
	"cmp"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/matzehuels/flowmodel/pkg/command"
	"github.com/matzehuels/flowmodel/pkg/errors"
	"github.com/matzehuels/flowmodel/pkg/injector"
	"github.com/matzehuels/flowmodel/pkg/model"
	"github.com/matzehuels/flowmodel/pkg/modeling"
	"github.com/matzehuels/flowmodel/pkg/selection"
)

// Names of the built-in editor actions.
const (
	ActionUndo               = "undo"
	ActionRedo               = "redo"
	ActionCopy               = "copy"
	ActionPaste              = "paste"
	ActionRemoveSelection    = "removeSelection"
	ActionMoveSelection      = "moveSelection"
	ActionSelectElements     = "selectElements"
	ActionAlignElements      = "alignElements"
	ActionDistributeElements = "distributeElements"
	ActionSetColor           = "setColor"
	ActionFind               = "find"
	ActionMoveToOrigin       = "moveToOrigin"
)

// ActionOptions are the arguments of a triggered action.
type ActionOptions map[string]any

// Float returns a numeric option, or 0.
func (o ActionOptions) Float(key string) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// String returns a string option, or "".
func (o ActionOptions) String(key string) string {
	s, _ := o[key].(string)
	return s
}

// Action is a named editor operation that key bindings, menus and scripts
// can trigger. Disabled, when set, reports whether the action cannot run
// right now and why.
type Action struct {
	Name        string
	Description string
	Disabled    func() (bool, string)
	Run         func(opts ActionOptions) (any, error)
}

// Actions is the ordered registry of editor actions.
type Actions struct {
	order   []string
	actions map[string]Action
}

// NewActions creates an empty action registry.
func NewActions() *Actions {
	return &Actions{actions: make(map[string]Action)}
}

// Register adds an action. Names must be unique.
func (a *Actions) Register(act Action) error {
	if act.Name == "" || act.Run == nil {
		return errors.New(errors.ErrCodeInvalidInput, "action needs a name and a run function")
	}
	if _, ok := a.actions[act.Name]; ok {
		return errors.New(errors.ErrCodeInvalidInput, "action %q already registered", act.Name)
	}
	a.actions[act.Name] = act
	a.order = append(a.order, act.Name)
	return nil
}

// Unregister removes an action.
func (a *Actions) Unregister(name string) {
	if _, ok := a.actions[name]; !ok {
		return
	}
	delete(a.actions, name)
	a.order = slices.DeleteFunc(a.order, func(n string) bool { return n == name })
}

// Names returns the registered action names in registration order.
func (a *Actions) Names() []string { return slices.Clone(a.order) }

// IsRegistered reports whether name is a registered action.
func (a *Actions) IsRegistered(name string) bool {
	_, ok := a.actions[name]
	return ok
}

// Trigger runs the named action.
func (a *Actions) Trigger(name string, opts ActionOptions) (any, error) {
	act, ok := a.actions[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "action %q not registered", name)
	}
	if act.Disabled != nil {
		if disabled, reason := act.Disabled(); disabled {
			if reason == "" {
				reason = "action is disabled"
			}
			return nil, errors.New(errors.ErrCodeUnsupported, "%s: %s", name, reason)
		}
	}
	if opts == nil {
		opts = ActionOptions{}
	}
	return act.Run(opts)
}

// Find returns actions matching query by substring or small edit distance
// on their name or description, best first.
func (a *Actions) Find(query string) []Action {
	q := strings.ToLower(strings.TrimSpace(query))
	type hit struct {
		act  Action
		dist int
	}
	var hits []hit
	for _, name := range a.order {
		act := a.actions[name]
		n := strings.ToLower(act.Name)
		switch {
		case q == "" || strings.Contains(n, q) || strings.Contains(strings.ToLower(act.Description), q):
			hits = append(hits, hit{act, 0})
		default:
			if d := levenshtein.ComputeDistance(q, n); d <= len(q)/3+1 {
				hits = append(hits, hit{act, d})
			}
		}
	}
	slices.SortStableFunc(hits, func(x, y hit) int { return cmp.Compare(x.dist, y.dist) })
	out := make([]Action, len(hits))
	for i, h := range hits {
		out[i] = h.act
	}
	return out
}

func newDefaultActions(in *injector.Injector) (*Actions, error) {
	var (
		stack = injector.MustResolve[*command.Stack](in, ServiceCommandStack)
		m     = injector.MustResolve[*modeling.Modeling](in, ServiceModeling)
		sel   = injector.MustResolve[*selection.Selection](in, ServiceSelection)
		cp    = injector.MustResolve[*modeling.CopyPaste](in, ServiceCopyPaste)
		find  = injector.MustResolve[*Search](in, ServiceSearch)
		reg   = injector.MustResolve[*model.Registry](in, ServiceRegistry)
	)
	noSelection := func() (bool, string) {
		return len(sel.Get()) == 0, "nothing selected"
	}
	rootID := func() string {
		if r, ok := reg.Root(); ok {
			return r.ID
		}
		return ""
	}

	acts := NewActions()
	for _, act := range []Action{
		{
			Name:        ActionUndo,
			Description: "Undo the last change",
			Disabled:    func() (bool, string) { return !stack.CanUndo(), "nothing to undo" },
			Run:         func(ActionOptions) (any, error) { return nil, stack.Undo() },
		},
		{
			Name:        ActionRedo,
			Description: "Redo the last undone change",
			Disabled:    func() (bool, string) { return !stack.CanRedo(), "nothing to redo" },
			Run:         func(ActionOptions) (any, error) { return nil, stack.Redo() },
		},
		{
			Name:        ActionCopy,
			Description: "Copy the selection",
			Disabled:    noSelection,
			Run: func(ActionOptions) (any, error) {
				return cp.Copy(sel.Get()), nil
			},
		},
		{
			Name:        ActionPaste,
			Description: "Paste the clipboard (dx, dy, parent)",
			Disabled:    func() (bool, string) { return cp.Empty(), "clipboard is empty" },
			Run: func(o ActionOptions) (any, error) {
				parent := o.String("parent")
				if parent == "" {
					parent = rootID()
				}
				els, err := cp.Paste(model.Point{X: o.Float("dx"), Y: o.Float("dy")}, parent)
				if err != nil {
					return nil, err
				}
				ids := make([]string, len(els))
				for i, el := range els {
					ids[i] = el.ID
				}
				return els, sel.Select(ids, false)
			},
		},
		{
			Name:        ActionRemoveSelection,
			Description: "Delete the selected elements",
			Disabled:    noSelection,
			Run: func(ActionOptions) (any, error) {
				return nil, m.RemoveElements(sel.Get())
			},
		},
		{
			Name:        ActionMoveSelection,
			Description: "Move the selection (dx, dy)",
			Disabled:    noSelection,
			Run: func(o ActionOptions) (any, error) {
				return nil, m.MoveElements(sel.Get(), model.Point{X: o.Float("dx"), Y: o.Float("dy")}, "")
			},
		},
		{
			Name:        ActionSelectElements,
			Description: "Select all elements",
			Run: func(ActionOptions) (any, error) {
				var ids []string
				for el := range reg.All() {
					if el.Kind != model.KindRoot {
						ids = append(ids, el.ID)
					}
				}
				return ids, sel.Select(ids, false)
			},
		},
		{
			Name:        ActionAlignElements,
			Description: "Align the selection (type: left, center, right, top, middle, bottom)",
			Disabled:    noSelection,
			Run: func(o ActionOptions) (any, error) {
				return nil, m.AlignElements(sel.Get(), modeling.Alignment(o.String("type")))
			},
		},
		{
			Name:        ActionDistributeElements,
			Description: "Distribute the selection evenly (axis: horizontal, vertical)",
			Disabled:    noSelection,
			Run: func(o ActionOptions) (any, error) {
				axis := modeling.Axis(o.String("axis"))
				if axis == "" {
					axis = modeling.AxisHorizontal
				}
				return nil, m.DistributeElements(sel.Get(), axis)
			},
		},
		{
			Name:        ActionSetColor,
			Description: "Color the selection (fill, stroke)",
			Disabled:    noSelection,
			Run: func(o ActionOptions) (any, error) {
				return nil, m.SetColor(sel.Get(), model.Color{Fill: o.String("fill"), Stroke: o.String("stroke")})
			},
		},
		{
			Name:        ActionFind,
			Description: "Find elements by id or name (query) and select them",
			Run: func(o ActionOptions) (any, error) {
				matches := find.Find(o.String("query"))
				ids := make([]string, len(matches))
				for i, match := range matches {
					ids[i] = match.Element.ID
				}
				return matches, sel.Select(ids, false)
			},
		},
		{
			Name:        ActionMoveToOrigin,
			Description: "Move the diagram so that it starts at the origin",
			Run: func(ActionOptions) (any, error) {
				root, ok := reg.Root()
				if !ok || len(root.Children) == 0 {
					return nil, nil
				}
				var (
					bounds model.Rect
					ids    []string
				)
				for _, id := range root.Children {
					el, _ := reg.Get(id)
					if el.Kind != model.KindShape {
						continue
					}
					if len(ids) == 0 {
						bounds = el.Bounds()
					} else {
						bounds = bounds.Union(el.Bounds())
					}
					ids = append(ids, id)
				}
				if len(ids) == 0 || (bounds.X == 0 && bounds.Y == 0) {
					return nil, nil
				}
				return nil, m.MoveElements(ids, model.Point{X: -bounds.X, Y: -bounds.Y}, "")
			},
		},
	} {
		if err := acts.Register(act); err != nil {
			return nil, err
		}
	}
	return acts, nil
}
