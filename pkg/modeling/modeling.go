package modeling

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmodel/pkg/command"
	"github.com/matzehuels/flowmodel/pkg/errors"
	"github.com/matzehuels/flowmodel/pkg/eventbus"
	"github.com/matzehuels/flowmodel/pkg/model"
	"github.com/matzehuels/flowmodel/pkg/rules"
)

// Modeling is the editing API. Every verb consults the rules engine and
// then runs one command, so each call is a single undo step.
type Modeling struct {
	env     *env
	factory *model.Factory
	rules   *rules.Engine
	logger  *log.Logger
}

// Options configures [New].
type Options struct {
	Factory *model.Factory
	// Rules is consulted before each verb. Optional; without it every
	// action is allowed.
	Rules  *rules.Engine
	Logger *log.Logger
}

// New creates the modeling API over reg and stack.
func New(bus *eventbus.Bus, stack *command.Stack, reg *model.Registry, opts Options) *Modeling {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Factory == nil {
		opts.Factory = model.NewFactory(model.NewIds())
	}
	return &Modeling{
		env:     &env{reg: reg, stack: stack, bus: bus},
		factory: opts.Factory,
		rules:   opts.Rules,
		logger:  opts.Logger,
	}
}

// RegisterHandlers registers every modeling command with the stack.
func (m *Modeling) RegisterHandlers() error {
	e := m.env
	handlers := map[string]any{
		CmdShapeCreate:        createShapeHandler{e},
		CmdShapeDelete:        deleteShapeHandler{e},
		CmdShapeMove:          moveShapeHandler{e},
		CmdShapeResize:        resizeShapeHandler{e},
		CmdLabelCreate:        createLabelHandler{e},
		CmdConnectionCreate:   createConnectionHandler{e},
		CmdConnectionDelete:   deleteConnectionHandler{e},
		CmdConnectionMove:     moveConnectionHandler{e},
		CmdUpdateWaypoints:    updateWaypointsHandler{e},
		CmdUpdateProperties:   updatePropertiesHandler{e},
		CmdSetColor:           setColorHandler{e},
		CmdElementsMove:       moveElementsHandler{e},
		CmdElementsDelete:     deleteElementsHandler{e},
		CmdElementsCreate:     createElementsHandler{e},
		CmdElementsAlign:      alignElementsHandler{e},
		CmdElementsDistribute: distributeElementsHandler{e},
	}
	for name, h := range handlers {
		if err := e.stack.Register(name, h); err != nil {
			return err
		}
	}
	return nil
}

// Factory returns the element factory used by the verbs.
func (m *Modeling) Factory() *model.Factory { return m.factory }

// check evaluates the rules for action. A deny is a RULE_VIOLATION naming
// the first subject element.
func (m *Modeling) check(action string, query any, subject string) error {
	if m.rules == nil {
		return nil
	}
	v, err := m.rules.Allowed(action, query)
	if err != nil {
		return err
	}
	if v.Allowed() {
		return nil
	}
	m.logger.Debug("rule denied", "action", action, "element", subject)
	return errors.New(errors.ErrCodeRuleViolation, "%s is not allowed", action).
		WithCommand(action).WithElement(subject)
}

func (m *Modeling) exec(name string, ctx any) error {
	return m.env.stack.Execute(name, ctx)
}

// CreateShape adds shape centered on position under parent. A negative
// index appends.
func (m *Modeling) CreateShape(shape *model.Element, position model.Point, parent string, index int) (*model.Element, error) {
	q := &rules.CreateQuery{
		Type:   shape.Type,
		Parent: parent,
		Bounds: model.Rect{
			X:      position.X - shape.Width/2,
			Y:      position.Y - shape.Height/2,
			Width:  shape.Width,
			Height: shape.Height,
		},
	}
	if err := m.check(rules.ActionShapeCreate, q, shape.ID); err != nil {
		return nil, err
	}
	err := m.exec(CmdShapeCreate, &CreateShapeContext{Shape: shape, Position: position, Parent: parent, Index: index})
	if err != nil {
		return nil, err
	}
	return shape, nil
}

// CreateLabel attaches a text label centered on position to target.
func (m *Modeling) CreateLabel(target string, position model.Point, text string) (*model.Element, error) {
	if err := m.check(rules.ActionLabelCreate, &rules.LabelQuery{Target: target}, target); err != nil {
		return nil, err
	}
	t, err := m.env.reg.MustGet(target)
	if err != nil {
		return nil, err
	}
	parent := t.Parent
	if parent == "" {
		parent = t.ID
	}
	label := m.factory.Label("", target, position, text)
	if err := m.exec(CmdLabelCreate, &CreateLabelContext{Label: label, Parent: parent}); err != nil {
		return nil, err
	}
	return label, nil
}

// Connect creates a connection from source to target. A nil conn creates
// a sequence flow; empty waypoints are laid out between the centers.
func (m *Modeling) Connect(source, target string, conn *model.Element) (*model.Element, error) {
	if conn == nil {
		conn = m.factory.Connection("", "", source, target, nil)
	}
	q := &rules.ConnectQuery{Source: source, Target: target, Type: conn.Type}
	if err := m.check(rules.ActionConnect, q, source); err != nil {
		return nil, err
	}
	return m.CreateConnection(source, target, conn)
}

// CreateConnection creates conn without consulting the rules. The
// connection is placed under the closest common parent of its endpoints.
func (m *Modeling) CreateConnection(source, target string, conn *model.Element) (*model.Element, error) {
	src, err := m.env.reg.MustGet(source)
	if err != nil {
		return nil, err
	}
	dst, err := m.env.reg.MustGet(target)
	if err != nil {
		return nil, err
	}
	ctx := &CreateConnectionContext{
		Source:     source,
		Target:     target,
		Connection: conn,
		Parent:     commonParent(m.env.reg, src, dst),
		Index:      -1,
	}
	if err := m.exec(CmdConnectionCreate, ctx); err != nil {
		return nil, err
	}
	return conn, nil
}

// MoveElements moves ids by delta, optionally into newParent.
func (m *Modeling) MoveElements(ids []string, delta model.Point, newParent string) error {
	if len(ids) == 0 {
		return nil
	}
	q := &rules.MoveQuery{Elements: ids, Delta: delta, Parent: newParent}
	if err := m.check(rules.ActionElementsMove, q, ids[0]); err != nil {
		return err
	}
	return m.exec(CmdElementsMove, &MoveElementsContext{IDs: ids, Delta: delta, NewParent: newParent})
}

// MoveShape moves a single shape, re-docking its connections.
func (m *Modeling) MoveShape(id string, delta model.Point, newParent string, index int) error {
	q := &rules.MoveQuery{Elements: []string{id}, Delta: delta, Parent: newParent}
	if err := m.check(rules.ActionElementsMove, q, id); err != nil {
		return err
	}
	return m.exec(CmdShapeMove, &MoveShapeContext{ID: id, Delta: delta, NewParent: newParent, NewIndex: index, Layout: true})
}

// ResizeShape sets new bounds on a shape.
func (m *Modeling) ResizeShape(id string, bounds model.Rect) error {
	if err := m.check(rules.ActionShapeResize, &rules.ResizeQuery{Element: id, Bounds: bounds}, id); err != nil {
		return err
	}
	return m.exec(CmdShapeResize, &ResizeShapeContext{ID: id, Bounds: bounds})
}

// RemoveElements deletes ids with their dependents in one undo step.
func (m *Modeling) RemoveElements(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := m.check(rules.ActionElementsDelete, &rules.ElementsQuery{Elements: ids}, ids[0]); err != nil {
		return err
	}
	return m.exec(CmdElementsDelete, &DeleteElementsContext{IDs: ids})
}

// RemoveShape deletes a shape with its dependents.
func (m *Modeling) RemoveShape(id string) error {
	if err := m.check(rules.ActionElementsDelete, &rules.ElementsQuery{Elements: []string{id}}, id); err != nil {
		return err
	}
	return m.exec(CmdShapeDelete, &DeleteShapeContext{ID: id})
}

// RemoveConnection deletes a connection and its labels.
func (m *Modeling) RemoveConnection(id string) error {
	if err := m.check(rules.ActionElementsDelete, &rules.ElementsQuery{Elements: []string{id}}, id); err != nil {
		return err
	}
	return m.exec(CmdConnectionDelete, &DeleteConnectionContext{ID: id})
}

// UpdateProperties sets properties on an element. A nil value deletes the
// property; the "id" key renames the element.
func (m *Modeling) UpdateProperties(id string, props map[string]any) error {
	if v, ok := props[propID]; ok {
		newID, _ := v.(string)
		if err := errors.ValidateElementID(newID); err != nil {
			return err
		}
	}
	if err := m.check(rules.ActionUpdate, &rules.ElementsQuery{Elements: []string{id}}, id); err != nil {
		return err
	}
	return m.exec(CmdUpdateProperties, &UpdatePropertiesContext{ID: id, Props: props})
}

// SetColor sets fill and stroke on ids.
func (m *Modeling) SetColor(ids []string, color model.Color) error {
	if len(ids) == 0 {
		return nil
	}
	for _, c := range []string{color.Fill, color.Stroke} {
		if err := errors.ValidateColor(c); err != nil {
			return err
		}
	}
	if err := m.check(rules.ActionSetColor, &rules.ElementsQuery{Elements: ids}, ids[0]); err != nil {
		return err
	}
	return m.exec(CmdSetColor, &SetColorContext{IDs: ids, Color: color})
}

// UpdateWaypoints replaces the waypoints of a connection.
func (m *Modeling) UpdateWaypoints(id string, waypoints []model.Point) error {
	if err := m.check(rules.ActionWaypoints, &rules.ElementsQuery{Elements: []string{id}}, id); err != nil {
		return err
	}
	return m.exec(CmdUpdateWaypoints, &UpdateWaypointsContext{ID: id, Waypoints: waypoints})
}

// AlignElements aligns the shapes among ids.
func (m *Modeling) AlignElements(ids []string, alignment Alignment) error {
	if len(ids) == 0 {
		return nil
	}
	switch alignment {
	case AlignLeft, AlignCenter, AlignRight, AlignTop, AlignMiddle, AlignBottom:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown alignment %q", alignment)
	}
	if err := m.check(rules.ActionAlign, &rules.ElementsQuery{Elements: ids}, ids[0]); err != nil {
		return err
	}
	return m.exec(CmdElementsAlign, &AlignElementsContext{IDs: ids, Alignment: alignment})
}

// DistributeElements spaces the shapes among ids evenly along axis.
func (m *Modeling) DistributeElements(ids []string, axis Axis) error {
	if len(ids) == 0 {
		return nil
	}
	if axis != AxisHorizontal && axis != AxisVertical {
		return errors.New(errors.ErrCodeInvalidInput, "unknown axis %q", axis)
	}
	if err := m.check(rules.ActionDistribute, &rules.ElementsQuery{Elements: ids}, ids[0]); err != nil {
		return err
	}
	return m.exec(CmdElementsDistribute, &DistributeElementsContext{IDs: ids, Axis: axis})
}

// PasteElements creates a prepared element tree under parent. The
// elements must carry fresh ids; see [CopyPaste].
func (m *Modeling) PasteElements(tree []*model.Element, parent string) error {
	if len(tree) == 0 {
		return nil
	}
	ids := make([]string, len(tree))
	for i, el := range tree {
		ids[i] = el.ID
	}
	if err := m.check(rules.ActionPaste, &rules.ElementsQuery{Elements: ids, Parent: parent}, parent); err != nil {
		return err
	}
	return m.exec(CmdElementsCreate, &CreateElementsContext{Elements: tree, Parent: parent})
}
