package modeling

import "github.com/matzehuels/flowmodel/pkg/model"

// Command names registered by [Modeling.RegisterHandlers].
const (
	CmdShapeCreate        = "shape.create"
	CmdShapeDelete        = "shape.delete"
	CmdShapeMove          = "shape.move"
	CmdShapeResize        = "shape.resize"
	CmdLabelCreate        = "label.create"
	CmdConnectionCreate   = "connection.create"
	CmdConnectionDelete   = "connection.delete"
	CmdConnectionMove     = "connection.move"
	CmdUpdateWaypoints    = "connection.updateWaypoints"
	CmdUpdateProperties   = "element.updateProperties"
	CmdSetColor           = "element.setColor"
	CmdElementsMove       = "elements.move"
	CmdElementsDelete     = "elements.delete"
	CmdElementsCreate     = "elements.create"
	CmdElementsAlign      = "elements.align"
	CmdElementsDistribute = "elements.distribute"
)

// CreateShapeContext creates Shape centered on Position under Parent.
type CreateShapeContext struct {
	Shape    *model.Element
	Position model.Point
	Parent   string
	Index    int
}

// DeleteShapeContext deletes a shape or label and, in the same
// transaction, its labels, attached connections and children.
type DeleteShapeContext struct {
	ID string

	removals []model.Removal
}

// MoveShapeContext translates a shape by Delta and optionally moves it to
// NewParent. With Layout set, attached connections are re-docked and labels
// follow.
type MoveShapeContext struct {
	ID        string
	Delta     model.Point
	NewParent string
	NewIndex  int
	Layout    bool

	oldParent string
	oldIndex  int
	reparent  bool
}

// ResizeShapeContext sets the bounds of a shape.
type ResizeShapeContext struct {
	ID     string
	Bounds model.Rect

	old model.Rect
}

// CreateLabelContext attaches Label to its target.
type CreateLabelContext struct {
	Label  *model.Element
	Parent string
}

// CreateConnectionContext connects Source to Target. Empty waypoints are
// laid out between the endpoint centers.
type CreateConnectionContext struct {
	Source, Target string
	Connection     *model.Element
	Parent         string
	Index          int
}

// DeleteConnectionContext deletes a connection and its labels.
type DeleteConnectionContext struct {
	ID string

	removals []model.Removal
}

// MoveConnectionContext translates every waypoint of a connection.
type MoveConnectionContext struct {
	ID    string
	Delta model.Point
}

// UpdateWaypointsContext replaces the waypoints of a connection.
type UpdateWaypointsContext struct {
	ID        string
	Waypoints []model.Point

	old []model.Point
}

// UpdatePropertiesContext sets properties. A nil value deletes the
// property. The "id" key renames the element.
type UpdatePropertiesContext struct {
	ID    string
	Props map[string]any

	newID   string
	old     map[string]any
	missing map[string]bool
}

// SetColorContext sets fill and stroke of several elements.
type SetColorContext struct {
	IDs   []string
	Color model.Color

	old map[string]model.Color
}

// MoveElementsContext moves a selection, dragging along children, labels
// and connections.
type MoveElementsContext struct {
	IDs       []string
	Delta     model.Point
	NewParent string
}

// DeleteElementsContext deletes a selection.
type DeleteElementsContext struct {
	IDs []string
}

// CreateElementsContext adds a prepared element tree, typically from the
// clipboard. Elements whose parent is not part of the tree are created
// under Parent.
type CreateElementsContext struct {
	Elements []*model.Element
	Parent   string
}

// Alignment names the edge or axis elements are aligned on.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
	AlignTop    Alignment = "top"
	AlignMiddle Alignment = "middle"
	AlignBottom Alignment = "bottom"
)

// AlignElementsContext aligns shapes.
type AlignElementsContext struct {
	IDs       []string
	Alignment Alignment
}

// Axis names a distribution direction.
type Axis string

const (
	AxisHorizontal Axis = "horizontal"
	AxisVertical   Axis = "vertical"
)

// DistributeElementsContext spaces shapes evenly between the outermost two.
type DistributeElementsContext struct {
	IDs  []string
	Axis Axis
}
