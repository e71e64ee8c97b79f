package model

// Element types of the process diagram domain.
const (
	TypeProcess        = "process"
	TypeStartEvent     = "startEvent"
	TypeEndEvent       = "endEvent"
	TypeTask           = "task"
	TypeGateway        = "exclusiveGateway"
	TypeSubProcess     = "subProcess"
	TypeTextAnnotation = "textAnnotation"
	TypeSequenceFlow   = "sequenceFlow"
	TypeAssociation    = "association"
	TypeLabel          = "label"
)

// Size is a default element size.
type Size struct {
	Width, Height float64
}

// DefaultSizes are the shape sizes used when a create request leaves them unset.
var DefaultSizes = map[string]Size{
	TypeStartEvent:     {Width: 36, Height: 36},
	TypeEndEvent:       {Width: 36, Height: 36},
	TypeTask:           {Width: 100, Height: 80},
	TypeGateway:        {Width: 50, Height: 50},
	TypeSubProcess:     {Width: 350, Height: 200},
	TypeTextAnnotation: {Width: 100, Height: 30},
	TypeLabel:          {Width: 90, Height: 20},
}

// DefaultSize returns the default size for typ, falling back to a task.
func DefaultSize(typ string) Size {
	if s, ok := DefaultSizes[typ]; ok {
		return s
	}
	return DefaultSizes[TypeTask]
}
