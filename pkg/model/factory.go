package model

// ShapeAttrs are the inputs for [Factory.Shape]. Zero width or height
// falls back to the type's default size.
type ShapeAttrs struct {
	ID             string
	Type           string
	X, Y           float64
	Width, Height  float64
	BusinessObject any
	Props          map[string]any
}

// Factory creates elements with generated ids and default sizes. It never
// registers what it creates.
type Factory struct {
	ids *Ids
}

// NewFactory returns a factory drawing ids from ids.
func NewFactory(ids *Ids) *Factory {
	return &Factory{ids: ids}
}

func (f *Factory) id(given, typ string) string {
	if given != "" {
		return given
	}
	return f.ids.NextFor(typ)
}

// Root creates a root element.
func (f *Factory) Root(id, typ string) *Element {
	if typ == "" {
		typ = TypeProcess
	}
	return &Element{ID: f.id(id, typ), Type: typ, Kind: KindRoot}
}

// Shape creates a shape.
func (f *Factory) Shape(a ShapeAttrs) *Element {
	if a.Type == "" {
		a.Type = TypeTask
	}
	size := DefaultSize(a.Type)
	if a.Width == 0 {
		a.Width = size.Width
	}
	if a.Height == 0 {
		a.Height = size.Height
	}
	return &Element{
		ID:             f.id(a.ID, a.Type),
		Type:           a.Type,
		Kind:           KindShape,
		BusinessObject: a.BusinessObject,
		X:              a.X,
		Y:              a.Y,
		Width:          a.Width,
		Height:         a.Height,
		Props:          a.Props,
	}
}

// Connection creates a connection between source and target.
func (f *Factory) Connection(id, typ, source, target string, waypoints []Point) *Element {
	if typ == "" {
		typ = TypeSequenceFlow
	}
	return &Element{
		ID:        f.id(id, typ),
		Type:      typ,
		Kind:      KindConnection,
		Source:    source,
		Target:    target,
		Waypoints: waypoints,
	}
}

// Label creates a label annotating target, centered on position.
func (f *Factory) Label(id, target string, position Point, text string) *Element {
	size := DefaultSize(TypeLabel)
	el := &Element{
		ID:          f.id(id, TypeLabel),
		Type:        TypeLabel,
		Kind:        KindLabel,
		LabelTarget: target,
		X:           position.X - size.Width/2,
		Y:           position.Y - size.Height/2,
		Width:       size.Width,
		Height:      size.Height,
	}
	if text != "" {
		el.Props = map[string]any{"text": text}
	}
	return el
}
