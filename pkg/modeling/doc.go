// Package modeling implements the editing verbs of a diagram on top of the
// command stack.
//
// Each verb checks the rules engine, then executes one command. Composite
// commands such as elements.move or shape.delete do their work through
// nested commands issued from their pre-execute hook, so the whole change
// lands in one transaction and is undone in one step:
//
//	m := modeling.New(bus, stack, reg, modeling.Options{Rules: engine})
//	if err := m.RegisterHandlers(); err != nil {
//		return err
//	}
//	a, _ := m.CreateShape(factory.Shape(model.ShapeAttrs{Type: model.TypeTask}), model.Point{X: 150, Y: 40}, "Process_1", -1)
//	b, _ := m.CreateShape(factory.Shape(model.ShapeAttrs{Type: model.TypeTask}), model.Point{X: 350, Y: 40}, "Process_1", -1)
//	_, _ = m.Connect(a.ID, b.ID, nil)
//	_ = m.MoveElements([]string{a.ID}, model.Point{X: 50}, "")
//
// Connections are docked at the centers of their endpoints. Moving or
// resizing an endpoint moves the matching end waypoint and keeps bendpoints.
//
// Handlers only mutate the registry from their Execute and Revert hooks and
// announce additions and removals with the shape.added, shape.removed,
// connection.added and connection.removed events.
package modeling
