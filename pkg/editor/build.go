package editor

import (
	"fmt"

	"github.com/matzehuels/flowmodel/pkg/errors"
	fio "github.com/matzehuels/flowmodel/pkg/io"
	"github.com/matzehuels/flowmodel/pkg/model"
)

// build assembles the elements of dg in a scratch registry so that a broken
// diagram never touches the live one. Elements that cannot be placed are
// skipped and reported as warnings.
func build(dg *fio.Diagram) (*model.Registry, []string, error) {
	reg := model.NewRegistry()
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	var roots, shapes, conns, labels []*model.Element
	for _, e := range dg.Elements {
		el, ok := e.ToElement()
		if !ok {
			warn("element %q: unknown kind %q", e.ID, e.Kind)
			continue
		}
		if err := errors.ValidateElementID(el.ID); err != nil {
			warn("element %q: %s", e.ID, errors.UserMessage(err))
			continue
		}
		switch el.Kind {
		case model.KindRoot:
			roots = append(roots, el)
		case model.KindShape:
			shapes = append(shapes, el)
		case model.KindConnection:
			conns = append(conns, el)
		case model.KindLabel:
			labels = append(labels, el)
		}
	}
	if len(roots) == 0 {
		return nil, nil, errors.New(errors.ErrCodeImportFailed, "no diagram to display")
	}
	if err := reg.Add(roots[0], "", -1); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeImportFailed, err, "root %q", roots[0].ID)
	}
	root := roots[0].ID
	for _, r := range roots[1:] {
		warn("element %q: second root ignored", r.ID)
	}

	add := func(el *model.Element) {
		parent := el.Parent
		if parent == "" {
			parent = root
		}
		if err := reg.Add(el, parent, -1); err != nil {
			warn("element %q: %s", el.ID, errors.UserMessage(err))
		}
	}

	// Shapes may reference parents declared later; add them in passes until
	// no more progress is made.
	pending := shapes
	for len(pending) > 0 {
		var next []*model.Element
		for _, el := range pending {
			if el.Parent != "" {
				if _, ok := reg.Get(el.Parent); !ok {
					next = append(next, el)
					continue
				}
			}
			add(el)
		}
		if len(next) == len(pending) {
			for _, el := range next {
				warn("element %q: parent %q not found", el.ID, el.Parent)
			}
			break
		}
		pending = next
	}
	for _, el := range conns {
		add(el)
	}
	for _, el := range labels {
		add(el)
	}
	return reg, warnings, nil
}
