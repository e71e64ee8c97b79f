package modeling

import (
	"github.com/matzehuels/flowmodel/pkg/errors"
	"github.com/matzehuels/flowmodel/pkg/model"
)

// CopyPaste keeps a clipboard of element trees and pastes them through
// [Modeling.PasteElements].
type CopyPaste struct {
	modeling  *Modeling
	ids       *model.Ids
	clipboard []*model.Element
}

// NewCopyPaste creates a clipboard pasting through m with ids drawn from ids.
func NewCopyPaste(m *Modeling, ids *model.Ids) *CopyPaste {
	return &CopyPaste{modeling: m, ids: ids}
}

// Copy puts ids, their descendants and labels, and the connections between
// copied elements on the clipboard. It returns the number of elements
// copied.
func (cp *CopyPaste) Copy(ids []string) int {
	reg := cp.modeling.env.reg
	tree := closure(reg, ids)
	in := make(map[string]bool, len(tree))
	for _, id := range tree {
		in[id] = true
	}
	for _, id := range tree {
		el, _ := reg.Get(id)
		for _, l := range el.Labels {
			if !in[l] {
				in[l] = true
				tree = append(tree, l)
			}
		}
	}

	var out []*model.Element
	for _, id := range tree {
		el, _ := reg.Get(id)
		if el.Kind == model.KindRoot {
			continue
		}
		if el.Kind == model.KindConnection && (!in[el.Source] || !in[el.Target]) {
			continue
		}
		if el.Kind == model.KindLabel && !in[el.LabelTarget] {
			continue
		}
		out = append(out, el.Clone())
	}
	// Drop labels of connections left out above.
	kept := make(map[string]bool, len(out))
	for _, el := range out {
		kept[el.ID] = true
	}
	cp.clipboard = out[:0]
	for _, el := range out {
		if el.Kind == model.KindLabel && !kept[el.LabelTarget] {
			continue
		}
		cp.clipboard = append(cp.clipboard, el)
	}
	return len(cp.clipboard)
}

// Empty reports whether the clipboard holds nothing.
func (cp *CopyPaste) Empty() bool { return len(cp.clipboard) == 0 }

// Paste creates a copy of the clipboard under parent, translated by delta
// and with fresh ids. The clipboard is kept for further pastes.
func (cp *CopyPaste) Paste(delta model.Point, parent string) ([]*model.Element, error) {
	if cp.Empty() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "clipboard is empty")
	}
	fresh := make(map[string]string, len(cp.clipboard))
	for _, el := range cp.clipboard {
		fresh[el.ID] = cp.ids.NextFor(el.Type)
	}
	remap := func(id string) string {
		if n, ok := fresh[id]; ok {
			return n
		}
		return id
	}

	tree := make([]*model.Element, len(cp.clipboard))
	for i, src := range cp.clipboard {
		el := src.Clone()
		el.ID = fresh[src.ID]
		el.Parent = remap(src.Parent)
		el.Source = remap(src.Source)
		el.Target = remap(src.Target)
		el.LabelTarget = remap(src.LabelTarget)
		el.Children, el.Labels = nil, nil
		el.X += delta.X
		el.Y += delta.Y
		el.Waypoints = translate(src.Waypoints, delta)
		tree[i] = el
	}
	if err := cp.modeling.PasteElements(tree, parent); err != nil {
		for _, id := range fresh {
			cp.ids.Unclaim(id)
		}
		return nil, err
	}
	return tree, nil
}
