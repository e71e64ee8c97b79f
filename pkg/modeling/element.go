package modeling

import (
	"maps"

	"github.com/matzehuels/flowmodel/pkg/model"
)

const propID = "id"

type updatePropertiesHandler struct{ *env }

func (h updatePropertiesHandler) Execute(ctx any) ([]string, error) {
	c := ctx.(*UpdatePropertiesContext)
	el, err := h.reg.MustGet(c.ID)
	if err != nil {
		return nil, err
	}

	c.newID = c.ID
	if v, ok := c.Props[propID]; ok {
		id, _ := v.(string)
		if err := h.reg.UpdateID(c.ID, id); err != nil {
			return nil, err
		}
		c.newID = id
	}

	c.old = make(map[string]any)
	c.missing = make(map[string]bool)
	if el.Props == nil {
		el.Props = make(map[string]any)
	}
	for k, v := range c.Props {
		if k == propID {
			continue
		}
		if prev, ok := el.Props[k]; ok {
			c.old[k] = prev
		} else {
			c.missing[k] = true
		}
		if v == nil {
			delete(el.Props, k)
		} else {
			el.Props[k] = v
		}
	}
	return []string{c.newID}, nil
}

func (h updatePropertiesHandler) Revert(ctx any) ([]string, error) {
	c := ctx.(*UpdatePropertiesContext)
	el, err := h.reg.MustGet(c.newID)
	if err != nil {
		return nil, err
	}
	maps.Copy(el.Props, c.old)
	for k := range c.missing {
		delete(el.Props, k)
	}
	if c.newID != c.ID {
		if err := h.reg.UpdateID(c.newID, c.ID); err != nil {
			return nil, err
		}
	}
	return []string{c.ID}, nil
}

type setColorHandler struct{ *env }

func (h setColorHandler) Execute(ctx any) ([]string, error) {
	c := ctx.(*SetColorContext)
	els := make([]*model.Element, 0, len(c.IDs))
	for _, id := range c.IDs {
		el, err := h.reg.MustGet(id)
		if err != nil {
			return nil, err
		}
		els = append(els, el)
	}
	c.old = make(map[string]model.Color, len(els))
	for _, el := range els {
		c.old[el.ID] = el.Color
		el.Color = c.Color
	}
	return c.IDs, nil
}

func (h setColorHandler) Revert(ctx any) ([]string, error) {
	c := ctx.(*SetColorContext)
	for id, color := range c.old {
		el, err := h.reg.MustGet(id)
		if err != nil {
			return nil, err
		}
		el.Color = color
	}
	return c.IDs, nil
}
