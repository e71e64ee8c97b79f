package nodelink

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/flowmodel/pkg/cache"
	"github.com/matzehuels/flowmodel/pkg/model"
)

func diagram(t *testing.T) *model.Registry {
	t.Helper()
	reg := model.NewRegistry()
	add := func(el *model.Element, parent string) {
		t.Helper()
		if err := reg.Add(el, parent, -1); err != nil {
			t.Fatalf("Add(%s): %v", el.ID, err)
		}
	}
	add(&model.Element{ID: "Process_1", Type: model.TypeProcess, Kind: model.KindRoot}, "")
	add(&model.Element{ID: "Start", Type: model.TypeStartEvent, Kind: model.KindShape, Width: 36, Height: 36}, "Process_1")
	add(&model.Element{ID: "Sub", Type: model.TypeSubProcess, Kind: model.KindShape, X: 100, Width: 350, Height: 200,
		Props: map[string]any{"name": "Billing"}}, "Process_1")
	add(&model.Element{ID: "Pay", Type: model.TypeTask, Kind: model.KindShape, X: 150, Y: 50, Width: 100, Height: 80,
		Props: map[string]any{"name": "Pay", "owner": "finance"}, Color: model.Color{Fill: "#ffcc00"}}, "Sub")
	add(&model.Element{ID: "Note", Type: model.TypeTextAnnotation, Kind: model.KindShape, Width: 100, Height: 30}, "Process_1")
	add(&model.Element{ID: "F1", Type: model.TypeSequenceFlow, Kind: model.KindConnection, Source: "Start", Target: "Pay"}, "Process_1")
	add(&model.Element{ID: "A1", Type: model.TypeAssociation, Kind: model.KindConnection, Source: "Note", Target: "Pay"}, "Process_1")
	add(&model.Element{ID: "L1", Type: model.TypeLabel, Kind: model.KindLabel, LabelTarget: "F1",
		Props: map[string]any{"text": "go"}}, "Process_1")
	return reg
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(diagram(t), Options{})

	for _, want := range []string{
		"digraph G",
		"rankdir=LR",
		`subgraph "cluster_Sub"`,
		`label="Billing"`,
		`"Start" [label="Start", shape=circle`,
		`fillcolor="#ffcc00"`,
		`"Start" -> "Pay" [label="go"]`,
		`"Note" -> "Pay" [style=dotted, arrowhead=none]`,
		"shape=note",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"L1"`) {
		t.Error("label element rendered as a node")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(diagram(t), Options{Detailed: true})
	for _, want := range []string{"type: task", "bounds: 150,50 100x80", "owner: finance"} {
		if !strings.Contains(dot, want) {
			t.Errorf("detailed output missing %q", want)
		}
	}
}

func TestToDOT_Positioned(t *testing.T) {
	dot := ToDOT(diagram(t), Options{Positioned: true})
	if !strings.Contains(dot, "layout=neato") {
		t.Error("positioned output must use neato")
	}
	if !strings.Contains(dot, `pos="2.78,-1.25!"`) {
		t.Errorf("positioned output missing Pay position\n%s", dot)
	}
}

func TestToDOT_Empty(t *testing.T) {
	dot := ToDOT(model.NewRegistry(), Options{})
	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("unexpected output %q", dot)
	}
}

func TestFmtLabel(t *testing.T) {
	el := &model.Element{ID: "Task_1", Type: model.TypeTask}
	if got := fmtLabel(el, false); got != "Task_1" {
		t.Errorf("fmtLabel() = %q, want id fallback", got)
	}
	el.Props = map[string]any{"name": "Review"}
	if got := fmtLabel(el, false); got != "Review" {
		t.Errorf("fmtLabel() = %q, want name", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.50 200.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.50 200.00" width="100" height="200"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}

	plain := []byte("<svg><g/></svg>")
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Error("svg without viewBox changed")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(diagram(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
	if !strings.Contains(string(svg), "Billing") {
		t.Error("RenderSVG() output missing sub-process label")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}

func TestRendererCachesArtifacts(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRenderer(fc, WithTTL(time.Hour))
	calls := 0
	r.svg = func(context.Context, string) ([]byte, error) {
		calls++
		return []byte("<svg/>"), nil
	}

	reg := diagram(t)
	for range 2 {
		out, err := r.Render(ctx, reg, Options{}, "svg", 0)
		if err != nil {
			t.Fatal(err)
		}
		if string(out) != "<svg/>" {
			t.Errorf("Render() = %q", out)
		}
	}
	if calls != 1 {
		t.Errorf("rendered %d times, want 1", calls)
	}

	if _, err := r.Render(ctx, reg, Options{Detailed: true}, "svg", 0); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("changed options did not re-render")
	}

	if _, err := r.Render(ctx, reg, Options{}, "gif", 0); err == nil {
		t.Error("unsupported format accepted")
	}
}
