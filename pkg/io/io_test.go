package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/flowmodel/pkg/errors"
	"github.com/matzehuels/flowmodel/pkg/model"
)

func sample() *Document {
	els := []*model.Element{
		{ID: "Process_1", Type: model.TypeProcess, Kind: model.KindRoot},
		{ID: "A", Type: model.TypeTask, Kind: model.KindShape, Parent: "Process_1", X: 100, Width: 100, Height: 80,
			Props: map[string]any{"name": "Check"}, Color: model.Color{Fill: "#fff"}},
		{ID: "B", Type: model.TypeTask, Kind: model.KindShape, Parent: "Process_1", X: 300, Width: 100, Height: 80},
		{ID: "F", Type: model.TypeSequenceFlow, Kind: model.KindConnection, Parent: "Process_1", Source: "A", Target: "B",
			Waypoints: []model.Point{{X: 150, Y: 40}, {X: 350, Y: 40}}},
	}
	return &Document{Name: "orders", Diagrams: []Diagram{FromElements("Process_1", "Orders", els)}}
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			data, err := Marshal(sample(), f)
			if err != nil {
				t.Fatal(err)
			}
			doc, err := Unmarshal(data, f)
			if err != nil {
				t.Fatal(err)
			}
			dg, ok := doc.Diagram("")
			if !ok || dg.ID != "Process_1" || len(dg.Elements) != 4 {
				t.Fatalf("diagram = %+v", dg)
			}
			flow, ok := dg.Elements[3].ToElement()
			if !ok {
				t.Fatal("flow kind not parsed")
			}
			if flow.Kind != model.KindConnection || flow.Source != "A" || len(flow.Waypoints) != 2 {
				t.Errorf("flow = %+v", flow)
			}
			a, _ := dg.Elements[1].ToElement()
			if a.Name() != "Check" || a.Color.Fill != "#fff" {
				t.Errorf("A = %+v", a)
			}
		})
	}
}

func TestReadMalformed(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("{"))
	if !errors.Is(err, errors.ErrCodeImportFailed) {
		t.Errorf("ReadJSON error = %v, want IMPORT_FAILED", err)
	}
	_, err = ReadYAML(strings.NewReader("diagrams: ["))
	if !errors.Is(err, errors.ErrCodeImportFailed) {
		t.Errorf("ReadYAML error = %v, want IMPORT_FAILED", err)
	}
}

func TestUnknownKind(t *testing.T) {
	if _, ok := (Element{ID: "X", Kind: "widget"}).ToElement(); ok {
		t.Error("unknown kind accepted")
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"a.json": FormatJSON,
		"a.yaml": FormatYAML,
		"a.YML":  FormatYAML,
		"a":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFor(path); got != want {
			t.Errorf("FormatFor(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestImportExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.yaml")
	if err := Export(sample(), path); err != nil {
		t.Fatal(err)
	}
	doc, err := Import(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "orders" {
		t.Errorf("Name = %q", doc.Name)
	}
	if _, err := Import(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, errors.ErrCodeImportFailed) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestSetDiagram(t *testing.T) {
	doc := sample()
	doc.SetDiagram(Diagram{ID: "Process_2"})
	doc.SetDiagram(Diagram{ID: "Process_1", Name: "renamed"})
	if len(doc.Diagrams) != 2 || doc.Diagrams[0].Name != "renamed" {
		t.Errorf("diagrams = %+v", doc.Diagrams)
	}
	var buf bytes.Buffer
	if err := WriteJSON(doc, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"Process_2"`) {
		t.Error("second diagram missing from output")
	}
}
