package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	fio "github.com/matzehuels/flowmodel/pkg/io"
	"github.com/matzehuels/flowmodel/pkg/model"
)

// workspace holds a config and a document in a temp dir.
type workspace struct {
	dir    string
	config string
	doc    string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		dir:    dir,
		config: filepath.Join(dir, "config.toml"),
		doc:    filepath.Join(dir, "orders.json"),
	}
	cfg := `
[store]
backend = "file"
path = "` + filepath.ToSlash(filepath.Join(dir, "documents")) + `"

[cache]
backend = "file"
dir = "` + filepath.ToSlash(filepath.Join(dir, "cache")) + `"
`
	if err := os.WriteFile(ws.config, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := &fio.Document{Name: "orders", Diagrams: []fio.Diagram{{
		ID: "Process_1",
		Elements: []fio.Element{
			{ID: "Process_1", Type: model.TypeProcess, Kind: "root"},
			{ID: "A", Type: model.TypeTask, Kind: "shape", Parent: "Process_1", X: 100, Width: 100, Height: 80,
				Props: map[string]any{"name": "Check order"}},
			{ID: "B", Type: model.TypeTask, Kind: "shape", Parent: "Process_1", X: 300, Width: 100, Height: 80,
				Props: map[string]any{"name": "Ship order"}},
			{ID: "F", Type: model.TypeSequenceFlow, Kind: "connection", Parent: "Process_1", Source: "A", Target: "B",
				Waypoints: []fio.Point{{X: 200, Y: 40}, {X: 300, Y: 40}}},
		},
	}}}
	if err := fio.Export(doc, ws.doc); err != nil {
		t.Fatal(err)
	}
	return ws
}

func (ws workspace) run(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", ws.config}, args...))
	return root.ExecuteContext(context.Background())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"validate", "export", "apply", "inspect", "edit", "serve", "store", "cache", "completion"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestValidate(t *testing.T) {
	ws := newWorkspace(t)
	if err := ws.run(t, "validate", ws.doc); err != nil {
		t.Fatalf("validate: %v", err)
	}

	broken := filepath.Join(ws.dir, "broken.yaml")
	data := `
diagrams:
  - id: P
    elements:
      - {id: P, type: process, kind: root}
      - {id: X, type: task, kind: shape, parent: Missing, width: 100, height: 80}
`
	if err := os.WriteFile(broken, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ws.run(t, "validate", broken); err == nil || !strings.Contains(err.Error(), "1 element") {
		t.Errorf("validate broken = %v", err)
	}
	if err := ws.run(t, "validate", "--lenient", broken); err != nil {
		t.Errorf("validate --lenient = %v", err)
	}
}

func TestExport(t *testing.T) {
	ws := newWorkspace(t)

	out := filepath.Join(ws.dir, "orders.yaml")
	if err := ws.run(t, "export", ws.doc, "-o", out); err != nil {
		t.Fatalf("export yaml: %v", err)
	}
	doc, err := fio.Import(out)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(doc.Diagrams) != 1 || len(doc.Diagrams[0].Elements) != 4 {
		t.Errorf("exported doc = %+v", doc)
	}

	dot := filepath.Join(ws.dir, "orders.dot")
	if err := ws.run(t, "export", ws.doc, "-f", "dot", "-o", dot, "--detailed"); err != nil {
		t.Fatalf("export dot: %v", err)
	}
	data, _ := os.ReadFile(dot)
	if !strings.Contains(string(data), `"A" -> "B"`) {
		t.Errorf("dot = %s", data)
	}

	if err := ws.run(t, "export", ws.doc, "-f", "gif"); err == nil {
		t.Error("export gif should fail")
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		format, output, want string
		wantErr              bool
	}{
		{"", "", "svg", false},
		{"", "out.YML", "yaml", false},
		{"", "out.png", "png", false},
		{"dot", "out.txt", "dot", false},
		{"", "out.txt", "", true},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.format, tt.output)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("resolveFormat(%q, %q) = %q, %v", tt.format, tt.output, got, err)
		}
	}
	if got := defaultOutput("store:orders", "svg"); got != "orders.svg" {
		t.Errorf("defaultOutput = %q", got)
	}
}

func TestApply(t *testing.T) {
	ws := newWorkspace(t)
	script := filepath.Join(ws.dir, "review.toml")
	data := `
[[step]]
op = "createShape"
id = "Task_Review"
x = 550
y = 40

[[step]]
op = "connect"
source = "B"
target = "Task_Review"
`
	if err := os.WriteFile(script, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(ws.dir, "reviewed.json")
	if err := ws.run(t, "apply", ws.doc, script, "-o", out); err != nil {
		t.Fatalf("apply: %v", err)
	}
	doc, err := fio.Import(out)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(doc.Diagrams[0].Elements); n != 6 {
		t.Errorf("got %d elements, want 6", n)
	}

	if err := ws.run(t, "apply", ws.doc, script, "--dry-run"); err != nil {
		t.Fatalf("apply --dry-run: %v", err)
	}
	orig, _ := fio.Import(ws.doc)
	if n := len(orig.Diagrams[0].Elements); n != 4 {
		t.Errorf("dry run changed the input: %d elements", n)
	}
}

func TestInspect(t *testing.T) {
	ws := newWorkspace(t)
	for _, args := range [][]string{
		{"inspect", ws.doc},
		{"inspect", ws.doc, "--find", "ship"},
		{"inspect", ws.doc, "-e", "A"},
	} {
		if err := ws.run(t, args...); err != nil {
			t.Errorf("%v: %v", args, err)
		}
	}
	if err := ws.run(t, "inspect", ws.doc, "-e", "Nope"); err == nil {
		t.Error("inspect of a missing element should fail")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ws := newWorkspace(t)

	if err := ws.run(t, "store", "put", ws.doc); err != nil {
		t.Fatalf("store put: %v", err)
	}
	if err := ws.run(t, "store", "list"); err != nil {
		t.Fatalf("store list: %v", err)
	}
	if err := ws.run(t, "validate", "store:orders"); err != nil {
		t.Fatalf("validate store:orders: %v", err)
	}

	out := filepath.Join(ws.dir, "fetched.json")
	if err := ws.run(t, "store", "get", "orders", "-o", out); err != nil {
		t.Fatalf("store get: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("fetched file missing: %v", err)
	}

	if err := ws.run(t, "store", "delete", "orders"); err != nil {
		t.Fatalf("store delete: %v", err)
	}
	if err := ws.run(t, "store", "get", "orders"); err == nil {
		t.Error("get after delete should fail")
	}
}

func TestCacheCommands(t *testing.T) {
	ws := newWorkspace(t)
	for _, sub := range []string{"status", "path", "clear"} {
		if err := ws.run(t, "cache", sub); err != nil {
			t.Fatalf("cache %s: %v", sub, err)
		}
	}

	cfg := filepath.Join(ws.dir, "none.toml")
	if err := os.WriteFile(cfg, []byte("[cache]\nbackend = \"none\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ws.config = cfg
	if err := ws.run(t, "cache", "status"); err != nil {
		t.Errorf("cache status: %v", err)
	}
	if err := ws.run(t, "cache", "clear"); err == nil {
		t.Error("clear should fail without a file cache")
	}
}

func TestHumanBytes(t *testing.T) {
	tests := map[int64]string{0: "0 B", 512: "512 B", 2048: "2.0 KiB", 3 << 20: "3.0 MiB"}
	for n, want := range tests {
		if got := humanBytes(n); got != want {
			t.Errorf("humanBytes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestStoreName(t *testing.T) {
	if name, ok := storeName("store:orders"); !ok || name != "orders" {
		t.Errorf("storeName(store:orders) = %q, %v", name, ok)
	}
	for _, arg := range []string{"orders.json", "store:", "./store:x"} {
		if _, ok := storeName(arg); ok {
			t.Errorf("storeName(%q) should not match", arg)
		}
	}
	if got := baseName("/tmp/a/orders.yaml"); got != "orders" {
		t.Errorf("baseName = %q", got)
	}
}
