package rules

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmodel/pkg/command"
	"github.com/matzehuels/flowmodel/pkg/eventbus"
	"github.com/matzehuels/flowmodel/pkg/model"
)

func setup(t *testing.T, opts ProcessOptions) (*Engine, *model.Registry) {
	t.Helper()
	logger := log.New(io.Discard)
	bus := eventbus.New(eventbus.WithLogger(logger))
	command.RegisterContracts(bus)
	reg := model.NewRegistry()
	add := func(el *model.Element, parent string) {
		t.Helper()
		if err := reg.Add(el, parent, -1); err != nil {
			t.Fatal(err)
		}
	}
	add(&model.Element{ID: "root", Kind: model.KindRoot}, "")
	add(&model.Element{ID: "Start", Kind: model.KindShape, Type: model.TypeStartEvent}, "root")
	add(&model.Element{ID: "Task", Kind: model.KindShape, Type: model.TypeTask}, "root")
	add(&model.Element{ID: "End", Kind: model.KindShape, Type: model.TypeEndEvent}, "root")
	add(&model.Element{ID: "Sub", Kind: model.KindShape, Type: model.TypeSubProcess}, "root")
	add(&model.Element{ID: "Inner", Kind: model.KindShape, Type: model.TypeTask}, "Sub")
	add(&model.Element{ID: "Label", Kind: model.KindLabel, Type: model.TypeLabel, LabelTarget: "Task"}, "root")

	e := NewEngine(bus, reg, logger)
	RegisterProcessRules(e, opts)
	return e, reg
}

func TestConnectRules(t *testing.T) {
	tests := []struct {
		name   string
		opts   ProcessOptions
		source string
		target string
		want   Verdict
	}{
		{"task to end", DefaultProcessOptions(), "Task", "End", Allow},
		{"start to task", DefaultProcessOptions(), "Start", "Task", Allow},
		{"from end event", DefaultProcessOptions(), "End", "Task", Deny},
		{"into start event", DefaultProcessOptions(), "Task", "Start", Deny},
		{"self loop", DefaultProcessOptions(), "Task", "Task", Deny},
		{"self loop allowed", ProcessOptions{AllowSelfLoops: true}, "Task", "Task", Allow},
		{"label endpoint", DefaultProcessOptions(), "Label", "Task", Deny},
		{"root endpoint", DefaultProcessOptions(), "Task", "root", Deny},
		{"unknown endpoint", DefaultProcessOptions(), "Task", "nope", Deny},
		{"whitelist hit", ProcessOptions{Connections: map[string][]string{model.TypeTask: {model.TypeEndEvent}}}, "Task", "End", Allow},
		{"whitelist miss", ProcessOptions{Connections: map[string][]string{model.TypeTask: {model.TypeEndEvent}}}, "Task", "Inner", Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := setup(t, tt.opts)
			got, err := e.Allowed(ActionConnect, &ConnectQuery{Source: tt.source, Target: tt.target})
			if err != nil {
				t.Fatalf("Allowed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Allowed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoveRules(t *testing.T) {
	tests := []struct {
		name string
		q    *MoveQuery
		want Verdict
	}{
		{"plain move", &MoveQuery{Elements: []string{"Task"}, Delta: model.Point{X: 10}}, Abstain},
		{"into sub process", &MoveQuery{Elements: []string{"Task"}, Parent: "Sub"}, Abstain},
		{"into itself", &MoveQuery{Elements: []string{"Sub"}, Parent: "Sub"}, Deny},
		{"into descendant", &MoveQuery{Elements: []string{"Sub"}, Parent: "Inner"}, Deny},
		{"into label", &MoveQuery{Elements: []string{"Task"}, Parent: "Label"}, Deny},
		{"root", &MoveQuery{Elements: []string{"root"}}, Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := setup(t, DefaultProcessOptions())
			got, err := e.Allowed(ActionElementsMove, tt.q)
			if err != nil {
				t.Fatalf("Allowed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Allowed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResizeCreateDeleteRules(t *testing.T) {
	e, _ := setup(t, DefaultProcessOptions())

	check := func(action string, ctx any, want Verdict) {
		t.Helper()
		got, err := e.Allowed(action, ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Allowed(%s, %+v) = %v, want %v", action, ctx, got, want)
		}
	}

	check(ActionShapeResize, &ResizeQuery{Element: "Task", Bounds: model.Rect{Width: 10, Height: 80}}, Deny)
	check(ActionShapeResize, &ResizeQuery{Element: "Task", Bounds: model.Rect{Width: 200, Height: 80}}, Abstain)
	check(ActionShapeResize, &ResizeQuery{Element: "Label", Bounds: model.Rect{Width: 200, Height: 80}}, Deny)
	check(ActionShapeCreate, &CreateQuery{Type: model.TypeTask, Parent: "Sub"}, Abstain)
	check(ActionShapeCreate, &CreateQuery{Type: model.TypeTask, Parent: "Label"}, Deny)
	check(ActionElementsDelete, &ElementsQuery{Elements: []string{"Task", "root"}}, Deny)
	check(ActionLabelCreate, &LabelQuery{Target: "Label"}, Deny)
	check(ActionLabelCreate, &LabelQuery{Target: "Task"}, Abstain)
}

func TestPriorityAndAbstain(t *testing.T) {
	e, _ := setup(t, DefaultProcessOptions())

	// A higher-priority rule overrides the default verdict.
	sub := e.Add(ActionConnect, 2000, func(model.View, any) Verdict { return Deny })
	if got, _ := e.Allowed(ActionConnect, &ConnectQuery{Source: "Task", Target: "End"}); got != Deny {
		t.Errorf("Allowed() = %v, want deny from higher-priority rule", got)
	}

	// An abstaining higher-priority rule defers to the next one.
	e.Remove(sub)
	e.Add(ActionConnect, 2000, func(model.View, any) Verdict { return Abstain })
	if got, _ := e.Allowed(ActionConnect, &ConnectQuery{Source: "Task", Target: "End"}); got != Allow {
		t.Errorf("Allowed() = %v, want allow", got)
	}

	// No rule registered at all.
	if got, _ := e.Allowed("custom.action", nil); got != Abstain || !got.Allowed() {
		t.Errorf("Allowed(custom) = %v, want abstain", got)
	}
}

func TestWildcardRule(t *testing.T) {
	e, _ := setup(t, DefaultProcessOptions())
	e.Add("*", 5000, func(model.View, any) Verdict { return Deny })

	for _, action := range []string{ActionConnect, ActionSetColor, ActionElementsMove} {
		if got, _ := e.Allowed(action, nil); got != Deny {
			t.Errorf("Allowed(%s) = %v, want deny", action, got)
		}
	}
}
