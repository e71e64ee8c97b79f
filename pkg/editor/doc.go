// Package editor assembles a complete diagram editor from modules.
//
// [New] builds one [injector.Injector] per editor from [CoreModule], the
// [DefaultModules] and any modules given with [WithModules]. The editor
// registers itself as the "editor" service, so modules can depend on it.
//
//	ed, err := editor.New(editor.Config{
//	    editor.ConfigCommandStack: editor.CommandStackConfig{MaxDepth: 100},
//	})
//	if err != nil {
//	    return err
//	}
//	if err := ed.CreateDiagram(); err != nil {
//	    return err
//	}
//	task := ed.Modeling().Factory().Shape(model.ShapeAttrs{Type: model.TypeTask})
//	_, err = ed.Modeling().CreateShape(task, model.Point{X: 300, Y: 120}, ed.Diagram(), -1)
//
// # Documents
//
// [Editor.Import] loads the first diagram of a document, [Editor.Open]
// switches to another one and [Editor.Export] writes the current graph back
// into the document. Imports are assembled off-line and swapped in at once;
// service instances survive re-imports while the history, selection and id
// pool are reset.
//
// # Services
//
// Besides the core services (eventBus, elementRegistry, ids, elementFactory,
// commandStack, rules, modeling) the default modules provide processRules,
// selection, copyPaste, search, editorActions and an observability bridge
// that reports command activity to [observability.Commands].
//
// [injector.Injector]: github.com/matzehuels/flowmodel/pkg/injector.Injector
// [observability.Commands]: github.com/matzehuels/flowmodel/pkg/observability.Commands
package editor
