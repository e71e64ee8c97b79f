package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowmodel/pkg/errors"
	"github.com/matzehuels/flowmodel/pkg/model"
	"github.com/matzehuels/flowmodel/pkg/modeling"
	"github.com/matzehuels/flowmodel/pkg/observability"
	"github.com/matzehuels/flowmodel/pkg/selection"
)

func actionsFixture(t *testing.T) (*Editor, *Actions, *selection.Selection) {
	t.Helper()
	ed := newEditor(t, nil)
	_, err := ed.Import(twoTasks())
	require.NoError(t, err)
	acts, err := Service[*Actions](ed, ServiceEditorActions)
	require.NoError(t, err)
	sel, err := Service[*selection.Selection](ed, ServiceSelection)
	require.NoError(t, err)
	return ed, acts, sel
}

func TestDefaultActionsRegistered(t *testing.T) {
	_, acts, _ := actionsFixture(t)
	assert.Equal(t, []string{
		ActionUndo, ActionRedo, ActionCopy, ActionPaste, ActionRemoveSelection, ActionMoveSelection,
		ActionSelectElements, ActionAlignElements, ActionDistributeElements, ActionSetColor,
		ActionFind, ActionMoveToOrigin,
	}, acts.Names())
	assert.True(t, acts.IsRegistered(ActionUndo))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	acts := NewActions()
	noop := func(ActionOptions) (any, error) { return nil, nil }
	require.NoError(t, acts.Register(Action{Name: "zoom", Run: noop}))

	err := acts.Register(Action{Name: "zoom", Run: noop})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	err = acts.Register(Action{Name: "pan"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	acts.Unregister("zoom")
	assert.False(t, acts.IsRegistered("zoom"))
	assert.Empty(t, acts.Names())
}

func TestTriggerUnknownAndDisabled(t *testing.T) {
	_, acts, _ := actionsFixture(t)

	_, err := acts.Trigger("zoom", nil)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))

	_, err = acts.Trigger(ActionUndo, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported))
	assert.Contains(t, err.Error(), "nothing to undo")

	_, err = acts.Trigger(ActionCopy, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported))
}

func TestMoveSelectionAndUndo(t *testing.T) {
	ed, acts, sel := actionsFixture(t)
	require.NoError(t, sel.Select([]string{"A"}, false))

	_, err := acts.Trigger(ActionMoveSelection, ActionOptions{"dx": 50, "dy": 0.0})
	require.NoError(t, err)
	a, _ := ed.Registry().Get("A")
	assert.Equal(t, 150.0, a.X)

	_, err = acts.Trigger(ActionUndo, nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, a.X)

	_, err = acts.Trigger(ActionRedo, nil)
	require.NoError(t, err)
	assert.Equal(t, 150.0, a.X)
}

func TestCopyPasteSelectsPastedElements(t *testing.T) {
	ed, acts, sel := actionsFixture(t)
	require.NoError(t, sel.Select([]string{"A", "B", "F"}, false))

	n, err := acts.Trigger(ActionCopy, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	out, err := acts.Trigger(ActionPaste, ActionOptions{"dy": 200})
	require.NoError(t, err)
	pasted := out.([]*model.Element)
	require.Len(t, pasted, 3)
	assert.Equal(t, 7, ed.Registry().Len())
	assert.Len(t, sel.Get(), 3)
	for _, el := range pasted {
		assert.NotContains(t, []string{"A", "B", "F"}, el.ID)
		assert.Equal(t, "Process_1", el.Parent)
	}
}

func TestRemoveSelectionPrunesSelection(t *testing.T) {
	ed, acts, sel := actionsFixture(t)
	require.NoError(t, sel.Select([]string{"A"}, false))

	_, err := acts.Trigger(ActionRemoveSelection, nil)
	require.NoError(t, err)
	_, ok := ed.Registry().Get("F")
	assert.False(t, ok)
	assert.Empty(t, sel.Get())
}

func TestSelectAlignAndColor(t *testing.T) {
	ed, acts, sel := actionsFixture(t)
	m := ed.Modeling()
	require.NoError(t, m.MoveElements([]string{"B"}, model.Point{Y: 60}, ""))

	ids, err := acts.Trigger(ActionSelectElements, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "F"}, ids)
	assert.ElementsMatch(t, []string{"A", "B", "F"}, sel.Get())

	_, err = acts.Trigger(ActionAlignElements, ActionOptions{"type": string(modeling.AlignTop)})
	require.NoError(t, err)
	b, _ := ed.Registry().Get("B")
	assert.Equal(t, 0.0, b.Y)

	_, err = acts.Trigger(ActionAlignElements, ActionOptions{"type": "diagonal"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = acts.Trigger(ActionSetColor, ActionOptions{"fill": "#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", b.Color.Fill)
}

func TestFindActionSelectsMatches(t *testing.T) {
	_, acts, sel := actionsFixture(t)
	_, err := acts.Trigger(ActionFind, ActionOptions{"query": "ship"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, sel.Get())
}

func TestMoveToOrigin(t *testing.T) {
	ed, acts, _ := actionsFixture(t)
	require.NoError(t, ed.Modeling().MoveElements([]string{"A", "B"}, model.Point{X: 40, Y: 30}, ""))

	_, err := acts.Trigger(ActionMoveToOrigin, nil)
	require.NoError(t, err)
	a, _ := ed.Registry().Get("A")
	b, _ := ed.Registry().Get("B")
	assert.Equal(t, model.Point{}, model.Point{X: a.X, Y: a.Y})
	assert.Equal(t, 200.0, b.X)
}

func TestFindActions(t *testing.T) {
	_, acts, _ := actionsFixture(t)
	found := acts.Find("undu")
	require.NotEmpty(t, found)
	assert.Equal(t, ActionUndo, found[0].Name)

	found = acts.Find("clipboard")
	require.Len(t, found, 1)
	assert.Equal(t, ActionPaste, found[0].Name)
}

type recordingHooks struct {
	observability.NoopCommandHooks
	executed []string
	aborted  []string
	undos    int
}

func (h *recordingHooks) OnExecute(_ context.Context, command string, _ int) {
	h.executed = append(h.executed, command)
}

func (h *recordingHooks) OnUndo(context.Context) { h.undos++ }

func (h *recordingHooks) OnAbort(_ context.Context, command string, _ error) {
	h.aborted = append(h.aborted, command)
}

func TestObserverReportsCommands(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetCommandHooks(hooks)
	t.Cleanup(observability.Reset)

	ed, _, _ := actionsFixture(t)
	require.NoError(t, ed.Modeling().MoveElements([]string{"A"}, model.Point{X: 10}, ""))
	require.NoError(t, ed.Stack().Undo())
	require.Error(t, ed.Modeling().UpdateWaypoints("Nope", nil))

	assert.Equal(t, []string{modeling.CmdElementsMove}, hooks.executed)
	assert.Equal(t, 1, hooks.undos)
	assert.Equal(t, []string{modeling.CmdUpdateWaypoints}, hooks.aborted)
}
