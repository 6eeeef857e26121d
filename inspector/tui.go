// Package inspector is a read-only tcell/tview TUI over an
// assembler.Program (SPEC_FULL.md §C.5): where the teacher's
// debugger/tui.go steps a live VM, TUI here just re-renders whatever a
// linked Program currently holds — its sections, resolved labels, and
// any latched build error.
package inspector

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/dynasm-thumb2/dynasm/assembler"
	"github.com/dynasm-thumb2/dynasm/config"
)

// TUI is the panel layout and key handling, grounded on the teacher's
// debugger/tui.go: source/program text on the left, Sections/Labels/
// Output-Errors panels on the right, and a CommandInput at the bottom.
type TUI struct {
	app *tview.Application
	cfg config.InspectorConfig

	sourcePath string
	program    *assembler.Program

	sourceView   *tview.TextView
	sectionsView *tview.TextView
	labelsView   *tview.TextView
	outputView   *tview.TextView
	input        *tview.InputField

	layout *tview.Flex
}

// New builds a TUI over program, reading sourcePath for the left-hand
// source display (and re-reading it on ":reload").
func New(sourcePath string, program *assembler.Program, cfg config.InspectorConfig) *TUI {
	t := &TUI{
		app:        tview.NewApplication(),
		cfg:        cfg,
		sourcePath: sourcePath,
		program:    program,
	}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	t.reload()
	return t
}

// Run blocks running the tview event loop until the user quits.
func (t *TUI) Run() error {
	return t.app.SetRoot(t.layout, true).SetFocus(t.input).Run()
}

func (t *TUI) initializeViews() {
	newPanel := func(title string) *tview.TextView {
		v := tview.NewTextView().SetDynamicColors(t.cfg.ColorOutput).SetWrap(true)
		v.SetBorder(true).SetTitle(title)
		return v
	}

	t.sourceView = newPanel(" Source ")
	t.sectionsView = newPanel(" Sections ")
	t.labelsView = newPanel(" Labels ")
	t.outputView = newPanel(" Output / Errors ")

	t.input = tview.NewInputField().
		SetLabel(": ").
		SetFieldWidth(0)
	t.input.SetBorder(true).SetTitle(" Command (:section N, :label NAME, :reload) ")
	t.input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			t.handleCommand(t.input.GetText())
			t.input.SetText("")
		}
	})
}

func (t *TUI) setupKeyBindings() {
	t.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyCtrlC:
			t.app.Stop()
			return nil
		case event.Key() == tcell.KeyTab:
			t.app.SetFocus(t.input)
			return nil
		}
		return event
	})
}

// readSource loads sourcePath fresh from disk for the Source panel and
// a ":reload" round-trip; errors surface in the Output panel rather
// than aborting the TUI.
func (t *TUI) readSource() string {
	data, err := os.ReadFile(t.sourcePath) // #nosec G304 -- operator-provided path
	if err != nil {
		return fmt.Sprintf("[red]failed to read %s: %v[-]", t.sourcePath, err)
	}
	return string(data)
}
