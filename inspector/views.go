package inspector

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rivo/tview"
)

func (t *TUI) buildLayout() {
	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.sectionsView, 0, 1, false).
		AddItem(t.labelsView, 0, 1, false).
		AddItem(t.outputView, 0, 1, false)

	body := tview.NewFlex().
		AddItem(t.sourceView, 0, 2, false).
		AddItem(right, 0, 1, false)

	t.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, false).
		AddItem(t.input, 3, 0, true)
}

// handleCommand dispatches a CommandInput line: ":section N" echoes the
// selected index with the whole program's half-word count (there is no
// per-section breakdown), ":label NAME" resolves a global
// label's address, ":reload" re-reads the source file and reassembles.
func (t *TUI) handleCommand(cmd string) {
	cmd = strings.TrimSpace(cmd)
	cmd = strings.TrimPrefix(cmd, ":")
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return
	}

	switch strings.ToLower(fields[0]) {
	case "reload":
		t.reload()

	case "section":
		if len(fields) != 2 {
			t.printOutput("usage: :section N")
			return
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			t.printOutput(fmt.Sprintf("bad section index %q", fields[1]))
			return
		}
		t.printOutput(fmt.Sprintf("section %d selected (program total: %d half-words)",
			n, len(t.program.Code())))

	case "label":
		if len(fields) != 2 {
			t.printOutput("usage: :label NAME")
			return
		}
		addr, ok := t.program.GlobalAddr(fields[1])
		if !ok {
			t.printOutput(fmt.Sprintf("no such label %q", fields[1]))
			return
		}
		t.printOutput(fmt.Sprintf("%s = %#x", fields[1], addr))

	default:
		t.printOutput(fmt.Sprintf("unrecognized command %q", fields[0]))
	}
}

// reload re-reads the source file, reassembles it, and refreshes every
// panel — the read-only counterpart to the teacher's stepping reload.
func (t *TUI) reload() {
	source := t.readSource()
	t.sourceView.SetText(source)

	if err := t.program.Assemble(source); err != nil {
		t.outputView.SetText(fmt.Sprintf("[red]build failed: %v[-]", err))
		t.sectionsView.Clear()
		t.labelsView.Clear()
		return
	}

	t.refreshSections()
	t.refreshLabels()

	msg := fmt.Sprintf("build ok: %d half-words", len(t.program.Code()))
	if warnings := t.program.Warnings(); len(warnings) > 0 {
		msg += "\n[yellow]" + strings.Join(warnings, "\n") + "[-]"
	}
	t.outputView.SetText(msg)
}

func (t *TUI) refreshSections() {
	t.sectionsView.SetText(fmt.Sprintf("code size: %d half-words (%d bytes)",
		len(t.program.Code()), len(t.program.Code())*2))
}

func (t *TUI) refreshLabels() {
	labels := t.program.Labels()
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		addr, ok := t.program.GlobalAddr(name)
		if !ok {
			fmt.Fprintf(&b, "%s: unresolved\n", name)
			continue
		}
		fmt.Fprintf(&b, "%s: %#x\n", name, addr)
	}
	t.labelsView.SetText(b.String())
}

func (t *TUI) printOutput(line string) {
	fmt.Fprintf(t.outputView, "%s\n", line)
}
