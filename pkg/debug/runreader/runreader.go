package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"bufferquery/pkg/debug/ui"
	"bufferquery/pkg/physical"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up:     ui.CommonKeys.Up,
	Down:   ui.CommonKeys.Down,
	Select: ui.CommonKeys.Select,
	Back:   ui.CommonKeys.Back,
	Quit:   ui.CommonKeys.Quit,
}

// parseSchema turns a "name:tag,name:tag,..." --schema flag value into a
// *physical.Schema, mirroring the name:type pairs a planner would otherwise
// supply. Accepted tags: int, float, string.
func parseSchema(spec string) (*physical.Schema, error) {
	var fields []physical.Field
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		nameTag := strings.SplitN(part, ":", 2)
		if len(nameTag) != 2 {
			return nil, fmt.Errorf("invalid schema field %q, want name:tag", part)
		}
		var tag physical.ValueTag
		switch strings.ToLower(nameTag[1]) {
		case "int":
			tag = physical.TagInt
		case "float":
			tag = physical.TagFloat
		case "string":
			tag = physical.TagString
		default:
			return nil, fmt.Errorf("unknown tag %q for field %q", nameTag[1], nameTag[0])
		}
		fields = append(fields, physical.Field{Name: nameTag[0], Tag: tag})
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema must name at least one field")
	}
	return physical.NewSchema(fields...), nil
}

// loadRun reads every batch out of one run file in order.
func loadRun(path string, schema *physical.Schema) ([]*physical.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var batches []*physical.Batch
	for {
		b, err := physical.ReadBatch(r, schema, 0)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return batches, nil
		}
		batches = append(batches, b)
	}
}

// loadRuns loads every given run file concurrently via errgroup, the same
// way the debug tool would want to preload a whole merge group's input
// runs at once rather than one at a time.
func loadRuns(paths []string, schema *physical.Schema) ([][]*physical.Batch, error) {
	results := make([][]*physical.Batch, len(paths))
	var g errgroup.Group
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			batches, err := loadRun(p, schema)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			results[i] = batches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

type runModel struct {
	paths       []string
	schema      *physical.Schema
	runs        [][]*physical.Batch
	currentView string // "files", "batches", "tuples"
	fileCursor  int
	batchCursor int
	tupleCursor int
	viewport    viewport.Model
	width       int
	height      int
	err         error
}

func initialModel(paths []string, schema *physical.Schema) runModel {
	return runModel{paths: paths, schema: schema, currentView: "loading"}
}

type loadedMsg struct {
	runs [][]*physical.Batch
	err  error
}

func (m runModel) Init() tea.Cmd {
	return func() tea.Msg {
		runs, err := loadRuns(m.paths, m.schema)
		return loadedMsg{runs: runs, err: err}
	}
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.runs = msg.runs
		m.currentView = "files"
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport = viewport.New(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		switch m.currentView {
		case "files":
			switch {
			case key.Matches(msg, keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, keys.Up):
				if m.fileCursor > 0 {
					m.fileCursor--
				}
			case key.Matches(msg, keys.Down):
				if m.fileCursor < len(m.paths)-1 {
					m.fileCursor++
				}
			case key.Matches(msg, keys.Select):
				m.currentView = "batches"
				m.batchCursor = 0
			}
		case "batches":
			batches := m.runs[m.fileCursor]
			switch {
			case key.Matches(msg, keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, keys.Back):
				m.currentView = "files"
			case key.Matches(msg, keys.Up):
				if m.batchCursor > 0 {
					m.batchCursor--
				}
			case key.Matches(msg, keys.Down):
				if m.batchCursor < len(batches)-1 {
					m.batchCursor++
				}
			case key.Matches(msg, keys.Select):
				if len(batches) > 0 {
					m.currentView = "tuples"
					m.tupleCursor = 0
				}
			}
		case "tuples":
			batch := m.runs[m.fileCursor][m.batchCursor]
			switch {
			case key.Matches(msg, keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, keys.Back):
				m.currentView = "batches"
			case key.Matches(msg, keys.Up):
				if m.tupleCursor > 0 {
					m.tupleCursor--
				}
			case key.Matches(msg, keys.Down):
				if m.tupleCursor < batch.Len()-1 {
					m.tupleCursor++
				}
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m runModel) View() string {
	if m.err != nil {
		return ui.RenderError(m.err)
	}

	var b strings.Builder
	b.WriteString(ui.RenderTitle("📦", "Run File Inspector") + "\n\n")

	switch m.currentView {
	case "loading":
		b.WriteString("Loading run files...\n")
	case "files":
		b.WriteString(m.renderFiles())
	case "batches":
		b.WriteString(m.renderBatches())
	case "tuples":
		b.WriteString(m.renderTuples())
	}

	return b.String()
}

func (m runModel) renderFiles() string {
	var b strings.Builder
	b.WriteString(ui.RenderHeaderWithCount("Run files", len(m.paths)) + "\n\n")
	for i, p := range m.paths {
		line := fmt.Sprintf("%s (%d batches)", p, len(m.runs[i]))
		if i == m.fileCursor {
			b.WriteString(ui.SelectedItemStyle.Render("▶ "+line) + "\n")
		} else {
			b.WriteString(ui.ItemStyle.Render("  "+line) + "\n")
		}
	}
	b.WriteString("\n" + ui.HelpStyle.Render("↑/↓: navigate | enter: open | q: quit"))
	return b.String()
}

func (m runModel) renderBatches() string {
	batches := m.runs[m.fileCursor]
	var b strings.Builder
	b.WriteString(ui.RenderHeaderWithCount(m.paths[m.fileCursor], len(batches)) + "\n\n")
	for i, batch := range batches {
		line := fmt.Sprintf("batch %d: %d tuples", i, batch.Len())
		if i == m.batchCursor {
			b.WriteString(ui.SelectedItemStyle.Render("▶ "+line) + "\n")
		} else {
			b.WriteString(ui.ItemStyle.Render("  "+line) + "\n")
		}
	}
	b.WriteString("\n" + ui.HelpStyle.Render("↑/↓: navigate | enter: drill in | esc: back | q: quit"))
	return b.String()
}

func (m runModel) renderTuples() string {
	batch := m.runs[m.fileCursor][m.batchCursor]
	var b strings.Builder
	b.WriteString(ui.RenderHeaderWithCount(fmt.Sprintf("batch %d", m.batchCursor), batch.Len()) + "\n\n")
	for i, t := range batch.Tuples {
		fields := make([]string, len(t.Values))
		for j, v := range t.Values {
			fields[j] = v.String()
		}
		line := strings.Join(fields, " | ")
		if i == m.tupleCursor {
			b.WriteString(ui.SelectedItemStyle.Render("▶ "+line) + "\n")
		} else {
			b.WriteString(ui.ItemStyle.Render("  "+line) + "\n")
		}
	}
	b.WriteString("\n" + ui.HelpStyle.Render("↑/↓: navigate | esc: back | q: quit"))
	return b.String()
}

func main() {
	schemaFlag := flag.String("schema", "", "comma-separated name:tag fields, e.g. id:int,name:string")
	flag.Parse()

	paths := flag.Args()
	if *schemaFlag == "" || len(paths) == 0 {
		fmt.Println("Usage: runreader --schema name:tag,... <run-file> [run-file ...]")
		os.Exit(1)
	}

	schema, err := parseSchema(*schemaFlag)
	if err != nil {
		fmt.Printf("invalid --schema: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(initialModel(paths, schema), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
