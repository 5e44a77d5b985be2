package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dmehra2102/TodoDesk/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputYAML  = "yaml"
	outputJSON  = "json"
)

var (
	headerRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cellStyle      = lipgloss.NewStyle()
	doneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
)

func validateOutput(format string) error {
	switch format {
	case outputTable, outputYAML, outputJSON:
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (valid: table, yaml, json)", format)
	}
}

// taskView is the machine-readable shape of a task.
type taskView struct {
	ID        string `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed"`
	CreatedAt string `json:"createdAt" yaml:"createdAt"`
	Order     int    `json:"order" yaml:"order"`
}

func newTaskView(t domain.Task) taskView {
	return taskView{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
		Order:     t.Order,
	}
}

type statusView struct {
	DataDir      string `json:"dataDir" yaml:"dataDir"`
	DBPath       string `json:"dbPath" yaml:"dbPath"`
	DBExists     bool   `json:"dbExists" yaml:"dbExists"`
	TableExists  bool   `json:"tableExists" yaml:"tableExists"`
	ConfigPath   string `json:"configPath" yaml:"configPath"`
	ConfigExists bool   `json:"configExists" yaml:"configExists"`
}

func writeTasks(w io.Writer, format string, tasks []domain.Task) error {
	views := make([]taskView, len(tasks))
	for i, t := range tasks {
		views[i] = newTaskView(t)
	}

	switch format {
	case outputYAML:
		return writeYAML(w, views)
	case outputJSON:
		return writeJSON(w, views)
	}

	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks found.")
		return err
	}
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = []string{strconv.Itoa(i + 1), shortID(t.ID), checkbox(t.Completed), t.Text, t.CreatedAt.Local().Format("2006-01-02 15:04")}
	}
	_, err := fmt.Fprintln(w, renderTable([]string{"#", "ID", "Done", "Task", "Created"}, rows, func(row int) bool {
		return tasks[row].Completed
	}))
	return err
}

func writeTask(w io.Writer, format string, task domain.Task, verb string) error {
	switch format {
	case outputYAML:
		return writeYAML(w, newTaskView(task))
	case outputJSON:
		return writeJSON(w, newTaskView(task))
	}
	_, err := fmt.Fprintf(w, "%s task %s (%s)\n", verb, task.Text, shortID(task.ID))
	return err
}

func writeStatus(w io.Writer, format string, st domain.StoreStatus) error {
	view := statusView{
		DataDir:      st.DataDir,
		DBPath:       st.DBPath,
		DBExists:     st.DBExists,
		TableExists:  st.TableExists,
		ConfigPath:   st.ConfigPath,
		ConfigExists: st.ConfigExists,
	}

	switch format {
	case outputYAML:
		return writeYAML(w, view)
	case outputJSON:
		return writeJSON(w, view)
	}

	rows := [][]string{
		{"Data dir", view.DataDir},
		{"Database", fmt.Sprintf("%s (%s)", view.DBPath, present(view.DBExists))},
		{"Table", present(view.TableExists)},
		{"Config", fmt.Sprintf("%s (%s)", view.ConfigPath, present(view.ConfigExists))},
	}
	_, err := fmt.Fprintln(w, renderTable([]string{"Item", "Value"}, rows, nil))
	return err
}

func renderTable(headers []string, rows [][]string, done func(row int) bool) string {
	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerRowStyle
			}
			if done != nil && done(row) && col == 3 {
				return doneStyle
			}
			return cellStyle
		})
	return t.Render()
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func present(ok bool) string {
	if ok {
		return "present"
	}
	return "missing"
}
