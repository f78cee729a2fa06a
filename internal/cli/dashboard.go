package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

const gridColumns = 24

var (
	dashboardsTUI  bool
	dashboardsJSON bool
)

type dashboardsModel struct {
	active int
	width  int
	height int

	// Data.
	runID      string
	dashboards []models.RoleDashboard

	// State.
	loading bool
	err     error
}

// dashboardsLoadedMsg carries loaded dashboards back to the model.
type dashboardsLoadedMsg struct {
	runID      string
	dashboards []models.RoleDashboard
	err        error
}

func newDashboardsModel() dashboardsModel {
	return dashboardsModel{loading: true}
}

func (m dashboardsModel) Init() tea.Cmd {
	return loadDashboards
}

func (m dashboardsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "l":
			if n := len(m.dashboards); n > 0 {
				m.active = (m.active + 1) % n
			}
			return m, nil
		case "shift+tab", "left", "h":
			if n := len(m.dashboards); n > 0 {
				m.active = (m.active - 1 + n) % n
			}
			return m, nil
		case "r":
			m.loading = true
			return m, loadDashboards
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dashboardsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.runID = msg.runID
		m.dashboards = msg.dashboards
		if m.active >= len(m.dashboards) {
			m.active = 0
		}
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardsModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" obsforge dashboards ")
	help := mutedStyle.Render("tab/shift+tab: switch role | r: reload | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading dashboards...\n\n%s", title, help)
	}
	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}
	if len(m.dashboards) == 0 {
		return fmt.Sprintf("%s\n\n  No dashboards in the last run.\n\n%s", title, help)
	}

	tabs := make([]string, len(m.dashboards))
	for i, d := range m.dashboards {
		label := fmt.Sprintf("%s (%d)", d.Role, len(d.Widgets))
		if i == m.active {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = tabStyle.Render(label)
		}
	}

	d := m.dashboards[m.active]
	header := headerStyle.Render(fmt.Sprintf("%s  rev %d", d.Name, d.Revision))
	body := renderGrid(d, m.width-2)

	return fmt.Sprintf("%s\n\n%s\n\n%s\n%s\n\n%s",
		title, lipgloss.JoinHorizontal(lipgloss.Top, tabs...), header, body, help)
}

// renderGrid draws the widgets of d row by row, scaled from the 24-column
// grid to width terminal cells.
func renderGrid(d models.RoleDashboard, width int) string {
	if len(d.Widgets) == 0 {
		return mutedStyle.Render("  No widgets.")
	}

	cell := width / gridColumns
	if cell < 2 {
		cell = 2
	}

	rows := make(map[int][]models.WidgetSpec)
	var ys []int
	for _, w := range d.Widgets {
		if _, ok := rows[w.Position.Y]; !ok {
			ys = append(ys, w.Position.Y)
		}
		rows[w.Position.Y] = append(rows[w.Position.Y], w)
	}
	sort.Ints(ys)

	lines := make([]string, 0, len(ys))
	for _, y := range ys {
		row := rows[y]
		sort.Slice(row, func(i, j int) bool { return row[i].Position.X < row[j].Position.X })
		boxes := make([]string, len(row))
		for i, w := range row {
			// Border and padding take four cells.
			inner := w.Layout.Width*cell - 4
			if inner < 4 {
				inner = 4
			}
			content := fmt.Sprintf("%s\n%s", truncate(w.Title, inner), mutedStyle.Render(truncate(string(w.View), inner)))
			boxes[i] = widgetStyle.Width(inner).Render(content)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

func loadDashboards() tea.Msg {
	synth, err := loadOutput()
	if err != nil {
		return dashboardsLoadedMsg{err: err}
	}
	return dashboardsLoadedMsg{runID: synth.RunID, dashboards: synth.Dashboards}
}

// printDashboards writes a static listing of dashboards.
func printDashboards(w io.Writer, dashboards []models.RoleDashboard) {
	for i, d := range dashboards {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%s, rev %d, %d widgets)", d.Name, d.Role, d.Revision, len(d.Widgets))))
		if len(d.Widgets) == 0 {
			fmt.Fprintln(w, mutedStyle.Render("  No widgets."))
			continue
		}
		for _, wd := range d.Widgets {
			fmt.Fprintf(w, "  %-10s %-44s %s\n",
				fmt.Sprintf("%d,%d %dx%d", wd.Position.X, wd.Position.Y, wd.Layout.Width, wd.Layout.Height),
				wd.Title,
				mutedStyle.Render(string(wd.View)),
			)
		}
	}
}

var dashboardsCmd = &cobra.Command{
	Use:   "dashboards [role]",
	Short: "Show the role dashboards of the last synthesis run",
	Long: `Show the role dashboards written by the last "obsforge synth" run.

Pass a role (developer, operator, executive, security) to show one dashboard.
With --tui, browse the dashboards in an interactive terminal view: switch
roles with Tab, reload with r, quit with q.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if dashboardsTUI {
			p := tea.NewProgram(newDashboardsModel(), tea.WithAltScreen())
			_, err := p.Run()
			return err
		}

		synth, err := loadOutput()
		if err != nil {
			return err
		}

		dashboards := synth.Dashboards
		if len(args) == 1 {
			role := models.Role(strings.ToLower(args[0]))
			if !role.Valid() {
				return fmt.Errorf("invalid role %q: must be one of developer, operator, executive, security", args[0])
			}
			dashboards = nil
			for _, d := range synth.Dashboards {
				if d.Role == role {
					dashboards = append(dashboards, d)
				}
			}
			if len(dashboards) == 0 {
				return fmt.Errorf("no dashboard for role %s in the last run", role)
			}
		}

		out := cmd.OutOrStdout()
		if dashboardsJSON {
			data, err := json.MarshalIndent(dashboards, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting dashboards as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(dashboards) == 0 {
			fmt.Fprintln(out, "No dashboards.")
			return nil
		}
		printDashboards(out, dashboards)
		return nil
	},
}

func init() {
	dashboardsCmd.Flags().BoolVar(&dashboardsTUI, "tui", false, "Browse dashboards interactively")
	dashboardsCmd.Flags().BoolVar(&dashboardsJSON, "json", false, "Output dashboards as JSON")
	dashboardsCmd.ValidArgsFunction = completeFirstArg(completeRoles)
	rootCmd.AddCommand(dashboardsCmd)
}
