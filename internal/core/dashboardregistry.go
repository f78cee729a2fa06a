package core

import (
	"sync"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

// gridColumns is the width of the dashboard grid widgets are packed into.
const gridColumns = 24

const (
	defaultWidgetWidth  = 6
	defaultWidgetHeight = 6
)

// DashboardRegistry owns one append-only dashboard per configured role.
type DashboardRegistry interface {
	// Append merges widgets into role's dashboard, skipping any whose
	// (resource type, identifier, kind) is already present. It returns the
	// widgets actually added, positioned. Unknown roles add nothing.
	Append(role models.Role, widgets []models.WidgetSpec) []models.WidgetSpec

	// Get returns role's dashboard.
	Get(role models.Role) (models.RoleDashboard, bool)

	// AllRoles returns every dashboard keyed by role.
	AllRoles() map[models.Role]models.RoleDashboard

	// Roles lists the configured roles in order.
	Roles() []models.Role
}

type widgetKey struct {
	resourceType models.ResourceType
	resourceID   string
	kind         string
}

type roleDashboard struct {
	dash  models.RoleDashboard
	index map[widgetKey]bool
}

type dashboardRegistry struct {
	mu         sync.RWMutex
	roles      []models.Role
	dashboards map[models.Role]*roleDashboard
}

// NewDashboardRegistry creates a registry with an empty dashboard for each
// role. Dashboards are named "<prefix>-<role>", or just the role without a prefix.
func NewDashboardRegistry(roles []models.Role, namePrefix string) DashboardRegistry {
	r := &dashboardRegistry{
		dashboards: make(map[models.Role]*roleDashboard, len(roles)),
	}
	for _, role := range roles {
		if _, exists := r.dashboards[role]; exists {
			continue
		}
		name := string(role)
		if namePrefix != "" {
			name = namePrefix + "-" + name
		}
		r.roles = append(r.roles, role)
		r.dashboards[role] = &roleDashboard{
			dash:  models.RoleDashboard{Role: role, Name: name, Widgets: []models.WidgetSpec{}},
			index: make(map[widgetKey]bool),
		}
	}
	return r
}

func (r *dashboardRegistry) Append(role models.Role, widgets []models.WidgetSpec) []models.WidgetSpec {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.dashboards[role]
	if !ok {
		return nil
	}

	first := len(d.dash.Widgets)
	for _, w := range widgets {
		key := widgetKey{resourceType: w.ResourceType, resourceID: w.ResourceID, kind: w.Kind}
		if d.index[key] {
			continue
		}
		d.index[key] = true
		w = w.Clone()
		w.Role = role
		d.dash.Widgets = append(d.dash.Widgets, w)
	}

	if len(d.dash.Widgets) == first {
		return nil
	}

	d.render()

	added := make([]models.WidgetSpec, 0, len(d.dash.Widgets)-first)
	for _, w := range d.dash.Widgets[first:] {
		added = append(added, w.Clone())
	}
	return added
}

func (r *dashboardRegistry) Get(role models.Role) (models.RoleDashboard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dashboards[role]
	if !ok {
		return models.RoleDashboard{}, false
	}
	return d.dash.Clone(), true
}

func (r *dashboardRegistry) AllRoles() map[models.Role]models.RoleDashboard {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[models.Role]models.RoleDashboard, len(r.dashboards))
	for role, d := range r.dashboards {
		out[role] = d.dash.Clone()
	}
	return out
}

func (r *dashboardRegistry) Roles() []models.Role {
	return append([]models.Role(nil), r.roles...)
}

// render re-lays the widget list onto the grid, packing left to right and
// wrapping rows, then bumps the revision. Widgets keep their order.
func (d *roleDashboard) render() {
	x, y, rowHeight := 0, 0, 0
	for i := range d.dash.Widgets {
		w := &d.dash.Widgets[i]
		width := w.Layout.Width
		if width <= 0 {
			width = defaultWidgetWidth
		}
		if width > gridColumns {
			width = gridColumns
		}
		height := w.Layout.Height
		if height <= 0 {
			height = defaultWidgetHeight
		}
		w.Layout = models.Layout{Width: width, Height: height}

		if x+width > gridColumns {
			x = 0
			y += rowHeight
			rowHeight = 0
		}
		w.Position = models.Position{X: x, Y: y}
		x += width
		if height > rowHeight {
			rowHeight = height
		}
	}
	d.dash.Revision++
}
