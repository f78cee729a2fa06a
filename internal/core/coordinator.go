package core

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/valter-silva-au/obsforge/internal/catalog"
	"github.com/valter-silva-au/obsforge/internal/logger"
	"github.com/valter-silva-au/obsforge/pkg/models"
)

// Registration outcomes reported to the RegistrationRecorder.
const (
	OutcomeRegistered  = "registered"
	OutcomeUnmonitored = "unmonitored"
	OutcomeRejected    = "rejected"
)

var validate = validator.New()

// Catalog is everything the coordinator needs from the resource tables.
type Catalog interface {
	AlarmCatalog
	WidgetCatalog
	Known(rt models.ResourceType) bool
}

// RegistrationRecorder receives counters about registrations. The
// observability metrics type satisfies it.
type RegistrationRecorder interface {
	RecordRegistration(rt models.ResourceType, outcome string)
	RecordAlarmCreated(sev models.Severity)
	RecordWidgetAppended(role models.Role)
}

// CoordinatorOpts holds optional collaborators. Nil fields get defaults.
type CoordinatorOpts struct {
	Catalog  Catalog
	Logger   *zerolog.Logger
	Events   EventLogger
	Recorder RegistrationRecorder
}

// Registration is the result of registering one resource.
type Registration struct {
	ResourceType models.ResourceType
	ResourceID   string

	// Monitored is false when the resource type has no catalog rows.
	Monitored bool

	// Alarms holds every alarm for the resource, new or pre-existing.
	Alarms []models.ResolvedAlarm

	// CreatedAlarms counts alarms inserted by this call.
	CreatedAlarms int

	// RemovedAlarms lists alarm ids a replace dropped from the registry.
	RemovedAlarms []string

	// AddedWidgets holds the widgets appended by this call.
	AddedWidgets []models.WidgetSpec

	Dashboards map[models.Role]models.RoleDashboard
}

// AlarmIDs returns the ids of r's alarms in order.
func (r *Registration) AlarmIDs() []string {
	ids := make([]string, len(r.Alarms))
	for i, a := range r.Alarms {
		ids[i] = a.ID
	}
	return ids
}

// Coordinator is the entry point for registering resources. It exclusively
// owns its registries; nothing else mutates them. Instances share no state.
type Coordinator struct {
	cfg     models.ObservabilityConfig
	catalog Catalog

	resolver      AlarmResolver
	freshResolver AlarmResolver
	composer      DashboardComposer

	alarms     AlarmRegistry
	dashboards DashboardRegistry

	logger   zerolog.Logger
	events   EventLogger
	recorder RegistrationRecorder

	// mu serialises registration so that validation, resolution and the
	// registry commit of one resource never interleave with another.
	mu sync.Mutex
}

// NewCoordinator validates cfg and creates a Coordinator with fresh registries.
func NewCoordinator(cfg models.ObservabilityConfig, opts CoordinatorOpts) (*Coordinator, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating observability config: %w", err)
	}

	c := &Coordinator{
		cfg:      cfg,
		catalog:  opts.Catalog,
		composer: NewDashboardComposer(),
		events:   opts.Events,
		recorder: opts.Recorder,
	}
	if c.catalog == nil {
		c.catalog = catalog.Default()
	}
	if opts.Logger != nil {
		c.logger = logger.WithComponent(*opts.Logger, "coordinator")
	} else {
		c.logger = zerolog.Nop()
	}

	c.alarms = NewAlarmRegistry()
	c.dashboards = NewDashboardRegistry(cfg.EffectiveRoles(), cfg.NamePrefix)

	resolveOpts := ResolveOptions{
		DefaultEnvironment:  cfg.Environment,
		AlarmsEnabled:       cfg.AlarmsEnabled,
		NamePrefix:          cfg.NamePrefix,
		NotificationChannel: cfg.NotificationChannel,
	}
	c.resolver = NewAlarmResolver(resolveOpts, c.alarms)
	c.freshResolver = NewAlarmResolver(resolveOpts, nil)

	return c, nil
}

// RegisterResource resolves and composes everything desc contributes and
// commits it to the registries. Registering the same descriptor again
// returns the same alarms and leaves the dashboards unchanged. A failure
// leaves the registries exactly as they were.
func (c *Coordinator) RegisterResource(desc models.ResourceDescriptor) (*Registration, error) {
	return c.register(desc, false)
}

// ReplaceResource is RegisterResource with an explicit replace of the
// resource's alarms: they are recomputed, overwrite registered ones, and
// registered alarms the new resolution no longer yields are removed.
// Dashboards stay append-only.
func (c *Coordinator) ReplaceResource(desc models.ResourceDescriptor) (*Registration, error) {
	return c.register(desc, true)
}

func (c *Coordinator) register(desc models.ResourceDescriptor, replace bool) (*Registration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.logger.With().
		Str("resource_type", string(desc.Type)).
		Str("resource_id", desc.Identifier).
		Logger()

	if desc.Environment == "" {
		desc.Environment = c.cfg.Environment
	}

	if err := validate.Struct(desc); err != nil {
		return nil, c.reject(log, desc, &InvalidDescriptorError{ResourceID: desc.Identifier, Err: err})
	}

	reg := &Registration{
		ResourceType: desc.Type,
		ResourceID:   desc.Identifier,
	}

	if !c.catalog.Known(desc.Type) {
		log.Debug().Msg("no catalog rows for resource type, nothing to monitor")
		c.record(desc.Type, OutcomeUnmonitored)
		c.logEvent("resource.unmonitored", map[string]any{
			"resource_type": string(desc.Type),
			"resource_id":   desc.Identifier,
		})
		reg.Dashboards = c.dashboards.AllRoles()
		return reg, nil
	}
	reg.Monitored = true

	resolver := c.resolver
	if replace {
		resolver = c.freshResolver
	}
	alarms, err := resolver.Resolve(desc, c.catalog, desc.Overrides)
	if err != nil {
		return nil, c.reject(log, desc, fmt.Errorf("resolving alarms: %w", err))
	}

	var widgets []models.WidgetSpec
	if c.cfg.DashboardsOn() {
		widgets, err = c.composer.Compose(desc, c.catalog)
		if err != nil {
			return nil, c.reject(log, desc, fmt.Errorf("composing widgets: %w", err))
		}
	}

	// Everything below only mutates; nothing can fail past this point.
	var created []models.ResolvedAlarm
	var removed []string
	if replace {
		created, removed = c.alarms.Replace(desc.Type, desc.Identifier, alarms)
	} else {
		created = c.alarms.Add(alarms)
	}

	byRole := make(map[models.Role][]models.WidgetSpec)
	for _, w := range widgets {
		byRole[w.Role] = append(byRole[w.Role], w)
	}
	for _, role := range c.dashboards.Roles() {
		added := c.dashboards.Append(role, byRole[role])
		reg.AddedWidgets = append(reg.AddedWidgets, added...)
	}

	reg.Alarms = alarms
	reg.CreatedAlarms = len(created)
	reg.RemovedAlarms = removed
	reg.Dashboards = c.dashboards.AllRoles()

	for _, a := range created {
		if c.recorder != nil {
			c.recorder.RecordAlarmCreated(a.Severity)
		}
		c.logEvent("alarm.created", map[string]any{
			"alarm_id": a.ID,
			"name":     a.Name,
			"severity": string(a.Severity),
		})
	}
	for _, id := range removed {
		c.logEvent("alarm.removed", map[string]any{"alarm_id": id})
	}
	for _, w := range reg.AddedWidgets {
		if c.recorder != nil {
			c.recorder.RecordWidgetAppended(w.Role)
		}
		c.logEvent("widget.appended", map[string]any{
			"role":        string(w.Role),
			"kind":        w.Kind,
			"resource_id": w.ResourceID,
		})
	}
	c.record(desc.Type, OutcomeRegistered)
	c.logEvent("resource.registered", map[string]any{
		"resource_type":  string(desc.Type),
		"resource_id":    desc.Identifier,
		"environment":    string(desc.Environment),
		"alarms":         len(alarms),
		"alarms_created": len(created),
		"alarms_removed": len(removed),
		"widgets_added":  len(reg.AddedWidgets),
		"replace":        replace,
	})

	log.Info().
		Int("alarms", len(alarms)).
		Int("alarms_created", len(created)).
		Int("alarms_removed", len(removed)).
		Int("widgets_added", len(reg.AddedWidgets)).
		Msg("resource registered")

	return reg, nil
}

func (c *Coordinator) reject(log zerolog.Logger, desc models.ResourceDescriptor, err error) error {
	log.Warn().Err(err).Msg("resource rejected")
	c.record(desc.Type, OutcomeRejected)
	c.logEvent("resource.rejected", map[string]any{
		"resource_type": string(desc.Type),
		"resource_id":   desc.Identifier,
		"error":         err.Error(),
	})
	return err
}

func (c *Coordinator) record(rt models.ResourceType, outcome string) {
	if c.recorder != nil {
		c.recorder.RecordRegistration(rt, outcome)
	}
}

func (c *Coordinator) logEvent(eventType string, data map[string]any) {
	if c.events == nil {
		return
	}
	if err := c.events.LogEvent(eventType, data); err != nil {
		c.logger.Warn().Err(err).Str("event", eventType).Msg("writing event log")
	}
}

// Alarms returns every registered alarm in registration order.
func (c *Coordinator) Alarms() []models.ResolvedAlarm {
	return c.alarms.All()
}

// Dashboard returns the dashboard for role.
func (c *Coordinator) Dashboard(role models.Role) (models.RoleDashboard, bool) {
	return c.dashboards.Get(role)
}

// Dashboards returns every role dashboard.
func (c *Coordinator) Dashboards() map[models.Role]models.RoleDashboard {
	return c.dashboards.AllRoles()
}

// Roles lists the roles this coordinator keeps dashboards for.
func (c *Coordinator) Roles() []models.Role {
	return c.dashboards.Roles()
}

// Config returns the configuration the coordinator was built with.
func (c *Coordinator) Config() models.ObservabilityConfig {
	return c.cfg
}
