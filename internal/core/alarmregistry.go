package core

import (
	"sync"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

// AlarmRegistry owns every alarm resolved so far and is the single source
// queried when wiring alarms to a notification channel.
type AlarmRegistry interface {
	// Add inserts alarms whose id is not yet known and returns only those.
	// Re-adding a known id is a no-op.
	Add(alarms []models.ResolvedAlarm) []models.ResolvedAlarm

	// Replace makes alarms the complete set held for resource (rt, id):
	// they are inserted or overwritten by id, and any alarm of that resource
	// missing from the set is dropped. It returns the written alarms and the
	// ids removed.
	Replace(rt models.ResourceType, id string, alarms []models.ResolvedAlarm) ([]models.ResolvedAlarm, []string)

	// Get returns the alarm with the given id.
	Get(id string) (models.ResolvedAlarm, bool)

	// All returns every alarm in insertion order.
	All() []models.ResolvedAlarm

	// Len returns the number of alarms held.
	Len() int
}

type alarmRegistry struct {
	mu     sync.RWMutex
	order  []string
	alarms map[string]models.ResolvedAlarm
}

// NewAlarmRegistry creates an empty AlarmRegistry.
func NewAlarmRegistry() AlarmRegistry {
	return &alarmRegistry{
		alarms: make(map[string]models.ResolvedAlarm),
	}
}

func (r *alarmRegistry) Add(alarms []models.ResolvedAlarm) []models.ResolvedAlarm {
	r.mu.Lock()
	defer r.mu.Unlock()

	var inserted []models.ResolvedAlarm
	for _, a := range alarms {
		if _, exists := r.alarms[a.ID]; exists {
			continue
		}
		r.alarms[a.ID] = cloneAlarm(a)
		r.order = append(r.order, a.ID)
		inserted = append(inserted, cloneAlarm(a))
	}
	return inserted
}

func (r *alarmRegistry) Replace(rt models.ResourceType, id string, alarms []models.ResolvedAlarm) ([]models.ResolvedAlarm, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keep := make(map[string]bool, len(alarms))
	out := make([]models.ResolvedAlarm, 0, len(alarms))
	for _, a := range alarms {
		keep[a.ID] = true
		if _, exists := r.alarms[a.ID]; !exists {
			r.order = append(r.order, a.ID)
		}
		r.alarms[a.ID] = cloneAlarm(a)
		out = append(out, cloneAlarm(a))
	}

	var removed []string
	order := r.order[:0]
	for _, alarmID := range r.order {
		a := r.alarms[alarmID]
		if a.ResourceType == rt && a.ResourceID == id && !keep[alarmID] {
			delete(r.alarms, alarmID)
			removed = append(removed, alarmID)
			continue
		}
		order = append(order, alarmID)
	}
	r.order = order
	return out, removed
}

func (r *alarmRegistry) Get(id string) (models.ResolvedAlarm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.alarms[id]
	if !ok {
		return models.ResolvedAlarm{}, false
	}
	return cloneAlarm(a), true
}

func (r *alarmRegistry) All() []models.ResolvedAlarm {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ResolvedAlarm, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneAlarm(r.alarms[id]))
	}
	return out
}

func (r *alarmRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func cloneAlarm(a models.ResolvedAlarm) models.ResolvedAlarm {
	a.Dimensions = a.Dimensions.Clone()
	a.Tags = cloneTags(a.Tags)
	return a
}
