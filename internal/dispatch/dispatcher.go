package dispatch

import (
	"go.uber.org/zap"

	"github.com/basajaundev/MQTT-Dashboard/internal/models"
)

// Consumer is a render consumer: a zero-argument callback that projects
// the current snapshot into a view. Consumers only read; they must not
// mutate the store or retain state across invocations.
type Consumer func()

// Dispatcher maps entity-group mutations to the render consumers that
// depend on them. Consumers run synchronously in registration order, so
// a consumer with cross-group dependencies can rely on upstream groups
// being already updated. There is never a global redraw.
type Dispatcher struct {
	consumers map[models.Group][]Consumer
	logger    *zap.Logger
}

// New creates an empty dispatcher.
func New(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		consumers: map[models.Group][]Consumer{},
		logger:    logger,
	}
}

// Register attaches fn to a group. Registering on models.GroupAlways
// runs fn after every mutation, whatever the group.
func (d *Dispatcher) Register(group models.Group, fn Consumer) {
	d.consumers[group] = append(d.consumers[group], fn)
}

// Notify invokes the consumers of one group, then the always consumers.
func (d *Dispatcher) Notify(group models.Group) {
	d.NotifyGroups(group)
}

// NotifyGroups invokes several groups' consumers for a single mutation,
// in the given order, with the always consumers once at the end. Used
// when one message touches derived views of more than one group (a
// status change re-renders the server list).
func (d *Dispatcher) NotifyGroups(groups ...models.Group) {
	for _, group := range groups {
		d.logger.Debug("dispatching group change", zap.String("group", string(group)))
		if group == models.GroupAlways {
			continue
		}
		for _, fn := range d.consumers[group] {
			fn()
		}
	}
	for _, fn := range d.consumers[models.GroupAlways] {
		fn()
	}
}

// NotifyFullSync invokes every group's consumers in the dependency
// order (status, then selector sources, then primary lists), and the
// always consumers once at the end. A full sync is one mutation, so the
// always consumers run once, not per group.
func (d *Dispatcher) NotifyFullSync() {
	d.logger.Debug("dispatching full sync")
	for _, group := range models.FullSyncOrder {
		for _, fn := range d.consumers[group] {
			fn()
		}
	}
	for _, fn := range d.consumers[models.GroupAlways] {
		fn()
	}
}
