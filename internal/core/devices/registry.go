package devices

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Type identifies what a device is.
type Type string

const (
	TypeActuator   Type = "actuator"
	TypeController Type = "controller"
	TypeCamera     Type = "camera"
	TypeSensorHub  Type = "sensor_hub"
)

// Status is a device's connectivity state. Transitions happen through
// connect/disconnect calls and the periodic health sweep only.
type Status string

const (
	StatusOnline     Status = "online"
	StatusOffline    Status = "offline"
	StatusLowBattery Status = "low_battery"
)

// Capabilities flags what a device can report.
type Capabilities struct {
	Battery   bool `json:"battery"`
	Telemetry bool `json:"telemetry"`
}

// Device is one IoT device record. ID, name, and type are immutable after
// creation.
type Device struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        Type         `json:"type"`
	Status      Status       `json:"status"`
	Address     string       `json:"address"`
	LastSeen    time.Time    `json:"last_seen"`
	Battery     float64      `json:"battery"`
	Caps        Capabilities `json:"capabilities"`
	ConnectedAt time.Time    `json:"connected_at"`
}

// StatusListener observes device status transitions.
type StatusListener func(d Device, previous Status)

// Registry owns IoT device records and the health/battery watchdog.
type Registry struct {
	mu           sync.RWMutex
	devices      map[string]*Device
	maxDevices   int
	offlineAfter time.Duration
	lowBattery   float64
	logger       *logrus.Logger
	onStatus     StatusListener
	nextAddr     int
}

// NewRegistry creates a device registry. offlineAfter is how long a device
// may go unseen while Online before the sweep marks it Offline; lowBattery
// is the percentage below which battery-capable devices degrade.
func NewRegistry(maxDevices int, offlineAfter time.Duration, lowBattery float64, logger *logrus.Logger) *Registry {
	return &Registry{
		devices:      make(map[string]*Device),
		maxDevices:   maxDevices,
		offlineAfter: offlineAfter,
		lowBattery:   lowBattery,
		logger:       logger,
	}
}

// OnStatusChange registers a single observer for status transitions.
func (r *Registry) OnStatusChange(fn StatusListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onStatus = fn
}

// Connect registers a device as Online with a full battery. Fails on a
// duplicate id or when the registry is at capacity; no state mutates on
// failure. An empty address is synthesized.
func (r *Registry) Connect(d Device, now time.Time) (Device, error) {
	if d.ID == "" {
		return Device{}, fmt.Errorf("device id is required")
	}
	if d.Name == "" {
		return Device{}, fmt.Errorf("device name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[d.ID]; exists {
		return Device{}, fmt.Errorf("device %s already connected", d.ID)
	}
	if r.maxDevices > 0 && len(r.devices) >= r.maxDevices {
		return Device{}, fmt.Errorf("device limit reached (%d)", r.maxDevices)
	}

	if d.Address == "" {
		r.nextAddr++
		d.Address = fmt.Sprintf("10.40.%d.%d", r.nextAddr/250, r.nextAddr%250+1)
	}
	d.Status = StatusOnline
	d.Battery = 100
	d.LastSeen = now
	d.ConnectedAt = now

	stored := d
	r.devices[d.ID] = &stored

	r.logger.WithFields(logrus.Fields{
		"device_id": d.ID,
		"type":      string(d.Type),
		"address":   d.Address,
	}).Info("Device connected")

	return d, nil
}

// Disconnect removes a device and notifies the status observer. Unknown ids
// are a no-op.
func (r *Registry) Disconnect(id string) {
	r.mu.Lock()
	d, ok := r.devices[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.devices, id)
	prev := d.Status
	snapshot := *d
	snapshot.Status = StatusOffline
	fn := r.onStatus
	r.mu.Unlock()

	r.logger.WithField("device_id", id).Info("Device disconnected")
	if fn != nil {
		fn(snapshot, prev)
	}
}

// Heartbeat refreshes a device's LastSeen and battery level. An Offline
// device seen again comes back Online.
func (r *Registry) Heartbeat(id string, battery float64, now time.Time) error {
	r.mu.Lock()
	d, ok := r.devices[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("device %s not found", id)
	}
	d.LastSeen = now
	if d.Caps.Battery && battery >= 0 {
		d.Battery = battery
	}
	var snapshot Device
	var prev Status
	var fn StatusListener
	if d.Status == StatusOffline {
		prev = d.Status
		d.Status = StatusOnline
		snapshot = *d
		fn = r.onStatus
	}
	r.mu.Unlock()

	if fn != nil {
		fn(snapshot, prev)
	}
	return nil
}

// Get returns a copy of a device record.
func (r *Registry) Get(id string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[id]
	if !ok {
		return Device{}, false
	}
	return *d, true
}

// All returns every device, ordered by id.
func (r *Registry) All() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OnlineCount returns how many devices are currently Online.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, d := range r.devices {
		if d.Status == StatusOnline {
			n++
		}
	}
	return n
}

// Sweep runs the health watchdog: Online devices unseen past the offline
// window go Offline; battery-capable devices under the low-battery threshold
// go LowBattery. Offline wins over LowBattery: an unreachable device keeps
// StatusOffline until a heartbeat revives it. Each transition notifies the
// observer exactly once.
func (r *Registry) Sweep(now time.Time) int {
	type transition struct {
		d    Device
		prev Status
	}

	r.mu.Lock()
	transitions := make([]transition, 0)
	for _, d := range r.devices {
		if d.Status == StatusOnline && now.Sub(d.LastSeen) > r.offlineAfter {
			prev := d.Status
			d.Status = StatusOffline
			transitions = append(transitions, transition{*d, prev})
			continue
		}
		if d.Caps.Battery && d.Battery < r.lowBattery && d.Status != StatusLowBattery && d.Status != StatusOffline {
			prev := d.Status
			d.Status = StatusLowBattery
			transitions = append(transitions, transition{*d, prev})
		}
	}
	fn := r.onStatus
	r.mu.Unlock()

	for _, t := range transitions {
		r.logger.WithFields(logrus.Fields{
			"device_id": t.d.ID,
			"from":      string(t.prev),
			"to":        string(t.d.Status),
		}).Warn("Device status changed")
		if fn != nil {
			fn(t.d, t.prev)
		}
	}
	return len(transitions)
}

// Clear drops every device record. Part of system shutdown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = make(map[string]*Device)
}
