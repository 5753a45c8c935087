package automation

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verdant-ops/facility-backend-go/internal/core/alerts"
)

// Intent is an outbound control request for an external climate or lighting
// collaborator. The core never learns whether the collaborator succeeded.
type Intent struct {
	Kind   string             `json:"kind"`
	Zone   string             `json:"zone"`
	Params map[string]float64 `json:"params,omitempty"`
}

// IntentPublisher delivers intents to external collaborators.
type IntentPublisher interface {
	PublishIntent(intent Intent) error
}

// ActionResult is the structured outcome of one dispatched action. A failed
// action never stops the actions after it.
type ActionResult struct {
	ActionID string     `json:"action_id"`
	Kind     ActionKind `json:"kind"`
	Success  bool       `json:"success"`
	Detail   string     `json:"detail,omitempty"`
	Err      error      `json:"-"`
}

// actionHandler executes one action kind. The table keeps the vocabulary
// closed in one place, mirroring the trigger evaluator table.
type actionHandler func(d *Dispatcher, rule *Rule, act Action, now time.Time) (string, error)

// Dispatcher interprets actions, emits intents, raises alerts, and records
// every attempt in the automation log.
type Dispatcher struct {
	alerts    *alerts.Store
	log       *Log
	publisher IntentPublisher
	logger    *logrus.Logger
	handlers  map[ActionKind]actionHandler
}

// NewDispatcher creates an action dispatcher.
func NewDispatcher(alertStore *alerts.Store, autoLog *Log, publisher IntentPublisher, logger *logrus.Logger) *Dispatcher {
	d := &Dispatcher{
		alerts:    alertStore,
		log:       autoLog,
		publisher: publisher,
		logger:    logger,
	}
	d.handlers = map[ActionKind]actionHandler{
		ActionSetTemperature:    execSetTemperature,
		ActionSetHumidity:       execSetHumidity,
		ActionLightOn:           execLightOn,
		ActionLightOff:          execLightOff,
		ActionSetLightIntensity: execSetLightIntensity,
		ActionSendAlert:         execSendAlert,
		ActionEmergencyShutdown: execEmergencyShutdown,
		ActionLogEvent:          execLogEvent,
	}
	return d
}

// Execute runs every action of the rule in declared order with
// fire-and-continue semantics: a failure is logged at error level, tagged
// with the action id, and the remaining actions still run.
func (d *Dispatcher) Execute(rule *Rule, now time.Time) []ActionResult {
	results := make([]ActionResult, 0, len(rule.Actions))
	for _, act := range rule.Actions {
		results = append(results, d.dispatch(rule, act, now))
	}
	return results
}

func (d *Dispatcher) dispatch(rule *Rule, act Action, now time.Time) ActionResult {
	result := ActionResult{ActionID: act.GetID(), Kind: act.Kind()}

	handler, ok := d.handlers[act.Kind()]
	if !ok {
		// Unknown kinds are deliberate no-ops.
		result.Success = true
		result.Detail = "unsupported action kind ignored"
		return result
	}

	detail, err := handler(d, rule, act, now)
	if err != nil {
		result.Err = err
		result.Detail = err.Error()
		d.logger.WithError(err).WithFields(logrus.Fields{
			"rule_id":   rule.ID,
			"action_id": act.GetID(),
			"kind":      string(act.Kind()),
		}).Error("Action execution failed")
		d.log.Append(LogEntry{
			Timestamp: now,
			Level:     LogLevelError,
			Component: "dispatcher",
			Message:   fmt.Sprintf("action %s (%s) failed: %v", act.GetID(), act.Kind(), err),
			RuleID:    rule.ID,
		})
		return result
	}

	result.Success = true
	result.Detail = detail
	d.log.Append(LogEntry{
		Timestamp: now,
		Level:     LogLevelInfo,
		Component: "dispatcher",
		Message:   fmt.Sprintf("action %s (%s) executed: %s", act.GetID(), act.Kind(), detail),
		RuleID:    rule.ID,
	})
	return result
}

func (d *Dispatcher) publish(intent Intent) error {
	if d.publisher == nil {
		return fmt.Errorf("no intent publisher configured")
	}
	return d.publisher.PublishIntent(intent)
}

func execSetTemperature(d *Dispatcher, _ *Rule, act Action, _ time.Time) (string, error) {
	a, ok := act.(SetTemperatureAction)
	if !ok {
		return "", fmt.Errorf("action %s is not a set_temperature action", act.GetID())
	}
	if math.IsNaN(a.Target) || math.IsInf(a.Target, 0) {
		return "", fmt.Errorf("invalid temperature setpoint")
	}
	if err := d.publish(Intent{Kind: "set_temperature", Zone: a.Zone, Params: map[string]float64{"target": a.Target}}); err != nil {
		return "", err
	}
	return fmt.Sprintf("set temperature to %.1f for zone %s", a.Target, a.Zone), nil
}

func execSetHumidity(d *Dispatcher, _ *Rule, act Action, _ time.Time) (string, error) {
	a, ok := act.(SetHumidityAction)
	if !ok {
		return "", fmt.Errorf("action %s is not a set_humidity action", act.GetID())
	}
	if math.IsNaN(a.Target) || math.IsInf(a.Target, 0) {
		return "", fmt.Errorf("invalid humidity setpoint")
	}
	if err := d.publish(Intent{Kind: "set_humidity", Zone: a.Zone, Params: map[string]float64{"target": a.Target}}); err != nil {
		return "", err
	}
	return fmt.Sprintf("set humidity to %.1f for zone %s", a.Target, a.Zone), nil
}

func execLightOn(d *Dispatcher, _ *Rule, act Action, _ time.Time) (string, error) {
	if err := d.publish(Intent{Kind: "light_on", Zone: act.TargetZone()}); err != nil {
		return "", err
	}
	return fmt.Sprintf("turned on lights for zone %s", act.TargetZone()), nil
}

func execLightOff(d *Dispatcher, _ *Rule, act Action, _ time.Time) (string, error) {
	if err := d.publish(Intent{Kind: "light_off", Zone: act.TargetZone()}); err != nil {
		return "", err
	}
	return fmt.Sprintf("turned off lights for zone %s", act.TargetZone()), nil
}

func execSetLightIntensity(d *Dispatcher, _ *Rule, act Action, _ time.Time) (string, error) {
	a, ok := act.(SetLightIntensityAction)
	if !ok {
		return "", fmt.Errorf("action %s is not a set_light_intensity action", act.GetID())
	}
	if err := a.Validate(); err != nil {
		return "", err
	}
	if err := d.publish(Intent{Kind: "set_light_intensity", Zone: a.Zone, Params: map[string]float64{"intensity": a.Intensity}}); err != nil {
		return "", err
	}
	return fmt.Sprintf("set light intensity to %.0f%% for zone %s", a.Intensity, a.Zone), nil
}

func execSendAlert(d *Dispatcher, rule *Rule, act Action, now time.Time) (string, error) {
	a, ok := act.(SendAlertAction)
	if !ok {
		return "", fmt.Errorf("action %s is not a send_alert action", act.GetID())
	}
	description := a.Message
	if description == "" {
		description = fmt.Sprintf("Rule %q fired", rule.Name)
	}
	alert := d.alerts.Raise(alerts.Alert{
		Timestamp:                  now,
		Severity:                   a.Severity,
		Title:                      fmt.Sprintf("Automation Alert: %s", rule.Name),
		Description:                description,
		Zone:                       a.Zone,
		RequiresImmediateAttention: a.Severity >= alerts.SeverityCritical,
	})
	return fmt.Sprintf("raised %s alert %s", alert.Severity, alert.ID), nil
}

// execEmergencyShutdown stops climate and lighting for the zone, then raises
// an emergency alert unconditionally — even if an intent failed to publish.
func execEmergencyShutdown(d *Dispatcher, rule *Rule, act Action, now time.Time) (string, error) {
	a, ok := act.(EmergencyShutdownAction)
	if !ok {
		return "", fmt.Errorf("action %s is not an emergency_shutdown action", act.GetID())
	}

	publishErr := d.publish(Intent{Kind: "emergency_shutdown", Zone: a.Zone})

	reason := a.Reason
	if reason == "" {
		reason = fmt.Sprintf("triggered by rule %q", rule.Name)
	}
	d.alerts.Raise(alerts.Alert{
		Timestamp:                  now,
		Severity:                   alerts.SeverityEmergency,
		Title:                      "Emergency Shutdown",
		Description:                reason,
		Zone:                       a.Zone,
		RequiresImmediateAttention: true,
	})

	if publishErr != nil {
		return "", fmt.Errorf("shutdown intent failed (alert raised): %w", publishErr)
	}
	return fmt.Sprintf("emergency shutdown issued for zone %s", a.Zone), nil
}

func execLogEvent(d *Dispatcher, rule *Rule, act Action, now time.Time) (string, error) {
	a, ok := act.(LogEventAction)
	if !ok {
		return "", fmt.Errorf("action %s is not a log_event action", act.GetID())
	}
	d.log.Append(LogEntry{
		Timestamp: now,
		Level:     LogLevelInfo,
		Component: "rule",
		Message:   a.Message,
		RuleID:    rule.ID,
	})
	return "event logged", nil
}
