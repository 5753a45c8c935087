package automation

import (
	"fmt"
	"math"

	"github.com/verdant-ops/facility-backend-go/internal/core/alerts"
)

// ActionKind identifies what an action does when its rule fires.
type ActionKind string

const (
	ActionSetTemperature    ActionKind = "set_temperature"
	ActionSetHumidity       ActionKind = "set_humidity"
	ActionLightOn           ActionKind = "light_on"
	ActionLightOff          ActionKind = "light_off"
	ActionSetLightIntensity ActionKind = "set_light_intensity"
	ActionSendAlert         ActionKind = "send_alert"
	ActionEmergencyShutdown ActionKind = "emergency_shutdown"
	ActionLogEvent          ActionKind = "log_event"
)

// Action is one step in a rule's action list. Parameters are decoded into the
// concrete types below once, at rule creation, never at dispatch time.
type Action interface {
	GetID() string
	Kind() ActionKind
	TargetZone() string
	Validate() error
}

// BaseAction carries the fields shared by every action kind.
type BaseAction struct {
	ID   string `json:"id"`
	Zone string `json:"zone,omitempty"`

	// RequiresConfirmation is recorded from the rule definition but not acted
	// on: user interaction is outside this core.
	RequiresConfirmation bool `json:"requires_confirmation,omitempty"`
}

func (b BaseAction) GetID() string      { return b.ID }
func (b BaseAction) TargetZone() string { return b.Zone }

func (b BaseAction) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("action id is required")
	}
	return nil
}

// SetTemperatureAction asks the climate collaborator to hold a temperature.
type SetTemperatureAction struct {
	BaseAction
	Target float64 `json:"target"`
}

func (a SetTemperatureAction) Kind() ActionKind { return ActionSetTemperature }

func (a SetTemperatureAction) Validate() error {
	if err := a.BaseAction.Validate(); err != nil {
		return err
	}
	if a.Zone == "" {
		return fmt.Errorf("set_temperature action requires a target zone")
	}
	return nil
}

// SetHumidityAction asks the climate collaborator to hold a humidity level.
type SetHumidityAction struct {
	BaseAction
	Target float64 `json:"target"`
}

func (a SetHumidityAction) Kind() ActionKind { return ActionSetHumidity }

func (a SetHumidityAction) Validate() error {
	if err := a.BaseAction.Validate(); err != nil {
		return err
	}
	if a.Zone == "" {
		return fmt.Errorf("set_humidity action requires a target zone")
	}
	return nil
}

// TurnOnLightAction and TurnOffLightAction toggle zone lighting.
type TurnOnLightAction struct {
	BaseAction
}

func (a TurnOnLightAction) Kind() ActionKind { return ActionLightOn }

type TurnOffLightAction struct {
	BaseAction
}

func (a TurnOffLightAction) Kind() ActionKind { return ActionLightOff }

// SetLightIntensityAction sets a zone's light intensity in percent.
type SetLightIntensityAction struct {
	BaseAction
	Intensity float64 `json:"intensity"`
}

func (a SetLightIntensityAction) Kind() ActionKind { return ActionSetLightIntensity }

func (a SetLightIntensityAction) Validate() error {
	if err := a.BaseAction.Validate(); err != nil {
		return err
	}
	if math.IsNaN(a.Intensity) || a.Intensity < 0 || a.Intensity > 100 {
		return fmt.Errorf("light intensity must be within 0-100")
	}
	return nil
}

// SendAlertAction raises a SmartAlert built from the parent rule.
type SendAlertAction struct {
	BaseAction
	Severity alerts.Severity `json:"severity"`
	Message  string          `json:"message,omitempty"`
}

func (a SendAlertAction) Kind() ActionKind { return ActionSendAlert }

// EmergencyShutdownAction tells every collaborator in the zone to stop, then
// raises an emergency alert.
type EmergencyShutdownAction struct {
	BaseAction
	Reason string `json:"reason,omitempty"`
}

func (a EmergencyShutdownAction) Kind() ActionKind { return ActionEmergencyShutdown }

// LogEventAction writes an automation-log entry and nothing else.
type LogEventAction struct {
	BaseAction
	Message string `json:"message"`
}

func (a LogEventAction) Kind() ActionKind { return ActionLogEvent }

func (a LogEventAction) Validate() error {
	if err := a.BaseAction.Validate(); err != nil {
		return err
	}
	if a.Message == "" {
		return fmt.Errorf("log_event action requires a message")
	}
	return nil
}

// UnknownAction preserves an unrecognized kind from an imported rule
// definition. Dispatching it is a no-op, not an error.
type UnknownAction struct {
	BaseAction
	RawKind string `json:"raw_kind"`
}

func (a UnknownAction) Kind() ActionKind { return ActionKind(a.RawKind) }
