package ticktock

import "time"

// Component names a suite component in render notifications.
type Component string

// Suite components.
const (
	ComponentWorldClock Component = "world_clock"
	ComponentStopwatch  Component = "stopwatch"
	ComponentCountdown  Component = "countdown"
	ComponentAlarms     Component = "alarms"
	ComponentBedtime    Component = "bedtime"
)

// Hooks holds optional callback functions for suite lifecycle events. All
// fields are nil by default; callers set only the hooks they care about.
// Once constructed, a Hooks value must not be mutated: emit methods read the
// function fields without synchronisation.
//
// OnRender is the render collaborator: it is called after every state change
// and on every periodic redraw, and the callee redraws the named component.
//
// Hooks are invoked on the goroutine that changed the state, with no
// component lock held, so a hook may call back into the component.
type Hooks struct {
	OnRender         func(c Component)
	OnLap            func(lap time.Duration)
	OnCountdownTick  func(remaining int)
	OnCountdownFired func()
	OnAlarmAdded     func(alarm Alarm)
	OnAlarmRemoved   func(alarm Alarm)
	OnAlarmFired     func(alarm Alarm)
	OnCityAdded      func(zone string)
	OnCityRemoved    func(zone string)
	OnStoreError     func(key string, err error)
}

// ChainHooks returns Hooks that invoke every non-nil callback of hs in order.
// Nil entries are skipped.
func ChainHooks(hs ...*Hooks) *Hooks {
	var live []*Hooks

	for _, h := range hs {
		if h != nil {
			live = append(live, h)
		}
	}

	return &Hooks{
		OnRender: func(c Component) {
			for _, h := range live {
				h.emitRender(c)
			}
		},
		OnLap: func(lap time.Duration) {
			for _, h := range live {
				h.emitLap(lap)
			}
		},
		OnCountdownTick: func(remaining int) {
			for _, h := range live {
				h.emitCountdownTick(remaining)
			}
		},
		OnCountdownFired: func() {
			for _, h := range live {
				h.emitCountdownFired()
			}
		},
		OnAlarmAdded: func(alarm Alarm) {
			for _, h := range live {
				h.emitAlarmAdded(alarm)
			}
		},
		OnAlarmRemoved: func(alarm Alarm) {
			for _, h := range live {
				h.emitAlarmRemoved(alarm)
			}
		},
		OnAlarmFired: func(alarm Alarm) {
			for _, h := range live {
				h.emitAlarmFired(alarm)
			}
		},
		OnCityAdded: func(zone string) {
			for _, h := range live {
				h.emitCityAdded(zone)
			}
		},
		OnCityRemoved: func(zone string) {
			for _, h := range live {
				h.emitCityRemoved(zone)
			}
		},
		OnStoreError: func(key string, err error) {
			for _, h := range live {
				h.emitStoreError(key, err)
			}
		},
	}
}

func (h *Hooks) emitRender(c Component) {
	if h != nil && h.OnRender != nil {
		h.OnRender(c)
	}
}

func (h *Hooks) emitLap(lap time.Duration) {
	if h != nil && h.OnLap != nil {
		h.OnLap(lap)
	}
}

func (h *Hooks) emitCountdownTick(remaining int) {
	if h != nil && h.OnCountdownTick != nil {
		h.OnCountdownTick(remaining)
	}
}

func (h *Hooks) emitCountdownFired() {
	if h != nil && h.OnCountdownFired != nil {
		h.OnCountdownFired()
	}
}

func (h *Hooks) emitAlarmAdded(alarm Alarm) {
	if h != nil && h.OnAlarmAdded != nil {
		h.OnAlarmAdded(alarm)
	}
}

func (h *Hooks) emitAlarmRemoved(alarm Alarm) {
	if h != nil && h.OnAlarmRemoved != nil {
		h.OnAlarmRemoved(alarm)
	}
}

func (h *Hooks) emitAlarmFired(alarm Alarm) {
	if h != nil && h.OnAlarmFired != nil {
		h.OnAlarmFired(alarm)
	}
}

func (h *Hooks) emitCityAdded(zone string) {
	if h != nil && h.OnCityAdded != nil {
		h.OnCityAdded(zone)
	}
}

func (h *Hooks) emitCityRemoved(zone string) {
	if h != nil && h.OnCityRemoved != nil {
		h.OnCityRemoved(zone)
	}
}

func (h *Hooks) emitStoreError(key string, err error) {
	if h != nil && h.OnStoreError != nil {
		h.OnStoreError(key, err)
	}
}
