package alarm

// Decision is the outcome of a single Tick.
type Decision int

const (
	// Waiting means nothing to do: disarmed or not the target minute.
	Waiting Decision = iota
	// Fire means the target minute was reached and sound should start.
	Fire
	// AlreadyFired means the target minute is still current and Fire was
	// already returned for it.
	AlreadyFired
)

// String returns the lower-case name used in logs and the HTTP API.
func (d Decision) String() string {
	switch d {
	case Waiting:
		return "waiting"
	case Fire:
		return "fire"
	case AlreadyFired:
		return "already_fired"
	default:
		return "unknown"
	}
}

// DefaultTarget is the target a new dashboard starts with.
var DefaultTarget = Target{Hour: 8, Minute: 0}

// Snapshot is a read-only copy of the engine state for rendering.
type Snapshot struct {
	Target Target
	Armed  bool
	// Fired is the debounce flag: true while the fired minute is current.
	Fired bool
	// Playing is true from Fire until Silence.
	Playing      bool
	LastDecision Decision
}

// Engine decides once per matching minute whether the alarm fires.
// It is not safe for concurrent use; see Controller.
type Engine struct {
	target  Target
	armed   bool
	fired   bool
	playing bool

	lastDecision Decision
}

// New creates a disarmed engine for target.
func New(target Target) *Engine {
	return &Engine{target: target}
}

// SetTarget overwrites the target. Values are stored as given.
func (e *Engine) SetTarget(hour, minute int) {
	e.target = Target{Hour: hour, Minute: minute}
}

// SetArmed overwrites the armed flag.
func (e *Engine) SetArmed(active bool) {
	e.armed = active
}

// Tick evaluates the current clock minute. Seconds are irrelevant.
// The debounce flag clears on any tick whose minute differs from the
// target minute, armed or not; only armed ticks can fire.
func (e *Engine) Tick(hour, minute int) Decision {
	if minute != e.target.Minute {
		e.fired = false
	}

	match := hour == e.target.Hour && minute == e.target.Minute
	switch {
	case !e.armed || !match:
		e.lastDecision = Waiting
	case e.fired:
		e.lastDecision = AlreadyFired
	default:
		e.fired = true
		e.playing = true
		e.lastDecision = Fire
	}
	return e.lastDecision
}

// Silence clears the playing flag. The debounce flag is left alone so the
// current minute does not fire again.
func (e *Engine) Silence() {
	e.playing = false
}

// Target returns the configured target.
func (e *Engine) Target() Target {
	return e.target
}

// Armed reports whether ticks are evaluated.
func (e *Engine) Armed() bool {
	return e.armed
}

// Playing reports whether the engine believes the sound is active.
func (e *Engine) Playing() bool {
	return e.playing
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Target:       e.target,
		Armed:        e.armed,
		Fired:        e.fired,
		Playing:      e.playing,
		LastDecision: e.lastDecision,
	}
}
