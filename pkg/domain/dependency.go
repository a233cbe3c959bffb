package domain

// Temporal selects which step a dependency reads relative to the step
// being computed.
type Temporal string

const (
	// TemporalCurrent reads the same step being computed. The scheduler
	// guarantees the target has already produced it.
	TemporalCurrent Temporal = "current"
	// TemporalPrevious reads the prior step. A previous edge never
	// constrains scheduling order, since its value is already settled.
	TemporalPrevious Temporal = "previous"
)

// Cardinality selects how many qualifying steps a dependency pulls.
type Cardinality string

const (
	// CardinalityLatest pulls only the single most recent qualifying step.
	CardinalityLatest Cardinality = "latest"
	// CardinalityAll pulls every qualifying step from 0 upward.
	CardinalityAll Cardinality = "all"
	// CardinalityWindow pulls the trailing Window qualifying steps.
	CardinalityWindow Cardinality = "window"
)

// RefKind closes the set of things a dependency may point at. Graph
// mutation needs the distinction: a dangling source target is registered
// automatically, a dangling derived target is a configuration error, and
// a self-reference has no target at all.
type RefKind string

const (
	// RefSource references an externally-fed column.
	RefSource RefKind = "source"
	// RefDerived references another computed column.
	RefDerived RefKind = "derived"
	// RefSelf references the declaring column's own prior output.
	RefSelf RefKind = "self"
)

// Dependency declares what a derived column reads. Targets are referenced
// by registry key (column name), never by object identity, so graph surgery
// can swap a column without rewriting its dependents' declarations.
type Dependency struct {
	// Kind discriminates source, derived, and self references.
	Kind RefKind `json:"kind" yaml:"kind"`

	// Target is the referenced column's name. Empty for self-references.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	Temporal    Temporal    `json:"temporal" yaml:"temporal"`
	Cardinality Cardinality `json:"cardinality" yaml:"cardinality"`

	// Window bounds CardinalityWindow to the trailing N steps.
	Window int `json:"window,omitempty" yaml:"window,omitempty"`

	// Tag overrides the display name used when the value is wrapped in a
	// named envelope during assembly. Defaults to Target.
	Tag string `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// FromSource builds a reference to a source column.
func FromSource(target string, temporal Temporal, cardinality Cardinality) Dependency {
	return Dependency{Kind: RefSource, Target: target, Temporal: temporal, Cardinality: cardinality}
}

// FromDerived builds a reference to another derived column.
func FromDerived(target string, temporal Temporal, cardinality Cardinality) Dependency {
	return Dependency{Kind: RefDerived, Target: target, Temporal: temporal, Cardinality: cardinality}
}

// FromSelf builds a self-reference. Self-references are previous-temporal:
// a column can never read its own not-yet-computed value.
func FromSelf(cardinality Cardinality) Dependency {
	return Dependency{Kind: RefSelf, Temporal: TemporalPrevious, Cardinality: cardinality}
}

// Windowed returns a copy of d bounded to the trailing n steps.
func (d Dependency) Windowed(n int) Dependency {
	d.Cardinality = CardinalityWindow
	d.Window = n
	return d
}

// Tagged returns a copy of d with a display-name override for wrapping.
func (d Dependency) Tagged(tag string) Dependency {
	d.Tag = tag
	return d
}

// Self reports whether this is a self-reference.
func (d Dependency) Self() bool { return d.Kind == RefSelf }

// DisplayName returns the name used for tag envelopes: the override if
// set, the target's name otherwise.
func (d Dependency) DisplayName() string {
	if d.Tag != "" {
		return d.Tag
	}
	return d.Target
}

// Role returns the conversational role this dependency's values carry.
func (d Dependency) Role() Role {
	if d.Self() {
		return RoleAssistant
	}
	return RoleUser
}

// Validate checks the structural invariants of a single dependency.
func (d Dependency) Validate() error {
	switch d.Kind {
	case RefSelf:
		if d.Temporal == TemporalCurrent {
			return ErrSelfCurrent
		}
	case RefSource, RefDerived:
		if d.Target == "" {
			return ErrDependencyNotFound
		}
	default:
		return ErrInvalidReference
	}
	if d.Cardinality == CardinalityWindow && d.Window < 1 {
		return ErrInvalidWindow
	}
	return nil
}
