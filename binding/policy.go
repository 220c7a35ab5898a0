package binding

// NullPolicy controls whether a field's null values are carried on the wire.
// It is resolved against a global default once, at binding construction; per-call code
// only ever consults the two resolved booleans.
type NullPolicy uint8

const (
	// NullDefault defers to the global default policy.
	NullDefault NullPolicy = iota

	// NullKeep carries nulls in both directions.
	NullKeep

	// NullOmit drops null fields when encoding and ignores null tokens when decoding.
	NullOmit

	// NullOmitWrite drops null fields when encoding only.
	NullOmitWrite

	// NullOmitRead ignores null tokens when decoding only, leaving the field untouched.
	NullOmitRead
)

// String returns the policy's name.
func (p NullPolicy) String() string {
	switch p {
	case NullDefault:
		return "default"
	case NullKeep:
		return "keep"
	case NullOmit:
		return "omit"
	case NullOmitWrite:
		return "omitwrite"
	case NullOmitRead:
		return "omitread"
	default:
		return "invalid"
	}
}

// resolve returns the enforceable flags for the policy, falling back to def when the
// policy is NullDefault. def itself must not be NullDefault; callers substitute NullKeep.
func (p NullPolicy) resolve(def NullPolicy) (omitWrite, omitRead bool) {
	if p == NullDefault {
		p = def
	}
	switch p {
	case NullOmit:
		return true, true
	case NullOmitWrite:
		return true, false
	case NullOmitRead:
		return false, true
	default:
		return false, false
	}
}
