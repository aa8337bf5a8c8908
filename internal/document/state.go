package document

// State is the lifecycle position of a loaded document.
type State uint8

const (
	StateNone State = iota
	StateParsed
	StateIndexed
	StateLinked
	StateValidated
)

func (s State) String() string {
	switch s {
	case StateParsed:
		return "parsed"
	case StateIndexed:
		return "indexed"
	case StateLinked:
		return "linked"
	case StateValidated:
		return "validated"
	default:
		return "none"
	}
}
