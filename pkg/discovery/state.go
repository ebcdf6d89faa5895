package discovery

// State is the position of a discovery walk.
type State int

const (
	StateScanningContainer State = iota
	StateScanningType
	StateScanningMember
	StateDone
)

func (s State) String() string {
	switch s {
	case StateScanningContainer:
		return "scanning-container"
	case StateScanningType:
		return "scanning-type"
	case StateScanningMember:
		return "scanning-member"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
