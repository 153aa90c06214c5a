package checkout

type State int

const (
	StateNew State = iota
	StateSelectingAddress
	StateAddingAddress
	StateAwaitingPayment
	StatePlacingOrder
	StateFailed
	StateDone
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateSelectingAddress:
		return "selecting_address"
	case StateAddingAddress:
		return "adding_address"
	case StateAwaitingPayment:
		return "awaiting_payment"
	case StatePlacingOrder:
		return "placing_order"
	case StateFailed:
		return "failed"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// InPayment reports whether the flow is past address selection and not yet done.
func (s State) InPayment() bool {
	return s == StateAwaitingPayment || s == StatePlacingOrder || s == StateFailed
}

var transitions = map[State][]State{
	StateNew:              {StateSelectingAddress},
	StateSelectingAddress: {StateSelectingAddress, StateAddingAddress, StateAwaitingPayment, StateFailed},
	StateAddingAddress:    {StateSelectingAddress, StateAddingAddress},
	StateAwaitingPayment:  {StateSelectingAddress, StatePlacingOrder},
	StatePlacingOrder:     {StateDone, StateFailed},
	StateFailed:           {StateSelectingAddress, StateAddingAddress, StateAwaitingPayment, StatePlacingOrder, StateFailed},
	StateDone:             {},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
