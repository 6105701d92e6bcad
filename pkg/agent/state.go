package agent

// State is one of the agent's four states.
type State string

const (
	Idle          State = "Idle"
	Acknowledging State = "Acknowledging"
	AwaitingQuery State = "AwaitingQuery"
	Responding    State = "Responding"
)
