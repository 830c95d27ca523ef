package model

// SimState is the coarse run state of the simulation tick engine.
type SimState string

const (
	StateStopped SimState = "stopped"
	StateRunning SimState = "running"
	StatePaused  SimState = "paused"
)
