package swarm

import "fmt"

// Status is the trust state of a drone.
type Status uint8

// Drone status values.
const (
	Healthy Status = iota
	Jammed
	Hijacked
)

var statusNames = [...]string{
	Healthy:  "healthy",
	Jammed:   "jammed",
	Hijacked: "hijacked",
}

// Statuses lists every status in declaration order.
func Statuses() []Status {
	return []Status{Healthy, Jammed, Hijacked}
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// MarshalText encodes the status as its lower-case name.
func (s Status) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("unknown status %d", uint8(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText parses a lower-case status name.
func (s *Status) UnmarshalText(b []byte) error {
	st, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseStatus converts a status name into a Status.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return Healthy, fmt.Errorf("unknown status %q", name)
}

// HijackMode controls how a hijack request treats an already hijacked drone.
type HijackMode string

const (
	// HijackToggle flips Healthy and Hijacked.
	HijackToggle HijackMode = "toggle"
	// HijackLatch only moves Healthy drones to Hijacked; RestoreAll undoes it.
	HijackLatch HijackMode = "latch"
)
