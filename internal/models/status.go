package models

// Status is the reservation lifecycle state. Compared by value.
type Status string

const (
	StatusCreated   Status = "created"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether the value is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// CanBeConfirmed is true only for a freshly created reservation.
func (s Status) CanBeConfirmed() bool {
	return s == StatusCreated
}

// CanBeCancelled is true for every state except cancelled, which is terminal.
func (s Status) CanBeCancelled() bool {
	return s != StatusCancelled
}

func (s Status) String() string {
	return string(s)
}
