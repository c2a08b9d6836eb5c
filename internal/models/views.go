package models

import "time"

// Result is the uniform outcome shape for every mutating command. ErrorKind
// is transport metadata for status-code mapping and is not part of the wire
// shape.
type Result struct {
	Success      bool   `json:"success"`
	ID           string `json:"id,omitempty"`
	Status       string `json:"status,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ErrorKind    string `json:"-"`
}

// OKResult builds a success result for an aggregate.
func OKResult(id string, status Status) Result {
	return Result{Success: true, ID: id, Status: status.String()}
}

// FailResult builds a failure result with a caller-facing message.
func FailResult(kind, message string) Result {
	return Result{Success: false, ErrorMessage: message, ErrorKind: kind}
}

// ReservationView is the read-side projection returned by queries.
type ReservationView struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// NewReservationView projects an aggregate into its read shape.
func NewReservationView(r *Reservation) ReservationView {
	return ReservationView{
		ID:         r.ID,
		CustomerID: r.CustomerID,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		Status:     r.Status.String(),
		CreatedAt:  r.CreatedAt,
		ModifiedAt: r.ModifiedAt,
	}
}

// ReservationPage is a windowed query result with the total match count.
type ReservationPage struct {
	Items []ReservationView `json:"items"`
	Total int               `json:"total"`
	Skip  int               `json:"skip"`
	Take  int               `json:"take"`
}
