// Package spec describes reservation queries as declarative descriptors so
// business code never depends on the storage engine. The storage adapter
// pattern-matches on the kind to build its native query, applying criteria,
// then ordering, then paging.
package spec

import (
	"time"

	"reservio/internal/models"
)

// Kind enumerates the closed set of query shapes.
type Kind int

const (
	KindAll Kind = iota
	KindByCustomer
	KindActive
	KindUpcoming
	KindConfirmedForCustomer
	KindByStatus
)

func (k Kind) String() string {
	switch k {
	case KindByCustomer:
		return "by_customer"
	case KindActive:
		return "active"
	case KindUpcoming:
		return "upcoming"
	case KindConfirmedForCustomer:
		return "confirmed_for_customer"
	case KindByStatus:
		return "by_status"
	default:
		return "all"
	}
}

// OrderKey names the ordering column of a specification.
type OrderKey int

const (
	OrderNone OrderKey = iota
	OrderStartDate
	OrderCreatedAt
	// OrderConfirmedAt sorts by confirmation time, falling back to creation
	// time for rows never confirmed.
	OrderConfirmedAt
)

// Specification is an immutable filter+order+page descriptor. Construct one
// per query intent and reuse it freely; it carries no mutable state.
type Specification struct {
	Kind       Kind
	CustomerID string
	Status     models.Status
	Now        time.Time

	Order      OrderKey
	Descending bool

	Skip      int
	Take      int
	HasPaging bool
}

// All matches every reservation, unordered.
func All() Specification {
	return Specification{Kind: KindAll}
}

// ByCustomer matches a customer's reservations, newest start date first.
func ByCustomer(customerID string) Specification {
	return Specification{
		Kind:       KindByCustomer,
		CustomerID: customerID,
		Order:      OrderStartDate,
		Descending: true,
	}
}

// ByCustomerPaged is ByCustomer with a page window.
func ByCustomerPaged(customerID string, skip, take int) Specification {
	return ByCustomer(customerID).WithPaging(skip, take)
}

// Active matches reservations that are not cancelled and have not yet ended.
func Active(now time.Time) Specification {
	return Specification{Kind: KindActive, Now: now, Order: OrderStartDate}
}

// Upcoming matches reservations that are not cancelled and have not yet
// started.
func Upcoming(now time.Time) Specification {
	return Specification{Kind: KindUpcoming, Now: now, Order: OrderStartDate}
}

// ConfirmedForCustomer matches a customer's confirmed reservations, ordered
// by confirmation time with creation time as fallback.
func ConfirmedForCustomer(customerID string) Specification {
	return Specification{
		Kind:       KindConfirmedForCustomer,
		CustomerID: customerID,
		Order:      OrderConfirmedAt,
	}
}

// ByStatus matches reservations in the given lifecycle state.
func ByStatus(status models.Status) Specification {
	return Specification{Kind: KindByStatus, Status: status}
}

// WithPaging returns a copy with a skip/take window. The consuming repository
// applies skip before take, after criteria and ordering.
func (s Specification) WithPaging(skip, take int) Specification {
	if skip < 0 {
		skip = 0
	}
	if take < 0 {
		take = 0
	}
	s.Skip = skip
	s.Take = take
	s.HasPaging = true
	return s
}

// Matches is the criteria predicate over the aggregate, independent of any
// storage engine. Ordering and paging are not part of it.
func (s Specification) Matches(r *models.Reservation) bool {
	switch s.Kind {
	case KindByCustomer:
		return r.CustomerID == s.CustomerID
	case KindActive:
		return r.Status != models.StatusCancelled && r.EndDate.After(s.Now)
	case KindUpcoming:
		return r.Status != models.StatusCancelled && r.StartDate.After(s.Now)
	case KindConfirmedForCustomer:
		return r.CustomerID == s.CustomerID && r.Status == models.StatusConfirmed
	case KindByStatus:
		return r.Status == s.Status
	default:
		return true
	}
}
