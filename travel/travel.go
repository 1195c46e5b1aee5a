// Package travel runs a tour marketplace whose payments settle on the
// ledger. The service itself keeps tours, bookings and reviews in
// memory; a booking is only confirmed once its payment transaction is
// found on chain and checked against the booking.
package travel

import "errors"

var (
	ErrUnknownTour       = errors.New("travel: unknown tour")
	ErrUnknownBooking    = errors.New("travel: unknown booking")
	ErrNotTourAdmin      = errors.New("travel: caller does not administer this tour")
	ErrTourInactive      = errors.New("travel: tour is not active")
	ErrNoCapacity        = errors.New("travel: not enough seats left")
	ErrBookingNotPending = errors.New("travel: booking is not pending")
	ErrNotBookingUser    = errors.New("travel: booking belongs to another user")
	ErrPaymentNotFound   = errors.New("travel: payment transaction not found on chain")
	ErrPaymentMismatch   = errors.New("travel: payment does not match booking")
	ErrInvalidRating     = errors.New("travel: rating must be between 1 and 5")
	ErrAlreadyReviewed   = errors.New("travel: user already reviewed this tour")
	ErrReviewNotEligible = errors.New("travel: review requires a confirmed booking")
)

// BookingStatus tracks a booking through its life.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Tour is one bookable offering, administered by the address that
// collects its payments.
type Tour struct {
	ID          string `json:"id"`
	Admin       string `json:"admin"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Price       uint64 `json:"price"`
	Capacity    int    `json:"capacity"`
	StartDate   int64  `json:"start_date,omitempty"`
	EndDate     int64  `json:"end_date,omitempty"`
	Active      bool   `json:"active"`
	CreatedAt   int64  `json:"created_at"`
}

func (t *Tour) clone() *Tour {
	out := *t
	return &out
}

// Booking reserves seats on a tour. PaymentTxID is set when the
// booking is confirmed against an on-chain payment.
type Booking struct {
	ID          string        `json:"id"`
	TourID      string        `json:"tour_id"`
	User        string        `json:"user"`
	Seats       int           `json:"seats"`
	TotalPrice  uint64        `json:"total_price"`
	Status      BookingStatus `json:"status"`
	PaymentTxID string        `json:"payment_tx_id,omitempty"`
	CreatedAt   int64         `json:"created_at"`
}

func (b *Booking) clone() *Booking {
	out := *b
	return &out
}

// Review is one rating left by a confirmed guest.
type Review struct {
	ID        string `json:"id"`
	TourID    string `json:"tour_id"`
	User      string `json:"user"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

func (r *Review) clone() *Review {
	out := *r
	return &out
}

// AdminStats aggregates an administrator's tours.
type AdminStats struct {
	Tours            int     `json:"tours"`
	Bookings         int     `json:"bookings"`
	ConfirmedRevenue uint64  `json:"confirmed_revenue"`
	AverageRating    float64 `json:"average_rating"`
}
