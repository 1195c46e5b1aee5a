package travel

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caravelchain/caravel/blockchain"
)

// Ledger is the slice of the chain the service needs: confirmed
// transaction lookup for payment checks.
type Ledger interface {
	FindTransaction(id string) (*blockchain.Transaction, uint64, bool)
}

// TourRequest carries the writable tour fields. Active only applies
// on update; new tours always start active.
type TourRequest struct {
	Title       string
	Description string
	Location    string
	Price       uint64
	Capacity    int
	StartDate   int64
	EndDate     int64
	Active      *bool
}

// Service owns the tour, booking and review registries.
type Service struct {
	mu       sync.RWMutex
	tours    map[string]*Tour
	bookings map[string]*Booking
	reviews  map[string][]*Review
	chain    Ledger
	log      *zap.Logger
}

// NewService builds an empty service over chain.
func NewService(chain Ledger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tours:    make(map[string]*Tour),
		bookings: make(map[string]*Booking),
		reviews:  make(map[string][]*Review),
		chain:    chain,
		log:      logger,
	}
}

func validateTour(req TourRequest) error {
	if req.Title == "" {
		return errors.New("tour title is required")
	}
	if req.Price == 0 {
		return errors.New("tour price must be positive")
	}
	if req.Capacity <= 0 {
		return errors.New("tour capacity must be positive")
	}
	if req.StartDate > 0 && req.EndDate > 0 && req.EndDate < req.StartDate {
		return errors.New("tour ends before it starts")
	}
	return nil
}

// CreateTour registers a new active tour administered by admin, the
// address its payments must be sent to.
func (s *Service) CreateTour(admin string, req TourRequest) (*Tour, error) {
	if admin == "" {
		return nil, errors.New("tour admin is required")
	}
	if err := validateTour(req); err != nil {
		return nil, err
	}

	t := &Tour{
		ID:          uuid.NewString(),
		Admin:       admin,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Price:       req.Price,
		Capacity:    req.Capacity,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Active:      true,
		CreatedAt:   time.Now().Unix(),
	}

	s.mu.Lock()
	s.tours[t.ID] = t
	s.mu.Unlock()

	s.log.Info("tour created",
		zap.String("id", t.ID),
		zap.String("admin", admin),
		zap.String("title", t.Title),
		zap.Uint64("price", t.Price))
	return t.clone(), nil
}

// UpdateTour rewrites the tour's writable fields. Only the tour's
// admin may update it.
func (s *Service) UpdateTour(tourID, admin string, req TourRequest) (*Tour, error) {
	if err := validateTour(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tours[tourID]
	if !ok {
		return nil, ErrUnknownTour
	}
	if t.Admin != admin {
		return nil, ErrNotTourAdmin
	}

	t.Title = req.Title
	t.Description = req.Description
	t.Location = req.Location
	t.Price = req.Price
	t.Capacity = req.Capacity
	t.StartDate = req.StartDate
	t.EndDate = req.EndDate
	if req.Active != nil {
		t.Active = *req.Active
	}
	return t.clone(), nil
}

// Tour returns one tour by id.
func (s *Service) Tour(tourID string) (*Tour, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tours[tourID]
	if !ok {
		return nil, ErrUnknownTour
	}
	return t.clone(), nil
}

// Tours lists tours, optionally only the active ones, oldest first.
func (s *Service) Tours(activeOnly bool) []*Tour {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Tour, 0, len(s.tours))
	for _, t := range s.tours {
		if activeOnly && !t.Active {
			continue
		}
		out = append(out, t.clone())
	}
	sortTours(out)
	return out
}

// ToursByAdmin lists every tour administered by admin.
func (s *Service) ToursByAdmin(admin string) []*Tour {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Tour
	for _, t := range s.tours {
		if t.Admin == admin {
			out = append(out, t.clone())
		}
	}
	sortTours(out)
	return out
}

// Book reserves seats on an active tour. The booking starts PENDING;
// payment happens on the ledger and is checked in Confirm.
func (s *Service) Book(tourID, user string, seats int) (*Booking, error) {
	if user == "" {
		return nil, errors.New("booking user is required")
	}
	if seats <= 0 {
		return nil, errors.New("booking needs at least one seat")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tours[tourID]
	if !ok {
		return nil, ErrUnknownTour
	}
	if !t.Active {
		return nil, ErrTourInactive
	}
	if s.seatsTakenUnsafe(tourID)+seats > t.Capacity {
		return nil, ErrNoCapacity
	}

	b := &Booking{
		ID:         uuid.NewString(),
		TourID:     tourID,
		User:       user,
		Seats:      seats,
		TotalPrice: uint64(seats) * t.Price,
		Status:     BookingPending,
		CreatedAt:  time.Now().Unix(),
	}
	s.bookings[b.ID] = b

	s.log.Info("booking created",
		zap.String("id", b.ID),
		zap.String("tour", tourID),
		zap.String("user", user),
		zap.Int("seats", seats),
		zap.Uint64("total", b.TotalPrice))
	return b.clone(), nil
}

// seatsTakenUnsafe sums the seats of every booking on the tour that
// has not been cancelled. Callers hold at least the read lock.
func (s *Service) seatsTakenUnsafe(tourID string) int {
	taken := 0
	for _, b := range s.bookings {
		if b.TourID == tourID && b.Status != BookingCancelled {
			taken += b.Seats
		}
	}
	return taken
}

// Confirm settles a pending booking against an on-chain payment. The
// referenced transaction must be confirmed, sent by the booking user,
// pay the tour's admin, cover the total price and not already back
// another booking.
func (s *Service) Confirm(bookingID, paymentTxID string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, ErrUnknownBooking
	}
	if b.Status != BookingPending {
		return nil, ErrBookingNotPending
	}
	t := s.tours[b.TourID]

	tx, blockIndex, ok := s.chain.FindTransaction(paymentTxID)
	if !ok {
		return nil, ErrPaymentNotFound
	}
	for _, other := range s.bookings {
		if other.PaymentTxID == paymentTxID {
			return nil, fmt.Errorf("%w: transaction already backs booking %s", ErrPaymentMismatch, other.ID)
		}
	}
	if sender := tx.SenderIdentity(); sender != b.User {
		return nil, fmt.Errorf("%w: paid by %s, booked by %s", ErrPaymentMismatch, sender, b.User)
	}
	if tx.Recipient != t.Admin {
		return nil, fmt.Errorf("%w: pays %s, tour admin is %s", ErrPaymentMismatch, tx.Recipient, t.Admin)
	}
	if tx.Amount < b.TotalPrice {
		return nil, fmt.Errorf("%w: paid %d of %d", ErrPaymentMismatch, tx.Amount, b.TotalPrice)
	}

	b.Status = BookingConfirmed
	b.PaymentTxID = paymentTxID
	s.log.Info("booking confirmed",
		zap.String("id", b.ID),
		zap.String("tour", b.TourID),
		zap.String("tx", paymentTxID),
		zap.Uint64("block", blockIndex))
	return b.clone(), nil
}

// Cancel releases a booking's seats. Only the booking's own user may
// cancel, and only once.
func (s *Service) Cancel(bookingID, user string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, ErrUnknownBooking
	}
	if b.User != user {
		return nil, ErrNotBookingUser
	}
	if b.Status == BookingCancelled {
		return nil, ErrBookingNotPending
	}

	b.Status = BookingCancelled
	s.log.Info("booking cancelled",
		zap.String("id", b.ID),
		zap.String("tour", b.TourID),
		zap.String("user", user))
	return b.clone(), nil
}

// BookingsByUser lists the user's bookings, oldest first.
func (s *Service) BookingsByUser(user string) []*Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Booking
	for _, b := range s.bookings {
		if b.User == user {
			out = append(out, b.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// AddReview records a rating for a tour. Only users with a confirmed
// booking may review, once per tour.
func (s *Service) AddReview(tourID, user string, rating int, comment string) (*Review, error) {
	if user == "" {
		return nil, errors.New("review user is required")
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tours[tourID]; !ok {
		return nil, ErrUnknownTour
	}
	if !s.hasConfirmedBookingUnsafe(tourID, user) {
		return nil, ErrReviewNotEligible
	}
	for _, r := range s.reviews[tourID] {
		if r.User == user {
			return nil, ErrAlreadyReviewed
		}
	}

	r := &Review{
		ID:        uuid.NewString(),
		TourID:    tourID,
		User:      user,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().Unix(),
	}
	s.reviews[tourID] = append(s.reviews[tourID], r)

	s.log.Debug("review added",
		zap.String("tour", tourID),
		zap.String("user", user),
		zap.Int("rating", rating))
	return r.clone(), nil
}

func (s *Service) hasConfirmedBookingUnsafe(tourID, user string) bool {
	for _, b := range s.bookings {
		if b.TourID == tourID && b.User == user && b.Status == BookingConfirmed {
			return true
		}
	}
	return false
}

// Reviews lists a tour's reviews in the order they were added.
func (s *Service) Reviews(tourID string) ([]*Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.tours[tourID]; !ok {
		return nil, ErrUnknownTour
	}
	trail := s.reviews[tourID]
	out := make([]*Review, len(trail))
	for i, r := range trail {
		out[i] = r.clone()
	}
	return out, nil
}

// AverageRating is the mean of a tour's ratings, 0 when unreviewed.
func (s *Service) AverageRating(tourID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.tours[tourID]; !ok {
		return 0, ErrUnknownTour
	}
	trail := s.reviews[tourID]
	if len(trail) == 0 {
		return 0, nil
	}
	sum := 0
	for _, r := range trail {
		sum += r.Rating
	}
	return float64(sum) / float64(len(trail)), nil
}

// AdminStats aggregates every tour run by admin: the booking count
// skips cancellations, revenue counts confirmed bookings only.
func (s *Service) AdminStats(admin string) AdminStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats AdminStats
	ratingSum, ratingCount := 0, 0
	for id, t := range s.tours {
		if t.Admin != admin {
			continue
		}
		stats.Tours++
		for _, b := range s.bookings {
			if b.TourID != id || b.Status == BookingCancelled {
				continue
			}
			stats.Bookings++
			if b.Status == BookingConfirmed {
				stats.ConfirmedRevenue += b.TotalPrice
			}
		}
		for _, r := range s.reviews[id] {
			ratingSum += r.Rating
			ratingCount++
		}
	}
	if ratingCount > 0 {
		stats.AverageRating = float64(ratingSum) / float64(ratingCount)
	}
	return stats
}

func sortTours(tours []*Tour) {
	sort.Slice(tours, func(i, j int) bool {
		if tours[i].CreatedAt != tours[j].CreatedAt {
			return tours[i].CreatedAt < tours[j].CreatedAt
		}
		return tours[i].ID < tours[j].ID
	})
}
