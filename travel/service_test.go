package travel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caravelchain/caravel/blockchain"
	"github.com/caravelchain/caravel/wallet"
)

const adminAddr = "atlantic-tours-operator"

// testService wires a difficulty-1 ledger, a guest wallet holding one
// mined reward of 100 and an empty service.
func testService(t *testing.T) (*Service, *blockchain.Ledger, *wallet.Wallet) {
	t.Helper()
	led := blockchain.NewLedger(blockchain.Config{Difficulty: 1, MiningReward: 100})
	guest, err := wallet.New()
	require.NoError(t, err)
	_, err = led.Mine(guest.Address)
	require.NoError(t, err)
	return NewService(led, nil), led, guest
}

func createTour(t *testing.T, s *Service, price uint64, capacity int) *Tour {
	t.Helper()
	tour, err := s.CreateTour(adminAddr, TourRequest{
		Title:    "Lisbon by night",
		Location: "Lisbon",
		Price:    price,
		Capacity: capacity,
	})
	require.NoError(t, err)
	return tour
}

// payFor settles amount from the guest to the tour admin on chain and
// returns the confirmed transaction id.
func payFor(t *testing.T, led *blockchain.Ledger, guest *wallet.Wallet, amount uint64) string {
	t.Helper()
	tx, err := guest.NewTransfer(adminAddr, amount, "tour payment")
	require.NoError(t, err)
	require.NoError(t, led.SubmitTransaction(tx))
	_, err = led.Mine("miner")
	require.NoError(t, err)
	return tx.Hash()
}

func TestCreateTourValidation(t *testing.T) {
	s, _, _ := testService(t)

	valid := TourRequest{Title: "Hike", Price: 10, Capacity: 5}

	tests := []struct {
		name   string
		admin  string
		mutate func(r *TourRequest)
	}{
		{"missing admin", "", func(r *TourRequest) {}},
		{"missing title", adminAddr, func(r *TourRequest) { r.Title = "" }},
		{"zero price", adminAddr, func(r *TourRequest) { r.Price = 0 }},
		{"zero capacity", adminAddr, func(r *TourRequest) { r.Capacity = 0 }},
		{"ends before start", adminAddr, func(r *TourRequest) { r.StartDate = 200; r.EndDate = 100 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := s.CreateTour(tt.admin, req)
			require.Error(t, err)
		})
	}

	tour, err := s.CreateTour(adminAddr, valid)
	require.NoError(t, err)
	require.True(t, tour.Active)
	require.Equal(t, adminAddr, tour.Admin)
	require.NotEmpty(t, tour.ID)
}

func TestUpdateTour(t *testing.T) {
	s, _, _ := testService(t)
	tour := createTour(t, s, 30, 4)

	update := TourRequest{Title: "Lisbon by day", Price: 45, Capacity: 6}
	_, err := s.UpdateTour("missing", adminAddr, update)
	require.ErrorIs(t, err, ErrUnknownTour)
	_, err = s.UpdateTour(tour.ID, "not the admin", update)
	require.ErrorIs(t, err, ErrNotTourAdmin)
	_, err = s.UpdateTour(tour.ID, adminAddr, TourRequest{Title: "", Price: 45, Capacity: 6})
	require.Error(t, err, "updates are validated like creations")

	updated, err := s.UpdateTour(tour.ID, adminAddr, update)
	require.NoError(t, err)
	require.Equal(t, "Lisbon by day", updated.Title)
	require.EqualValues(t, 45, updated.Price)
	require.True(t, updated.Active, "active flag untouched unless set")

	inactive := false
	update.Active = &inactive
	updated, err = s.UpdateTour(tour.ID, adminAddr, update)
	require.NoError(t, err)
	require.False(t, updated.Active)
}

func TestTourListings(t *testing.T) {
	s, _, _ := testService(t)
	first := createTour(t, s, 30, 4)
	second := createTour(t, s, 50, 8)
	other, err := s.CreateTour("someone else", TourRequest{Title: "Porto", Price: 20, Capacity: 10})
	require.NoError(t, err)

	inactive := false
	_, err = s.UpdateTour(second.ID, adminAddr, TourRequest{
		Title: second.Title, Price: second.Price, Capacity: second.Capacity, Active: &inactive,
	})
	require.NoError(t, err)

	require.Len(t, s.Tours(false), 3)
	active := s.Tours(true)
	require.Len(t, active, 2)
	for _, tour := range active {
		require.NotEqual(t, second.ID, tour.ID)
	}

	require.Len(t, s.ToursByAdmin(adminAddr), 2)
	require.Len(t, s.ToursByAdmin("someone else"), 1)
	require.Empty(t, s.ToursByAdmin("nobody"))

	got, err := s.Tour(first.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID)
	_, err = s.Tour("missing")
	require.ErrorIs(t, err, ErrUnknownTour)

	// Returned tours are copies.
	got.Title = "scribbled over"
	fresh, err := s.Tour(first.ID)
	require.NoError(t, err)
	require.Equal(t, "Lisbon by night", fresh.Title)

	theirs := s.ToursByAdmin("someone else")
	require.Equal(t, other.ID, theirs[0].ID)
}

func TestBook(t *testing.T) {
	s, _, guest := testService(t)
	tour := createTour(t, s, 30, 3)

	_, err := s.Book("missing", guest.Address, 1)
	require.ErrorIs(t, err, ErrUnknownTour)
	_, err = s.Book(tour.ID, "", 1)
	require.Error(t, err)
	_, err = s.Book(tour.ID, guest.Address, 0)
	require.Error(t, err)

	booking, err := s.Book(tour.ID, guest.Address, 2)
	require.NoError(t, err)
	require.Equal(t, BookingPending, booking.Status)
	require.EqualValues(t, 60, booking.TotalPrice)

	_, err = s.Book(tour.ID, "second guest", 2)
	require.ErrorIs(t, err, ErrNoCapacity)
	third, err := s.Book(tour.ID, "second guest", 1)
	require.NoError(t, err)

	// Cancelled seats free up.
	_, err = s.Cancel(third.ID, "second guest")
	require.NoError(t, err)
	_, err = s.Book(tour.ID, "second guest", 1)
	require.NoError(t, err)

	inactive := false
	_, err = s.UpdateTour(tour.ID, adminAddr, TourRequest{
		Title: tour.Title, Price: tour.Price, Capacity: tour.Capacity, Active: &inactive,
	})
	require.NoError(t, err)
	_, err = s.Book(tour.ID, guest.Address, 1)
	require.ErrorIs(t, err, ErrTourInactive)
}

func TestConfirmFlow(t *testing.T) {
	s, led, guest := testService(t)
	tour := createTour(t, s, 30, 4)

	booking, err := s.Book(tour.ID, guest.Address, 2)
	require.NoError(t, err)

	txID := payFor(t, led, guest, 60)
	confirmed, err := s.Confirm(booking.ID, txID)
	require.NoError(t, err)
	require.Equal(t, BookingConfirmed, confirmed.Status)
	require.Equal(t, txID, confirmed.PaymentTxID)

	_, err = s.Confirm(booking.ID, txID)
	require.ErrorIs(t, err, ErrBookingNotPending)

	mine := s.BookingsByUser(guest.Address)
	require.Len(t, mine, 1)
	require.Equal(t, BookingConfirmed, mine[0].Status)
	require.Empty(t, s.BookingsByUser("nobody"))
}

func TestConfirmRejectsBadPayments(t *testing.T) {
	s, led, guest := testService(t)
	tour := createTour(t, s, 30, 8)

	// Several throwaway payments below; top the guest up to 300.
	for i := 0; i < 2; i++ {
		_, err := led.Mine(guest.Address)
		require.NoError(t, err)
	}

	booking, err := s.Book(tour.ID, guest.Address, 2)
	require.NoError(t, err)

	_, err = s.Confirm("missing", "whatever")
	require.ErrorIs(t, err, ErrUnknownBooking)

	_, err = s.Confirm(booking.ID, "0000000000000000000000000000000000000000000000000000000000000000")
	require.ErrorIs(t, err, ErrPaymentNotFound)

	// Submitted but unmined payments do not count.
	pendingTx, err := guest.NewTransfer(adminAddr, 60, "")
	require.NoError(t, err)
	require.NoError(t, led.SubmitTransaction(pendingTx))
	_, err = s.Confirm(booking.ID, pendingTx.Hash())
	require.ErrorIs(t, err, ErrPaymentNotFound)
	_, err = led.Mine("miner")
	require.NoError(t, err)

	// Paid by someone other than the booking user.
	stranger, err := wallet.New()
	require.NoError(t, err)
	_, err = led.Mine(stranger.Address)
	require.NoError(t, err)
	strangerTx, err := stranger.NewTransfer(adminAddr, 60, "")
	require.NoError(t, err)
	require.NoError(t, led.SubmitTransaction(strangerTx))
	_, err = led.Mine("miner")
	require.NoError(t, err)
	_, err = s.Confirm(booking.ID, strangerTx.Hash())
	require.ErrorIs(t, err, ErrPaymentMismatch)

	// Pays the wrong recipient.
	wrongRecipient, err := guest.NewTransfer("not the admin", 60, "")
	require.NoError(t, err)
	require.NoError(t, led.SubmitTransaction(wrongRecipient))
	_, err = led.Mine("miner")
	require.NoError(t, err)
	_, err = s.Confirm(booking.ID, wrongRecipient.Hash())
	require.ErrorIs(t, err, ErrPaymentMismatch)

	// Covers less than the total.
	short, err := guest.NewTransfer(adminAddr, 59, "")
	require.NoError(t, err)
	require.NoError(t, led.SubmitTransaction(short))
	_, err = led.Mine("miner")
	require.NoError(t, err)
	_, err = s.Confirm(booking.ID, short.Hash())
	require.ErrorIs(t, err, ErrPaymentMismatch)

	// A confirmed payment cannot back a second booking.
	txID := pendingTx.Hash()
	_, err = s.Confirm(booking.ID, txID)
	require.NoError(t, err)
	again, err := s.Book(tour.ID, guest.Address, 2)
	require.NoError(t, err)
	_, err = s.Confirm(again.ID, txID)
	require.ErrorIs(t, err, ErrPaymentMismatch)
}

func TestCancel(t *testing.T) {
	s, _, guest := testService(t)
	tour := createTour(t, s, 30, 4)
	booking, err := s.Book(tour.ID, guest.Address, 1)
	require.NoError(t, err)

	_, err = s.Cancel("missing", guest.Address)
	require.ErrorIs(t, err, ErrUnknownBooking)
	_, err = s.Cancel(booking.ID, "someone else")
	require.ErrorIs(t, err, ErrNotBookingUser)

	cancelled, err := s.Cancel(booking.ID, guest.Address)
	require.NoError(t, err)
	require.Equal(t, BookingCancelled, cancelled.Status)

	_, err = s.Cancel(booking.ID, guest.Address)
	require.ErrorIs(t, err, ErrBookingNotPending)
}

func TestReviews(t *testing.T) {
	s, led, guest := testService(t)
	tour := createTour(t, s, 30, 8)

	_, err := s.AddReview("missing", guest.Address, 4, "")
	require.ErrorIs(t, err, ErrUnknownTour)
	_, err = s.AddReview(tour.ID, guest.Address, 0, "")
	require.ErrorIs(t, err, ErrInvalidRating)
	_, err = s.AddReview(tour.ID, guest.Address, 6, "")
	require.ErrorIs(t, err, ErrInvalidRating)
	_, err = s.AddReview(tour.ID, guest.Address, 4, "lovely")
	require.ErrorIs(t, err, ErrReviewNotEligible, "no confirmed booking yet")

	booking, err := s.Book(tour.ID, guest.Address, 1)
	require.NoError(t, err)
	_, err = s.AddReview(tour.ID, guest.Address, 4, "lovely")
	require.ErrorIs(t, err, ErrReviewNotEligible, "pending booking is not enough")

	_, err = s.Confirm(booking.ID, payFor(t, led, guest, 30))
	require.NoError(t, err)

	review, err := s.AddReview(tour.ID, guest.Address, 4, "lovely")
	require.NoError(t, err)
	require.Equal(t, 4, review.Rating)
	_, err = s.AddReview(tour.ID, guest.Address, 5, "changed my mind")
	require.ErrorIs(t, err, ErrAlreadyReviewed)

	// Second confirmed guest reviews too.
	second, err := wallet.New()
	require.NoError(t, err)
	_, err = led.Mine(second.Address)
	require.NoError(t, err)
	secondBooking, err := s.Book(tour.ID, second.Address, 1)
	require.NoError(t, err)
	secondPay, err := second.NewTransfer(adminAddr, 30, "")
	require.NoError(t, err)
	require.NoError(t, led.SubmitTransaction(secondPay))
	_, err = led.Mine("miner")
	require.NoError(t, err)
	_, err = s.Confirm(secondBooking.ID, secondPay.Hash())
	require.NoError(t, err)
	_, err = s.AddReview(tour.ID, second.Address, 5, "")
	require.NoError(t, err)

	reviews, err := s.Reviews(tour.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	avg, err := s.AverageRating(tour.ID)
	require.NoError(t, err)
	require.InDelta(t, 4.5, avg, 0.001)

	empty := createTour(t, s, 10, 2)
	avg, err = s.AverageRating(empty.ID)
	require.NoError(t, err)
	require.Zero(t, avg)
	_, err = s.Reviews("missing")
	require.ErrorIs(t, err, ErrUnknownTour)
}

func TestAdminStats(t *testing.T) {
	s, led, guest := testService(t)
	tour := createTour(t, s, 30, 8)
	createTour(t, s, 50, 4)

	confirmed, err := s.Book(tour.ID, guest.Address, 2)
	require.NoError(t, err)
	_, err = s.Confirm(confirmed.ID, payFor(t, led, guest, 60))
	require.NoError(t, err)

	_, err = s.Book(tour.ID, "pending guest", 1)
	require.NoError(t, err)
	cancelled, err := s.Book(tour.ID, "flaky guest", 1)
	require.NoError(t, err)
	_, err = s.Cancel(cancelled.ID, "flaky guest")
	require.NoError(t, err)

	_, err = s.AddReview(tour.ID, guest.Address, 4, "")
	require.NoError(t, err)

	stats := s.AdminStats(adminAddr)
	require.Equal(t, 2, stats.Tours)
	require.Equal(t, 2, stats.Bookings, "cancelled bookings are not counted")
	require.EqualValues(t, 60, stats.ConfirmedRevenue)
	require.InDelta(t, 4.0, stats.AverageRating, 0.001)

	require.Zero(t, s.AdminStats("nobody"))
}
