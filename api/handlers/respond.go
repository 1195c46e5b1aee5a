// Package handlers holds the gin handlers behind the API server, one
// file per domain.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caravelchain/caravel/blockchain"
	"github.com/caravelchain/caravel/contract"
	"github.com/caravelchain/caravel/supplychain"
	"github.com/caravelchain/caravel/travel"
	"github.com/caravelchain/caravel/wallet"
)

// respondError maps a service error onto a status code and the
// {"error": ...} body every endpoint uses.
func respondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var insufficient *blockchain.InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		return http.StatusPaymentRequired
	case errors.Is(err, wallet.ErrUnknownWallet),
		errors.Is(err, contract.ErrUnknownContract),
		errors.Is(err, supplychain.ErrUnknownProduct),
		errors.Is(err, travel.ErrUnknownTour),
		errors.Is(err, travel.ErrUnknownBooking),
		errors.Is(err, travel.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, blockchain.ErrAlreadySigned),
		errors.Is(err, contract.ErrTerminalStatus),
		errors.Is(err, travel.ErrNoCapacity),
		errors.Is(err, travel.ErrBookingNotPending),
		errors.Is(err, travel.ErrAlreadyReviewed):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
