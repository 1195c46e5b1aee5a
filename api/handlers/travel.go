package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/caravelchain/caravel/travel"
)

// TravelHandlers serves the tour marketplace.
type TravelHandlers struct {
	travel *travel.Service
}

func NewTravelHandlers(svc *travel.Service) *TravelHandlers {
	return &TravelHandlers{travel: svc}
}

func (h *TravelHandlers) Register(r *gin.RouterGroup) {
	r.POST("/travel/admin/tour", h.createTour)
	r.PUT("/travel/admin/tour/:id", h.updateTour)
	r.GET("/travel/admin/tours/:address", h.toursByAdmin)
	r.GET("/travel/admin/stats/:address", h.adminStats)
	r.GET("/travel/tours", h.tours)
	r.GET("/travel/tours/:id", h.tour)
	r.GET("/travel/tours/:id/reviews", h.reviews)
	r.POST("/travel/booking", h.book)
	r.POST("/travel/booking/:id/confirm", h.confirm)
	r.POST("/travel/booking/:id/cancel", h.cancel)
	r.GET("/travel/user/:address/bookings", h.bookingsByUser)
	r.POST("/travel/review", h.addReview)
}

type tourRequest struct {
	AdminAddress string `json:"admin_address" binding:"required"`
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	Price        uint64 `json:"price" binding:"required"`
	Capacity     int    `json:"capacity" binding:"required"`
	StartDate    int64  `json:"start_date"`
	EndDate      int64  `json:"end_date"`
	Active       *bool  `json:"active"`
}

func (r *tourRequest) toService() travel.TourRequest {
	return travel.TourRequest{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		Price:       r.Price,
		Capacity:    r.Capacity,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Active:      r.Active,
	}
}

func (h *TravelHandlers) createTour(c *gin.Context) {
	var req tourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	tour, err := h.travel.CreateTour(req.AdminAddress, req.toService())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tour)
}

func (h *TravelHandlers) updateTour(c *gin.Context) {
	var req tourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	tour, err := h.travel.UpdateTour(c.Param("id"), req.AdminAddress, req.toService())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

func (h *TravelHandlers) toursByAdmin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tours": h.travel.ToursByAdmin(c.Param("address"))})
}

func (h *TravelHandlers) adminStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.travel.AdminStats(c.Param("address")))
}

// tours lists active tours unless ?active=false asks for everything.
func (h *TravelHandlers) tours(c *gin.Context) {
	activeOnly, err := strconv.ParseBool(c.DefaultQuery("active", "true"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "active must be a boolean"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tours": h.travel.Tours(activeOnly)})
}

func (h *TravelHandlers) tour(c *gin.Context) {
	tour, err := h.travel.Tour(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

type bookRequest struct {
	TourID      string `json:"tour_id" binding:"required"`
	UserAddress string `json:"user_address" binding:"required"`
	Seats       int    `json:"seats" binding:"required"`
}

func (h *TravelHandlers) book(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	booking, err := h.travel.Book(req.TourID, req.UserAddress, req.Seats)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

type confirmRequest struct {
	PaymentTxID string `json:"payment_tx_id" binding:"required"`
}

func (h *TravelHandlers) confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	booking, err := h.travel.Confirm(c.Param("id"), req.PaymentTxID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

type cancelRequest struct {
	UserAddress string `json:"user_address" binding:"required"`
}

func (h *TravelHandlers) cancel(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	booking, err := h.travel.Cancel(c.Param("id"), req.UserAddress)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *TravelHandlers) bookingsByUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"bookings": h.travel.BookingsByUser(c.Param("address"))})
}

type reviewRequest struct {
	TourID      string `json:"tour_id" binding:"required"`
	UserAddress string `json:"user_address" binding:"required"`
	Rating      int    `json:"rating" binding:"required"`
	Comment     string `json:"comment"`
}

func (h *TravelHandlers) addReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	review, err := h.travel.AddReview(req.TourID, req.UserAddress, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *TravelHandlers) reviews(c *gin.Context) {
	tourID := c.Param("id")
	reviews, err := h.travel.Reviews(tourID)
	if err != nil {
		respondError(c, err)
		return
	}
	average, err := h.travel.AverageRating(tourID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "average_rating": average})
}
