package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caravelchain/caravel/supplychain"
)

// SupplyHandlers serves product registration and custody trails.
type SupplyHandlers struct {
	registry *supplychain.Registry
}

func NewSupplyHandlers(registry *supplychain.Registry) *SupplyHandlers {
	return &SupplyHandlers{registry: registry}
}

func (h *SupplyHandlers) Register(r *gin.RouterGroup) {
	r.POST("/supplychain/product", h.registerProduct)
	r.GET("/supplychain/product/:id", h.product)
	r.POST("/supplychain/product/:id/event", h.addEvent)
	r.GET("/supplychain/product/:id/history", h.history)
	r.GET("/supplychain/product/:id/verify", h.verify)
	r.GET("/supplychain/products", h.products)
}

type registerProductRequest struct {
	Name         string `json:"name" binding:"required"`
	Manufacturer string `json:"manufacturer" binding:"required"`
	Category     string `json:"category"`
	Origin       string `json:"origin"`
}

func (h *SupplyHandlers) registerProduct(c *gin.Context) {
	var req registerProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	p, err := h.registry.RegisterProduct(supplychain.RegisterRequest{
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		Category:     req.Category,
		Origin:       req.Origin,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *SupplyHandlers) product(c *gin.Context) {
	p, err := h.registry.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type addEventRequest struct {
	Type     string            `json:"type" binding:"required"`
	Actor    string            `json:"actor" binding:"required"`
	Location string            `json:"location"`
	Data     map[string]string `json:"data"`
}

func (h *SupplyHandlers) addEvent(c *gin.Context) {
	var req addEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	e, err := h.registry.AddEvent(c.Param("id"), supplychain.EventRequest{
		Type:     supplychain.EventType(req.Type),
		Actor:    req.Actor,
		Location: req.Location,
		Data:     req.Data,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *SupplyHandlers) history(c *gin.Context) {
	trail, err := h.registry.History(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": trail})
}

func (h *SupplyHandlers) verify(c *gin.Context) {
	claimed := c.Query("hash")
	if claimed == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "hash query parameter is required"})
		return
	}
	authentic, err := h.registry.VerifyAuthenticity(c.Param("id"), claimed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authentic": authentic})
}

func (h *SupplyHandlers) products(c *gin.Context) {
	products := h.registry.Products(supplychain.Filter{
		Category:     c.Query("category"),
		Manufacturer: c.Query("manufacturer"),
	})
	c.JSON(http.StatusOK, gin.H{"products": products})
}
