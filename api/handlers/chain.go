package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caravelchain/caravel/blockchain"
)

// ChainHandlers serves chain inspection and the difficulty knob.
type ChainHandlers struct {
	chain *blockchain.Ledger
}

func NewChainHandlers(chain *blockchain.Ledger) *ChainHandlers {
	return &ChainHandlers{chain: chain}
}

func (h *ChainHandlers) Register(r *gin.RouterGroup) {
	r.GET("/blockchain", h.blockchain)
	r.GET("/blockchain/validate", h.validate)
	r.GET("/pending-transactions", h.pending)
	r.GET("/difficulty", h.difficulty)
	r.POST("/difficulty", h.setDifficulty)
}

func (h *ChainHandlers) blockchain(c *gin.Context) {
	chain := h.chain.Chain()
	c.JSON(http.StatusOK, gin.H{
		"chain":      chain,
		"length":     len(chain),
		"difficulty": h.chain.Difficulty(),
		"pending":    len(h.chain.Pending()),
	})
}

func (h *ChainHandlers) validate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"valid": h.chain.Validate()})
}

func (h *ChainHandlers) pending(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"transactions": h.chain.Pending()})
}

func (h *ChainHandlers) difficulty(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"difficulty": h.chain.Difficulty()})
}

type setDifficultyRequest struct {
	Difficulty int `json:"difficulty" binding:"required"`
}

func (h *ChainHandlers) setDifficulty(c *gin.Context) {
	var req setDifficultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	if err := h.chain.SetDifficulty(req.Difficulty); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"difficulty": h.chain.Difficulty()})
}
