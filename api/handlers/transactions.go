package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caravelchain/caravel/blockchain"
)

// TransactionNode is the part of the node facade the transaction and
// mining endpoints use.
type TransactionNode interface {
	CreateTransaction(senderAddr, recipient string, amount uint64, note string) (*blockchain.Transaction, error)
	MineBlock(ctx context.Context, miner string) (*blockchain.Block, error)
}

// TransactionHandlers serves transfer submission and mining.
type TransactionHandlers struct {
	node TransactionNode
}

func NewTransactionHandlers(node TransactionNode) *TransactionHandlers {
	return &TransactionHandlers{node: node}
}

func (h *TransactionHandlers) Register(r *gin.RouterGroup) {
	r.POST("/transaction/create", h.create)
	r.POST("/mine", h.mine)
}

type createTransactionRequest struct {
	SenderAddress string `json:"sender_address" binding:"required"`
	Recipient     string `json:"recipient" binding:"required"`
	Amount        uint64 `json:"amount" binding:"required"`
	Note          string `json:"note"`
}

func (h *TransactionHandlers) create(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	tx, err := h.node.CreateTransaction(req.SenderAddress, req.Recipient, req.Amount, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"transaction": tx,
		"id":          tx.Hash(),
	})
}

type mineRequest struct {
	MinerAddress string `json:"miner_address" binding:"required"`
}

// mine blocks until the proof of work lands. An abandoned request
// cancels the wait but not the mine itself.
func (h *TransactionHandlers) mine(c *gin.Context) {
	var req mineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	block, err := h.node.MineBlock(c.Request.Context(), req.MinerAddress)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.AbortWithStatusJSON(http.StatusRequestTimeout, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"block":        block,
		"transactions": len(block.Transactions),
	})
}
