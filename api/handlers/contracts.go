package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caravelchain/caravel/contract"
	"github.com/caravelchain/caravel/wallet"
)

// ContractHandlers serves the smart contract lifecycle. Creation needs
// the creator's wallet from the keystore to sign the fund lock.
type ContractHandlers struct {
	contracts *contract.Manager
	wallets   *wallet.Store
}

func NewContractHandlers(contracts *contract.Manager, wallets *wallet.Store) *ContractHandlers {
	return &ContractHandlers{contracts: contracts, wallets: wallets}
}

func (h *ContractHandlers) Register(r *gin.RouterGroup) {
	r.POST("/contract/create", h.create)
	r.GET("/contract/:id", h.get)
	r.POST("/contract/:id/approve", h.approve)
	r.POST("/contracts/check", h.check)
	r.GET("/contracts", h.list)
}

type createContractRequest struct {
	Kind           string              `json:"kind" binding:"required"`
	CreatorAddress string              `json:"creator_address" binding:"required"`
	Recipient      string              `json:"recipient" binding:"required"`
	Amount         uint64              `json:"amount" binding:"required"`
	Participants   []string            `json:"participants"`
	Conditions     contract.Conditions `json:"conditions"`
	ExpiresAt      int64               `json:"expires_at"`
}

func (h *ContractHandlers) create(c *gin.Context) {
	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	signer, ok := h.wallets.Get(req.CreatorAddress)
	if !ok {
		respondError(c, wallet.ErrUnknownWallet)
		return
	}
	created, err := h.contracts.Create(contract.CreateRequest{
		Kind:         contract.Kind(req.Kind),
		Signer:       signer,
		Recipient:    req.Recipient,
		Amount:       req.Amount,
		Participants: req.Participants,
		Conditions:   req.Conditions,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ContractHandlers) get(c *gin.Context) {
	found, err := h.contracts.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

type approveRequest struct {
	Approver string `json:"approver" binding:"required"`
}

func (h *ContractHandlers) approve(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	updated, err := h.contracts.Approve(c.Param("id"), req.Approver)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *ContractHandlers) check(c *gin.Context) {
	events := h.contracts.CheckAll()
	c.JSON(http.StatusOK, gin.H{"executions": events, "checked": len(events)})
}

func (h *ContractHandlers) list(c *gin.Context) {
	contracts := h.contracts.List(contract.Filter{
		Participant: c.Query("participant"),
		Status:      contract.Status(c.Query("status")),
	})
	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}
