package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caravelchain/caravel/blockchain"
	"github.com/caravelchain/caravel/wallet"
)

// WalletNode is the part of the node facade the wallet endpoints use.
type WalletNode interface {
	CreateWallet() (*wallet.Wallet, error)
	ImportWallet(secret string) (*wallet.Wallet, error)
}

// WalletHandlers serves key custody and per-address chain queries.
type WalletHandlers struct {
	node  WalletNode
	chain *blockchain.Ledger
}

func NewWalletHandlers(node WalletNode, chain *blockchain.Ledger) *WalletHandlers {
	return &WalletHandlers{node: node, chain: chain}
}

func (h *WalletHandlers) Register(r *gin.RouterGroup) {
	r.POST("/wallet/create", h.create)
	r.POST("/wallet/import", h.importWallet)
	r.GET("/wallet/:address/balance", h.balance)
	r.GET("/wallet/:address/transactions", h.transactions)
}

// walletView is what the API hands out for a wallet. The private key
// never leaves the node; the mnemonic only on creation.
type walletView struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
	Mnemonic  string `json:"mnemonic,omitempty"`
}

func (h *WalletHandlers) create(c *gin.Context) {
	w, err := h.node.CreateWallet()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, walletView{
		Address:   w.Address,
		PublicKey: w.PublicKeyHex(),
		Mnemonic:  w.Mnemonic,
	})
}

type importWalletRequest struct {
	Mnemonic   string `json:"mnemonic"`
	PrivateKey string `json:"private_key"`
	Base58Key  string `json:"base58"`
}

func (h *WalletHandlers) importWallet(c *gin.Context) {
	var req importWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	secret := req.Mnemonic
	if secret == "" {
		secret = req.PrivateKey
	}
	if secret == "" {
		secret = req.Base58Key
	}
	w, err := h.node.ImportWallet(secret)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, walletView{Address: w.Address, PublicKey: w.PublicKeyHex()})
}

func (h *WalletHandlers) balance(c *gin.Context) {
	address := c.Param("address")
	c.JSON(http.StatusOK, gin.H{
		"address": address,
		"balance": h.chain.BalanceOf(address),
	})
}

func (h *WalletHandlers) transactions(c *gin.Context) {
	address := c.Param("address")
	c.JSON(http.StatusOK, gin.H{
		"address":      address,
		"transactions": h.chain.TransactionsFor(address),
	})
}
