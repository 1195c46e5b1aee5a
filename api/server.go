// Package api serves the node's HTTP interface: chain inspection,
// wallets, transactions, mining, contracts, supply chain and travel
// booking, JSON in and out.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/caravelchain/caravel/api/handlers"
	"github.com/caravelchain/caravel/blockchain"
	"github.com/caravelchain/caravel/contract"
	"github.com/caravelchain/caravel/supplychain"
	"github.com/caravelchain/caravel/travel"
	"github.com/caravelchain/caravel/wallet"
)

// Node is the slice of the composition root the handlers need for
// operations that span components.
type Node interface {
	CreateWallet() (*wallet.Wallet, error)
	ImportWallet(secret string) (*wallet.Wallet, error)
	CreateTransaction(senderAddr, recipient string, amount uint64, note string) (*blockchain.Transaction, error)
	MineBlock(ctx context.Context, miner string) (*blockchain.Block, error)
}

// Config wires the server to the node's components.
type Config struct {
	ListenAddr string
	Chain      *blockchain.Ledger
	Wallets    *wallet.Store
	Contracts  *contract.Manager
	Supply     *supplychain.Registry
	Travel     *travel.Service
	Node       Node
	Metrics    http.Handler
	Logger     *zap.Logger
}

// Server is the HTTP API server.
type Server struct {
	cfg    Config
	log    *zap.Logger
	engine *gin.Engine
	http   *http.Server
}

// New builds the server and registers every route.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(cfg.Logger))

	s := &Server{cfg: cfg, log: cfg.Logger, engine: engine}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.cfg.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.cfg.Metrics))
	}

	api := s.engine.Group("/api")
	handlers.NewChainHandlers(s.cfg.Chain).Register(api)
	handlers.NewWalletHandlers(s.cfg.Node, s.cfg.Chain).Register(api)
	handlers.NewTransactionHandlers(s.cfg.Node).Register(api)
	handlers.NewContractHandlers(s.cfg.Contracts, s.cfg.Wallets).Register(api)
	handlers.NewSupplyHandlers(s.cfg.Supply).Register(api)
	handlers.NewTravelHandlers(s.cfg.Travel).Register(api)
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown is called. The http.ErrServerClosed
// returned by a clean shutdown is swallowed.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("http api listening", zap.String("addr", s.cfg.ListenAddr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(started)))
	}
}
