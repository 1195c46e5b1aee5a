// Package node wires the ledger, keystore, contract manager, supply
// chain registry, travel service, event bus, metrics and HTTP API
// into one runnable process.
package node

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/caravelchain/caravel/api"
	"github.com/caravelchain/caravel/blockchain"
	"github.com/caravelchain/caravel/contract"
	"github.com/caravelchain/caravel/supplychain"
	"github.com/caravelchain/caravel/travel"
	"github.com/caravelchain/caravel/wallet"
)

// TopicBlockMined is published on the bus after every mined block with
// the *blockchain.Block as payload.
const TopicBlockMined = "block:mined"

const defaultSweepInterval = 30 * time.Second

// ErrStopped is returned by MineBlock once the node is shutting down.
var ErrStopped = errors.New("node: stopped")

// Config holds the full node configuration.
type Config struct {
	ListenAddr            string
	Difficulty            int
	MiningReward          uint64
	ContractSweepInterval time.Duration
	KeystorePath          string
	Logger                *zap.Logger
}

// Node owns every component of a running daemon.
type Node struct {
	cfg Config
	log *zap.Logger

	chain     *blockchain.Ledger
	wallets   *wallet.Store
	contracts *contract.Manager
	supply    *supplychain.Registry
	travel    *travel.Service

	bus      evbus.Bus
	registry *prometheus.Registry
	metrics  *Metrics
	server   *api.Server

	mineRequests chan mineRequest

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type mineRequest struct {
	miner  string
	result chan mineResult
}

type mineResult struct {
	block *blockchain.Block
	err   error
}

// New builds a node and all its components. Nothing runs until Start.
func New(cfg Config) (*Node, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.ContractSweepInterval <= 0 {
		cfg.ContractSweepInterval = defaultSweepInterval
	}

	chain := blockchain.NewLedger(blockchain.Config{
		Difficulty:   cfg.Difficulty,
		MiningReward: cfg.MiningReward,
		Logger:       log.Named("chain"),
	})
	wallets := wallet.NewStore(log.Named("wallet"))
	if cfg.KeystorePath != "" {
		if err := wallets.LoadFile(cfg.KeystorePath); err != nil {
			return nil, fmt.Errorf("load keystore: %w", err)
		}
	}

	registry := prometheus.NewRegistry()

	n := &Node{
		cfg:          cfg,
		log:          log,
		chain:        chain,
		wallets:      wallets,
		contracts:    contract.NewManager(chain, log.Named("contract")),
		supply:       supplychain.NewRegistry(chain, log.Named("supplychain")),
		travel:       travel.NewService(chain, log.Named("travel")),
		bus:          evbus.New(),
		registry:     registry,
		metrics:      newMetrics(registry),
		mineRequests: make(chan mineRequest),
		stop:         make(chan struct{}),
	}

	if err := n.bus.Subscribe(TopicBlockMined, n.onBlockMined); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicBlockMined, err)
	}

	n.server = api.New(api.Config{
		ListenAddr: cfg.ListenAddr,
		Chain:      chain,
		Wallets:    wallets,
		Contracts:  n.contracts,
		Supply:     n.supply,
		Travel:     n.travel,
		Node:       n,
		Metrics:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:     log.Named("api"),
	})
	return n, nil
}

// Start launches the mining worker, the contract sweep ticker and the
// HTTP server. It does not block.
func (n *Node) Start() {
	n.wg.Add(2)
	go n.miningWorker()
	go n.sweepLoop()

	go func() {
		if err := n.server.Start(); err != nil {
			n.log.Error("http server failed", zap.Error(err))
		}
	}()

	n.log.Info("node started",
		zap.String("listen", n.cfg.ListenAddr),
		zap.Int("difficulty", n.chain.Difficulty()),
		zap.Uint64("height", n.chain.Height()))
}

// Stop drains the HTTP server, stops the workers and flushes the
// keystore when one is configured.
func (n *Node) Stop(ctx context.Context) error {
	var errs []error
	if err := n.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	n.stopOnce.Do(func() { close(n.stop) })
	n.wg.Wait()

	if n.cfg.KeystorePath != "" {
		if err := n.wallets.SaveFile(n.cfg.KeystorePath); err != nil {
			errs = append(errs, fmt.Errorf("save keystore: %w", err))
		}
	}
	n.log.Info("node stopped")
	return errors.Join(errs...)
}

// CreateWallet generates a fresh wallet and adds it to the keystore.
func (n *Node) CreateWallet() (*wallet.Wallet, error) {
	w, err := wallet.New()
	if err != nil {
		return nil, err
	}
	n.wallets.Add(w)
	return w, nil
}

// ImportWallet accepts a mnemonic, a hex private key or a base58
// private key and adds the recovered wallet to the keystore.
func (n *Node) ImportWallet(secret string) (*wallet.Wallet, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("wallet secret is required")
	}
	w, err := wallet.FromMnemonic(secret)
	if err != nil {
		if w, err = wallet.FromPrivateKeyHex(secret); err != nil {
			if w, err = wallet.ImportPrivateKeyBase58(secret); err != nil {
				return nil, errors.New("secret is not a mnemonic, a hex key or a base58 key")
			}
		}
	}
	n.wallets.Add(w)
	return w, nil
}

// Wallet looks an address up in the keystore.
func (n *Node) Wallet(addr string) (*wallet.Wallet, bool) {
	return n.wallets.Get(addr)
}

// CreateTransaction builds, signs and submits a transfer from a
// keystore wallet.
func (n *Node) CreateTransaction(senderAddr, recipient string, amount uint64, note string) (*blockchain.Transaction, error) {
	w, ok := n.wallets.Get(senderAddr)
	if !ok {
		return nil, wallet.ErrUnknownWallet
	}
	tx, err := w.NewTransfer(recipient, amount, note)
	if err != nil {
		return nil, err
	}
	if err := n.chain.SubmitTransaction(tx); err != nil {
		return nil, err
	}
	n.metrics.TransactionsSubmitted.Inc()
	return tx, nil
}

// MineBlock queues one mine on the worker and waits for the result.
// When ctx ends first the caller walks away; the block still lands on
// the chain and the bus event still fires.
func (n *Node) MineBlock(ctx context.Context, miner string) (*blockchain.Block, error) {
	req := mineRequest{miner: miner, result: make(chan mineResult, 1)}
	select {
	case n.mineRequests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-n.stop:
		return nil, ErrStopped
	}
	// The worker has the request; a result is guaranteed.
	select {
	case res := <-req.result:
		return res.block, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (n *Node) miningWorker() {
	defer n.wg.Done()
	for {
		select {
		case req := <-n.mineRequests:
			started := time.Now()
			block, err := n.chain.Mine(req.miner)
			if err == nil {
				n.metrics.BlocksMined.Inc()
				n.metrics.MiningDuration.Observe(time.Since(started).Seconds())
				n.bus.Publish(TopicBlockMined, block)
			}
			req.result <- mineResult{block: block, err: err}
		case <-n.stop:
			return
		}
	}
}

// onBlockMined sweeps contracts after every block: a fresh block can
// confirm fund locks or satisfy balance and height conditions.
func (n *Node) onBlockMined(b *blockchain.Block) {
	n.log.Debug("block mined",
		zap.Uint64("index", b.Index),
		zap.String("hash", b.Hash))
	n.runContractSweep()
}

func (n *Node) sweepLoop() {
	defer n.wg.Done()
	ticker := time.NewTicker(n.cfg.ContractSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n.runContractSweep()
		case <-n.stop:
			return
		}
	}
}

func (n *Node) runContractSweep() {
	for _, ev := range n.contracts.CheckAll() {
		if ev.TxID != "" {
			n.metrics.ContractExecutions.Inc()
		}
	}
}

// Component accessors, used by the daemon and by tests.

func (n *Node) Chain() *blockchain.Ledger     { return n.chain }
func (n *Node) Wallets() *wallet.Store        { return n.wallets }
func (n *Node) Contracts() *contract.Manager  { return n.contracts }
func (n *Node) Supply() *supplychain.Registry { return n.supply }
func (n *Node) Travel() *travel.Service       { return n.travel }
func (n *Node) Bus() evbus.Bus                { return n.bus }

// APIHandler exposes the HTTP routing tree without a listener.
func (n *Node) APIHandler() http.Handler {
	return n.server.Handler()
}
