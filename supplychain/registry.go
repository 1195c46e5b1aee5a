// Package supplychain tracks physical goods and their custody trail.
// Registrations and events are hashed locally and anchored on the
// ledger as zero-value record transactions, so the trail can be
// audited without trusting the registry's memory.
package supplychain

import (
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caravelchain/caravel/blockchain"
)

var (
	ErrUnknownProduct   = errors.New("supplychain: unknown product")
	ErrInvalidEventType = errors.New("supplychain: invalid event type")
)

// Ledger is the slice of the chain the registry anchors records on.
type Ledger interface {
	SubmitTransaction(tx *blockchain.Transaction) error
}

// RegisterRequest carries the fields committed into a product's
// authenticity hash.
type RegisterRequest struct {
	Name         string
	Manufacturer string
	Category     string
	Origin       string
}

// EventRequest describes one custody event to append.
type EventRequest struct {
	Type     EventType
	Actor    string
	Location string
	Data     map[string]string
}

// Filter narrows Products listings. Empty fields match everything.
type Filter struct {
	Category     string
	Manufacturer string
}

// Registry holds products and their event trails. A nil ledger is
// allowed; the registry then keeps the trail locally without anchors.
type Registry struct {
	mu       sync.RWMutex
	products map[string]*Product
	events   map[string][]*Event
	chain    Ledger
	log      *zap.Logger
}

// NewRegistry builds an empty registry over chain.
func NewRegistry(chain Ledger, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		products: make(map[string]*Product),
		events:   make(map[string][]*Event),
		chain:    chain,
		log:      logger,
	}
}

// RegisterProduct stores a new product, opens its trail with a
// REGISTERED event and anchors the authenticity hash on the ledger.
func (r *Registry) RegisterProduct(req RegisterRequest) (*Product, error) {
	if req.Name == "" {
		return nil, errors.New("product name is required")
	}
	if req.Manufacturer == "" {
		return nil, errors.New("product manufacturer is required")
	}

	p := &Product{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		Category:     req.Category,
		Origin:       req.Origin,
		CreatedAt:    time.Now().Unix(),
	}
	p.AuthenticityHash = p.computeHash()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[p.ID] = p
	e := r.appendEventUnsafe(p, EventRequest{
		Type:     EventRegistered,
		Actor:    req.Manufacturer,
		Location: req.Origin,
	}, "register", "authenticity "+p.AuthenticityHash)

	r.log.Info("product registered",
		zap.String("id", p.ID),
		zap.String("name", p.Name),
		zap.String("manufacturer", p.Manufacturer),
		zap.String("tx", e.TxID))
	return p.clone(), nil
}

// AddEvent appends a custody event to an existing product's trail and
// anchors its hash on the ledger.
func (r *Registry) AddEvent(productID string, req EventRequest) (*Event, error) {
	if !req.Type.Valid() {
		return nil, ErrInvalidEventType
	}
	if req.Actor == "" {
		return nil, errors.New("event actor is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, ErrUnknownProduct
	}

	e := r.appendEventUnsafe(p, req, string(req.Type), "")
	if req.Type == EventAlert {
		r.log.Warn("supply chain alert",
			zap.String("product", p.ID),
			zap.String("actor", req.Actor),
			zap.String("location", req.Location))
	}
	return e.clone(), nil
}

// appendEventUnsafe builds, hashes, stores and anchors one event.
// Callers hold the write lock. The anchor is best effort: a rejected
// record transaction leaves the local trail intact.
func (r *Registry) appendEventUnsafe(p *Product, req EventRequest, recordName, note string) *Event {
	e := &Event{
		ID:        uuid.NewString(),
		ProductID: p.ID,
		Type:      req.Type,
		Actor:     req.Actor,
		Location:  req.Location,
		Data:      maps.Clone(req.Data),
		Timestamp: time.Now().Unix(),
	}
	e.EventHash = e.computeHash()
	if note == "" {
		note = "event " + e.EventHash
	}

	if r.chain != nil {
		tx, err := blockchain.NewSystemTransaction(
			blockchain.RecordSenderPrefix+recordName, p.Account(), 0, note)
		if err == nil {
			err = r.chain.SubmitTransaction(tx)
		}
		if err != nil {
			r.log.Warn("record transaction rejected",
				zap.String("product", p.ID),
				zap.String("event", string(req.Type)),
				zap.Error(err))
		} else {
			e.TxID = tx.Hash()
		}
	}

	r.events[p.ID] = append(r.events[p.ID], e)
	return e
}

// Get returns a product by id.
func (r *Registry) Get(productID string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[productID]
	if !ok {
		return nil, ErrUnknownProduct
	}
	return p.clone(), nil
}

// VerifyAuthenticity recomputes the product's hash and checks it
// against both the stored value and the claimed one.
func (r *Registry) VerifyAuthenticity(productID, claimedHash string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[productID]
	if !ok {
		return false, ErrUnknownProduct
	}
	current := p.computeHash()
	return current == p.AuthenticityHash && current == claimedHash, nil
}

// History returns the product's custody trail in append order.
func (r *Registry) History(productID string) ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	trail, ok := r.events[productID]
	if !ok {
		return nil, ErrUnknownProduct
	}
	out := make([]*Event, len(trail))
	for i, e := range trail {
		out[i] = e.clone()
	}
	return out, nil
}

// Alerts returns only the ALERT events from the product's trail.
func (r *Registry) Alerts(productID string) ([]*Event, error) {
	trail, err := r.History(productID)
	if err != nil {
		return nil, err
	}
	out := trail[:0]
	for _, e := range trail {
		if e.Type == EventAlert {
			out = append(out, e)
		}
	}
	return out, nil
}

// Products lists registered products matching the filter, oldest
// first with the id as tie breaker.
func (r *Registry) Products(filter Filter) []*Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Manufacturer != "" && p.Manufacturer != filter.Manufacturer {
			continue
		}
		out = append(out, p.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}
