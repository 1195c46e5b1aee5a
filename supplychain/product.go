package supplychain

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/caravelchain/caravel/blockchain"
)

// EventType classifies a custody event.
type EventType string

const (
	EventRegistered   EventType = "REGISTERED"
	EventShipped      EventType = "SHIPPED"
	EventReceived     EventType = "RECEIVED"
	EventQualityCheck EventType = "QUALITY_CHECK"
	EventAlert        EventType = "ALERT"
	EventTransferred  EventType = "TRANSFERRED"
)

// Valid reports whether t is one of the recognized event types.
func (t EventType) Valid() bool {
	switch t {
	case EventRegistered, EventShipped, EventReceived,
		EventQualityCheck, EventAlert, EventTransferred:
		return true
	}
	return false
}

// Product is one tracked good. AuthenticityHash commits to the
// registration fields and is anchored on the ledger, so a holder can
// later prove the registration was not rewritten.
type Product struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Manufacturer     string `json:"manufacturer"`
	Category         string `json:"category,omitempty"`
	Origin           string `json:"origin,omitempty"`
	CreatedAt        int64  `json:"created_at"`
	AuthenticityHash string `json:"authenticity_hash"`
}

// Account is the ledger identity record transactions for this product
// are addressed to.
func (p *Product) Account() string {
	return "PRODUCT:" + p.ID
}

func (p *Product) computeHash() string {
	payload := fmt.Sprintf("%s|%s|%s|%s|%s|%d",
		p.ID, p.Name, p.Manufacturer, p.Category, p.Origin, p.CreatedAt)
	return blockchain.Sum([]byte(payload)).Hex()
}

func (p *Product) clone() *Product {
	out := *p
	return &out
}

// Event is one entry in a product's custody trail. TxID is set when
// the event was anchored on the ledger.
type Event struct {
	ID        string            `json:"id"`
	ProductID string            `json:"product_id"`
	Type      EventType         `json:"type"`
	Actor     string            `json:"actor"`
	Location  string            `json:"location,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp int64             `json:"timestamp"`
	EventHash string            `json:"event_hash"`
	TxID      string            `json:"tx_id,omitempty"`
}

// computeHash folds the event fields plus the data map in sorted key
// order, so the digest does not depend on map iteration.
func (e *Event) computeHash() string {
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%s|%s|%d",
		e.ID, e.ProductID, e.Type, e.Actor, e.Location, e.Timestamp)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%s", k, e.Data[k])
	}
	return blockchain.Sum([]byte(b.String())).Hex()
}

func (e *Event) clone() *Event {
	out := *e
	out.Data = maps.Clone(e.Data)
	return &out
}
