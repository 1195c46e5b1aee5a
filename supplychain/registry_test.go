package supplychain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caravelchain/caravel/blockchain"
)

func testRegistry(t *testing.T) (*Registry, *blockchain.Ledger) {
	t.Helper()
	led := blockchain.NewLedger(blockchain.Config{Difficulty: 1})
	return NewRegistry(led, nil), led
}

func registerWidget(t *testing.T, r *Registry) *Product {
	t.Helper()
	p, err := r.RegisterProduct(RegisterRequest{
		Name:         "Widget",
		Manufacturer: "Acme",
		Category:     "tools",
		Origin:       "Lisbon",
	})
	require.NoError(t, err)
	return p
}

func TestRegisterProductValidation(t *testing.T) {
	r, _ := testRegistry(t)

	_, err := r.RegisterProduct(RegisterRequest{Manufacturer: "Acme"})
	require.Error(t, err)
	_, err = r.RegisterProduct(RegisterRequest{Name: "Widget"})
	require.Error(t, err)
}

func TestRegisterProductAnchorsHash(t *testing.T) {
	r, led := testRegistry(t)
	p := registerWidget(t, r)

	require.NotEmpty(t, p.ID)
	require.NotEmpty(t, p.AuthenticityHash)
	require.NotZero(t, p.CreatedAt)

	trail, err := r.History(p.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	require.Equal(t, EventRegistered, trail[0].Type)
	require.Equal(t, "Acme", trail[0].Actor)
	require.Equal(t, "Lisbon", trail[0].Location)
	require.NotEmpty(t, trail[0].TxID)

	pending := led.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, blockchain.RecordSenderPrefix+"register", pending[0].Sender)
	require.Equal(t, p.Account(), pending[0].Recipient)
	require.Zero(t, pending[0].Amount)
	require.Contains(t, pending[0].Note, p.AuthenticityHash)
	require.Equal(t, pending[0].Hash(), trail[0].TxID)
}

func TestRegistryWithoutLedger(t *testing.T) {
	r := NewRegistry(nil, nil)
	p := registerWidget(t, r)

	e, err := r.AddEvent(p.ID, EventRequest{Type: EventShipped, Actor: "carrier"})
	require.NoError(t, err)
	require.Empty(t, e.TxID, "no ledger, no anchor")

	trail, err := r.History(p.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
}

func TestAddEvent(t *testing.T) {
	r, led := testRegistry(t)
	p := registerWidget(t, r)

	_, err := r.AddEvent(p.ID, EventRequest{Type: "TELEPORTED", Actor: "x"})
	require.ErrorIs(t, err, ErrInvalidEventType)
	_, err = r.AddEvent(p.ID, EventRequest{Type: EventShipped})
	require.Error(t, err, "actor is required")
	_, err = r.AddEvent("missing", EventRequest{Type: EventShipped, Actor: "carrier"})
	require.ErrorIs(t, err, ErrUnknownProduct)

	e, err := r.AddEvent(p.ID, EventRequest{
		Type:     EventShipped,
		Actor:    "carrier",
		Location: "Porto",
		Data:     map[string]string{"container": "MSKU-810"},
	})
	require.NoError(t, err)
	require.Equal(t, p.ID, e.ProductID)
	require.NotEmpty(t, e.EventHash)
	require.NotEmpty(t, e.TxID)

	pending := led.Pending()
	require.Len(t, pending, 2, "register anchor plus shipment anchor")
	require.Equal(t, blockchain.RecordSenderPrefix+"SHIPPED", pending[1].Sender)
	require.Contains(t, pending[1].Note, e.EventHash)
}

func TestVerifyAuthenticity(t *testing.T) {
	r, _ := testRegistry(t)
	p := registerWidget(t, r)

	ok, err := r.VerifyAuthenticity(p.ID, p.AuthenticityHash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.VerifyAuthenticity(p.ID, "deadbeef")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = r.VerifyAuthenticity("missing", p.AuthenticityHash)
	require.ErrorIs(t, err, ErrUnknownProduct)

	// A rewritten registration no longer matches its anchored hash.
	r.mu.Lock()
	r.products[p.ID].Name = "Counterfeit Widget"
	r.mu.Unlock()
	ok, err = r.VerifyAuthenticity(p.ID, p.AuthenticityHash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAlerts(t *testing.T) {
	r, _ := testRegistry(t)
	p := registerWidget(t, r)

	for _, req := range []EventRequest{
		{Type: EventShipped, Actor: "carrier"},
		{Type: EventAlert, Actor: "customs", Location: "border"},
		{Type: EventReceived, Actor: "warehouse"},
		{Type: EventAlert, Actor: "inspector"},
	} {
		_, err := r.AddEvent(p.ID, req)
		require.NoError(t, err)
	}

	alerts, err := r.Alerts(p.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	require.Equal(t, "customs", alerts[0].Actor)
	require.Equal(t, "inspector", alerts[1].Actor)

	_, err = r.Alerts("missing")
	require.ErrorIs(t, err, ErrUnknownProduct)
}

func TestProductsFilter(t *testing.T) {
	r, _ := testRegistry(t)

	ids := make([]string, 0, 3)
	for _, req := range []RegisterRequest{
		{Name: "Widget", Manufacturer: "Acme", Category: "tools"},
		{Name: "Gadget", Manufacturer: "Acme", Category: "electronics"},
		{Name: "Gizmo", Manufacturer: "Globex", Category: "electronics"},
	} {
		p, err := r.RegisterProduct(req)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	// Space registrations out so the listing order is fixed.
	r.mu.Lock()
	for i, id := range ids {
		r.products[id].CreatedAt = int64(1000 + i)
	}
	r.mu.Unlock()

	all := r.Products(Filter{})
	require.Len(t, all, 3)
	require.Equal(t, []string{ids[0], ids[1], ids[2]},
		[]string{all[0].ID, all[1].ID, all[2].ID})

	acme := r.Products(Filter{Manufacturer: "Acme"})
	require.Len(t, acme, 2)

	electronics := r.Products(Filter{Category: "electronics"})
	require.Len(t, electronics, 2)

	both := r.Products(Filter{Manufacturer: "Acme", Category: "electronics"})
	require.Len(t, both, 1)
	require.Equal(t, "Gadget", both[0].Name)

	require.Empty(t, r.Products(Filter{Manufacturer: "Initech"}))
}

func TestHistoryReturnsCopies(t *testing.T) {
	r, _ := testRegistry(t)
	p := registerWidget(t, r)
	_, err := r.AddEvent(p.ID, EventRequest{
		Type:  EventQualityCheck,
		Actor: "lab",
		Data:  map[string]string{"result": "pass"},
	})
	require.NoError(t, err)

	trail, err := r.History(p.ID)
	require.NoError(t, err)
	trail[1].Data["result"] = "fail"
	trail[1].Actor = "tampered"

	fresh, err := r.History(p.ID)
	require.NoError(t, err)
	require.Equal(t, "pass", fresh[1].Data["result"])
	require.Equal(t, "lab", fresh[1].Actor)
}

func TestRecordsConfirmOnChain(t *testing.T) {
	r, led := testRegistry(t)
	p := registerWidget(t, r)
	_, err := r.AddEvent(p.ID, EventRequest{Type: EventShipped, Actor: "carrier"})
	require.NoError(t, err)
	_, err = r.AddEvent(p.ID, EventRequest{Type: EventReceived, Actor: "warehouse"})
	require.NoError(t, err)

	_, err = led.Mine("miner")
	require.NoError(t, err)

	records := led.TransactionsFor(p.Account())
	require.Len(t, records, 3)
	require.Zero(t, led.BalanceOf(p.Account()), "record transactions carry no value")
	require.True(t, led.Validate())
}
