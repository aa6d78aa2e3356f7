// Copyright (c) 2025 BVK Chaitanya

package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bvk/refresher/exchange"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errTransport = errors.New("connection reset by peer")

// statusReply is one scripted response for an order status query.
type statusReply struct {
	open bool
	err  error
}

type createCall struct {
	typ   exchange.OrderType
	order *exchange.LimitOrder
}

// fakeGateway is a scripted in-memory exchange account.
type fakeGateway struct {
	mu sync.Mutex

	orders  []*exchange.Order
	listErr error

	cancelErrs map[exchange.OrderID]error
	statuses   map[exchange.OrderID][]statusReply

	// createFailures is the number of create requests failing before the first
	// success, counted across all orders.
	createFailures int

	// onStatus, when non-nil, is called at every status query.
	onStatus func(id exchange.OrderID)

	// delay is applied to every cancel and create call.
	delay time.Duration

	cancels  []exchange.OrderID
	polls    map[exchange.OrderID]int
	creates  []*createCall
	attempts int

	log []string
}

func newFakeGateway(orders ...*exchange.Order) *fakeGateway {
	return &fakeGateway{
		orders:     orders,
		cancelErrs: make(map[exchange.OrderID]error),
		statuses:   make(map[exchange.OrderID][]statusReply),
		polls:      make(map[exchange.OrderID]int),
	}
}

func (g *fakeGateway) record(s string) {
	g.log = append(g.log, s)
}

func (g *fakeGateway) ListOpenOrders(ctx context.Context) ([]*exchange.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("list")
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]*exchange.Order(nil), g.orders...), nil
}

func (g *fakeGateway) CancelOrder(ctx context.Context, id exchange.OrderID) error {
	time.Sleep(g.delay)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("cancel")
	g.cancels = append(g.cancels, id)
	return g.cancelErrs[id]
}

func (g *fakeGateway) GetOrderStatus(ctx context.Context, id exchange.OrderID) (*exchange.OrderStatus, error) {
	g.mu.Lock()
	g.record("status")
	g.polls[id]++
	var reply statusReply
	if script := g.statuses[id]; len(script) > 0 {
		reply, g.statuses[id] = script[0], script[1:]
	}
	onStatus := g.onStatus
	g.mu.Unlock()

	if onStatus != nil {
		onStatus(id)
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return &exchange.OrderStatus{OrderID: id, IsOpen: reply.open}, nil
}

func (g *fakeGateway) create(ctx context.Context, typ exchange.OrderType, order *exchange.LimitOrder) (exchange.OrderID, error) {
	time.Sleep(g.delay)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("create")
	g.attempts++
	if g.createFailures > 0 {
		g.createFailures--
		return "", &exchange.APIError{Op: "create", Message: "INSUFFICIENT_FUNDS"}
	}
	g.creates = append(g.creates, &createCall{typ: typ, order: order})
	return exchange.OrderID(uuid.New().String()), nil
}

func (g *fakeGateway) LimitBuy(ctx context.Context, order *exchange.LimitOrder) (exchange.OrderID, error) {
	return g.create(ctx, exchange.LimitBuy, order)
}

func (g *fakeGateway) LimitSell(ctx context.Context, order *exchange.LimitOrder) (exchange.OrderID, error) {
	return g.create(ctx, exchange.LimitSell, order)
}

type fakeBackup struct {
	gw *fakeGateway

	err error

	orders []*exchange.Order
}

func (b *fakeBackup) WriteBackup(orders []*exchange.Order, at time.Time) (string, error) {
	b.gw.mu.Lock()
	defer b.gw.mu.Unlock()
	b.gw.record("backup")
	if b.err != nil {
		return "", b.err
	}
	b.orders = orders
	return "orders-" + at.UTC().Format("20060102150405") + "Z.json", nil
}

// sleepRecorder replaces the retry sleep with an instant one.
type sleepRecorder struct {
	mu sync.Mutex

	n int
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.n++
	s.mu.Unlock()
	return context.Cause(ctx)
}

func (s *sleepRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

var testNow = time.Date(2017, 11, 30, 12, 0, 0, 0, time.UTC)

func newTestRefresher(t *testing.T, gw *fakeGateway, backup BackupWriter, policy *Policy) (*Refresher, *sleepRecorder) {
	t.Helper()

	if policy == nil {
		policy = &Policy{MaxOrderAgeDays: 30, ConcurrentTasks: 2, RetryPeriod: time.Second}
	}
	r, err := New(gw, backup, policy)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })

	s := new(sleepRecorder)
	r.sleep = s.sleep
	r.now = func() time.Time { return testNow }
	return r, s
}

func limitOrder(typ exchange.OrderType, market string, qty, remaining, limit string, ageDays float64) *exchange.Order {
	opened := testNow.Add(-time.Duration(ageDays * float64(24*time.Hour)))
	return &exchange.Order{
		OrderID:           exchange.OrderID(uuid.New().String()),
		Market:            market,
		OrderType:         typ,
		Quantity:          decimal.RequireFromString(qty),
		QuantityRemaining: decimal.RequireFromString(remaining),
		Limit:             decimal.RequireFromString(limit),
		Opened:            exchange.RemoteTime{Time: opened},
	}
}
