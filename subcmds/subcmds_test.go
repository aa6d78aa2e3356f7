// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bvk/refresher/backup"
	"github.com/bvk/refresher/exchange"
	"github.com/bvk/refresher/journal"
	"github.com/bvk/refresher/metrics"
	"github.com/bvk/refresher/refresh"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

// memGateway is an exchange account where cancels and creates complete
// immediately.
type memGateway struct {
	mu      sync.Mutex
	orders  []*exchange.Order
	created []*exchange.LimitOrder
	listErr error
}

func (g *memGateway) ListOpenOrders(ctx context.Context) ([]*exchange.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]*exchange.Order(nil), g.orders...), nil
}

func (g *memGateway) CancelOrder(ctx context.Context, id exchange.OrderID) error {
	return nil
}

func (g *memGateway) GetOrderStatus(ctx context.Context, id exchange.OrderID) (*exchange.OrderStatus, error) {
	return &exchange.OrderStatus{OrderID: id}, nil
}

func (g *memGateway) create(order *exchange.LimitOrder) (exchange.OrderID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, order)
	return exchange.OrderID("5a6b7c8d-0000-4000-8000-00000000000" + string(rune('0'+len(g.created)))), nil
}

func (g *memGateway) LimitBuy(ctx context.Context, order *exchange.LimitOrder) (exchange.OrderID, error) {
	return g.create(order)
}

func (g *memGateway) LimitSell(ctx context.Context, order *exchange.LimitOrder) (exchange.OrderID, error) {
	return g.create(order)
}

func staleOrder(id string, days int) *exchange.Order {
	return &exchange.Order{
		OrderID:           exchange.OrderID(id),
		Market:            "BTC-ETH",
		OrderType:         exchange.LimitBuy,
		Quantity:          decimal.NewFromInt(2),
		QuantityRemaining: decimal.NewFromInt(1),
		Limit:             decimal.RequireFromString("0.05"),
		Opened:            exchange.RemoteTime{Time: time.Now().Add(-time.Duration(days) * 24 * time.Hour)},
	}
}

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) SendMessage(ctx context.Context, at time.Time, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func newTestRunner(t *testing.T, gw exchange.Gateway, n *recorder) (*runner, *bytes.Buffer) {
	t.Helper()
	w, err := backup.NewWriter(t.TempDir(), "orders-%s.json")
	if err != nil {
		t.Fatal(err)
	}
	policy := &refresh.Policy{MaxOrderAgeDays: 27, ConcurrentTasks: 2, RetryPeriod: time.Millisecond}
	r, err := refresh.New(gw, w, policy)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })

	stdout := new(bytes.Buffer)
	run := &runner{
		refresher:   r,
		journal:     journal.New(kvmemdb.New()),
		recorder:    metrics.New(),
		historySize: 2,
		stdout:      stdout,
	}
	if n != nil {
		run.notifier = n
	}
	return run, stdout
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	gw := &memGateway{orders: []*exchange.Order{
		staleOrder("8925d746-bc9f-4684-b1aa-e507467aaa99", 30),
		staleOrder("09aa5bb6-8232-41aa-9b78-a5a1093e0211", 1),
	}}
	r, stdout := newTestRunner(t, gw, nil)

	report, err := r.runOnce(ctx, &refresh.Request{Mode: refresh.RefreshMode})
	if err != nil {
		t.Fatal(err)
	}
	if report.Selected != 1 || report.Count(refresh.Created) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(gw.created) != 1 || !gw.created[0].Quantity.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("want one replacement for the remaining quantity, got %v", gw.created)
	}
	if !strings.Contains(stdout.String(), "created BTC-ETH 8925d746-bc9f-4684-b1aa-e507467aaa99 -> ") {
		t.Fatalf("unexpected output %q", stdout.String())
	}
	if got := testutil.ToFloat64(r.recorder.Tasks.WithLabelValues("refresh", "created")); got != 1 {
		t.Fatalf("want 1 created task metric, got %v", got)
	}

	// Journal is pruned to the history size.
	for i := 0; i < 3; i++ {
		if _, err := r.runOnce(ctx, &refresh.Request{Mode: refresh.PurgeMode}); err != nil {
			t.Fatal(err)
		}
	}
	recs, err := r.journal.Last(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Mode != refresh.PurgeMode {
		t.Fatalf("want 2 purge records, got %d", len(recs))
	}
}

func TestRunOnceFailure(t *testing.T) {
	ctx := context.Background()
	gw := &memGateway{listErr: errors.New("connection refused")}
	n := new(recorder)
	r, _ := newTestRunner(t, gw, n)

	if _, err := r.runOnce(ctx, &refresh.Request{Mode: refresh.RefreshMode}); err == nil {
		t.Fatalf("want list failure")
	}
	recs, err := r.journal.Last(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || !strings.Contains(recs[0].Error, "connection refused") {
		t.Fatalf("failed runs must be journaled, got %+v", recs)
	}
	if len(n.msgs) != 1 || !strings.Contains(n.msgs[0], "has failed") {
		t.Fatalf("want failure notification, got %q", n.msgs)
	}
	if got := testutil.ToFloat64(r.recorder.RunFailures.WithLabelValues("refresh")); got != 1 {
		t.Fatalf("want 1 run failure metric, got %v", got)
	}
}

func TestSummaryMessage(t *testing.T) {
	report := &refresh.Report{
		Selected: 3,
		Outcomes: []*refresh.Outcome{
			{State: refresh.Created},
			{State: refresh.Abandoned},
			{State: refresh.Interrupted},
		},
	}
	msg := summaryMessage(refresh.RefreshMode, report, nil)
	if !strings.Contains(msg, "1 abandoned and 1 interrupted orders out of 3") {
		t.Fatalf("unexpected message %q", msg)
	}
	if msg := summaryMessage(refresh.RefreshMode, &refresh.Report{Outcomes: report.Outcomes[:1]}, nil); msg != "" {
		t.Fatalf("successful runs must not notify, got %q", msg)
	}
	if msg := summaryMessage(refresh.RefreshMode, &refresh.Report{DryRun: true}, nil); msg != "" {
		t.Fatalf("dry runs must not notify, got %q", msg)
	}
}

func TestRunRequest(t *testing.T) {
	dir := t.TempDir()
	fpath := filepath.Join(dir, "orders.json")
	if err := backup.Write(fpath, []*exchange.Order{staleOrder("8925d746-bc9f-4684-b1aa-e507467aaa99", 30)}); err != nil {
		t.Fatal(err)
	}

	c := &Run{restoreOrders: fpath}
	req, err := c.request()
	if err != nil {
		t.Fatal(err)
	}
	if req.Mode != refresh.RestoreMode || len(req.Orders) != 1 {
		t.Fatalf("unexpected request %+v", req)
	}

	if req, err := (&Run{purgeOpenOrders: true}).request(); err != nil || req.Mode != refresh.PurgeMode {
		t.Fatalf("want purge request, got %+v, %v", req, err)
	}
	if req, err := (&Run{}).request(); err != nil || req.Mode != refresh.RefreshMode {
		t.Fatalf("want refresh request, got %+v, %v", req, err)
	}
	for _, c := range []*Run{
		{purgeOpenOrders: true, restoreOrders: fpath},
		{purgeOpenOrders: true, schedule: "@daily"},
		{restoreOrders: filepath.Join(dir, "missing.json")},
	} {
		if _, err := c.request(); err == nil {
			t.Errorf("flags %+v must be rejected", c)
		}
	}
}

type scriptedLines struct {
	lines   []string
	prompts []string
}

func (s *scriptedLines) SetPrompt(p string) {
	s.prompts = append(s.prompts, p)
}

func (s *scriptedLines) ReadLine() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestAskDoubleOrders(t *testing.T) {
	lr := &scriptedLines{lines: []string{"", "neo", "0.0001", "100", "", "y"}}
	out := new(bytes.Buffer)
	v, orders, err := askDoubleOrders(lr, out)
	if err != nil {
		t.Fatal(err)
	}
	if v.Market() != "BTC-NEO" || v.Count != 2 {
		t.Fatalf("unexpected parameters %+v", v)
	}
	if len(orders) != 2 || !orders[1].Rate.Equal(decimal.RequireFromString("0.0004")) {
		t.Fatalf("unexpected orders %v", orders)
	}
	if lr.prompts[0] != "Base market symbol [BTC]: " || lr.prompts[5] != "Proceed [Y/N]: " {
		t.Fatalf("unexpected prompts %q", lr.prompts)
	}
	if !strings.Contains(out.String(), "SELL BTC-NEO 50 at 0.0002 when price > 0.0001999") {
		t.Fatalf("unexpected plan output %q", out.String())
	}

	lr = &scriptedLines{lines: []string{"", "neo", "0.0001", "100", "3", "n"}}
	if _, _, err := askDoubleOrders(lr, io.Discard); !errors.Is(err, errDeclined) {
		t.Fatalf("want errDeclined, got %v", err)
	}
	lr = &scriptedLines{lines: []string{"", "neo", "abc"}}
	if _, _, err := askDoubleOrders(lr, io.Discard); err == nil {
		t.Fatalf("want invalid price error")
	}
}

type candleSource []*exchange.Candle

func (s candleSource) GetCandles(ctx context.Context, market string, interval exchange.CandleInterval) ([]*exchange.Candle, error) {
	return s, nil
}

func TestPrintGaps(t *testing.T) {
	day := time.Date(2017, 11, 1, 0, 0, 0, 0, time.UTC)
	candle := func(i int, low, high string) *exchange.Candle {
		return &exchange.Candle{
			StartTime: exchange.RemoteTime{Time: day.Add(time.Duration(i) * 24 * time.Hour)},
			Low:       decimal.RequireFromString(low),
			High:      decimal.RequireFromString(high),
		}
	}
	src := candleSource{candle(0, "10", "11"), candle(1, "20", "22")}
	out := new(bytes.Buffer)
	if err := printGaps(context.Background(), out, src, "BTC-ETH", exchange.OneDay, decimal.Zero); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "up   2017-11-02 00:00:00 11 - 20") {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := printGaps(context.Background(), out, src[:1], "BTC-ETH", exchange.OneDay, decimal.Zero); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "no unfilled gaps in 1 candles") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestPrintHistory(t *testing.T) {
	ctx := context.Background()
	jnl := journal.New(kvmemdb.New())
	at := time.Date(2017, 11, 30, 12, 0, 0, 0, time.UTC)
	report := &refresh.Report{
		Mode:       refresh.RefreshMode,
		StartedAt:  at,
		FinishedAt: at.Add(1500 * time.Millisecond),
		Selected:   1,
		Outcomes:   []*refresh.Outcome{{State: refresh.Created, Market: "BTC-ETH", OrderID: "old", NewOrderID: "new"}},
	}
	if err := jnl.Append(ctx, journal.NewRunRecord(refresh.RefreshMode, at, report, nil)); err != nil {
		t.Fatal(err)
	}
	if err := jnl.Append(ctx, journal.NewRunRecord(refresh.PurgeMode, at.Add(time.Hour), nil, errors.New("timeout"))); err != nil {
		t.Fatal(err)
	}

	out := new(bytes.Buffer)
	if err := printHistory(ctx, out, jnl, 0, true); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, got %q", lines)
	}
	if !strings.Contains(lines[0], "purge") || !strings.HasSuffix(lines[0], "failed: timeout") {
		t.Fatalf("newest record must be first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "created=1") || !strings.Contains(lines[1], "elapsed=1.5s") {
		t.Fatalf("unexpected summary %q", lines[1])
	}
	if !strings.Contains(lines[2], "BTC-ETH old new") {
		t.Fatalf("unexpected details %q", lines[2])
	}
}
