package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/exchange/rest"
	"main/internal/market"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/og"
	"main/internal/ops"
	"main/internal/order"
	"main/internal/position"
	"main/internal/record"
	"main/internal/stream"
	"main/pkg/conn"
)

const defaultQueueCapacity = 1024

func main() {
	configPath := flag.String("config", "config.json", "Path to JSON config")
	ticketPath := flag.String("ticket", "", "Path to a JSON order ticket to submit on startup")
	profileAddr := flag.String("profile-addr", "", "Pyroscope server address (empty=disable)")
	metricsInterval := flag.Duration("metrics-interval", time.Minute, "Metrics log interval (0=disable)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *profileAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "trader",
			ServerAddress:   *profileAddr,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseObjects,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	if err := run(ctx, loaded, *ticketPath, *metricsInterval); err != nil {
		log.Fatalf("trader: %v", err)
	}
}

func run(ctx context.Context, loaded ops.Loaded, ticketPath string, metricsInterval time.Duration) error {
	metrics := obs.NewMetrics()
	dispatcher := og.NewDispatcher()
	delegator := rest.NewClient(&http.Client{}, loaded.Exchange.RestURL, loaded.Exchange.AccessID, loaded.Exchange.SecretKey)

	var journal *record.Repository
	if loaded.Features.EnableJournal {
		pg, err := conn.New(conn.Option{
			Host:     loaded.Journal.Host,
			Port:     loaded.Journal.Port,
			User:     loaded.Journal.User,
			Password: loaded.Journal.Password,
			Database: loaded.Journal.Database,
			SSLMode:  loaded.Journal.SSLMode,
		})
		if err != nil {
			return fmt.Errorf("journal connect failed: %w", err)
		}
		defer pg.Close()

		journal, err = record.NewRepository(pg.DB())
		if err != nil {
			return err
		}
		if err := journal.Migrate(); err != nil {
			return fmt.Errorf("journal migrate failed: %w", err)
		}
	}

	txHandler := newTxHandler(metrics, journal)

	capacity := loaded.Queue.Capacity
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}

	coordinators := make([]*market.Coordinator, 0, len(loaded.Instruments))
	for _, instrument := range loaded.Instruments {
		var book *position.Book
		if loaded.Features.EnablePositions {
			book = position.NewBook(instrument, newLotHandler(instrument, metrics))
		}
		coordinators = append(coordinators, market.NewCoordinator(instrument, capacity, dispatcher, book, metrics))
	}
	hub := market.NewHub(coordinators...)

	feed := stream.NewFeed(ctx, loaded.Exchange.StreamURL)
	defer feed.Close()
	if err := feed.StartWebsocket(ctx); err != nil {
		return err
	}
	for _, instrument := range loaded.Instruments {
		if err := feed.SubscribeLifecycle(ctx, instrument); err != nil {
			return fmt.Errorf("subscribe %s failed: %w", instrument, err)
		}
	}

	unsubscribe := feed.ObserveLifecycle(ctx, func(evt model.LifecycleEvent) {
		if journal != nil && evt.Kind == enum.EventKindExecution {
			// Off the routing path: a slow journal must not stall
			// event delivery.
			go func(evt model.LifecycleEvent) {
				saveCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := journal.SaveExecution(saveCtx, evt); err != nil {
					logs.Errorf("journal execution %s: %v", evt.ExecID, err)
				}
			}(evt)
		}
		if err := hub.Route(evt); err != nil {
			logs.Warnf("route event for %s: %v", evt.Instrument, err)
		}
	})
	defer unsubscribe()

	go hub.Run(ctx)

	if ticketPath != "" {
		if err := submitTicket(ctx, ticketPath, loaded, delegator, dispatcher, txHandler); err != nil {
			return err
		}
	}

	if metricsInterval > 0 {
		go logMetrics(ctx, metrics, metricsInterval)
	}

	logs.Infof("trader started: instruments=%d journal=%t", len(loaded.Instruments), journal != nil)
	<-ctx.Done()

	snapshot := metrics.Snapshot()
	logs.Infof("trader stopped: dispatched=%d dropped=%d unroutable=%d tx_submitted=%d tx_completed=%d",
		snapshot.EventsDispatched, snapshot.EventsDropped, snapshot.EventsUnroutable,
		snapshot.TxSubmitted, snapshot.TxCompleted)
	return nil
}

func newTxHandler(metrics *obs.Metrics, journal *record.Repository) og.Handler {
	return func(tx *og.Transaction, evt og.Event) {
		switch evt.Kind {
		case og.EventSubmitted:
			metrics.IncTxSubmitted()
		case og.EventCompleted:
			metrics.IncTxCompleted()
		case og.EventCanceled:
			metrics.IncTxCanceled()
		case og.EventFailed, og.EventSendFailed, og.EventExpired:
			metrics.IncTxFailed()
		}

		switch evt.Kind {
		case og.EventIgnored, og.EventUnroutable:
			logs.Warnf("transaction %s %s: %s", evt.AcceptanceID, evt.State, evt.Reason)
		default:
			logs.Infof("transaction %s -> %s", evt.AcceptanceID, evt.State)
		}

		if journal == nil || evt.AcceptanceID == "" {
			return
		}
		ord := tx.Order()
		go func() {
			saveCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := journal.SaveOrder(saveCtx, &ord); err != nil {
				logs.Errorf("journal order %s: %v", ord.AcceptanceID, err)
			}
		}()
	}
}

func newLotHandler(instrument string, metrics *obs.Metrics) position.Handler {
	return func(evt position.Event) {
		switch evt.Kind {
		case position.EventLotOpened:
			metrics.IncLotsOpened()
			logs.Infof("%s lot opened: size=%s price=%s", instrument, evt.Lot.Size, evt.Lot.OpenPrice)
		case position.EventLotClosed:
			metrics.IncLotsClosed()
			logs.Infof("%s lot closed: size=%s open=%s close=%s profit=%s",
				instrument, evt.Lot.Size, evt.Lot.OpenPrice, evt.ClosePrice, evt.Profit)
		}
	}
}

func logMetrics(ctx context.Context, metrics *obs.Metrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshot := metrics.Snapshot()
			logs.Infof("metrics: dispatched=%d dropped=%d unroutable=%d malformed=%d lots_opened=%d lots_closed=%d",
				snapshot.EventsDispatched, snapshot.EventsDropped, snapshot.EventsUnroutable,
				snapshot.EventsMalformed, snapshot.LotsOpened, snapshot.LotsClosed)
		}
	}
}

// ticket mirrors the JSON order ticket layout.
type ticket struct {
	Instrument string      `json:"instrument"`
	Method     string      `json:"method"`
	Legs       []ticketLeg `json:"legs"`
}

type ticketLeg struct {
	Side         string `json:"side"`
	Kind         string `json:"kind"`
	Size         string `json:"size"`
	Price        string `json:"price"`
	TriggerPrice string `json:"triggerPrice"`
	TrailOffset  string `json:"trailOffset"`
}

func submitTicket(ctx context.Context, path string, loaded ops.Loaded, delegator *rest.Client, dispatcher *og.Dispatcher, handler og.Handler) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var t ticket
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("ticket parse failed: %w", err)
	}

	ord, err := buildOrder(t)
	if err != nil {
		return fmt.Errorf("ticket invalid: %w", err)
	}

	tx := og.NewTransaction(og.Config{
		MaxSubmitAttempts: loaded.Submit.MaxAttempts,
		RetryDelay:        loaded.Submit.RetryDelay,
	}, delegator, dispatcher, handler)

	if err := tx.Submit(ctx, ord); err != nil {
		return fmt.Errorf("ticket submit failed: %w", err)
	}
	return nil
}

func buildOrder(t ticket) (*order.Order, error) {
	method, err := parseMethod(t.Method)
	if err != nil {
		return nil, err
	}

	legs := make([]order.Leg, 0, len(t.Legs))
	for _, l := range t.Legs {
		leg, err := buildLeg(l)
		if err != nil {
			return nil, err
		}
		legs = append(legs, leg)
	}

	return order.New(t.Instrument, method, legs...)
}

func buildLeg(l ticketLeg) (order.Leg, error) {
	side, err := parseSide(l.Side)
	if err != nil {
		return order.Leg{}, err
	}
	kind, err := parseKind(l.Kind)
	if err != nil {
		return order.Leg{}, err
	}
	size, err := decimal.NewFromString(l.Size)
	if err != nil {
		return order.Leg{}, fmt.Errorf("leg size %q: %w", l.Size, err)
	}

	leg := order.Leg{Side: side, Kind: kind, Size: size}
	if l.Price != "" {
		if leg.Price, err = decimal.NewFromString(l.Price); err != nil {
			return order.Leg{}, fmt.Errorf("leg price %q: %w", l.Price, err)
		}
	}
	if l.TriggerPrice != "" {
		if leg.TriggerPrice, err = decimal.NewFromString(l.TriggerPrice); err != nil {
			return order.Leg{}, fmt.Errorf("leg trigger price %q: %w", l.TriggerPrice, err)
		}
	}
	if l.TrailOffset != "" {
		if leg.TrailOffset, err = decimal.NewFromString(l.TrailOffset); err != nil {
			return order.Leg{}, fmt.Errorf("leg trail offset %q: %w", l.TrailOffset, err)
		}
	}
	return leg, nil
}

func parseMethod(s string) (enum.OrderingMethod, error) {
	switch s {
	case "simple":
		return enum.OrderingMethodSimple, nil
	case "ifd":
		return enum.OrderingMethodIfDone, nil
	case "oco":
		return enum.OrderingMethodOneCancelsOther, nil
	case "ifdoco":
		return enum.OrderingMethodIfDoneOneCancelsOther, nil
	default:
		return 0, fmt.Errorf("unknown ordering method: %q", s)
	}
}

func parseSide(s string) (enum.OrderSide, error) {
	switch s {
	case "buy":
		return enum.OrderSideBuy, nil
	case "sell":
		return enum.OrderSideSell, nil
	default:
		return 0, fmt.Errorf("unknown side: %q", s)
	}
}

func parseKind(s string) (enum.LegKind, error) {
	switch s {
	case "market":
		return enum.LegKindMarket, nil
	case "limit":
		return enum.LegKindLimit, nil
	case "stop":
		return enum.LegKindStop, nil
	case "stop_limit":
		return enum.LegKindStopLimit, nil
	case "trailing_stop":
		return enum.LegKindTrailingStop, nil
	default:
		return 0, fmt.Errorf("unknown leg kind: %q", s)
	}
}

type emptyLogger struct{}

func (emptyLogger) Infof(string, ...any)  {}
func (emptyLogger) Debugf(string, ...any) {}
func (emptyLogger) Errorf(string, ...any) {}
