package stream

import (
	"context"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"

	"main/internal/model"
)

// Feed is the per-account lifecycle websocket. Events for all
// subscribed instruments arrive on one ordered connection; the market
// hub fans them out per instrument.
type Feed struct {
	wss *ws.WebSocket
}

func NewFeed(ctx context.Context, url string) *Feed {
	return &Feed{
		wss: ws.New(ctx, url),
	}
}

func (f *Feed) Len() int {
	return f.wss.Len()
}

func (f *Feed) Close() {
	f.wss.Close()
}

func (f *Feed) StartWebsocket(ctx context.Context) error {
	if err := f.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	return nil
}

// SubscribeLifecycle subscribes one instrument's order lifecycle
// channel and waits for the exchange's confirmation.
func (f *Feed) SubscribeLifecycle(ctx context.Context, instrument string) error {
	if err := f.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, client *ws.WebSocket) error {
			if err := client.WriteJSON(map[string]any{
				"id":     _lifecycleSubscribeID,
				"method": "lifecycle.subscribe",
				"params": []any{instrument},
			}); err != nil {
				return errors.Wrap(err, "write subscribe lifecycle payload")
			}

			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := ws.ReadMessage[SubscribeResponse](m)
			if !ok || resp.ID != _lifecycleSubscribeID {
				return false, nil
			}

			if resp.Error != nil || resp.Result.Status != "success" {
				return false, nil
			}

			return true, nil
		},
	}); err != nil {
		return errors.Wrap(err, "send and wait")
	}

	return nil
}

// ObserveLifecycle parses lifecycle messages and hands them to the
// handler. Malformed messages are logged and skipped.
func (f *Feed) ObserveLifecycle(ctx context.Context, handler func(model.LifecycleEvent)) (unsubscribe func()) {
	ch, cancel := f.wss.Subscribe()
	go func() {
		defer cancel()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				payload, ok := ws.ReadMessage[EventPayload](m)
				if !ok || payload.Method != _methodLifecycleUpdate {
					continue
				}

				evt, err := payload.Event()
				if err != nil {
					logs.Errorf("parse lifecycle event, err: %+v", err)
					continue
				}

				handler(evt)
			}
		}
	}()

	return cancel
}
