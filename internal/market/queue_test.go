package market

import (
	"errors"
	"sync"
	"testing"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

func TestQueuePublishDuringClose(t *testing.T) {
	q := newQueue(4)
	evt := model.LifecycleEvent{Kind: enum.EventKindOrder, Instrument: "USDJPY", AcceptanceID: "a-1"}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = q.tryPublish(evt)
			}
		}()
	}
	q.close()
	wg.Wait()

	if err := q.tryPublish(evt); !errors.Is(err, exception.ErrEventQueueClosed) {
		t.Fatalf("expected queue closed, got %v", err)
	}
	// Idempotent.
	q.close()
}
