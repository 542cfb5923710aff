package event_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hsmarket/storefront/pkg/event"
)

func TestFireCallsListenersInOrder(t *testing.T) {
	bus := event.NewBus()
	var got []string
	bus.Listen("order.created", func(p interface{}) { got = append(got, "feed:"+p.(string)) })
	bus.Listen("order.created", func(p interface{}) { got = append(got, "audit:"+p.(string)) })
	bus.Listen("order.status_changed", func(interface{}) { got = append(got, "other") })

	bus.Fire("order.created", "o1")
	assert.Equal(t, []string{"feed:o1", "audit:o1"}, got)

	bus.Flush()
	bus.Fire("order.created", "o2")
	assert.Len(t, got, 2)
}

func TestFireAsync(t *testing.T) {
	bus := event.NewBus()
	var wg sync.WaitGroup
	wg.Add(2)
	bus.Listen("e", func(interface{}) { wg.Done() })
	bus.Listen("e", func(interface{}) { wg.Done() })
	bus.FireAsync("e", nil)
	wg.Wait()
}
