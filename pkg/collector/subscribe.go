package collector

import "github.com/meshkit/telemetry/pkg/event"

// Subscribe returns a channel receiving every canonical event the
// collector ingests, plus a cancel function. Sends never block: a
// subscriber whose buffer is full misses events rather than stalling
// ingestion. The channel is closed on cancel or collector shutdown.
func (c *Collector) Subscribe(buffer int) (<-chan event.Event, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan event.Event, buffer)

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	cancel := func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (c *Collector) publish(ev event.Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default: // slow subscriber drops
		}
	}
}

func (c *Collector) closeSubscribers() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}
