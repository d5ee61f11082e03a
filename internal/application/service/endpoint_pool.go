package service

import (
	"errors"
	"sync"

	"browser-bench/internal/application/port/output"
)

var ErrNoEndpoints = errors.New("endpoint pool: no endpoints configured")

// EndpointPool hands out endpoints in a fixed weighted cycle. An endpoint with
// weight w occupies w consecutive slots, so weights 2:1:1:1 give the cycle
// A A B C D.
type EndpointPool struct {
	mu    sync.Mutex
	slots []*output.Endpoint
	next  int
}

func NewEndpointPool(endpoints []*output.Endpoint) (*EndpointPool, error) {
	var slots []*output.Endpoint
	for _, ep := range endpoints {
		if ep == nil {
			continue
		}
		weight := ep.Weight
		if weight < 1 {
			weight = 1
		}
		for i := 0; i < weight; i++ {
			slots = append(slots, ep)
		}
	}
	if len(slots) == 0 {
		return nil, ErrNoEndpoints
	}
	return &EndpointPool{slots: slots}, nil
}

// Next advances the cycle by one slot. Call it once per task assignment.
func (p *EndpointPool) Next() *output.Endpoint {
	p.mu.Lock()
	defer p.mu.Unlock()

	ep := p.slots[p.next]
	p.next = (p.next + 1) % len(p.slots)
	return ep
}

func (p *EndpointPool) CycleLength() int {
	return len(p.slots)
}

func (p *EndpointPool) Reset() {
	p.mu.Lock()
	p.next = 0
	p.mu.Unlock()
}
