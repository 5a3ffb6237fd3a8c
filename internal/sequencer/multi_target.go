package sequencer

import (
	"sync"
)

// MultiTarget forwards every instruction to each registered target in
// registration order. Targets registered for a channel only receive that
// channel's instructions.
type MultiTarget struct {
	mu        sync.Mutex
	all       []Target
	byChannel map[int][]Target
}

func NewMultiTarget(targets ...Target) *MultiTarget {
	return &MultiTarget{
		all:       append([]Target(nil), targets...),
		byChannel: make(map[int][]Target),
	}
}

// AddTarget registers a target for every channel.
func (m *MultiTarget) AddTarget(t Target) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.all = append(m.all, t)
}

// AddChannelTarget registers a target for one channel.
func (m *MultiTarget) AddChannelTarget(channel int, t Target) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byChannel[channel] = append(m.byChannel[channel], t)
}

func (m *MultiTarget) targets(channel int) []Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Target, 0, len(m.all)+len(m.byChannel[channel]))
	out = append(out, m.all...)
	return append(out, m.byChannel[channel]...)
}

func (m *MultiTarget) ScheduleNoteOn(time, channel, key, velocity int) {
	for _, t := range m.targets(channel) {
		t.ScheduleNoteOn(time, channel, key, velocity)
	}
}

func (m *MultiTarget) ScheduleNoteOff(time, channel, key int) {
	for _, t := range m.targets(channel) {
		t.ScheduleNoteOff(time, channel, key)
	}
}
