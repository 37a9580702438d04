package events

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/domain/entities"
)

// subscriberSet fans change events out to per-channel subscriber queues
type subscriberSet struct {
	mu         sync.RWMutex
	channels   map[string]map[chan *entities.ChangeEvent]struct{}
	bufferSize int
	logger     zerolog.Logger
}

func newSubscriberSet(bufferSize int, logger zerolog.Logger) *subscriberSet {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &subscriberSet{
		channels:   make(map[string]map[chan *entities.ChangeEvent]struct{}),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// add registers a new subscriber queue and returns it with the channel's subscriber count
func (s *subscriberSet) add(channel string) (chan *entities.ChangeEvent, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channels[channel] == nil {
		s.channels[channel] = make(map[chan *entities.ChangeEvent]struct{})
	}
	queue := make(chan *entities.ChangeEvent, s.bufferSize)
	s.channels[channel][queue] = struct{}{}
	return queue, len(s.channels[channel])
}

// remove closes one subscriber queue and reports how many remain on the channel
func (s *subscriberSet) remove(channel string, queue chan *entities.ChangeEvent) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	subscribers, ok := s.channels[channel]
	if !ok {
		return 0
	}
	if _, ok := subscribers[queue]; ok {
		delete(subscribers, queue)
		close(queue)
	}
	if len(subscribers) == 0 {
		delete(s.channels, channel)
	}
	return len(subscribers)
}

// removeChannel closes every subscriber queue of a channel
func (s *subscriberSet) removeChannel(channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for queue := range s.channels[channel] {
		close(queue)
	}
	delete(s.channels, channel)
}

// deliver hands event to every subscriber of channel without blocking
func (s *subscriberSet) deliver(channel string, event *entities.ChangeEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for queue := range s.channels[channel] {
		select {
		case queue <- event:
		default:
			s.logger.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber queue full, skipping event")
		}
	}
}

func (s *subscriberSet) channelNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.channels))
	for name := range s.channels {
		names = append(names, name)
	}
	return names
}
