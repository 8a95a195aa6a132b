package device

import "context"

// NullService is the backend used when no torch hardware is reachable.
// It lists no units, so the session runs with controls guarded.
type NullService struct{}

// NewNullService creates a new NullService.
func NewNullService() *NullService {
	return &NullService{}
}

func (s *NullService) ListDevices(ctx context.Context) ([]Handle, error) {
	return []Handle{}, nil
}

func (s *NullService) Characteristics(ctx context.Context, h Handle) (Characteristics, error) {
	return Characteristics{}, ErrNotFound
}

func (s *NullService) SetEnabled(ctx context.Context, h Handle, enabled bool) error {
	return ErrNotConnected
}

func (s *NullService) SetEnabledWithStrength(ctx context.Context, h Handle, level int) error {
	return ErrNotConnected
}

func (s *NullService) StrengthLevel(ctx context.Context, h Handle) (int, error) {
	return 0, ErrNotConnected
}

func (s *NullService) IsConnected() bool {
	return false
}

func (s *NullService) Close() {}

// NullEventSubscriber is a subscriber that never emits.
type NullEventSubscriber struct{}

// NewNullEventSubscriber creates a new NullEventSubscriber.
func NewNullEventSubscriber() *NullEventSubscriber {
	return &NullEventSubscriber{}
}

func (s *NullEventSubscriber) Subscribe() chan ChangeEvent {
	// Never sent to; the channel only closes on Unsubscribe
	return make(chan ChangeEvent)
}

func (s *NullEventSubscriber) Unsubscribe(ch chan ChangeEvent) {
	close(ch)
}
