package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/moutai/internal/interfaces"
	"github.com/ternarybob/moutai/internal/models"
	"github.com/ternarybob/moutai/internal/services/prediction"
)

// DefaultNews is shown when the model returns an empty market summary.
const DefaultNews = "Price index calibrated to today's latest wholesale level."

var (
	// ErrNoForecast is returned when a fetch succeeds but carries no forecast points.
	ErrNoForecast = errors.New("model returned no usable forecast, please refresh later")
	// ErrNotEditing is returned by draft operations outside an edit session.
	ErrNotEditing = errors.New("history edit is not in progress")
	// ErrIndexOutOfRange is returned when a draft index does not exist.
	ErrIndexOutOfRange = errors.New("history index out of range")
	// ErrInvalidPrice is returned for negative draft prices.
	ErrInvalidPrice = errors.New("price must be a non-negative number")
)

// Snapshot is a deep copy of the view state plus the current error and draft.
// Version increases with every state change.
type Snapshot struct {
	Version uint64                 `json:"version"`
	State   models.PredictionState `json:"state"`
	Error   string                 `json:"error,omitempty"`
	Editing bool                   `json:"editing"`
	Draft   []models.PricePoint    `json:"draft,omitempty"`
}

// Listener receives a snapshot after every state change. The snapshot is shared
// between listeners and must be treated as read-only.
type Listener func(Snapshot)

// Service owns the dashboard view state. It never writes into the prediction cache.
type Service struct {
	predictions interfaces.PredictionService
	logger      arbor.ILogger
	now         func() time.Time

	mu       sync.RWMutex
	state    models.PredictionState
	errMsg   string
	draft    []models.PricePoint // nil outside an edit session
	inFlight int
	version  uint64

	// notifyMu orders snapshot capture and delivery across notifiers
	notifyMu    sync.Mutex
	listenersMu sync.RWMutex
	listeners   map[int]Listener
	nextID      int
}

// NewService creates the dashboard service with the pre-load state.
func NewService(predictions interfaces.PredictionService, logger arbor.ILogger) *Service {
	return &Service{
		predictions: predictions,
		logger:      logger,
		now:         time.Now,
		state:       models.NewPredictionState(),
		listeners:   make(map[int]Listener),
	}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Refresh fetches the forecast and replaces the view state on success.
// On failure the previous data stays and the error is recorded; the busy flag is
// cleared once no refresh is in flight. Concurrent refreshes are not serialised:
// the last to complete wins.
func (s *Service) Refresh(ctx context.Context, forceRefresh bool) error {
	s.mu.Lock()
	s.inFlight++
	s.state.IsUpdating = true
	s.errMsg = ""
	s.version++
	s.mu.Unlock()
	s.notify()

	result, err := s.predictions.Fetch(ctx, forceRefresh)
	if err == nil && (result == nil || len(result.Data.Prediction) == 0) {
		err = ErrNoForecast
	}

	s.mu.Lock()
	s.inFlight--
	s.state.IsUpdating = s.inFlight > 0
	if err != nil {
		s.errMsg = FormatError(err)
	} else {
		s.apply(result)
	}
	s.version++
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.logger.Warn().Err(err).Bool("force_refresh", forceRefresh).Msg("Dashboard refresh failed")
		return err
	}

	s.logger.Info().
		Str("last_update", s.now().Format("15:04")).
		Int("forecast", len(result.Data.Prediction)).
		Msg("Dashboard state updated")
	return nil
}

// apply copies a fetch result into view state. Caller holds s.mu.
func (s *Service) apply(result *models.PredictionResult) {
	data := result.Data
	score := data.SentimentScore

	news := data.MarketSummary
	if strings.TrimSpace(news) == "" {
		news = DefaultNews
	}

	s.state.CurrentPrice = data.CurrentPrice
	s.state.History = models.ClonePricePoints(data.History)
	s.state.Prediction = models.ClonePricePoints(data.Prediction)
	s.state.SentimentScore = &score
	s.state.News = news
	s.state.Sources = models.CloneSources(result.Sources)
	s.state.LastUpdate = s.now().Format("15:04")
}

// FormatError turns any refresh failure into the single user-facing error string.
func FormatError(err error) string {
	message := ""
	var userErr prediction.UserFacingError
	if errors.As(err, &userErr) {
		message = userErr.UserMessage()
	} else if err != nil {
		message = err.Error()
	}
	if message == "" {
		message = "network fluctuation"
	}
	return fmt.Sprintf("Calibration failed: %s.", strings.TrimSuffix(message, "."))
}

// BeginHistoryEdit starts an edit session with a deep copy of the current history.
// Calling it again restarts the session from the authoritative history.
func (s *Service) BeginHistoryEdit() []models.PricePoint {
	s.mu.Lock()
	s.draft = models.ClonePricePoints(s.state.History)
	draft := models.ClonePricePoints(s.draft)
	s.version++
	s.mu.Unlock()
	s.notify()
	return draft
}

// UpdateDraftPoint sets the price of one draft entry.
func (s *Service) UpdateDraftPoint(index int, price float64) error {
	if price < 0 {
		return ErrInvalidPrice
	}

	s.mu.Lock()
	if s.draft == nil {
		s.mu.Unlock()
		return ErrNotEditing
	}
	if index < 0 || index >= len(s.draft) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	s.draft[index].Price = price
	s.version++
	s.mu.Unlock()

	s.notify()
	return nil
}

// CommitHistoryEdit copies the draft into the view state's history and ends the session.
func (s *Service) CommitHistoryEdit() error {
	s.mu.Lock()
	if s.draft == nil {
		s.mu.Unlock()
		return ErrNotEditing
	}
	s.state.History = models.ClonePricePoints(s.draft)
	s.draft = nil
	count := len(s.state.History)
	s.version++
	s.mu.Unlock()

	s.logger.Info().Int("entries", count).Msg("History edit committed to view state")
	s.notify()
	return nil
}

// DiscardHistoryEdit drops the draft without touching the view state.
func (s *Service) DiscardHistoryEdit() {
	s.mu.Lock()
	s.draft = nil
	s.version++
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a deep copy of the current state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Version: s.version,
		State:   s.state.Clone(),
		Error:   s.errMsg,
		Editing: s.draft != nil,
	}
	if s.draft != nil {
		snap.Draft = models.ClonePricePoints(s.draft)
	}
	return snap
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Service) Subscribe(listener Listener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// notify delivers the latest snapshot to every listener. Deliveries are
// serialised, so listeners never see a version older than one already delivered.
// Listeners must not block or call back into the service.
func (s *Service) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.listenersMu.RLock()
	if len(s.listeners) == 0 {
		s.listenersMu.RUnlock()
		return
	}
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenersMu.RUnlock()

	snap := s.Snapshot()
	for _, l := range listeners {
		l(snap)
	}
}
