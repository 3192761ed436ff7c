// Package budget owns the RAB item collection and the upload workflow
// around it.
package budget

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/theirongolddev/rab/internal/extract"
	"github.com/theirongolddev/rab/internal/ingest"
	"github.com/theirongolddev/rab/internal/model"
	"github.com/theirongolddev/rab/internal/pipeline"
	"github.com/theirongolddev/rab/internal/store"
)

// Extractor turns spreadsheet CSV text into candidate drafts.
type Extractor interface {
	Extract(ctx context.Context, csvText string) ([]model.Draft, error)
}

// Event types.
const (
	EventSnapshot      = "snapshot"
	EventItemAdded     = "item_added"
	EventItemRemoved   = "item_removed"
	EventItemsReplaced = "items_replaced"
	EventUploadStarted = "upload_started"
	EventUploadFailed  = "upload_failed"
)

// Config controls the service.
type Config struct {
	EventsBuffer int
	Logger       logrus.FieldLogger
	// ToCSV converts an upload to CSV. Defaults to ingest.ToCSV.
	ToCSV func(name string, data []byte) (string, error)
}

// Event is emitted on every committed change and upload transition.
type Event struct {
	ID        int64         `json:"id"`
	Type      string        `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	ItemID    string        `json:"item_id,omitempty"`
	Message   string        `json:"message,omitempty"`
	Loading   bool          `json:"loading"`
	Summary   model.Summary `json:"summary"`
}

// UploadInfo describes the last finished upload.
type UploadInfo struct {
	File     string        `json:"file"`
	At       time.Time     `json:"at"`
	Items    int           `json:"items"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Error    string        `json:"error,omitempty"`
	Kind     string        `json:"kind,omitempty"`
	Replaced bool          `json:"replaced"`
}

// Status is the observable state of the service.
type Status struct {
	StartedAt       time.Time    `json:"started_at"`
	Loading         bool         `json:"loading"`
	LastError       string       `json:"last_error,omitempty"`
	LastUpload      *UploadInfo  `json:"last_upload,omitempty"`
	AIConfigured    bool         `json:"ai_configured"`
	Version         uint64       `json:"version"`
	Count           int          `json:"count"`
	Totals          model.Totals `json:"totals"`
	EventCount      int          `json:"event_count"`
	SubscriberCount int          `json:"subscriber_count"`
}

// Outcome is the result of an upload: either the new items or an error
// with its user-facing message.
type Outcome struct {
	Items   []model.LineItem
	Err     error
	Message string
}

// OK reports whether the upload replaced the collection.
func (o Outcome) OK() bool { return o.Err == nil }

// Service is the single owner of the item collection.
type Service struct {
	cfg   Config
	store *store.Store
	log   logrus.FieldLogger
	sem   *semaphore.Weighted

	// commitMu pairs each store mutation with the event that reports it,
	// so event ids and event summaries advance in the same order.
	commitMu sync.Mutex

	mu          sync.RWMutex
	extractor   Extractor
	startedAt   time.Time
	loading     bool
	lastError   string
	lastUpload  *UploadInfo
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a service over st. A nil extractor makes uploads fail with
// a configuration error until SetExtractor is called.
func New(st *store.Store, ex Extractor, cfg Config) *Service {
	if st == nil {
		st = store.New()
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.ToCSV == nil {
		cfg.ToCSV = ingest.ToCSV
	}
	if cfg.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.Logger = l
	}

	return &Service{
		cfg:       cfg,
		store:     st,
		log:       cfg.Logger,
		sem:       semaphore.NewWeighted(1),
		extractor: ex,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// SetExtractor replaces the AI collaborator, e.g. after the key is configured.
func (s *Service) SetExtractor(ex Extractor) {
	s.mu.Lock()
	s.extractor = ex
	s.mu.Unlock()
}

// Add appends a validated draft.
func (s *Service) Add(d model.Draft) model.LineItem {
	s.commitMu.Lock()
	item := s.store.Add(d)
	s.emit(EventItemAdded, item.ID, "")
	s.commitMu.Unlock()

	s.log.WithFields(logrus.Fields{"item_id": item.ID, "uraian": item.Description}).Info("item added")
	return item
}

// AddEntry validates raw form input and appends it. Nothing is stored on
// a validation error.
func (s *Service) AddEntry(e model.Entry) (model.LineItem, error) {
	d, err := model.ParseEntry(e)
	if err != nil {
		s.log.WithError(err).Debug("entry rejected")
		return model.LineItem{}, err
	}
	return s.Add(d), nil
}

// Remove deletes an item. Unknown ids are ignored.
func (s *Service) Remove(id string) bool {
	s.commitMu.Lock()
	removed := s.store.Remove(id)
	if removed {
		s.emit(EventItemRemoved, id, "")
	}
	s.commitMu.Unlock()

	if removed {
		s.log.WithField("item_id", id).Info("item removed")
	}
	return removed
}

// Items returns a snapshot of the collection.
func (s *Service) Items() []model.LineItem {
	return s.store.List()
}

// Summary returns rows and totals computed from the current contents.
func (s *Service) Summary() model.Summary {
	return pipeline.Summarize(s.store.List())
}

// Loading reports whether an upload is in flight.
func (s *Service) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Upload converts the file, asks the AI for items, and on success replaces
// the whole collection. On failure the collection is left untouched.
// Only one upload runs at a time; a concurrent call fails with ErrBusy.
func (s *Service) Upload(ctx context.Context, name string, data []byte) Outcome {
	if !s.sem.TryAcquire(1) {
		return Outcome{Err: ErrBusy, Message: UserMessage(ErrBusy)}
	}
	defer s.sem.Release(1)

	s.beginUpload()
	// Terminal paths clear the flag before their event; this covers panics.
	defer s.endUpload()

	log := s.log.WithField("file", name)
	start := time.Now()

	drafts, err := s.runUpload(ctx, name, data)
	info := &UploadInfo{
		File:    name,
		At:      time.Now(),
		Elapsed: time.Since(start),
	}
	if err != nil {
		msg := UserMessage(err)
		kind := Classify(err)
		info.Error, info.Kind = msg, kind.String()
		log.WithError(err).WithField("kind", kind.String()).Warn("upload failed")

		s.commitMu.Lock()
		s.mu.Lock()
		s.loading = false
		s.lastError = msg
		s.lastUpload = info
		s.mu.Unlock()
		s.emit(EventUploadFailed, "", msg)
		s.commitMu.Unlock()
		return Outcome{Err: err, Message: msg}
	}

	s.commitMu.Lock()
	items := s.store.ReplaceAll(drafts)
	info.Items, info.Replaced = len(items), true
	s.mu.Lock()
	s.loading = false
	s.lastUpload = info
	s.mu.Unlock()
	s.emit(EventItemsReplaced, "", "")
	s.commitMu.Unlock()

	log.WithFields(logrus.Fields{"items": len(items), "elapsed": info.Elapsed.Round(time.Millisecond)}).Info("upload replaced items")
	return Outcome{Items: items}
}

// runUpload converts and extracts without touching the collection.
func (s *Service) runUpload(ctx context.Context, name string, data []byte) ([]model.Draft, error) {
	s.mu.RLock()
	ex := s.extractor
	s.mu.RUnlock()
	if ex == nil {
		return nil, extract.ErrMissingAPIKey
	}

	csvText, err := s.cfg.ToCSV(name, data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return ex.Extract(ctx, csvText)
}

func (s *Service) beginUpload() {
	s.mu.Lock()
	s.loading = true
	s.lastError = ""
	s.mu.Unlock()

	s.commitMu.Lock()
	s.emit(EventUploadStarted, "", "")
	s.commitMu.Unlock()
}

func (s *Service) endUpload() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

// ClearError dismisses the last error message.
func (s *Service) ClearError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
}

// Status returns the observable state.
func (s *Service) Status() Status {
	items := s.store.List()
	totals := pipeline.Aggregate(items)
	version := s.store.Version()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var last *UploadInfo
	if s.lastUpload != nil {
		cp := *s.lastUpload
		last = &cp
	}
	return Status{
		StartedAt:       s.startedAt,
		Loading:         s.loading,
		LastError:       s.lastError,
		LastUpload:      last,
		AIConfigured:    s.extractor != nil,
		Version:         version,
		Count:           len(items),
		Totals:          totals,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

// Events returns the buffered event history, oldest first.
func (s *Service) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// CurrentEvent builds an unnumbered snapshot event for new subscribers.
func (s *Service) CurrentEvent() Event {
	return Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Loading:   s.Loading(),
		Summary:   s.Summary(),
	}
}

// Subscribe registers a channel that receives every future event.
// Slow subscribers miss events rather than block the service.
func (s *Service) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// emit publishes an event. Callers hold commitMu.
func (s *Service) emit(typ, itemID, msg string) {
	summary := s.Summary()

	s.mu.Lock()
	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      typ,
		Timestamp: time.Now(),
		ItemID:    itemID,
		Message:   msg,
		Loading:   s.loading,
		Summary:   summary,
	}
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}
