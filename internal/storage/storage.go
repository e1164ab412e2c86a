package storage

import (
	"errors"
	"sort"
	"strconv"

	"standup-bot/internal/metrics"
	"standup-bot/internal/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ErrCorrupt is returned by a Persister whose stored document cannot be decoded.
var ErrCorrupt = errors.New("stored document is corrupt")

// Document is the whole persisted state of the bot.
type Document struct {
	Groups       map[string]*models.GroupRecord `json:"groups"`
	PrivateChats map[string]*models.UserSession `json:"privateChats"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Groups:       map[string]*models.GroupRecord{},
		PrivateChats: map[string]*models.UserSession{},
	}
}

func (d *Document) normalize() {
	if d.Groups == nil {
		d.Groups = map[string]*models.GroupRecord{}
	}
	if d.PrivateChats == nil {
		d.PrivateChats = map[string]*models.UserSession{}
	}
	for key, g := range d.Groups {
		if g == nil {
			delete(d.Groups, key)
			continue
		}
		if g.ID == 0 {
			g.ID, _ = strconv.ParseInt(key, 10, 64)
		}
		if g.MemberCategories == nil {
			g.MemberCategories = map[string][]string{}
		}
	}
	for key, s := range d.PrivateChats {
		if s == nil {
			delete(d.PrivateChats, key)
		}
	}
}

// Persister reads and writes the whole document.
type Persister interface {
	Load() (*Document, error)
	Save(*Document) error
}

// Defaults seed newly created group records.
type Defaults struct {
	SpreadsheetID string
}

// Store is the in-memory group and session table backed by a Persister.
// It is not safe for concurrent use; callers serialise access.
type Store struct {
	doc       *Document
	persister Persister
	defaults  Defaults
	clock     clockwork.Clock
	log       *zap.Logger
}

// New loads the document through p.
func New(p Persister, defaults Defaults, clock clockwork.Clock, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	doc, err := p.Load()
	if err != nil {
		return nil, err
	}
	doc.normalize()
	return &Store{doc: doc, persister: p, defaults: defaults, clock: clock, log: log}, nil
}

func key(id int64) string { return strconv.FormatInt(id, 10) }

// ---------- groups ----------------------------------------------------------

// Group returns the record for id, creating and persisting it on first sight.
func (s *Store) Group(id int64) *models.GroupRecord {
	if g, ok := s.doc.Groups[key(id)]; ok {
		return g
	}
	now := s.clock.Now().UTC()
	g := &models.GroupRecord{
		ID:          id,
		StandUpLogs: []models.UpdateEntry{},
		Settings: models.GroupSettings{
			ReminderTimeUTC: models.DefaultReminderTime,
			SpreadsheetID:   s.defaults.SpreadsheetID,
			ActiveWeekdays:  append([]int(nil), models.DefaultWeekdays...),
		},
		Metadata: models.GroupMetadata{
			JoinedAt:     now,
			LastActivity: now,
		},
		MemberCategories: map[string][]string{},
	}
	s.doc.Groups[key(id)] = g
	s.log.Info("group registered", zap.Int64("chat_id", id))
	s.Persist()
	return g
}

// LookupGroup returns the record for id without creating it.
func (s *Store) LookupGroup(id int64) (*models.GroupRecord, bool) {
	g, ok := s.doc.Groups[key(id)]
	return g, ok
}

// Groups returns all group records ordered by id.
func (s *Store) Groups() []*models.GroupRecord {
	out := make([]*models.GroupRecord, 0, len(s.doc.Groups))
	for _, g := range s.doc.Groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeleteGroup purges a group record.
func (s *Store) DeleteGroup(id int64) {
	if _, ok := s.doc.Groups[key(id)]; !ok {
		return
	}
	delete(s.doc.Groups, key(id))
	s.log.Info("group purged", zap.Int64("chat_id", id))
	s.Persist()
}

// ---------- private chats ---------------------------------------------------

// Session returns the session of userID, creating an empty one if needed.
func (s *Store) Session(userID int64) *models.UserSession {
	if sess, ok := s.doc.PrivateChats[key(userID)]; ok {
		return sess
	}
	sess := &models.UserSession{}
	s.doc.PrivateChats[key(userID)] = sess
	return sess
}

// LookupSession returns the session of userID without creating it.
func (s *Store) LookupSession(userID int64) (*models.UserSession, bool) {
	sess, ok := s.doc.PrivateChats[key(userID)]
	return sess, ok
}

// ---------- persistence -----------------------------------------------------

// Persist writes the whole document. A failed write is logged and counted but
// the in-memory state stays authoritative.
func (s *Store) Persist() {
	if err := s.persister.Save(s.doc); err != nil {
		metrics.PersistFailures.Inc()
		s.log.Error("persist state", zap.Error(err))
	}
}
