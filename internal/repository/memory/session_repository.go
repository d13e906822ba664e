package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"medicore-triage-be/pkg/triage"
)

// SessionRepository holds active triage sessions in memory with a TTL, so
// abandoned conversations age out without a cleanup job. It also owns the
// per-session mutexes that serialize turns: two concurrent messages for the
// same session must never interleave stage transitions, while different
// sessions proceed independently.
type SessionRepository struct {
	cache *cache.Cache
	locks sync.Map // session id -> *sync.Mutex; entries live for the process lifetime
}

func NewSessionRepository(ttl, purgeInterval time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	if purgeInterval <= 0 {
		purgeInterval = 10 * time.Minute
	}
	return &SessionRepository{
		cache: cache.New(ttl, purgeInterval),
	}
}

func (r *SessionRepository) Save(session *triage.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*triage.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*triage.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// Lock serializes access to one session and returns the unlock function.
// Callers must not hold the lock across provider network calls.
func (r *SessionRepository) Lock(sessionID string) func() {
	mu, _ := r.locks.LoadOrStore(sessionID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
