package session

import (
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/transfer_console/config"
	"bitbucket.org/mmdatafocus/transfer_console/models"
	"bitbucket.org/mmdatafocus/transfer_console/utils"
)

const redisKeyPrefix = "TransferWorkspace:Session:"

// RedisKeyPattern matches every persisted session key. Used by the
// session-purge tool.
const RedisKeyPattern = redisKeyPrefix + "*"

// Session is the per-user editing state around one workspace: which
// destination last received a search or import action, and the staged
// import batch pending confirmation. These are console-session concerns
// and deliberately live outside the workspace model.
type Session struct {
	ID                  string                     `json:"id"`
	Workspace           models.AllocationWorkspace `json:"workspace"`
	ActiveDestinationId string                     `json:"active_destination_id"`
	PendingBatch        *models.ImportBatch        `json:"pending_batch,omitempty"`
	UpdatedAt           time.Time                  `json:"updated_at"`
}

// Store keeps open editing sessions in memory, guarded by one mutex (user
// actions are serialized per session anyway), with best-effort write-through
// to Redis so a console restart does not lose an open session. Redis absent
// means memory only.
type Store struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]Session)}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Create opens a session around a fresh workspace. The first destination
// is active from the start.
func (s *Store) Create(w models.AllocationWorkspace) Session {
	sess := Session{
		ID:        utils.GenerateLocalId(),
		Workspace: w,
		UpdatedAt: time.Now(),
	}
	if len(w.Destinations) > 0 {
		sess.ActiveDestinationId = w.Destinations[0].ID
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.persist(sess)
	return sess
}

// Get returns a snapshot of the session, reviving it from Redis when the
// in-memory map does not have it (fresh process).
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	var revived Session
	found, err := config.GetRedisObject(redisKey(id), &revived)
	if err != nil || !found {
		return Session{}, utils.ErrorSessionNotFound
	}

	s.mu.Lock()
	s.sessions[id] = revived
	s.mu.Unlock()
	return revived, nil
}

// Update applies fn to a working copy of the session under the store lock
// and saves the result only when fn succeeds. This is the serialization
// point for all workspace mutations, including the submit transition.
func (s *Store) Update(id string, fn func(*Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		var revived Session
		found, err := config.GetRedisObject(redisKey(id), &revived)
		if err != nil || !found {
			return Session{}, utils.ErrorSessionNotFound
		}
		sess = revived
	}

	working := sess
	if err := fn(&working); err != nil {
		return sess, err
	}
	working.UpdatedAt = time.Now()
	s.sessions[id] = working

	s.persist(working)
	return working, nil
}

// Delete discards the session (submission committed, or user navigated
// away). There is nothing to roll back; nothing was persisted server-side.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	if err := config.RemoveRedisKey(redisKey(id)); err != nil {
		config.LogError(config.GetLogger(), "session", "Delete", "RemoveRedisKey", id, err)
	}
}

func (s *Store) persist(sess Session) {
	if err := config.SetRedisObject(redisKey(sess.ID), sess, config.WorkspaceSessionTTL()); err != nil {
		config.LogError(config.GetLogger(), "session", "persist", "SetRedisObject", sess.ID, err)
	}
}
