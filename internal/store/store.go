// Package store holds the in-memory project list and its durable local mirror.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/navin3756/shipit/internal/models"
	appErr "github.com/navin3756/shipit/pkg/errors"
	"github.com/navin3756/shipit/pkg/logger"
)

// Source is a remote origin the store can load the full list from.
type Source interface {
	Enabled() bool
	ReadAll(ctx context.Context) ([]models.Project, error)
}

// LoadSource names where the current list was loaded from.
type LoadSource string

const (
	LoadedFromRemote LoadSource = "remote"
	LoadedFromMirror LoadSource = "mirror"
)

// SyncStatus is the user-visible sync indicator.
type SyncStatus struct {
	Syncing      bool       `json:"syncing"`
	RemoteActive bool       `json:"remoteActive"`
	Source       LoadSource `json:"source,omitempty"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
	LastErrorOp  string     `json:"lastErrorOp,omitempty"`
	LastErrorAt  *time.Time `json:"lastErrorAt,omitempty"`
}

// ProjectStore is the authoritative in-process view of all projects. Every
// mutation rewrites the mirror before returning.
type ProjectStore struct {
	mu       sync.RWMutex
	projects []models.Project
	// pending holds ids of projects whose remote insert has not succeeded.
	// They survive remote reloads until the remote list contains them.
	pending       map[string]struct{}
	pendingLoaded bool

	mirror Mirror
	source Source
	log    *zap.Logger
	now    func() time.Time

	statusMu sync.Mutex
	status   SyncStatus
}

// New builds a store. source may be nil for local-only operation.
func New(mirror Mirror, source Source, log *zap.Logger) *ProjectStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProjectStore{
		projects: []models.Project{},
		pending:  map[string]struct{}{},
		mirror:   mirror,
		source:   source,
		log:      log,
		now:      time.Now,
	}
}

func (s *ProjectStore) remoteEnabled() bool {
	return s.source != nil && s.source.Enabled()
}

// Load refreshes the list from the remote source when enabled, falling back to
// the mirror. It never fails; problems are logged and reported through Status.
func (s *ProjectStore) Load(ctx context.Context) []models.Project {
	s.setSyncing(true)
	defer s.setSyncing(false)

	if s.remoteEnabled() {
		remote, err := s.source.ReadAll(ctx)
		if err == nil {
			s.mu.Lock()
			s.projects = s.mergePendingLocked(ctx, cloneAll(remote))
			s.persistLocked(ctx)
			out := cloneAll(s.projects)
			s.mu.Unlock()
			s.markSynced(LoadedFromRemote)
			s.log.Debug("projects loaded from remote", zap.Int("count", len(out)))
			return out
		}
		s.ReportSyncError("load", err)
	}

	local, err := s.mirror.Load(ctx)
	if err != nil {
		s.log.Error("mirror load failed", zap.Error(err))
		s.ReportSyncError("mirror_load", err)
		return s.List()
	}

	s.mu.Lock()
	s.loadPendingLocked(ctx)
	s.projects = cloneAll(local)
	out := cloneAll(s.projects)
	s.mu.Unlock()
	s.markSynced(LoadedFromMirror)
	s.log.Debug("projects loaded from mirror", zap.Int("count", len(out)))
	return out
}

// List returns a copy of the current list in display order.
func (s *ProjectStore) List() []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.projects)
}

// Get returns a copy of the project with the given id.
func (s *ProjectStore) Get(id string) (models.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.projects[i].Clone(), true
	}
	return models.Project{}, false
}

// Apply replaces the project with the same id, keeping its position. Unknown
// ids leave the list unchanged.
func (s *ProjectStore) Apply(ctx context.Context, p models.Project) []models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(p.ID); i >= 0 {
		s.projects[i] = p.Clone()
	}
	s.persistLocked(ctx)
	return cloneAll(s.projects)
}

// Insert prepends p.
func (s *ProjectStore) Insert(ctx context.Context, p models.Project) []models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append([]models.Project{p.Clone()}, s.projects...)
	s.persistLocked(ctx)
	return cloneAll(s.projects)
}

// InsertPending prepends p and remembers that it still has to be written
// remotely.
func (s *ProjectStore) InsertPending(ctx context.Context, p models.Project) []models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadPendingLocked(ctx)
	s.projects = append([]models.Project{p.Clone()}, s.projects...)
	s.pending[p.ID] = struct{}{}
	s.persistLocked(ctx)
	s.persistPendingLocked(ctx)
	return cloneAll(s.projects)
}

// Pending returns copies of the projects not yet stored remotely.
func (s *ProjectStore) Pending() []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Project{}
	for _, p := range s.projects {
		if _, ok := s.pending[p.ID]; ok {
			out = append(out, p.Clone())
		}
	}
	return out
}

// ClearPending marks id as stored remotely. Unknown ids are ignored.
func (s *ProjectStore) ClearPending(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadPendingLocked(ctx)
	if _, ok := s.pending[id]; !ok {
		return
	}
	delete(s.pending, id)
	s.persistPendingLocked(ctx)
}

// Mutate applies fn to the project with the given id under the store lock and
// stores the result. When fn fails nothing is written.
func (s *ProjectStore) Mutate(ctx context.Context, id string, fn func(p *models.Project) error) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Project{}, appErr.New(appErr.CodeNotFound, "project not found").WithMeta("project_id", id)
	}
	next := s.projects[i].Clone()
	if err := fn(&next); err != nil {
		return models.Project{}, err
	}
	s.projects[i] = next
	s.persistLocked(ctx)
	return next.Clone(), nil
}

// Status returns the current sync indicator.
func (s *ProjectStore) Status() SyncStatus {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	st := s.status
	st.RemoteActive = s.remoteEnabled()
	return st
}

// ReportSyncError records a failed remote interaction for the sync indicator.
func (s *ProjectStore) ReportSyncError(op string, err error) {
	if err == nil {
		return
	}
	s.log.Warn("remote sync failed", zap.String("op", op), logger.Code(err), zap.Error(err))
	now := s.now()
	s.statusMu.Lock()
	s.status.LastError = err.Error()
	s.status.LastErrorOp = op
	s.status.LastErrorAt = &now
	s.statusMu.Unlock()
}

func (s *ProjectStore) setSyncing(v bool) {
	s.statusMu.Lock()
	s.status.Syncing = v
	s.statusMu.Unlock()
}

func (s *ProjectStore) markSynced(src LoadSource) {
	now := s.now()
	s.statusMu.Lock()
	s.status.Source = src
	s.status.LastSyncedAt = &now
	s.statusMu.Unlock()
}

// persistLocked writes the whole list to the mirror. Callers hold mu.
func (s *ProjectStore) persistLocked(ctx context.Context) {
	if err := s.mirror.Save(ctx, s.projects); err != nil {
		s.log.Error("mirror write failed", zap.Error(err))
		s.ReportSyncError("mirror_save", err)
	}
}

// mergePendingLocked keeps pending projects that the remote list lacks, ahead
// of the remote rows. Pending ids the remote already has are cleared.
func (s *ProjectStore) mergePendingLocked(ctx context.Context, remote []models.Project) []models.Project {
	s.loadPendingLocked(ctx)
	if len(s.pending) == 0 {
		return remote
	}

	inRemote := make(map[string]bool, len(remote))
	for _, p := range remote {
		inRemote[p.ID] = true
	}

	// After a restart pending rows are only in the mirror.
	known := s.projects
	if len(known) == 0 {
		if local, err := s.mirror.Load(ctx); err == nil {
			known = local
		}
	}

	kept := []models.Project{}
	for _, p := range known {
		if _, ok := s.pending[p.ID]; ok && !inRemote[p.ID] {
			kept = append(kept, p.Clone())
		}
	}
	changed := false
	for id := range s.pending {
		// Stored remotely, or gone everywhere with nothing left to retry.
		if inRemote[id] || !containsID(kept, id) {
			delete(s.pending, id)
			changed = true
		}
	}
	if changed {
		s.persistPendingLocked(ctx)
	}
	return append(kept, remote...)
}

func (s *ProjectStore) loadPendingLocked(ctx context.Context) {
	if s.pendingLoaded {
		return
	}
	ids, err := s.mirror.LoadPending(ctx)
	if err != nil {
		s.log.Error("pending ids load failed", zap.Error(err))
		return
	}
	for _, id := range ids {
		s.pending[id] = struct{}{}
	}
	s.pendingLoaded = true
}

func (s *ProjectStore) persistPendingLocked(ctx context.Context) {
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if err := s.mirror.SavePending(ctx, ids); err != nil {
		s.log.Error("pending ids write failed", zap.Error(err))
		s.ReportSyncError("mirror_save", err)
	}
}

func containsID(list []models.Project, id string) bool {
	for i := range list {
		if list[i].ID == id {
			return true
		}
	}
	return false
}

func (s *ProjectStore) indexLocked(id string) int {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(in []models.Project) []models.Project {
	out := make([]models.Project, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
