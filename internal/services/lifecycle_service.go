// Package services implements the project lifecycle: creation, hiring,
// milestone approval, messaging and secret storage.
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/navin3756/shipit/internal/fare"
	"github.com/navin3756/shipit/internal/models"
	"github.com/navin3756/shipit/internal/store"
	appErr "github.com/navin3756/shipit/pkg/errors"
	"github.com/navin3756/shipit/pkg/logger"
)

const (
	replyWithExpert    = "I'm checking the logs now. Deployment pipelines look stable, just waiting for the SSL certificate to propagate."
	replyWithoutExpert = "Thanks for the message. Please assign a technician from the 'Experts' tab so we can begin the handover."

	// DefaultReplyDelay is how long the expert takes to answer a message.
	DefaultReplyDelay = 2500 * time.Millisecond
)

// RemoteSync is the remote half of every write. A disabled remote turns
// each call into a no-op.
type RemoteSync interface {
	Enabled() bool
	Insert(ctx context.Context, p models.Project) error
	Update(ctx context.Context, p models.Project) error
	Subscribe(ctx context.Context, onChange func()) (func(), error)
}

// ExpertReplier appends the scripted expert answer to a conversation.
type ExpertReplier interface {
	AppendExpertReply(ctx context.Context, projectID string) (models.Project, error)
}

// LifecycleService drives projects through Draft, Blueprint Ready,
// In Transit and Arrived.
type LifecycleService interface {
	ExpertReplier

	Load(ctx context.Context) []models.Project
	List() []models.Project
	Get(projectID string) (models.Project, error)
	SyncStatus() store.SyncStatus

	CreateProject(ctx context.Context, draft models.Project) (models.Project, error)
	HireExpert(ctx context.Context, projectID string, expert models.Expert, d fare.Duration) (models.Project, error)
	PickupProject(ctx context.Context, projectID string) (models.Project, error)
	UpdateStatus(ctx context.Context, projectID string, status models.ProjectStatus) (models.Project, error)
	CompleteDeployment(ctx context.Context, projectID string) (models.Project, error)
	ApproveMilestone(ctx context.Context, projectID, milestoneID string) (models.Project, error)
	SendMessage(ctx context.Context, projectID, text string) (models.Project, error)
	AddSecret(ctx context.Context, projectID, key, ciphertext string) (models.Project, error)
	SelectPlan(ctx context.Context, tier models.ShipmentTier) (models.Project, bool, error)

	OpenJobs() []models.Project
	Deliveries(expertID string) []models.Project

	// Subscribe reloads the store on every remote change until the returned
	// function is called.
	Subscribe(ctx context.Context) (func(), error)
}

type lifecycleService struct {
	store      *store.ProjectStore
	remote     RemoteSync
	replies    ReplyScheduler
	replyDelay time.Duration
	now        func() time.Time
	newID      func() string
	log        *zap.Logger
}

// Option customizes the lifecycle service.
type Option func(*lifecycleService)

// WithReplyScheduler replaces the in-process timer used for expert replies.
func WithReplyScheduler(r ReplyScheduler) Option {
	return func(s *lifecycleService) { s.replies = r }
}

func WithReplyDelay(d time.Duration) Option {
	return func(s *lifecycleService) { s.replyDelay = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *lifecycleService) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *lifecycleService) { s.log = l }
}

// newProjectID returns a time-ordered id so remote rows sort by creation.
func newProjectID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func NewLifecycleService(st *store.ProjectStore, remote RemoteSync, opts ...Option) LifecycleService {
	s := &lifecycleService{
		store:      st,
		remote:     remote,
		replyDelay: DefaultReplyDelay,
		now:        time.Now,
		newID:      newProjectID,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.replies == nil {
		s.replies = NewTimerScheduler(s, s.log)
	}
	return s
}

// Ensure interfaces are satisfied at compile time
var _ LifecycleService = (*lifecycleService)(nil)

// Load reloads the store and retries the remote insert of projects created
// while the remote was failing.
func (s *lifecycleService) Load(ctx context.Context) []models.Project {
	list := s.store.Load(ctx)
	if !s.remote.Enabled() {
		return list
	}
	pending := s.store.Pending()
	if len(pending) == 0 {
		return list
	}
	for _, p := range pending {
		if err := s.remote.Insert(ctx, p); err != nil {
			s.store.ReportSyncError("insert_retry", err)
			continue
		}
		s.store.ClearPending(ctx, p.ID)
		s.log.Info("pending project stored remotely", logger.Project(p.ID))
	}
	return s.store.List()
}

func (s *lifecycleService) List() []models.Project {
	return s.store.List()
}

func (s *lifecycleService) Get(projectID string) (models.Project, error) {
	p, ok := s.store.Get(projectID)
	if !ok {
		return models.Project{}, notFound(projectID)
	}
	return p, nil
}

func (s *lifecycleService) SyncStatus() store.SyncStatus {
	return s.store.Status()
}

// CreateProject stamps the milestone checklist and stores the project. With
// remote sync the row is inserted remotely and the list reloaded; a failed
// remote insert keeps the project locally and marks it for retry.
func (s *lifecycleService) CreateProject(ctx context.Context, draft models.Project) (models.Project, error) {
	p := draft.Clone()
	if p.ID == "" {
		p.ID = s.newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	p.Status = models.StatusBlueprintReady
	p.Milestones = models.DefaultMilestones()
	if p.Messages == nil {
		p.Messages = []models.Message{}
	}
	if p.Vault == nil {
		p.Vault = []models.VaultItem{}
	}
	if p.Artifacts == nil {
		p.Artifacts = []models.Artifact{}
	}

	if s.remote.Enabled() {
		err := s.remote.Insert(ctx, p)
		if err == nil {
			s.store.Load(ctx)
			if stored, ok := s.store.Get(p.ID); ok {
				s.log.Info("project created", logger.Project(p.ID), zap.String("source", "remote"))
				return stored, nil
			}
		} else {
			s.store.ReportSyncError("insert", err)
			s.store.InsertPending(ctx, p)
			s.log.Warn("project kept locally until remote insert succeeds", logger.Project(p.ID))
			return p.Clone(), nil
		}
	}

	s.store.Insert(ctx, p)
	s.log.Info("project created", logger.Project(p.ID), zap.String("source", "local"))
	return p.Clone(), nil
}

// HireExpert books expert for a session of length d and starts the live session.
func (s *lifecycleService) HireExpert(ctx context.Context, projectID string, expert models.Expert, d fare.Duration) (models.Project, error) {
	cost, err := fare.ComputeHireCost(expert.BaseFee, expert.HourlyRate, d)
	if err != nil {
		return models.Project{}, err
	}
	return s.mutate(ctx, "hire_expert", projectID, func(p *models.Project) error {
		if err := checkTransition(p, models.StatusInstalling); err != nil {
			return err
		}
		start := s.now().UTC()
		p.ExpertID = expert.ID
		p.Status = models.StatusInstalling
		p.TechnicianFee = models.Float(cost.TechnicianFee)
		p.PlatformFee = models.Float(cost.PlatformFee)
		p.TotalBookingCost = models.Float(cost.TotalCost)
		p.SelectedDuration = string(d)
		p.LiveSessionStart = &start
		return nil
	})
}

// PickupProject assigns the in-house technician without a fee.
func (s *lifecycleService) PickupProject(ctx context.Context, projectID string) (models.Project, error) {
	return s.mutate(ctx, "pickup", projectID, func(p *models.Project) error {
		if err := checkTransition(p, models.StatusInstalling); err != nil {
			return err
		}
		start := s.now().UTC()
		p.ExpertID = models.PickupTechnicianID
		p.Status = models.StatusInstalling
		p.LiveSessionStart = &start
		return nil
	})
}

// UpdateStatus overrides the status. Moving backwards is rejected.
func (s *lifecycleService) UpdateStatus(ctx context.Context, projectID string, status models.ProjectStatus) (models.Project, error) {
	if !status.Valid() {
		return models.Project{}, appErr.New(appErr.CodeInvalid, "unknown project status").WithMeta("status", string(status))
	}
	return s.mutate(ctx, "update_status", projectID, func(p *models.Project) error {
		if err := checkTransition(p, status); err != nil {
			return err
		}
		p.Status = status
		return nil
	})
}

// CompleteDeployment records that the automated deployment of an in-transit
// project finished.
func (s *lifecycleService) CompleteDeployment(ctx context.Context, projectID string) (models.Project, error) {
	return s.mutate(ctx, "complete_deployment", projectID, func(p *models.Project) error {
		switch p.Status {
		case models.StatusDeployed:
			return nil
		case models.StatusInstalling:
			p.Status = models.StatusDeployed
			return nil
		}
		return invalidTransition(p.Status, models.StatusDeployed)
	})
}

// ApproveMilestone approves one milestone and deploys the project once every
// milestone is approved.
func (s *lifecycleService) ApproveMilestone(ctx context.Context, projectID, milestoneID string) (models.Project, error) {
	return s.mutate(ctx, "approve_milestone", projectID, func(p *models.Project) error {
		idx := -1
		for i := range p.Milestones {
			if p.Milestones[i].ID == milestoneID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return appErr.New(appErr.CodeNotFound, "milestone not found").
				WithMeta("project_id", projectID).
				WithMeta("milestone_id", milestoneID)
		}
		p.Milestones[idx].IsApproved = true
		if p.AllMilestonesApproved() && p.Status != models.StatusDeployed {
			p.Status = models.StatusDeployed
		}
		return nil
	})
}

// SendMessage appends a user message and schedules the expert's reply.
func (s *lifecycleService) SendMessage(ctx context.Context, projectID, text string) (models.Project, error) {
	if strings.TrimSpace(text) == "" {
		return models.Project{}, appErr.New(appErr.CodeInvalid, "message text is empty")
	}
	p, err := s.mutate(ctx, "send_message", projectID, func(p *models.Project) error {
		p.Messages = append(p.Messages, models.Message{
			ID:        s.newID(),
			Sender:    models.SenderUser,
			Text:      text,
			Timestamp: s.now().UTC(),
		})
		return nil
	})
	if err != nil {
		return models.Project{}, err
	}
	if err := s.replies.ScheduleReply(ctx, projectID, s.replyDelay); err != nil {
		s.log.Warn("expert reply not scheduled", logger.Project(projectID), zap.Error(err))
	}
	return p, nil
}

// AppendExpertReply appends the scripted answer to the current state of the
// project. A failed remote write returns an unavailable error; the local copy
// keeps the reply.
func (s *lifecycleService) AppendExpertReply(ctx context.Context, projectID string) (models.Project, error) {
	return s.mutateSynced(ctx, "expert_reply", projectID, func(p *models.Project) error {
		text := replyWithoutExpert
		if p.ExpertID != "" {
			text = replyWithExpert
		}
		p.Messages = append(p.Messages, models.Message{
			ID:        s.newID(),
			Sender:    models.SenderExpert,
			Text:      text,
			Timestamp: s.now().UTC(),
		})
		return nil
	})
}

// AddSecret stores an already encrypted credential.
func (s *lifecycleService) AddSecret(ctx context.Context, projectID, key, ciphertext string) (models.Project, error) {
	if strings.TrimSpace(key) == "" {
		return models.Project{}, appErr.New(appErr.CodeInvalid, "secret key is empty")
	}
	return s.mutate(ctx, "add_secret", projectID, func(p *models.Project) error {
		p.Vault = append(p.Vault, models.VaultItem{
			ID:    s.newID(),
			Key:   key,
			Value: ciphertext,
		})
		return nil
	})
}

// SelectPlan moves the newest active project to tier. It reports false when
// there is no project to upgrade.
func (s *lifecycleService) SelectPlan(ctx context.Context, tier models.ShipmentTier) (models.Project, bool, error) {
	if !tier.Valid() {
		return models.Project{}, false, appErr.New(appErr.CodeInvalid, "unknown shipment tier").WithMeta("tier", string(tier))
	}
	list := s.store.List()
	if len(list) == 0 || list[0].Status == models.StatusDeployed || list[0].Blueprint == nil {
		return models.Project{}, false, nil
	}
	p, err := s.mutate(ctx, "select_plan", list[0].ID, func(p *models.Project) error {
		if p.Blueprint != nil {
			p.Blueprint.ShipmentTier = tier
		}
		return nil
	})
	if err != nil {
		return models.Project{}, false, err
	}
	return p, true, nil
}

// OpenJobs lists projects waiting for a technician.
func (s *lifecycleService) OpenJobs() []models.Project {
	return s.filter(func(p models.Project) bool {
		return p.Status == models.StatusBlueprintReady && p.ExpertID == ""
	})
}

// Deliveries lists projects assigned to expertID.
func (s *lifecycleService) Deliveries(expertID string) []models.Project {
	return s.filter(func(p models.Project) bool {
		return p.ExpertID != "" && p.ExpertID == expertID
	})
}

func (s *lifecycleService) Subscribe(ctx context.Context) (func(), error) {
	changes := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-changes:
				s.Load(ctx)
			}
		}
	}()

	unsubscribe, err := s.remote.Subscribe(ctx, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	if err != nil {
		close(done)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			close(done)
		})
	}, nil
}

// mutate applies fn locally, then writes the result remotely. A remote
// failure keeps the local state and is reported through the sync status.
func (s *lifecycleService) mutate(ctx context.Context, op, projectID string, fn func(p *models.Project) error) (models.Project, error) {
	res, err := s.apply(ctx, op, projectID, fn)
	return res.project, err
}

// mutateSynced is mutate that also returns the remote failure.
func (s *lifecycleService) mutateSynced(ctx context.Context, op, projectID string, fn func(p *models.Project) error) (models.Project, error) {
	res, err := s.apply(ctx, op, projectID, fn)
	if err != nil {
		return models.Project{}, err
	}
	if res.remoteErr != nil {
		return res.project, appErr.Wrap(res.remoteErr, appErr.CodeUnavailable, "remote update failed").
			WithMeta("project_id", projectID).
			WithMeta("op", op)
	}
	return res.project, nil
}

type writeResult struct {
	project   models.Project
	remoteErr error
}

func (s *lifecycleService) apply(ctx context.Context, op, projectID string, fn func(p *models.Project) error) (writeResult, error) {
	p, err := s.store.Mutate(ctx, projectID, fn)
	if err != nil {
		return writeResult{}, err
	}
	res := writeResult{project: p}
	if s.remote.Enabled() {
		if res.remoteErr = s.remote.Update(ctx, p); res.remoteErr != nil {
			s.store.ReportSyncError(op, res.remoteErr)
		} else {
			// Update inserts missing rows, so a pending project is now remote.
			s.store.ClearPending(ctx, p.ID)
		}
	}
	s.log.Debug("project updated", zap.String("op", op), logger.Project(p.ID), zap.String("status", string(p.Status)))
	return res, nil
}

func (s *lifecycleService) filter(keep func(models.Project) bool) []models.Project {
	out := []models.Project{}
	for _, p := range s.store.List() {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func checkTransition(p *models.Project, next models.ProjectStatus) error {
	if !p.Status.CanMoveTo(next) {
		return invalidTransition(p.Status, next)
	}
	return nil
}

func invalidTransition(from, to models.ProjectStatus) error {
	return appErr.New(appErr.CodeInvalidTransition, "status cannot move backwards").
		WithMeta("from", string(from)).
		WithMeta("to", string(to))
}

func notFound(projectID string) error {
	return appErr.New(appErr.CodeNotFound, "project not found").WithMeta("project_id", projectID)
}
