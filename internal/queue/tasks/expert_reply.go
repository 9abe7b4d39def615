package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/navin3756/shipit/internal/models"
	"github.com/navin3756/shipit/internal/services"
	appErr "github.com/navin3756/shipit/pkg/errors"
	"github.com/navin3756/shipit/pkg/logger"
)

// TypeExpertReply is the asynq task type of a deferred expert reply.
const TypeExpertReply = "project:expert_reply"

// ExpertReplyPayload is the task payload for expert replies.
type ExpertReplyPayload struct {
	ProjectID string `json:"project_id"`
}

func NewExpertReplyTask(projectID string) (*asynq.Task, error) {
	b, err := json.Marshal(ExpertReplyPayload{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExpertReply, b, asynq.MaxRetry(3)), nil
}

// Enqueuer is the part of asynq.Client used to schedule tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ReplyEnqueuer schedules expert replies on the queue so they survive a
// restart of the API process.
type ReplyEnqueuer struct {
	client Enqueuer
}

var _ services.ReplyScheduler = (*ReplyEnqueuer)(nil)

func NewReplyEnqueuer(client Enqueuer) *ReplyEnqueuer {
	return &ReplyEnqueuer{client: client}
}

func (e *ReplyEnqueuer) ScheduleReply(ctx context.Context, projectID string, delay time.Duration) error {
	task, err := NewExpertReplyTask(projectID)
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "encode expert reply task")
	}
	info, err := e.client.EnqueueContext(ctx, task, asynq.ProcessIn(delay))
	if err != nil {
		return appErr.Wrap(err, appErr.CodeUnavailable, "enqueue expert reply").WithMeta("project_id", projectID)
	}
	logger.L().Debug("expert reply enqueued", logger.Project(projectID), zap.String("task_id", info.ID))
	return nil
}

// ReplyTarget is the lifecycle surface the worker needs.
type ReplyTarget interface {
	services.ExpertReplier
	Load(ctx context.Context) []models.Project
}

// ExpertReplyHandler appends expert replies when their task fires.
type ExpertReplyHandler struct {
	svc ReplyTarget
}

func NewExpertReplyHandler(svc ReplyTarget) *ExpertReplyHandler {
	return &ExpertReplyHandler{svc: svc}
}

// Register binds the handler on mux.
func (h *ExpertReplyHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeExpertReply, h.HandleExpertReply)
}

// HandleExpertReply reloads the project list so the reply is appended to the
// latest state, then appends it.
func (h *ExpertReplyHandler) HandleExpertReply(ctx context.Context, t *asynq.Task) error {
	var p ExpertReplyPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid expert reply payload", zap.Error(err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.ProjectID == "" {
		logger.L().Error("expert reply task without project id")
		return fmt.Errorf("missing project id: %w", asynq.SkipRetry)
	}

	logger.L().Info("handling expert reply", logger.Project(p.ProjectID))
	h.svc.Load(ctx)

	if _, err := h.svc.AppendExpertReply(ctx, p.ProjectID); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			logger.L().Warn("project gone, dropping expert reply", logger.Project(p.ProjectID))
			return nil
		}
		if !appErr.Retryable(err) {
			logger.L().Error("expert reply rejected", logger.Project(p.ProjectID), logger.Code(err), zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		logger.L().Error("append expert reply failed", logger.Project(p.ProjectID), logger.Code(err), zap.Error(err))
		return err
	}
	return nil
}
