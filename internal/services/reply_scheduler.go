package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErr "github.com/navin3756/shipit/pkg/errors"
	"github.com/navin3756/shipit/pkg/logger"
)

// ReplyScheduler defers an expert reply to a project conversation.
type ReplyScheduler interface {
	ScheduleReply(ctx context.Context, projectID string, delay time.Duration) error
}

// TimerScheduler fires replies from in-process timers. Pending replies are
// lost when the process exits and cannot be cancelled.
type TimerScheduler struct {
	replier ExpertReplier
	log     *zap.Logger
}

var _ ReplyScheduler = (*TimerScheduler)(nil)

func NewTimerScheduler(replier ExpertReplier, log *zap.Logger) *TimerScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TimerScheduler{replier: replier, log: log}
}

func (t *TimerScheduler) ScheduleReply(_ context.Context, projectID string, delay time.Duration) error {
	time.AfterFunc(delay, func() {
		_, err := t.replier.AppendExpertReply(context.Background(), projectID)
		switch {
		case err == nil:
		case appErr.IsCode(err, appErr.CodeUnavailable):
			t.log.Warn("expert reply kept locally, remote update failed", logger.Project(projectID), zap.Error(err))
		default:
			t.log.Warn("expert reply dropped", logger.Project(projectID), zap.Error(err))
		}
	})
	return nil
}
