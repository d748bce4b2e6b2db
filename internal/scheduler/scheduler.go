package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

type EscalationChecker interface {
	CheckPending(ctx context.Context)
}

// Scheduler запускает проверку воронок с фиксированным интервалом.
// Наложение тиков гасится и в gocron, и в самом сервисе.
type Scheduler struct {
	scheduler *gocron.Scheduler
	checker   EscalationChecker
	logger    *slog.Logger
	interval  time.Duration
}

func NewScheduler(checker EscalationChecker, interval time.Duration, logger *slog.Logger) *Scheduler {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	return &Scheduler{
		scheduler: scheduler,
		checker:   checker,
		logger:    logger,
		interval:  interval,
	}
}

func (s *Scheduler) Start() {
	s.logger.Info("Запуск планировщика",
		"interval", s.interval.String(),
	)

	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.logger.Debug("Запуск проверки воронок")

		ctx := context.Background()
		s.checker.CheckPending(ctx)
	})

	if err != nil {
		s.logger.Error("Ошибка при настройке планировщика",
			"error", err,
		)

		return
	}

	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.logger.Info("Остановка планировщика")
	s.scheduler.Stop()
}
