package scheduler

import (
	"context"
	"errors"
	"time"

	"tradesettle/internal/models"
	"tradesettle/internal/service"
	"tradesettle/pkg/utils"
)

// Runner запускает один проход расчета.
// Реализуется SettlementService.
type Runner interface {
	Run(ctx context.Context) (*models.SettlementSummary, error)
}

// Scheduler - воркер для периодического запуска расчета pending сделок.
//
// Каждый тик запускает один проход. Если предыдущий проход еще
// выполняется, тик пропускается. Расчет также можно запускать
// вручную через API - блокировка одна и та же.
type Scheduler struct {
	runner     Runner
	interval   time.Duration
	runTimeout time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
	log        *utils.Logger
}

// New создает планировщик расчетов.
// runTimeout ограничивает длительность одного прохода; 0 = без лимита.
func New(runner Runner, interval, runTimeout time.Duration) *Scheduler {
	return &Scheduler{
		runner:     runner,
		interval:   interval,
		runTimeout: runTimeout,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		log:        utils.L().WithComponent("scheduler"),
	}
}

// Start запускает цикл планировщика. Блокирует до остановки.
func (s *Scheduler) Start(ctx context.Context) {
	defer close(s.doneCh)

	s.log.Info("scheduler started", utils.Dur("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped: context cancelled")
			return
		case <-s.stopCh:
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// Stop останавливает планировщик и дожидается завершения цикла
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// runOnce выполняет один проход расчета с таймаутом
func (s *Scheduler) runOnce(ctx context.Context) {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	summary, err := s.runner.Run(ctx)
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			// Ручной запуск или предыдущий тик еще не завершился
			s.log.Debug("settlement run skipped: already in progress")
			return
		}
		s.log.Error("scheduled settlement run failed", utils.Err(err))
		return
	}

	if summary.Settled > 0 || summary.Failed > 0 {
		s.log.Info("scheduled settlement run finished",
			utils.Int("settled", summary.Settled),
			utils.Int("failed", summary.Failed),
			utils.PNL(summary.TotalPnL),
		)
	}
}
