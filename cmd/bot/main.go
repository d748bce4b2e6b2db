package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"log/slog"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/application/services"
	botclients "github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/bot/clients"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/bot/domain"
	botservice "github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/bot/service"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/bot/telegram"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/common"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/common/metrics"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/config"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/models"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/events"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/infrastructure/clients"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/infrastructure/persistence"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/infrastructure/repositories/memory"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/notify"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/scheduler"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/pkg"
)

func setupTelegramCommands(telegramClient domain.TelegramClientAPI, appLogger *slog.Logger) {
	ctx := context.Background()
	if err := telegramClient.SetMyCommands(ctx, telegram.BotCommands()); err != nil {
		appLogger.Error("Ошибка при регистрации команд бота",
			"error", err,
		)
	} else {
		appLogger.Info("Команды бота успешно зарегистрированы")
	}
}

func gracefulShutdown(
	poller *telegram.Poller,
	checkScheduler *scheduler.Scheduler,
	metricsServer *metrics.MetricsServer,
	publisher events.EventPublisher,
	stopCh <-chan struct{},
	appLogger *slog.Logger,
) {
	<-stopCh
	appLogger.Info("Получен сигнал завершения")

	poller.Stop()
	checkScheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := metricsServer.Stop(ctx); err != nil {
		appLogger.Error("Ошибка при остановке сервера метрик",
			"error", err,
		)
	}

	if err := publisher.Close(); err != nil {
		appLogger.Error("Ошибка при закрытии издателя событий",
			"error", err,
		)
	}

	appLogger.Info("Бот успешно остановлен")
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка запуска сервиса: %v\n", err)
		os.Exit(1)
	}
}

//nolint:funlen // Длина функции обусловлена необходимостью последовательной инициализации всех компонентов.
func run() error {
	appLogger := pkg.NewLogger(os.Stdout)

	cfg := config.LoadConfig()

	ctx := context.Background()

	storeFactory := persistence.NewFactory(cfg, appLogger)

	stateStore, err := storeFactory.CreateStateStore(ctx)
	if err != nil {
		appLogger.Error("Ошибка при создании хранилища состояния",
			"error", err,
		)

		return fmt.Errorf("ошибка создания хранилища состояния: %w", err)
	}

	workHours, err := common.NewWorkHours(cfg.WorkHoursStart, cfg.WorkHoursEnd, cfg.Timezone)
	if err != nil {
		return fmt.Errorf("ошибка разбора рабочих часов: %w", err)
	}

	repo := memory.NewPendingMessageRepository(stateStore, appLogger)
	roster := memory.NewManagerRoster(stateStore, appLogger)
	flags := memory.NewAutoReplyFlags(stateStore, appLogger)

	if err := repo.Restore(ctx); err != nil {
		appLogger.Error("Не удалось восстановить непрочитанные сообщения", "error", err)
	}

	if err := roster.Restore(ctx); err != nil {
		appLogger.Error("Не удалось восстановить список менеджеров", "error", err)
	}

	if err := flags.Restore(ctx); err != nil {
		appLogger.Error("Не удалось восстановить флаги автоответов", "error", err)
	}

	reportTransport := clients.NewTelegramClient(cfg, appLogger)
	composer := notify.NewComposer(workHours.Location())
	dispatcher := notify.NewDispatcher(reportTransport, repo, composer, stateStore, cfg.NotifyCooldown, appLogger)

	if err := dispatcher.Restore(ctx); err != nil {
		appLogger.Error("Не удалось восстановить состояние уведомлений", "error", err)
	}

	var publisher events.EventPublisher = events.NewNoopEventPublisher()

	if cfg.EventsEnabled {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		publisher = events.NewKafkaEventPublisher(brokers, cfg.TopicEscalationEvents, appLogger)
		appLogger.Info("Издатель событий Kafka успешно инициализирован")
	}

	funnels := &models.FunnelConfig{
		Thresholds: map[int]int{
			1: cfg.Funnel1Minutes,
			2: cfg.Funnel2Minutes,
			3: cfg.Funnel3Minutes,
		},
		StrictSequence: cfg.FunnelStrictSequence,
	}

	escalationService := services.NewEscalationService(
		repo,
		dispatcher,
		publisher,
		stateStore,
		workHours,
		funnels,
		appLogger,
	)

	if err := escalationService.Restore(ctx); err != nil {
		appLogger.Error("Не удалось восстановить настройки воронок", "error", err)
	}

	telegramClient := botclients.NewTelegramClient(cfg.TelegramBotToken, appLogger)
	setupTelegramCommands(telegramClient, appLogger)

	commandService := botservice.NewBotService(
		escalationService,
		roster,
		flags,
		cfg.AdminIDs,
		workHours.Location(),
	)

	poller := telegram.NewPoller(
		telegramClient,
		commandService,
		escalationService,
		roster,
		flags,
		workHours,
		cfg.AutoReplyText,
		appLogger,
	)
	poller.Start(ctx)

	checkScheduler := scheduler.NewScheduler(escalationService, cfg.SchedulerCheckInterval, appLogger)
	checkScheduler.Start()

	metricsServer := metrics.NewMetricsServer(cfg.MetricsPort, appLogger)

	stopCh := make(chan struct{})

	var stopOnce sync.Once

	stop := func() { stopOnce.Do(func() { close(stopCh) }) }

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLogger.Info("Получен системный сигнал",
			"signal", sig.String(),
		)
		stop()
	}()

	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			appLogger.Error("Ошибка при запуске сервера метрик",
				"error", err,
			)
			stop()
		}
	}()

	gracefulShutdown(poller, checkScheduler, metricsServer, publisher, stopCh, appLogger)

	return nil
}
