package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"debtbook/clock"
	"debtbook/config"
	"debtbook/controllers"
	"debtbook/database"
	"debtbook/goldprice"
	"debtbook/services"
	"debtbook/storage"
	"debtbook/utils"

	"go.uber.org/zap"
)

// healthHandler отвечает на проверку доступности
func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Write([]byte("OK"))
}

// newGoldSource собирает источник цены золота с кешем в Redis или в памяти
func newGoldSource(ctx context.Context, cfg *config.Config) goldprice.Source {
	feed := goldprice.NewFeedSource(goldprice.FeedOptions{
		FeedURL:   cfg.Gold.FeedURL,
		PricePath: cfg.Gold.PricePath,
		SourceURL: cfg.Gold.SourceURL,
		Attempts:  cfg.Gold.Attempts,
		Timeout:   cfg.Gold.Timeout,
	})

	var cache goldprice.Cache = goldprice.NewMemoryCache()
	if client := goldprice.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); client != nil {
		cache = goldprice.NewRedisCache(client)
	}
	return goldprice.NewCachedSource(feed, cache, cfg.Gold.CacheTTL)
}

func main() {
	logger := utils.Logger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}

	// Инициализируем подключение к базе данных
	db, err := database.NewDatabase(cfg)
	if err != nil {
		logger.Fatal("Ошибка подключения к базе данных", zap.Error(err))
	}
	defer db.Close()

	clk := clock.SystemClock{}
	metrics := utils.GetMetrics()
	gold := newGoldSource(ctx, cfg)

	// Вложения: содержимое на диске, метаданные в базе
	attachments := storage.NewAttachmentSync(
		storage.NewMetadataStore(db.DB),
		storage.NewOsBlobStore(cfg.Storage.BlobDir),
		storage.Options{
			HMACKey:   []byte(cfg.Storage.HMACKey),
			MaxImages: cfg.Storage.MaxImagesPerDebt,
			MaxEdge:   cfg.Storage.MaxImageEdge,
		},
	)

	// Уведомления владельцу отправляются, только если настроена почта
	var notifier services.Notifier
	if emailService := services.NewEmailService(cfg); emailService.Enabled() {
		notifier = emailService
	} else {
		utils.LogInfo("SMTP не настроен, уведомления отключены")
	}

	auth, err := services.NewAuthService(cfg, clk)
	if err != nil {
		logger.Fatal("Ошибка инициализации аутентификации", zap.Error(err))
	}

	// Запускаем планировщик напоминаний
	scheduler := services.NewReminderScheduler(db, notifier, clk, cfg.Reminders.Cron)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Ошибка запуска планировщика", zap.Error(err))
	}

	router := &controllers.Router{
		Auth:        controllers.NewAuthController(auth),
		Customers:   controllers.NewCustomerController(services.NewCustomerService(db, attachments, gold, clk, metrics)),
		Debts:       controllers.NewDebtController(services.NewDebtService(db, notifier, clk, metrics)),
		Images:      controllers.NewImageController(services.NewImageService(db, attachments)),
		System:      controllers.NewSystemController(gold, metrics),
		TokenParser: auth,
		SignInLimit: utils.NewRateLimiter(cfg.Auth.SignInLimit, time.Minute),
		Metrics:     metrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/", router.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Сервер запущен на порту %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Остановка сервера")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.LogError("Ошибка при остановке сервера: %v", err)
	}
}
