package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance-bot/config"
	"attendance-bot/internal/app/automation"
	"attendance-bot/internal/app/service"
	"attendance-bot/internal/delivery/httpapi"
	"attendance-bot/internal/delivery/telegram"
	"attendance-bot/internal/repository/sqlite"
	"attendance-bot/pkg/calendar"
	"attendance-bot/pkg/shiftcal"
	"attendance-bot/pkg/workerpool"

	"github.com/gin-gonic/gin"
	"gopkg.in/telebot.v3"
)

func main() {
	log.Println("Запуск Attendance Bot...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфига: %v", err)
	}
	cal := shiftcal.New(cfg.Location())

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе: %v", err)
	}
	defer db.Close()

	if err := sqlite.Migrate(db); err != nil {
		log.Fatalf("Ошибка миграции: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := workerpool.NewWorkerPool(cfg.WorkerPoolSize, cfg.WorkerQueueSize)
	defer pool.Close()

	attendanceRepo := sqlite.NewSqliteAttendanceRepo(db, cal)
	workerRepo := sqlite.NewSqliteWorkerRepo(db)
	attendance := service.NewAttendanceService(attendanceRepo, workerRepo, cal, service.NewAsyncService(pool))
	workers := service.NewWorkerService(workerRepo)
	engine := automation.NewEngine(attendanceRepo, workerRepo, cal)

	if cfg.AutomationEnabled {
		scheduler, err := automation.NewScheduler(engine)
		if err != nil {
			log.Fatalf("Ошибка планировщика: %v", err)
		}
		scheduler.Start(ctx)
		log.Printf("[cron] расписание запущено, таймзона %s", cal.Loc)
	}

	var srv *http.Server
	if cfg.HTTPAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		srv = &http.Server{Addr: cfg.HTTPAddr, Handler: httpapi.NewRouter(attendance, workers, engine)}
		go func() {
			log.Printf("[http] слушаем %s", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("Ошибка HTTP сервера: %v", err)
			}
		}()
	}

	if cfg.TelegramToken != "" {
		bot, err := telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10},
		})
		if err != nil {
			log.Fatalf("Ошибка запуска бота: %v", err)
		}
		handler := &telegram.Handler{
			Bot:        bot,
			Attendance: attendance,
			Workers:    workers,
			Calendar:   &calendar.CalendarController{Loc: cal.Loc},
			Cal:        cal,
		}
		handler.Register()
		go bot.Start()
		defer bot.Stop()
		log.Println("Бот запущен!")
	}

	<-ctx.Done()
	log.Println("Остановка...")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[http] shutdown: %v", err)
		}
	}
}
