package bot

import (
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashback-bot/internal/bot/handlers"
	"github.com/Proton-105/cashback-bot/internal/bot/keyboard"
	"github.com/Proton-105/cashback-bot/internal/conversation"
	apperrors "github.com/Proton-105/cashback-bot/internal/errors"
	"github.com/Proton-105/cashback-bot/internal/i18n"
	"github.com/Proton-105/cashback-bot/internal/idempotency"
	"github.com/Proton-105/cashback-bot/internal/middleware"
	"github.com/Proton-105/cashback-bot/pkg/config"
)

// Deps are the application services the bot routes updates to.
type Deps struct {
	Engine      handlers.Engine
	Reports     handlers.Reports
	Categories  handlers.Categories
	Users       UserRegistrar
	Translator  i18n.Translator
	Idempotency idempotency.Manager
	RateLimit   *middleware.RateLimitMiddleware
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        config.Config
	router     *Router
	errHandler *apperrors.Handler
}

// New builds a telegram bot instance configured according to the application settings.
func New(cfg config.Config, log *slog.Logger, deps Deps) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token: cfg.Bot.Token,
		OnError: func(err error, c telebot.Context) {
			log.Error("telebot error", slog.Any("error", err))
		},
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen:   cfg.Bot.WebhookListen,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.PollerTimeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := newBot(tb, cfg, log, deps)
	b.registerTelebotHandlers()

	return b, nil
}

// newBot assembles the router without touching the network.
func newBot(tb *telebot.Bot, cfg config.Config, log *slog.Logger, deps Deps) *Bot {
	b := &Bot{
		telebot:    tb,
		log:        log,
		cfg:        cfg,
		router:     NewRouter(NewDispatcher(log), log),
		errHandler: apperrors.NewHandler(log, deps.Translator, cfg.Sentry.Enabled),
	}

	b.setupMiddlewares(deps)
	b.setupRoutes(deps)

	return b
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// Router exposes the update router.
func (b *Bot) Router() *Router {
	return b.router
}

func (b *Bot) setupMiddlewares(deps Deps) {
	idempotencyTTL := b.cfg.Idempotency.TTL
	if idempotencyTTL <= 0 {
		idempotencyTTL = 24 * time.Hour
	}

	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(ContextMiddleware(b.cfg.Bot.HandlerTimeout))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Idempotency(deps.Idempotency, idempotencyTTL, b.log))
	if deps.RateLimit != nil {
		b.router.Use(deps.RateLimit.Handle)
	}
	b.router.Use(RegisterMiddleware(deps.Users))
	b.router.Use(middleware.Metrics)
}

func (b *Bot) setupRoutes(deps Deps) {
	t := deps.Translator

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(t))
	b.router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(t))

	if deps.Engine != nil {
		addHandler := handlers.NewActionHandler(deps.Engine, t, conversation.StartAdd())
		deleteHandler := handlers.NewActionHandler(deps.Engine, t, conversation.StartDelete())
		friendHandler := handlers.NewActionHandler(deps.Engine, t, conversation.StartFriend())

		b.router.RegisterCommand(CommandAdd, addHandler)
		b.router.RegisterCommand(CommandDelete, deleteHandler)
		b.router.RegisterCommand(CommandAddFriend, friendHandler)
		b.router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(deps.Engine, t))

		b.router.dispatcher.RegisterText(t.T(keyboard.MenuAddFriend), friendHandler)
		b.router.dispatcher.SetFallback(handlers.NewTextHandler(deps.Engine, t))
		b.router.SetDefaultCallback(handlers.NewCallbackHandler(deps.Engine, t, b.log))
	}

	if deps.Reports != nil {
		b.router.dispatcher.RegisterText(t.T(keyboard.MenuMyCashback), handlers.NewMyReportHandler(deps.Reports))
		b.router.dispatcher.RegisterText(t.T(keyboard.MenuOurCashback), handlers.NewSharedReportHandler(deps.Reports))
	}

	if deps.Categories != nil {
		adminOnly := handlers.AdminOnly(b.cfg.Bot.IsAdmin, t, b.log)
		b.router.RegisterCommand(CommandCategories, adminOnly(handlers.NewListCategoriesHandler(deps.Categories)))
		b.router.RegisterCommand(CommandAddCategory, adminOnly(handlers.NewAddCategoryHandler(deps.Categories, t)))
		b.router.RegisterCommand(CommandDelCategory, adminOnly(handlers.NewDeleteCategoryHandler(deps.Categories, t)))
	}
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}
