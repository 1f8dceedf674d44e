package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"quads-bot/internal/config"
	"quads-bot/internal/handler"
	"quads-bot/internal/service"
	"quads-bot/internal/timezone"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot  *tele.Bot
	cfg  *config.Config
	seen *SeenUsers

	// Handlers
	messageHandler *handler.MessageHandler
	adminHandler   *handler.AdminHandler
	admins         AdminChecker
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config      *config.Config
	Checks      *service.CheckService
	Leaderboard *service.LeaderboardService
	Admin       *service.AdminService
	Finder      *timezone.Finder
}

// messageEvents are classified like text. Edits arrive as OnEdited and are
// never registered.
var messageEvents = []string{
	tele.OnText,
	tele.OnPhoto,
	tele.OnAnimation,
	tele.OnVideo,
	tele.OnVideoNote,
	tele.OnVoice,
	tele.OnAudio,
	tele.OnDocument,
	tele.OnSticker,
	tele.OnContact,
	tele.OnVenue,
	tele.OnDice,
	tele.OnPoll,
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pollTimeout := deps.Config.Bot.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 10 * time.Second
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: pollTimeout},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("Telegram error")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	deleter := handler.NewDeleter(teleBot, deps.Config.Checker.DeleteDelay)

	b := &Bot{
		bot:    teleBot,
		cfg:    deps.Config,
		seen:   NewSeenUsers(),
		admins: deps.Admin,
	}

	b.messageHandler = handler.NewMessageHandler(deps.Checks, deps.Leaderboard, deps.Finder, teleBot, deleter)
	b.adminHandler = handler.NewAdminHandler(deps.Admin, deps.Checks)

	// Register middleware
	b.registerMiddleware()

	// Register handlers
	b.registerHandlers()

	log.Info().Str("username", teleBot.Me.Username).Msg("Bot authorized")

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg, b.seen, b.admins))
}

// registerHandlers registers all command and message handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/leaderboard", b.messageHandler.HandleLeaderboard)

	// Admin commands run in private chat only; in groups they are plain
	// messages and get classified.
	adminGroup := b.bot.Group()
	adminGroup.Use(PrivateOnlyMiddleware(b.messageHandler.HandleMessage), AdminMiddleware(b.admins))
	adminGroup.Handle("/setadmin", b.adminHandler.HandleSetAdmin)
	adminGroup.Handle("/stats", b.adminHandler.HandleStats)
	adminGroup.Handle("/clear", b.adminHandler.HandleClear)
	adminGroup.Handle("/check", b.adminHandler.HandleCheck)

	for _, event := range messageEvents {
		b.bot.Handle(event, b.messageHandler.HandleMessage)
	}
	b.bot.Handle(tele.OnLocation, b.messageHandler.HandleLocation)
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
