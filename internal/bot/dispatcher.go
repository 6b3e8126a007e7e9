package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashback-bot/internal/bot/handlers"
)

// Dispatcher routes plain text messages: main menu buttons by their exact
// text, everything else to the fallback handler that feeds the active wizard.
type Dispatcher struct {
	textHandlers map[string]handlers.Handler
	fallback     handlers.Handler
	log          *slog.Logger
	mu           sync.RWMutex
}

// NewDispatcher creates a Dispatcher with an empty handlers registry.
func NewDispatcher(log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		textHandlers: make(map[string]handlers.Handler),
		log:          log,
	}
}

// RegisterText registers a handler for an exact message text.
func (d *Dispatcher) RegisterText(text string, h handlers.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.textHandlers[text] = h
}

// SetFallback sets the handler for text that matches no button.
func (d *Dispatcher) SetFallback(h handlers.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fallback = h
}

// Resolve returns the handler for the message text, or nil.
func (d *Dispatcher) Resolve(c telebot.Context) handlers.Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if h, ok := d.textHandlers[strings.TrimSpace(c.Text())]; ok {
		return h
	}

	if d.fallback == nil {
		d.log.Debug("no handler for text message")
	}
	return d.fallback
}
