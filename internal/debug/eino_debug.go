package debug

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino-ext/devops"
	"github.com/dyike/EquityGo/config"
)

// EinoDebugger exposes compiled pipeline graphs to the eino devops web
// debugger when enabled in config.
type EinoDebugger struct {
	config *config.Config
}

func NewEinoDebugger(cfg *config.Config) *EinoDebugger {
	return &EinoDebugger{config: cfg}
}

// Initialize starts the devops plugin. A disabled debugger is a no-op.
func (d *EinoDebugger) Initialize(ctx context.Context) error {
	if !d.config.EinoDebugEnabled {
		return nil
	}

	if err := devops.Init(ctx); err != nil {
		return fmt.Errorf("init eino debug plugin: %w", err)
	}

	if d.config.Debug {
		log.Printf("[EinoDebug] debug server listening at %s", d.DebugURL())
	}
	return nil
}

func (d *EinoDebugger) IsEnabled() bool {
	return d.config.EinoDebugEnabled
}

func (d *EinoDebugger) DebugURL() string {
	if !d.config.EinoDebugEnabled {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d", d.config.EinoDebugPort)
}
