package commands

import (
	"context"

	"gridwatch-backend/lib/browser"
	"gridwatch-backend/lib/browser/remote"
	"gridwatch-backend/lib/captcha"
	"gridwatch-backend/lib/configutil"
	"gridwatch-backend/lib/scrapers/sgcc"
	"gridwatch-backend/lib/serviceutil"
	"gridwatch-backend/services/collector"
)

type Config struct {
	Collector collector.Config `json:"collector"`
	// Captcha points at the slide-offset inference service.
	Captcha captcha.Options `json:"captcha"`
	// Driver points at the WebDriver endpoint running the browser.
	Driver remote.Options `json:"driver"`
	// Schedule is the cron expression daemon mode runs on.
	Schedule string `json:"schedule"`
}

func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 7 * * *"
	}
	return cfg
}

// buildService wires a collector against the remote browser and the
// captcha service. Interactive runs get the terminal escalation menu
// and phone-code prompt; unattended ones fail fast instead.
func buildService(cfg Config, interactive bool) *collector.Service {
	newDriver := func(ctx context.Context) (browser.Driver, error) {
		drv, err := remote.New(ctx, cfg.Driver)
		if err != nil {
			return nil, err
		}
		return drv, nil
	}

	var escalator collector.Escalator
	var codes sgcc.CodePrompt
	if interactive {
		escalator = terminalEscalator{}
		codes = terminalCodePrompt{}
	}

	return collector.New(newDriver, captcha.NewClient(cfg.Captcha), codes, escalator, cfg.Collector)
}
