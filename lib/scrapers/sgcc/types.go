// Package sgcc scrapes the State Grid customer portal through an
// injected browser session: login (including the sliding-puzzle
// CAPTCHA), account discovery, and per-account balance/usage
// extraction. Persistence and orchestration live elsewhere.
package sgcc

import (
	"errors"
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/sgcc")

var ErrLoginFailed = errors.New("failed to login to the portal")
var ErrNoAccounts = errors.New("no account ids discoverable")

type LoginMode string

const (
	// LoginPassword submits username/password and solves the slide
	// CAPTCHA that follows.
	LoginPassword LoginMode = "password"
	// LoginPhoneCode requests a one-time code and blocks on an
	// operator to relay it.
	LoginPhoneCode LoginMode = "phone_code"
)

type Config struct {
	LoginURL   string `json:"login_url"`
	BalanceURL string `json:"balance_url"`
	UsageURL   string `json:"usage_url"`

	Username string    `json:"username"`
	Password string    `json:"password"`
	Mode     LoginMode `json:"mode"`

	// CaptchaRetries bounds slide attempts per login call, default 5.
	CaptchaRetries int `json:"captcha_retries"`
	// WaitTimeout bounds every per-element wait, default 20s.
	WaitTimeout time.Duration `json:"wait_timeout"`
	// ChallengeWait bounds the post-slide navigation wait, default 10s.
	ChallengeWait time.Duration `json:"challenge_wait"`
	// ActionWait is the base unit for deliberate pacing between UI
	// steps, default 3s. Not a backoff: the pacing itself is the point.
	ActionWait time.Duration `json:"action_wait"`
	// Poll is the wait polling interval, default 500ms.
	Poll time.Duration `json:"poll"`
	// RetentionDays enables the daily-history read when 7 or 30.
	RetentionDays int `json:"retention_days"`
}

const (
	defaultLoginURL   = "https://www.95598.cn/osgweb/login"
	defaultBalanceURL = "https://www.95598.cn/osgweb/userAcc"
	defaultUsageURL   = "https://www.95598.cn/osgweb/electricityCharge"
)

func (c Config) withDefaults() Config {
	if c.LoginURL == "" {
		c.LoginURL = defaultLoginURL
	}
	if c.BalanceURL == "" {
		c.BalanceURL = defaultBalanceURL
	}
	if c.UsageURL == "" {
		c.UsageURL = defaultUsageURL
	}
	if c.Mode == "" {
		c.Mode = LoginPassword
	}
	if c.CaptchaRetries < 1 {
		c.CaptchaRetries = 5
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 20 * time.Second
	}
	if c.ChallengeWait <= 0 {
		c.ChallengeWait = 10 * time.Second
	}
	if c.ActionWait <= 0 {
		c.ActionWait = 3 * time.Second
	}
	if c.Poll <= 0 {
		c.Poll = 500 * time.Millisecond
	}
	return c
}

type MonthRow struct {
	Label  string
	Usage  float64
	Charge float64
}

type DailyRow struct {
	Date  string
	Usage float64
}

// Snapshot is everything extracted for one account in one pass. Any
// field may be absent: a sub-extraction that fails leaves its field
// nil/empty and never invalidates the rest.
type Snapshot struct {
	Account        string
	Balance        *float64
	LastDailyDate  string
	LastDailyUsage *float64
	YearlyUsage    *float64
	YearlyCharge   *float64
	Monthly        []MonthRow
	DailyHistory   []DailyRow
}

// CurrentMonth resolves the month row representing "now". The portal
// appears to render months chronologically ascending, but that is not
// a documented guarantee, so rows with parseable labels are compared
// by (year, month) and the positional last row is only a fallback.
func (s Snapshot) CurrentMonth() (MonthRow, bool) {
	if len(s.Monthly) == 0 {
		return MonthRow{}, false
	}

	best := -1
	bestOrd := -1
	for i, row := range s.Monthly {
		ord, ok := monthOrdinal(row.Label)
		if !ok {
			continue
		}
		if ord >= bestOrd {
			best = i
			bestOrd = ord
		}
	}
	if best >= 0 {
		return s.Monthly[best], true
	}
	return s.Monthly[len(s.Monthly)-1], true
}
