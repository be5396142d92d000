package sgcc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gridwatch-backend/lib/browser"
	"gridwatch-backend/lib/captcha"
	"gridwatch-backend/lib/retry"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CodePrompt supplies the one-time code the portal texts out during a
// phone-code login. Implementations block until the operator types it.
type CodePrompt interface {
	Code(ctx context.Context) (string, error)
}

// Gate owns the login state machine. It turns an anonymous browser
// into an authenticated Session or fails with ErrLoginFailed.
type Gate struct {
	drv       browser.Driver
	estimator captcha.Estimator
	codes     CodePrompt
	cfg       Config

	now func() time.Time
}

func NewGate(drv browser.Driver, estimator captcha.Estimator, codes CodePrompt, cfg Config) *Gate {
	return &Gate{
		drv:       drv,
		estimator: estimator,
		codes:     codes,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
}

// Login runs the full login flow and returns the authenticated
// session together with the number of challenge attempts it took.
// A nil Session always comes with a non-nil error.
func (g *Gate) Login(ctx context.Context) (*Session, int, error) {
	ctx, span := tracer.Start(ctx, "sgcc.Login")
	defer span.End()
	span.SetAttributes(attribute.String("login.mode", string(g.cfg.Mode)))

	sess := &Session{drv: g.drv, cfg: g.cfg, now: g.now}

	if err := g.openLoginForm(ctx, sess); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "opening login form")
		return nil, 0, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	attempts, err := g.submitAndSolve(ctx, sess)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login challenge")
		return nil, attempts, err
	}

	sess.authenticated = true
	if url, uerr := g.drv.CurrentURL(ctx); uerr == nil {
		sess.page = url
	}
	slog.InfoContext(ctx, "login succeeded", "attempts", attempts)
	span.SetAttributes(attribute.Int("login.attempts", attempts))
	return sess, attempts, nil
}

// openLoginForm gets the portal to the filled-in login form, stopping
// just short of pressing the login button.
func (g *Gate) openLoginForm(ctx context.Context, sess *Session) error {
	if err := g.drv.Navigate(ctx, g.cfg.LoginURL); err != nil {
		return err
	}
	if err := sess.wait(ctx, browser.Visible(selLoginEntry), g.cfg.WaitTimeout); err != nil {
		return fmt.Errorf("login entry never appeared: %w", err)
	}
	if err := sess.click(ctx, selLoginEntry); err != nil {
		return err
	}
	sess.beat(ctx)

	switch g.cfg.Mode {
	case LoginPhoneCode:
		return g.fillPhoneForm(ctx, sess)
	default:
		return g.fillPasswordForm(ctx, sess)
	}
}

func (g *Gate) fillPasswordForm(ctx context.Context, sess *Session) error {
	if err := sess.click(ctx, selAccountLoginTab); err != nil {
		return err
	}
	sess.beat(ctx)
	if err := sess.click(ctx, selAgreeCheckbox); err != nil {
		return err
	}
	sess.beat(ctx)

	inputs, err := g.drv.FindAll(ctx, selLoginInput)
	if err != nil {
		return err
	}
	if len(inputs) < 2 {
		return fmt.Errorf("expected username and password inputs, found %d", len(inputs))
	}
	if err := inputs[0].SendKeys(ctx, g.cfg.Username); err != nil {
		return err
	}
	sess.beat(ctx)
	return inputs[1].SendKeys(ctx, g.cfg.Password)
}

func (g *Gate) fillPhoneForm(ctx context.Context, sess *Session) error {
	if g.codes == nil {
		return fmt.Errorf("phone-code login requires a code prompt")
	}
	if err := sess.click(ctx, selPhoneLoginTab); err != nil {
		return err
	}
	sess.beat(ctx)
	if err := sess.click(ctx, selAgreeCheckbox); err != nil {
		return err
	}
	sess.beat(ctx)

	inputs, err := g.drv.FindAll(ctx, selLoginInput)
	if err != nil {
		return err
	}
	if len(inputs) < 2 {
		return fmt.Errorf("expected phone and code inputs, found %d", len(inputs))
	}
	if err := inputs[0].SendKeys(ctx, g.cfg.Username); err != nil {
		return err
	}
	sess.beat(ctx)
	if err := sess.click(ctx, selSendCodeLink); err != nil {
		return err
	}

	code, err := g.codes.Code(ctx)
	if err != nil {
		return fmt.Errorf("reading verification code: %w", err)
	}
	return inputs[1].SendKeys(ctx, code)
}

// submitAndSolve presses login and works through the slider challenge
// until the portal lets us in or the attempt budget runs out.
func (g *Gate) submitAndSolve(ctx context.Context, sess *Session) (int, error) {
	_, attempts, err := retry.Do(ctx, retry.Options{
		Name:     "login challenge",
		Attempts: g.cfg.CaptchaRetries,
		OnRetry: func(ctx context.Context, attempt int, reason error) {
			// the portal redraws the form after a failed slide; the
			// login button must be pressed again to get a fresh puzzle
			sess.pause(ctx, 2*g.cfg.ActionWait)
		},
	}, func(ctx context.Context, attempt int) retry.Outcome[struct{}] {
		before, err := g.drv.CurrentURL(ctx)
		if err != nil {
			return retry.Abort[struct{}](err)
		}
		if err := sess.click(ctx, selLoginButton); err != nil {
			return retry.Again[struct{}](fmt.Errorf("clicking login: %w", err))
		}
		if err := g.solveChallenge(ctx, sess); err != nil {
			return retry.Again[struct{}](err)
		}
		if err := sess.wait(ctx, browser.URLChanged(before), g.cfg.ChallengeWait); err != nil {
			return retry.Again[struct{}](errors.New("url unchanged after slide"))
		}
		return retry.Success(struct{}{})
	})
	if err != nil {
		return attempts, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	return attempts, nil
}

// solveChallenge reads the puzzle image off the canvas, asks the
// estimator for the gap offset and drags the slider there.
func (g *Gate) solveChallenge(ctx context.Context, sess *Session) error {
	if err := sess.wait(ctx, browser.Visible(selCaptchaSlider), sess.shortWait()); err != nil {
		return fmt.Errorf("slider never appeared: %w", err)
	}

	dataURL, err := g.drv.Execute(ctx, captchaImageJS)
	if err != nil {
		return fmt.Errorf("reading challenge canvas: %w", err)
	}
	image, err := decodeCanvasDataURL(dataURL)
	if err != nil {
		return err
	}

	distance, err := g.estimator.EstimateOffset(ctx, image)
	if err != nil {
		return fmt.Errorf("estimating slide offset: %w", err)
	}
	offset := captcha.Compensate(distance)

	slider, err := g.drv.Find(ctx, selCaptchaSlider)
	if err != nil {
		return err
	}
	// a perfectly horizontal drag reads as scripted
	jitter, jerr := random.IntRange(-2, 5)
	if jerr != nil {
		jitter = 0
	}
	return slider.DragBy(ctx, offset, float64(jitter))
}

func decodeCanvasDataURL(dataURL string) ([]byte, error) {
	dataURL = strings.Trim(dataURL, `"`)
	_, payload, found := strings.Cut(dataURL, "base64,")
	if !found {
		return nil, fmt.Errorf("canvas did not return a base64 data url")
	}
	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding challenge image: %w", err)
	}
	return image, nil
}
