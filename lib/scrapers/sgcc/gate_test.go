package sgcc

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"gridwatch-backend/lib/browser/browsertest"
	"gridwatch-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const testLoginURL = "https://portal.test/login"

type fixedEstimator struct {
	distance float64
	err      error
}

func (e fixedEstimator) EstimateOffset(ctx context.Context, image []byte) (float64, error) {
	return e.distance, e.err
}

func fastCfg() Config {
	return Config{
		LoginURL:      testLoginURL,
		BalanceURL:    "https://portal.test/balance",
		UsageURL:      "https://portal.test/usage",
		Username:      "alice",
		Password:      "hunter2",
		WaitTimeout:   50 * time.Millisecond,
		ChallengeWait: 50 * time.Millisecond,
		ActionWait:    time.Millisecond,
		Poll:          time.Millisecond,
		RetentionDays: 7,
	}
}

// stageLoginForm puts up everything the password form needs, with the
// drag hook deciding which slide attempt the portal accepts.
func stageLoginForm(f *browsertest.Fake, acceptOnDrag func(dragCount int) bool) (inputs []*browsertest.Element, drags *int) {
	user := browsertest.Text("")
	pass := browsertest.Text("")
	count := 0

	f.Put(selLoginEntry, browsertest.Text("登录"))
	f.Put(selAccountLoginTab, browsertest.Text(""))
	f.Put(selAgreeCheckbox, browsertest.Text(""))
	f.Put(selLoginInput, user, pass)
	f.Put(selLoginButton, browsertest.Text(""))

	image := base64.StdEncoding.EncodeToString([]byte("png bytes"))
	f.ExecuteFunc = func(script string, args ...any) (string, error) {
		return "data:image/png;base64," + image, nil
	}

	slider := browsertest.Text("")
	slider.OnDrag = func(dx, dy float64) {
		count++
		if acceptOnDrag(count) {
			f.SetURL("https://portal.test/home")
		}
	}
	f.Put(selCaptchaSlider, slider)
	return []*browsertest.Element{user, pass}, &count
}

func TestLoginSucceedsOnThirdAttempt(t *testing.T) {
	defer telemetry.SetupForTesting(t, "test:sgcc")()

	f := browsertest.New()
	inputs, drags := stageLoginForm(f, func(n int) bool { return n == 3 })

	gate := NewGate(f, fixedEstimator{distance: 80}, nil, fastCfg())
	sess, attempts, err := gate.Login(context.Background())
	require.NoError(t, err)
	require.True(t, sess.Authenticated())
	require.Equal(t, 3, attempts)
	require.Equal(t, 3, *drags)

	require.Equal(t, []string{"alice"}, inputs[0].Keys)
	require.Equal(t, []string{"hunter2"}, inputs[1].Keys)
}

func TestLoginExhaustsChallengeBudget(t *testing.T) {
	f := browsertest.New()
	_, drags := stageLoginForm(f, func(int) bool { return false })

	cfg := fastCfg()
	cfg.CaptchaRetries = 3
	gate := NewGate(f, fixedEstimator{distance: 80}, nil, cfg)
	sess, attempts, err := gate.Login(context.Background())
	require.ErrorIs(t, err, ErrLoginFailed)
	require.Nil(t, sess)
	require.Equal(t, 3, attempts)
	require.Equal(t, 3, *drags)
}

func TestLoginFailsWhenFormNeverLoads(t *testing.T) {
	f := browsertest.New()
	gate := NewGate(f, fixedEstimator{distance: 80}, nil, fastCfg())
	_, _, err := gate.Login(context.Background())
	require.ErrorIs(t, err, ErrLoginFailed)
}

func TestLoginAppliesCompensatedOffset(t *testing.T) {
	f := browsertest.New()
	var gotDX float64
	inputs, _ := stageLoginForm(f, func(int) bool { return true })
	_ = inputs

	slider, err := f.Find(context.Background(), selCaptchaSlider)
	require.NoError(t, err)
	orig := slider.(*browsertest.Element).OnDrag
	slider.(*browsertest.Element).OnDrag = func(dx, dy float64) {
		gotDX = dx
		require.GreaterOrEqual(t, dy, float64(-2))
		require.LessOrEqual(t, dy, float64(5))
		orig(dx, dy)
	}

	gate := NewGate(f, fixedEstimator{distance: 100}, nil, fastCfg())
	_, _, err = gate.Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, float64(106), gotDX)
}

func TestPhoneLoginRequiresPrompt(t *testing.T) {
	f := browsertest.New()
	f.Put(selLoginEntry, browsertest.Text("登录"))
	f.Put(selPhoneLoginTab, browsertest.Text(""))
	f.Put(selAgreeCheckbox, browsertest.Text(""))

	cfg := fastCfg()
	cfg.Mode = LoginPhoneCode
	gate := NewGate(f, fixedEstimator{}, nil, cfg)
	_, _, err := gate.Login(context.Background())
	require.ErrorIs(t, err, ErrLoginFailed)
}
