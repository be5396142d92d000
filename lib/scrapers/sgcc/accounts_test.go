package sgcc

import (
	"context"
	"testing"
	"time"

	"gridwatch-backend/lib/browser/browsertest"

	"github.com/stretchr/testify/require"
)

func testSession(f *browsertest.Fake) *Session {
	return &Session{drv: f, cfg: fastCfg().withDefaults(), now: time.Now}
}

func stageDropdown(f *browsertest.Fake, items ...string) {
	input := browsertest.Text("")
	input.OnClick = func() {
		els := make([]*browsertest.Element, len(items))
		for i, item := range items {
			els[i] = browsertest.Text(item)
		}
		f.Put(selSelectDropdownList, browsertest.Text(""))
		f.Put(selSelectDropdownItem, els...)
	}
	f.Put(selAccountSelectInput, input)
}

func TestAccountsPrefersDropdown(t *testing.T) {
	f := browsertest.New()
	stageDropdown(f, "户号1 1000001", "户号2 1000002")
	f.SetSource(`<div><span>用电户号：</span><span>9999999 家庭</span></div>`)

	ids, err := testSession(f).Accounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"1000001", "1000002"}, ids)
}

func TestAccountsFallsBackToPageText(t *testing.T) {
	f := browsertest.New()
	f.SetSource(`<html><body>
		<div><span>用电户号：</span><span>9999999 家庭住宅</span></div>
		<div><span>缴费记录</span><span>none</span></div>
	</body></html>`)

	ids, err := testSession(f).Accounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"9999999"}, ids)
}

func TestAccountsDeduplicates(t *testing.T) {
	f := browsertest.New()
	stageDropdown(f, "户号 1000001", "户号 1000001", "户号 1000002")

	ids, err := testSession(f).Accounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"1000001", "1000002"}, ids)
}

func TestAccountsExhaustsWithRefreshes(t *testing.T) {
	f := browsertest.New()
	f.SetSource("<html><body>nothing here</body></html>")

	_, err := testSession(f).Accounts(context.Background())
	require.ErrorIs(t, err, ErrNoAccounts)
	require.Equal(t, 2, f.RefreshCalls)
}

// A dropdown that opens on the second try still wins over the static
// fallback because every attempt retries both sources.
func TestAccountsRecoversAfterRefresh(t *testing.T) {
	f := browsertest.New()
	f.RefreshFunc = func() {
		stageDropdown(f, "户号 1000042")
	}

	ids, err := testSession(f).Accounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"1000042"}, ids)
	require.Equal(t, 1, f.RefreshCalls)
}
