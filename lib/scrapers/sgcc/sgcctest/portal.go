// Package sgcctest stages a fake State Grid portal on a browsertest
// driver: the login form with its slide challenge, the account
// switcher and per-account balance and usage readings. It plays the
// website side, so it carries its own copy of the portal's markup.
package sgcctest

import (
	"encoding/base64"
	"fmt"

	"gridwatch-backend/lib/browser/browsertest"
)

// Account describes one staged electricity account.
type Account struct {
	ID string

	// Balance is the rendered amount; MissingBalance removes the
	// widget entirely so the balance read times out.
	Balance        string
	Arrears        bool
	MissingBalance bool

	YearlyUsage  string
	YearlyCharge string
	// MonthlyText is the raw monthly table text, cells separated by
	// newlines with the portal's MAX marker row included.
	MonthlyText string
	DailyDate   string
	DailyUsage  string
}

// Portal owns the staged state.
type Portal struct {
	fake *browsertest.Fake

	// AcceptSlideAttempt is which slide attempt logs in, 1-based.
	AcceptSlideAttempt int
	// HomeURL is where a successful login lands.
	HomeURL string

	slides int
}

// Stage wires a complete portal onto the fake driver.
func Stage(f *browsertest.Fake, accounts ...Account) *Portal {
	p := &Portal{fake: f, AcceptSlideAttempt: 1, HomeURL: "https://portal.test/home"}
	p.stageLogin()
	p.stageAccounts(accounts)
	return p
}

func (p *Portal) stageLogin() {
	f := p.fake
	f.Put(".user", browsertest.Text("登录"))
	f.Put("#login_box .tab_pwd", browsertest.Text(""))
	f.Put("#login_box .tab_sms", browsertest.Text(""))
	f.Put("#login_box .el-checkbox__label", browsertest.Text(""))
	f.Put(".el-input__inner", browsertest.Text(""), browsertest.Text(""))
	f.Put(".el-button.el-button--primary", browsertest.Text(""))

	image := base64.StdEncoding.EncodeToString([]byte("challenge png"))
	f.ExecuteFunc = func(script string, args ...any) (string, error) {
		return "data:image/png;base64," + image, nil
	}

	slider := browsertest.Text("")
	slider.OnDrag = func(dx, dy float64) {
		p.slides++
		if p.slides >= p.AcceptSlideAttempt {
			f.SetURL(p.HomeURL)
		}
	}
	f.Put(".slide-verify-slider-mask-item", slider)
}

func (p *Portal) stageAccounts(accounts []Account) {
	f := p.fake
	f.Put(".el-select", browsertest.Text(""))
	f.Put(".el-input__suffix", browsertest.Text(""))

	input := browsertest.Text("")
	input.OnClick = func() {
		items := make([]*browsertest.Element, len(accounts))
		for i, acct := range accounts {
			items[i] = browsertest.Text(fmt.Sprintf("户号%d %s", i+1, acct.ID))
		}
		f.Put(".el-select-dropdown__list", browsertest.Text(""))
		f.Put(".el-select-dropdown__item", items...)
	}
	f.Put(".el-select .el-input__inner", input)

	for i, acct := range accounts {
		acct := acct
		option := browsertest.Text("")
		option.OnClick = func() { p.showAccount(acct) }
		f.Put(fmt.Sprintf("body > .el-select-dropdown li:nth-of-type(%d) span", i+1), option)
	}

	// pages shared by every account
	f.Put(".el-tabs__header", browsertest.Text(""))
	f.Put("#tab-first", browsertest.Text(""))
	f.Put("#tab-second", browsertest.Text(""))
	f.Put("ul.total", browsertest.Text(""))
	f.Put("#pane-second .el-radio-group label:nth-of-type(1) span:nth-of-type(1)", browsertest.Text(""))
	f.Put("#pane-second .el-radio-group label:nth-of-type(2) span:nth-of-type(1)", browsertest.Text(""))
}

// showAccount restages the readings to the selected account's values,
// the way the real portal swaps pane contents on a switch.
func (p *Portal) showAccount(acct Account) {
	f := p.fake

	if acct.MissingBalance {
		f.Remove(".num")
		f.Remove(".amttxt")
	} else {
		f.Put(".num", browsertest.Text(acct.Balance))
		status := "结余"
		if acct.Arrears {
			status = "欠费"
		}
		f.Put(".amttxt", browsertest.Text(status))
	}

	f.Put("ul.total li:nth-of-type(1) span", browsertest.Text(acct.YearlyUsage))
	f.Put("ul.total li:nth-of-type(2) span", browsertest.Text(acct.YearlyCharge))
	f.Put("#pane-first .el-table__body-wrapper table tbody", browsertest.Text(acct.MonthlyText))

	f.Put("#pane-second .el-table__body-wrapper table tbody tr:nth-of-type(1) td:nth-of-type(1) div",
		browsertest.Text(acct.DailyDate))
	f.Put("#pane-second .el-table__body-wrapper table tbody tr:nth-of-type(1) td:nth-of-type(2) div",
		browsertest.Text(acct.DailyUsage))
	f.Put("#pane-second .el-table__body-wrapper table tbody tr",
		browsertest.Text("").
			WithChild("td:nth-of-type(1) div", browsertest.Text(acct.DailyDate)).
			WithChild("td:nth-of-type(2) div", browsertest.Text(acct.DailyUsage)))
}
