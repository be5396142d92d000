package sgcc

import "fmt"

// Selectors tracking the portal's element-ui markup. These are the
// only place the portal's DOM leaks into this package; when the portal
// redeploys with new markup, this file is what changes.
const (
	selLoginEntry      = ".user"
	selAccountLoginTab = "#login_box .tab_pwd"
	selPhoneLoginTab   = "#login_box .tab_sms"
	selAgreeCheckbox   = "#login_box .el-checkbox__label"
	selLoginInput      = ".el-input__inner"
	selLoginButton     = ".el-button.el-button--primary"
	selSendCodeLink    = "#login_box .sms_code a"

	selLoadingMask   = ".el-loading-mask"
	selCaptchaSlider = ".slide-verify-slider-mask-item"

	selAccountSelect      = ".el-select"
	selAccountSelectInput = ".el-select .el-input__inner"
	selSelectDropdownList = ".el-select-dropdown__list"
	selSelectDropdownItem = ".el-select-dropdown__item"
	selSwitchConfirm      = ".button_confirm"
	selAccountSuffix      = ".el-input__suffix"
	selCurrentAccount     = ".member_info li:nth-of-type(1) span:nth-of-type(2)"

	selBalanceAmount = ".num"
	selBalanceStatus = ".amttxt"

	selTabsHeader   = ".el-tabs__header"
	selYearTab      = "#tab-first"
	selDayTab       = "#tab-second"
	selYearPicker   = "#pane-first .el-date-editor input"
	selYearOptions  = ".el-picker-panel span"
	selTotals       = "ul.total"
	selYearlyUsage  = "ul.total li:nth-of-type(1) span"
	selYearlyCharge = "ul.total li:nth-of-type(2) span"
	selMonthlyTable = "#pane-first .el-table__body-wrapper table tbody"

	selDailyFirstDate  = "#pane-second .el-table__body-wrapper table tbody tr:nth-of-type(1) td:nth-of-type(1) div"
	selDailyFirstUsage = "#pane-second .el-table__body-wrapper table tbody tr:nth-of-type(1) td:nth-of-type(2) div"
	selDailyRows       = "#pane-second .el-table__body-wrapper table tbody tr"
	selDailyCellDate   = "td:nth-of-type(1) div"
	selDailyCellUsage  = "td:nth-of-type(2) div"
	selRetention7      = "#pane-second .el-radio-group label:nth-of-type(1) span:nth-of-type(1)"
	selRetention30     = "#pane-second .el-radio-group label:nth-of-type(2) span:nth-of-type(1)"
)

// the challenge canvas is only reachable through script execution
const captchaImageJS = `return document.getElementById("slideVerify").childNodes[0].toDataURL("image/png");`

// accountLabelText is the static "customer number" label rendered by
// single-account pages that have no selector dropdown.
const accountLabelText = "用电户号"

// arrearsMarker in the balance status text flips the sign: the shown
// amount is owed, not held.
const arrearsMarker = "欠费"

// monthlySentinel is the non-data row the monthly grid always carries.
const monthlySentinel = "MAX"

func selAccountOption(index int) string {
	return fmt.Sprintf("body > .el-select-dropdown li:nth-of-type(%d) span", index+1)
}
