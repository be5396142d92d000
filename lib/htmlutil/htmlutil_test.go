package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabeledValues(t *testing.T) {
	doc, err := Parse(`<div>
		<span>用电户号：</span><span>1234567890 家庭</span>
		<span>缴费记录</span><span>none</span>
	</div>`)
	require.NoError(t, err)

	values := LabeledValues(doc, func(label string) bool {
		return strings.Contains(label, "用电户号")
	})
	require.Equal(t, []string{"1234567890 家庭"}, values)
}

func TestLabeledValuesNoSibling(t *testing.T) {
	doc, err := Parse(`<div><span>用电户号</span></div>`)
	require.NoError(t, err)

	values := LabeledValues(doc, func(label string) bool { return true })
	require.Empty(t, values)
}
