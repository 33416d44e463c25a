package recovery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signchain/signchain/internal/model"
)

func TestRecoverFencedJSON(t *testing.T) {
	raw := "```json\n{\"contract\":\"A\",\"summary\":[\"s1\"],\"riskAnalysis\":[{\"level\":\"Yüksek\",\"description\":\"d\"}]}\n```"

	got, source := RecoverWithSource(raw)

	assert.Equal(t, SourceFenced, source)
	assert.Equal(t, model.GeneratedContract{
		Contract:     "A",
		Summary:      []string{"s1"},
		RiskAnalysis: []model.RiskItem{{Level: model.RiskHigh, Description: "d"}},
	}, got)
}

func TestRecoverPlainJSONRoundTrip(t *testing.T) {
	raw := `Here is the result: {"contract":"  # Sözleşme\n\nMadde 1  ","summary":["a","b"],"riskAnalysis":[{"level":"Low","description":"x"},{"level":"Medium","description":"y"}]}`

	got, source := RecoverWithSource(raw)

	assert.Equal(t, SourceBraced, source)
	assert.Equal(t, "# Sözleşme\n\nMadde 1", got.Contract)
	assert.Equal(t, []string{"a", "b"}, got.Summary)
	assert.Equal(t, []model.RiskItem{
		{Level: model.RiskLow, Description: "x"},
		{Level: model.RiskMedium, Description: "y"},
	}, got.RiskAnalysis)
}

func TestRecoverUnescapesLiteralSequencesInContract(t *testing.T) {
	got := Recover(`{"contract":"# T\\nbody","summary":["s"]}`)
	assert.Equal(t, "# T\nbody", got.Contract)
}

func TestRecoverStripsEnclosingQuotesFromContract(t *testing.T) {
	got := Recover(`{"contract":"\"Quoted\"","summary":["s"]}`)
	assert.Equal(t, "Quoted", got.Contract)
}

func TestRecoverStringifiesNonStringContract(t *testing.T) {
	got := Recover(`{"contract":{"a":1},"summary":["x"]}`)
	assert.Equal(t, `{"a":1}`, got.Contract)
}

func TestRecoverMissingContractFallsBackToRawText(t *testing.T) {
	raw := `{"summary":["s"]}`
	got := Recover(raw)
	assert.Equal(t, raw, got.Contract)
	assert.Equal(t, []string{"s"}, got.Summary)
}

func TestRecoverWholeTextJSONString(t *testing.T) {
	raw := `"{\"contract\":\"Line1\\nLine2\",\"summary\":[\"s\"]}"`

	got, source := RecoverWithSource(raw)

	assert.Equal(t, SourceWholeText, source)
	assert.Equal(t, "Line1\nLine2", got.Contract)
	assert.Equal(t, []string{"s"}, got.Summary)
}

func TestRecoverCoercesSummaryAndCapsAtSix(t *testing.T) {
	got := Recover(`{"contract":"c","summary":["1",2,"3","4","5","6","7"]}`)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, got.Summary)
	assert.Equal(t, []model.RiskItem{{Level: model.RiskMedium, Description: riskNotFound}}, got.RiskAnalysis)
}

func TestRecoverCoercesRiskItems(t *testing.T) {
	got := Recover(`{"contract":"c","riskAnalysis":[{"level":"yüksek","description":"d"},{"description":"e"},"plain",{"level":"ORTA"}]}`)

	assert.Equal(t, []string{summaryNotFound}, got.Summary)
	assert.Equal(t, []model.RiskItem{
		{Level: model.RiskHigh, Description: "d"},
		{Level: model.RiskMedium, Description: "e"},
		{Level: model.RiskMedium, Description: "plain"},
		{Level: model.RiskMedium, Description: `{"level":"ORTA"}`},
	}, got.RiskAnalysis)
}

func TestRecoverFreeformMarkdown(t *testing.T) {
	raw := `
# HİZMET SÖZLEŞMESİ

## TARAFLAR
Ali, İstanbul

## ÖZET
- Birinci madde
* İkinci madde

## RISK ANALIZI
- Yüksek: Ödeme gecikmesi
- low – Küçük risk
Belirsiz teslim
`

	got, source := RecoverWithSource(raw)

	require.Equal(t, SourceFreeform, source)
	assert.True(t, strings.HasPrefix(got.Contract, "# HİZMET SÖZLEŞMESİ"))
	assert.Equal(t, []string{"Birinci madde", "İkinci madde"}, got.Summary)
	assert.Equal(t, []model.RiskItem{
		{Level: model.RiskHigh, Description: "Ödeme gecikmesi"},
		{Level: model.RiskLow, Description: "Küçük risk"},
		{Level: model.RiskMedium, Description: "Belirsiz teslim"},
	}, got.RiskAnalysis)
}

func TestRecoverFreeformBoldHeadingsStopAtNextSection(t *testing.T) {
	raw := "Metin\n\n**Özet:**\n- kısa\n**RİSK ANALİZİ**\n- DÜŞÜK - önemsiz"

	got := Recover(raw)

	assert.Equal(t, []string{"kısa"}, got.Summary)
	assert.Equal(t, []model.RiskItem{{Level: model.RiskLow, Description: "önemsiz"}}, got.RiskAnalysis)
}

func TestRecoverFreeformHeadingWithTrailingText(t *testing.T) {
	got := Recover("## Özet (3 madde)\n- a\n## RISK\n- Low: b")

	assert.Equal(t, []string{"a"}, got.Summary)
	assert.Equal(t, []model.RiskItem{{Level: model.RiskLow, Description: "b"}}, got.RiskAnalysis)
}

func TestRecoverFreeformInlineHeadingContent(t *testing.T) {
	got := Recover("ÖZET: kısa özet\n- x")

	assert.Equal(t, []string{"kısa özet", "x"}, got.Summary)
}

func TestRecoverFreeformBoldRiskLevels(t *testing.T) {
	got := Recover("## RİSK ANALİZİ\n- **Yüksek:** Ödeme gecikmesi\n- **Düşük**: Küçük risk\n- Orta: **Teslim** belirsiz")

	assert.Equal(t, []model.RiskItem{
		{Level: model.RiskHigh, Description: "Ödeme gecikmesi"},
		{Level: model.RiskLow, Description: "Küçük risk"},
		{Level: model.RiskMedium, Description: "**Teslim** belirsiz"},
	}, got.RiskAnalysis)
}

func TestRecoverFreeformFallsBackToFirstBullets(t *testing.T) {
	raw := "Giriş\n- bir\n- iki\nson"

	got := Recover(raw)

	assert.Equal(t, []string{"bir", "iki"}, got.Summary)
	assert.Equal(t, []model.RiskItem{{Level: model.RiskMedium, Description: freeformRiskPlaceholder}}, got.RiskAnalysis)
}

func TestRecoverFreeformKeepsBodyVerbatim(t *testing.T) {
	inputs := []string{
		"Just a plain paragraph.",
		"  leading and trailing  \n\n",
		"Hello {world}",
		"[1,2,3]",
		"```markdown\n# Title\n```",
		"Sonuç: {\"contract\":\"A\"} ek not {x}",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, source := RecoverWithSource(in)
			assert.Equal(t, SourceFreeform, source)
			assert.Equal(t, strings.TrimSpace(in), got.Contract)
			assert.NotEmpty(t, got.Summary)
			assert.NotEmpty(t, got.RiskAnalysis)
		})
	}
}

func TestRecoverBlankInputReturnsPlaceholder(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t\n"} {
		got, source := RecoverWithSource(in)
		assert.Equal(t, SourcePlaceholder, source)
		assert.NotEmpty(t, got.Contract)
		require.Len(t, got.RiskAnalysis, 1)
		assert.Equal(t, model.RiskHigh, got.RiskAnalysis[0].Level)
		assert.NotEmpty(t, got.Summary)
	}
}

func TestRecoverIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		`{"contract":"c","summary":["s"],"riskAnalysis":[{"level":"Orta","description":"d"}]}`,
		"## ÖZET\n- a\n## RISK\n- High: b",
	}
	for _, in := range inputs {
		assert.Equal(t, Recover(in), Recover(in))
	}
}

func TestRecoverLevelsAreAlwaysCanonical(t *testing.T) {
	raw := "## RISK\n- HIGH: a\n- Medium: b\n- düşük: c\n- Orta – d\n- free text"
	for _, item := range Recover(raw).RiskAnalysis {
		assert.Contains(t, []model.RiskLevel{model.RiskLow, model.RiskMedium, model.RiskHigh}, item.Level)
	}
}

func TestPlaceholderIncludesCause(t *testing.T) {
	got := Placeholder(assert.AnError)
	assert.Contains(t, got.Contract, assert.AnError.Error())
	assert.Equal(t, model.RiskHigh, got.RiskAnalysis[0].Level)
}

