package recovery

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/signchain/signchain/internal/model"
)

const (
	maxSummaryItems = 6

	summaryNotFound = "Özet bulunamadı"
	riskNotFound    = "Risk analizi yok"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```(?i:json)?\\s*(.*?)\\s*```")
	bracedSpan  = regexp.MustCompile(`(?s)\{.*\}`)
)

func findFencedBlock(raw string) (string, bool) {
	match := fencedBlock.FindStringSubmatch(raw)
	if len(match) < 2 {
		return "", false
	}
	block := strings.TrimSpace(match[1])
	return block, block != ""
}

// decodeObject runs the parse attempts against a single candidate text:
// as is, unescaped, then unescaped without its outer quoting.
func decodeObject(text string) (map[string]any, bool) {
	attempts := []func(string) string{
		func(s string) string { return s },
		unescape,
		func(s string) string { return unescape(stripOuterQuotes(s)) },
	}
	for _, transform := range attempts {
		if obj, ok := parseObject(transform(text)); ok {
			return obj, true
		}
	}
	return nil, false
}

func parseObject(text string) (map[string]any, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, false
	}
	// a JSON-encoded string holding the object
	if inner, ok := value.(string); ok {
		if err := json.Unmarshal([]byte(strings.TrimSpace(inner)), &value); err != nil {
			return nil, false
		}
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	if !present(obj["contract"]) && !present(obj["summary"]) && !present(obj["riskAnalysis"]) {
		return nil, false
	}
	return obj, true
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	default:
		return true
	}
}

func normalizeObject(obj map[string]any, raw string) model.GeneratedContract {
	contract := stringify(obj["contract"])
	contract = strings.TrimSpace(unescape(contract))
	contract = strings.TrimSpace(stripEnclosingDoubleQuotes(contract))
	if contract == "" {
		contract = strings.TrimSpace(raw)
	}

	return model.GeneratedContract{
		Contract:     contract,
		Summary:      normalizeSummary(obj["summary"]),
		RiskAnalysis: normalizeRisks(obj["riskAnalysis"]),
	}
}

func normalizeSummary(v any) []string {
	items, _ := v.([]any)
	summary := make([]string, 0, len(items))
	for _, item := range items {
		s := strings.TrimSpace(stringify(item))
		if s == "" {
			continue
		}
		summary = append(summary, s)
		if len(summary) == maxSummaryItems {
			break
		}
	}
	if len(summary) == 0 {
		return []string{summaryNotFound}
	}
	return summary
}

func normalizeRisks(v any) []model.RiskItem {
	items, _ := v.([]any)
	risks := make([]model.RiskItem, 0, len(items))
	for _, item := range items {
		risk := model.RiskItem{Level: model.RiskMedium, Description: stringify(item)}
		if fields, ok := item.(map[string]any); ok {
			if level := stringify(fields["level"]); level != "" {
				risk.Level = NormalizeLevel(level)
			}
			if desc, ok := fields["description"]; ok && desc != nil {
				risk.Description = stringify(desc)
			}
		}
		risk.Description = strings.TrimSpace(risk.Description)
		if risk.Description == "" {
			continue
		}
		risks = append(risks, risk)
	}
	if len(risks) == 0 {
		return []model.RiskItem{{Level: model.RiskMedium, Description: riskNotFound}}
	}
	return risks
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
