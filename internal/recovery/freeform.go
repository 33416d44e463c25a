package recovery

import (
	"regexp"
	"strings"

	"github.com/signchain/signchain/internal/model"
)

const (
	freeformSummaryPlaceholder = "Özet otomatik olarak üretilemedi."
	freeformRiskPlaceholder    = "Risk analizi otomatik olarak üretilemedi."
)

var (
	markdownHeading = regexp.MustCompile(`^\s{0,3}#{1,3}\s`)
	bulletMarker    = regexp.MustCompile(`^\s*[-*•]\s*`)
	bulletLine      = regexp.MustCompile(`^\s*[-*•]\s+(.+)$`)
)

func parseFreeform(text string) model.GeneratedContract {
	lines := strings.Split(strings.ReplaceAll(text, "\r", ""), "\n")

	summary := extractSummary(lines)
	if len(summary) == 0 {
		summary = []string{freeformSummaryPlaceholder}
	}
	risks := extractRisks(lines)
	if len(risks) == 0 {
		risks = []model.RiskItem{{Level: model.RiskMedium, Description: freeformRiskPlaceholder}}
	}

	return model.GeneratedContract{
		Contract:     strings.TrimSpace(text),
		Summary:      summary,
		RiskAnalysis: risks,
	}
}

func extractSummary(lines []string) []string {
	var summary []string
	if body, ok := findSection(lines, summaryHeadings); ok {
		for _, line := range body {
			item := strings.TrimSpace(bulletMarker.ReplaceAllString(line, ""))
			if item == "" {
				continue
			}
			summary = append(summary, item)
			if len(summary) == maxSummaryItems {
				return summary
			}
		}
	}
	if len(summary) > 0 {
		return summary
	}

	for _, line := range lines {
		match := bulletLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		item := strings.TrimSpace(match[1])
		if item == "" {
			continue
		}
		summary = append(summary, item)
		if len(summary) == maxSummaryItems {
			break
		}
	}
	return summary
}

func extractRisks(lines []string) []model.RiskItem {
	body, ok := findSection(lines, riskHeadings)
	if !ok {
		return nil
	}
	var risks []model.RiskItem
	for _, line := range body {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if match := riskLinePattern.FindStringSubmatch(line); match != nil {
			risks = append(risks, model.RiskItem{
				Level:       NormalizeLevel(match[1]),
				Description: strings.TrimSpace(strings.TrimRight(match[2], "* ")),
			})
			continue
		}
		risks = append(risks, model.RiskItem{Level: model.RiskMedium, Description: line})
	}
	return risks
}

// findSection returns the lines following the first heading of headings,
// up to the next markdown heading or the next known section heading. Text
// sharing the line with the heading becomes the first line of the section.
func findSection(lines []string, headings headingSet) ([]string, bool) {
	for i, line := range lines {
		first, ok := headings.match(line)
		if !ok {
			continue
		}
		var body []string
		if first != "" {
			body = append(body, first)
		}
		for _, next := range lines[i+1:] {
			if markdownHeading.MatchString(next) || isSectionHeading(next) {
				break
			}
			body = append(body, next)
		}
		return body, true
	}
	return nil, false
}

func isSectionHeading(line string) bool {
	_, summary := summaryHeadings.match(line)
	_, risk := riskHeadings.match(line)
	return summary || risk
}
