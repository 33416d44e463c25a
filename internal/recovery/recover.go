// Package recovery turns loosely structured generative-AI output into a
// well-formed contract record.
//
// Recovery never fails: when no interpretation of the input succeeds, a
// placeholder record is returned so the document pipeline can continue.
package recovery

import (
	"fmt"
	"strings"

	"github.com/signchain/signchain/internal/model"
)

type Source string

const (
	SourceFenced      Source = "fenced"
	SourceBraced      Source = "braced"
	SourceWholeText   Source = "whole_text"
	SourceFreeform    Source = "freeform"
	SourcePlaceholder Source = "placeholder"
)

const failureBody = "# UYARI: Otomatik sözleşme oluşturulamadı\n\nSistem bir hata ile karşılaşıldı. Lütfen daha sonra tekrar deneyin."

type strategy struct {
	source Source
	run    func(raw string) (model.GeneratedContract, bool)
}

// strategies are attempted in order; the first success wins.
var strategies = []strategy{
	{source: SourceFenced, run: fromFencedBlock},
	{source: SourceBraced, run: fromBracedSpan},
	{source: SourceWholeText, run: fromWholeText},
	{source: SourceFreeform, run: fromFreeform},
}

func Recover(raw string) model.GeneratedContract {
	contract, _ := RecoverWithSource(raw)
	return contract
}

// RecoverWithSource is Recover that also reports which strategy produced
// the record.
func RecoverWithSource(raw string) (model.GeneratedContract, Source) {
	for _, s := range strategies {
		if contract, ok := s.run(raw); ok {
			return contract, s.source
		}
	}
	return Placeholder(nil), SourcePlaceholder
}

// Placeholder is the degraded record returned when nothing usable came back
// from generation. A non-nil cause is appended to the body.
func Placeholder(cause error) model.GeneratedContract {
	body := failureBody
	if cause != nil {
		body = fmt.Sprintf("%s\n\n(Hata: %v)", failureBody, cause)
	}
	return model.GeneratedContract{
		Contract: body,
		Summary:  []string{"Sistemsel hata nedeniyle sözleşme oluşturulamadı."},
		RiskAnalysis: []model.RiskItem{
			{Level: model.RiskHigh, Description: "AI çağrısı sırasında hata oluştu."},
		},
	}
}

func fromFencedBlock(raw string) (model.GeneratedContract, bool) {
	block, ok := findFencedBlock(raw)
	if !ok {
		return model.GeneratedContract{}, false
	}
	return fromCandidate(block, raw)
}

func fromBracedSpan(raw string) (model.GeneratedContract, bool) {
	if _, fenced := findFencedBlock(raw); fenced {
		return model.GeneratedContract{}, false
	}
	span := bracedSpan.FindString(raw)
	if span == "" {
		return model.GeneratedContract{}, false
	}
	return fromCandidate(span, raw)
}

func fromWholeText(raw string) (model.GeneratedContract, bool) {
	return fromCandidate(raw, raw)
}

func fromFreeform(raw string) (model.GeneratedContract, bool) {
	if strings.TrimSpace(raw) == "" {
		return model.GeneratedContract{}, false
	}
	return parseFreeform(raw), true
}

func fromCandidate(candidate, raw string) (model.GeneratedContract, bool) {
	obj, ok := decodeObject(candidate)
	if !ok {
		return model.GeneratedContract{}, false
	}
	return normalizeObject(obj, raw), true
}
