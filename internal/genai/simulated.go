package genai

import (
	"fmt"
	"strings"

	"github.com/signchain/signchain/internal/model"
)

// SimulatedContract is the templated record served when no model is
// configured.
func SimulatedContract(req model.ContractGenerationRequest) model.GeneratedContract {
	parties := make([]string, 0, len(req.Parties))
	for _, p := range req.Parties {
		parties = append(parties, fmt.Sprintf("**%s:** %s", p.Name, p.Address))
	}

	deadline := "Teslim tarihi belirtilmemiştir."
	if !req.Deadline.IsZero() {
		deadline = fmt.Sprintf("Proje %s tarihine kadar tamamlanacaktır.", FormatDate(req.Deadline))
	}
	termination := "Fesih koşulları belirtilmemiştir."
	if req.Termination != "" {
		termination = fmt.Sprintf("Her iki taraf da %s gün önceden yazılı bildirimde bulunarak sözleşmeyi feshedebilir.", req.Termination)
	}

	sections := []string{
		"# FREELANCE YAZILIM GELİŞTİRME SÖZLEŞMESİ",
		"## TARAFLAR\n" + strings.Join(parties, "\n"),
		"## PROJE KAPSAMI\n" + req.Prompt,
		fmt.Sprintf("## ÖDEME KOŞULLARI\n- Para birimi: %s\n- Ülke: %s", req.Currency, req.Country),
		"## TESLİM TARİHİ\n" + deadline,
		"## FESİH KOŞULLARI\n" + termination,
	}

	return model.GeneratedContract{
		Contract: strings.Join(sections, "\n\n"),
		Summary: []string{
			"AI tarafından oluşturulan sözleşme",
			"Para birimi: " + req.Currency,
			"Ülke: " + req.Country,
			fmt.Sprintf("%d taraf dahil", len(req.Parties)),
		},
		RiskAnalysis: []model.RiskItem{{Level: model.RiskLow, Description: "Geliştirme ortamında simüle edildi"}},
	}
}
