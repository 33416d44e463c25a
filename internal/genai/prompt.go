package genai

import (
	"fmt"
	"strings"
	"time"

	"github.com/signchain/signchain/internal/model"
)

const dateLayout = "02.01.2006"

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// BuildContractPrompt asks for a JSON record first and a fixed Markdown
// layout as the fallback shape.
func BuildContractPrompt(req model.ContractGenerationRequest) string {
	parties := make([]string, 0, len(req.Parties))
	for _, p := range req.Parties {
		address := strings.TrimSpace(p.Address)
		if address == "" {
			address = "adres yok"
		}
		parties = append(parties, fmt.Sprintf("%s (%s)", p.Name, address))
	}

	termination := string(req.Termination)
	if termination == "" {
		termination = "Belirtilmemiş"
	}

	var b strings.Builder
	b.WriteString("Aşağıdaki bilgilere göre DETAYLI ve profesyonel bir Türkçe sözleşme oluştur. Kullanıcının verdiği bilgiler:\n")
	fmt.Fprintf(&b, "Açıklama: %s\n", req.Prompt)
	fmt.Fprintf(&b, "Taraflar: %s\n", strings.Join(parties, "; "))
	fmt.Fprintf(&b, "Ülke: %s\n", req.Country)
	fmt.Fprintf(&b, "Para Birimi: %s\n", req.Currency)
	fmt.Fprintf(&b, "Son Tarih: %s\n", FormatDate(req.Deadline))
	fmt.Fprintf(&b, "Fesih Süresi (gün): %s\n\n", termination)
	b.WriteString(`ÇIKTI İSTEĞİ (öncelik sırası):
1) **Tercihen JSON** formatında tek bir obje döndür:
{ "contract": "...", "summary": ["..."], "riskAnalysis": [{ "level":"High|Medium|Low", "description":"..." }] }

2) Eğer JSON vermezseniz SON ÇARE olarak **SADECE** okunabilir Markdown formatında şu bölümleri verin:
- Başlık: # <SÖZLEŞME ADI>
- ## TARAFLAR
- ## PROJE KAPSAMI
- ## ÖDEME KOŞULLARI
- ## TESLİM TARİHİ
- ## FİKRİ MÜLKİYET
- ## FESİH KOŞULLARI
- SONUNDA: "## ÖZET" (3-6 madde) ve "## RISK ANALIZI" (her madde level:desc)

**ÖNEMLİ:** Eğer JSON döndürürseniz lütfen **doğrudan geçerli JSON** döndürün (kod bloğu veya kaçış dizisi kullanmayın). Ancak eğer sistem JSON yerine Markdown döndürürse, verdiğiniz Markdown'ı temiz ve eksiksiz yapın.
`)
	return b.String()
}
