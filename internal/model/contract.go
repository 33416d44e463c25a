package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// NoticePeriod accepts both a number of days and free text.
type NoticePeriod string

func (p *NoticePeriod) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*p = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = NoticePeriod(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("termination must be a number or a string")
	}
	*p = NoticePeriod(n.String())
	return nil
}

type ContractGenerationRequest struct {
	Prompt      string
	Parties     []Party
	Country     string
	Currency    string
	Deadline    time.Time
	Termination NoticePeriod
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

type RiskItem struct {
	Level       RiskLevel `json:"level"`
	Description string    `json:"description"`
}

type GeneratedContract struct {
	Contract     string     `json:"contract"`
	Summary      []string   `json:"summary"`
	RiskAnalysis []RiskItem `json:"riskAnalysis"`
}
