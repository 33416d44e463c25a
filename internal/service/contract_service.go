package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/signchain/signchain/internal/genai"
	"github.com/signchain/signchain/internal/model"
	"github.com/signchain/signchain/internal/recovery"
)

const (
	maxPromptLength = 8000
	maxParties      = 10

	// SourceSimulated marks records served by the built-in template.
	SourceSimulated = "simulated"
)

type ContractService struct {
	generator genai.TextGenerator
	metrics   Recorder
	log       zerolog.Logger
}

type GenerateContractInput struct {
	Request   model.ContractGenerationRequest
	Principal model.Principal
}

type GenerateContractResult struct {
	Contract model.GeneratedContract
	Source   string
}

// NewContractService serves templated contracts when generator is nil.
func NewContractService(generator genai.TextGenerator, metrics Recorder, log zerolog.Logger) *ContractService {
	return &ContractService{
		generator: generator,
		metrics:   recorderOrNoop(metrics),
		log:       log,
	}
}

// Generate never fails on the model side: transport errors and unusable
// output both degrade to the placeholder record.
func (s *ContractService) Generate(ctx context.Context, input GenerateContractInput) (*GenerateContractResult, error) {
	if input.Principal.IsZero() {
		return nil, ErrPermissionDenied
	}
	req, err := normalizeRequest(input.Request)
	if err != nil {
		return nil, err
	}

	if s.generator == nil {
		s.metrics.RecordRecovery(SourceSimulated)
		return &GenerateContractResult{
			Contract: genai.SimulatedContract(req),
			Source:   SourceSimulated,
		}, nil
	}

	raw, err := s.generator.GenerateText(ctx, genai.BuildContractPrompt(req))
	if err != nil {
		s.log.Error().
			Err(err).
			Str("wallet", input.Principal.Address).
			Msg("contract generation failed")
		s.metrics.RecordRecovery(string(recovery.SourcePlaceholder))
		return &GenerateContractResult{
			Contract: recovery.Placeholder(err),
			Source:   string(recovery.SourcePlaceholder),
		}, nil
	}

	contract, source := recovery.RecoverWithSource(raw)
	s.metrics.RecordRecovery(string(source))
	if source == recovery.SourceFreeform || source == recovery.SourcePlaceholder {
		s.log.Warn().
			Str("source", string(source)).
			Int("raw_length", len(raw)).
			Msg("model output was not structured")
	}
	return &GenerateContractResult{Contract: contract, Source: string(source)}, nil
}

func normalizeRequest(req model.ContractGenerationRequest) (model.ContractGenerationRequest, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		return req, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	if len([]rune(req.Prompt)) > maxPromptLength {
		return req, fmt.Errorf("%w: prompt is longer than %d characters", ErrInvalidInput, maxPromptLength)
	}
	if len(req.Parties) > maxParties {
		return req, fmt.Errorf("%w: at most %d parties are allowed", ErrInvalidInput, maxParties)
	}

	parties := make([]model.Party, 0, len(req.Parties))
	for i, party := range req.Parties {
		party.Name = strings.TrimSpace(party.Name)
		party.Address = strings.TrimSpace(party.Address)
		if party.Name == "" {
			return req, fmt.Errorf("%w: party %d has no name", ErrInvalidInput, i+1)
		}
		parties = append(parties, party)
	}
	req.Parties = parties
	req.Country = strings.ToUpper(strings.TrimSpace(req.Country))
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	return req, nil
}
