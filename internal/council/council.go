// Package council runs the multi-stage deliberation: concurrent collection
// of independent answers, optional peer ranking, and chairman synthesis.
package council

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexusspace/llm-council/internal/config"
	"github.com/nexusspace/llm-council/internal/llm"
)

// ClientSource supplies the active provider adapter for a run. llm.Selector
// implements it; tests substitute fakes.
type ClientSource interface {
	Active() (llm.Client, error)
}

// ErrEmptyCouncil is returned when no council models are configured.
var ErrEmptyCouncil = errors.New("no council models configured")

// ErrAllModelsFailed is returned when every council model failed in stage 1,
// leaving nothing to synthesize from.
var ErrAllModelsFailed = errors.New("all council models failed to respond")

var log = logrus.WithField("component", "council")

// Council orchestrates the stages over one prompt. It holds no mutable
// state, so one Council serves concurrent runs.
type Council struct {
	cfg    *config.Config
	source ClientSource
}

// New builds a Council from explicit dependencies.
func New(cfg *config.Config, source ClientSource) *Council {
	return &Council{cfg: cfg, source: source}
}

// CollectResponses is stage 1: every council model answers the user query
// independently. Partial failure is recorded per model and never fails the
// stage; only an empty council does.
func (c *Council) CollectResponses(ctx context.Context, client llm.Client, userQuery string) ([]Answer, error) {
	if len(c.cfg.CouncilModels) == 0 {
		return nil, ErrEmptyCouncil
	}

	messages := []llm.Message{{Role: llm.RoleUser, Content: userQuery}}
	responses := client.QueryModelsParallel(ctx, c.cfg.CouncilModels, messages)

	answers := make([]Answer, 0, len(c.cfg.CouncilModels))
	for _, model := range c.cfg.CouncilModels {
		response := responses[model]
		if response == nil {
			answers = append(answers, Answer{Model: model, Failed: true})
			continue
		}
		answers = append(answers, Answer{
			Model:     model,
			Content:   response.Content,
			Reasoning: response.Reasoning,
		})
	}
	return answers, nil
}

// CollectRankings is stage 2: each council model ranks the anonymized
// stage-1 answers. Answers are labeled by index, not model identity, to
// avoid self-preference. Returns the per-model rankings and the label-to-
// model mapping for de-anonymization.
func (c *Council) CollectRankings(ctx context.Context, client llm.Client, userQuery string, answers []Answer) ([]Ranking, map[string]string) {
	labelToModel := make(map[string]string)
	var responsesText strings.Builder

	i := 0
	for _, answer := range answers {
		if answer.Failed {
			continue
		}
		label := fmt.Sprintf("Response %c", 'A'+i)
		labelToModel[label] = answer.Model
		responsesText.WriteString(fmt.Sprintf("%s:\n%s\n\n", label, answer.Content))
		i++
	}

	prompt := fmt.Sprintf(rankingPromptTemplate, userQuery, responsesText.String())
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}

	responses := client.QueryModelsParallel(ctx, c.cfg.CouncilModels, messages)

	rankings := make([]Ranking, 0, len(c.cfg.CouncilModels))
	for _, model := range c.cfg.CouncilModels {
		response := responses[model]
		if response == nil {
			log.WithField("model", model).Warn("ranker failed, dropping its contribution")
			continue
		}
		parsed := ParseRanking(response.Content)
		if len(parsed) == 0 {
			log.WithField("model", model).Warn("unparseable ranking, dropping its contribution")
		}
		rankings = append(rankings, Ranking{
			Model:  model,
			Raw:    response.Content,
			Parsed: parsed,
		})
	}
	return rankings, labelToModel
}

// SynthesizeFinal is stage 3: the chairman folds the council's output into
// one answer. A chairman failure is fatal to the run; there is no fallback.
func (c *Council) SynthesizeFinal(ctx context.Context, client llm.Client, userQuery string, answers []Answer, aggregate []AggregateEntry) (*Synthesis, error) {
	var stage1Text strings.Builder
	for _, answer := range answers {
		if answer.Failed {
			continue
		}
		stage1Text.WriteString(fmt.Sprintf("Model: %s\nResponse: %s\n\n", answer.Model, answer.Content))
	}

	var rankingText string
	if len(aggregate) > 0 {
		var b strings.Builder
		b.WriteString("\nPEER RANKING (consensus, best first):\n")
		for i, entry := range aggregate {
			b.WriteString(fmt.Sprintf("%d. %s (score %d, ranked by %d models)\n", i+1, entry.Model, entry.Score, entry.Rankers))
		}
		rankingText = b.String()
	}

	prompt := fmt.Sprintf(chairmanPromptTemplate, userQuery, stage1Text.String(), rankingText)
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}

	response, err := client.QueryModel(ctx, c.cfg.ChairmanModel, messages, c.cfg.QueryTimeout)
	if err != nil {
		return nil, fmt.Errorf("chairman model query failed: %w", err)
	}

	return &Synthesis{
		Model:   c.cfg.ChairmanModel,
		Content: response.Content,
	}, nil
}

// GenerateTitle produces a short conversation label with the fast title
// model and its own short timeout. Callers keep a placeholder title when it
// errors; a title failure never fails the pipeline.
func (c *Council) GenerateTitle(ctx context.Context, userQuery string) (string, error) {
	client, err := c.source.Active()
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(titlePromptTemplate, userQuery)
	messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}

	response, err := client.QueryModel(ctx, c.cfg.TitleModel, messages, c.cfg.TitleTimeout)
	if err != nil {
		return "", fmt.Errorf("title generation failed: %w", err)
	}

	title := strings.TrimSpace(response.Content)
	title = strings.Trim(title, "\"'")
	if len(title) > 50 {
		title = title[:47] + "..."
	}
	return title, nil
}

// Run executes the full pipeline synchronously. Stage 2 runs only when
// enabled; skipping it is a supported mode that yields an empty ranking and
// Stage2Ran=false.
func (c *Council) Run(ctx context.Context, userQuery string) (*Result, error) {
	client, err := c.source.Active()
	if err != nil {
		return nil, fmt.Errorf("resolving provider: %w", err)
	}

	elapsed := make(map[string]int64)

	start := time.Now()
	answers, err := c.CollectResponses(ctx, client, userQuery)
	if err != nil {
		return nil, fmt.Errorf("stage 1 failed: %w", err)
	}
	elapsed["stage1"] = time.Since(start).Milliseconds()

	if !anySucceeded(answers) {
		return nil, ErrAllModelsFailed
	}

	var rankings []Ranking
	var aggregate []AggregateEntry
	var labelToModel map[string]string
	if c.cfg.RunStage2 {
		start = time.Now()
		rankings, labelToModel = c.CollectRankings(ctx, client, userQuery, answers)
		aggregate = AggregateRankings(rankings, labelToModel, c.cfg.CouncilModels)
		elapsed["stage2"] = time.Since(start).Milliseconds()
	}

	start = time.Now()
	synthesis, err := c.SynthesizeFinal(ctx, client, userQuery, answers, aggregate)
	if err != nil {
		return nil, fmt.Errorf("stage 3 failed: %w", err)
	}
	elapsed["stage3"] = time.Since(start).Milliseconds()

	return &Result{
		Stage1:    answers,
		Stage2:    rankings,
		Aggregate: aggregate,
		Stage3:    *synthesis,
		Metadata: Metadata{
			ModelsQueried: c.cfg.CouncilModels,
			ChairmanModel: c.cfg.ChairmanModel,
			Stage2Ran:     c.cfg.RunStage2,
			ElapsedMS:     elapsed,
			LabelToModel:  labelToModel,
		},
	}, nil
}

func anySucceeded(answers []Answer) bool {
	for _, a := range answers {
		if !a.Failed {
			return true
		}
	}
	return false
}
