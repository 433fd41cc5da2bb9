package council

import (
	"context"
	"fmt"
	"time"
)

// Event types emitted by RunStream, in the order a consumer observes them.
const (
	EventStage1Start    = "stage1_start"
	EventStage1Complete = "stage1_complete"
	EventStage2Skipped  = "stage2_skipped"
	EventStage2Start    = "stage2_start"
	EventStage2Complete = "stage2_complete"
	EventStage3Start    = "stage3_start"
	EventStage3Complete = "stage3_complete"
	EventTitleComplete  = "title_complete"
	EventComplete       = "complete"
	EventError          = "error"
)

// Event is one unit of streamed progress.
type Event struct {
	Type     string `json:"type"`
	Data     any    `json:"data,omitempty"`
	Metadata any    `json:"metadata,omitempty"`
	Message  string `json:"message,omitempty"`
}

// EmitFunc receives events in order. It must not be called concurrently and
// RunStream guarantees it is not.
type EmitFunc func(Event)

// StreamRequest configures one streamed run.
type StreamRequest struct {
	Query string

	// WithTitle launches title generation concurrently with the stages.
	WithTitle bool

	// Persist, when set, is called with the finished result and title after
	// stage 3 (and the title task) but before the complete event. A persist
	// failure aborts the stream with an error event.
	Persist func(result *Result, title string) error
}

// RunStream executes the pipeline, emitting a discrete event as each stage
// settles. Event order is fixed: stage1_start, stage1_complete, then either
// stage2_skipped or stage2_start/stage2_complete, then stage3_start,
// stage3_complete, an optional title_complete, and finally complete. Any
// failure emits a single error event instead and no complete follows it.
func (c *Council) RunStream(ctx context.Context, req StreamRequest, emit EmitFunc) error {
	client, err := c.source.Active()
	if err != nil {
		return failStream(emit, fmt.Errorf("resolving provider: %w", err))
	}

	// Title generation must not block stage 1, so it runs on its own
	// goroutine from the start and is only awaited after stage 3.
	var titleCh chan string
	if req.WithTitle {
		titleCh = make(chan string, 1)
		go func() {
			title, err := c.GenerateTitle(ctx, req.Query)
			if err != nil {
				log.Warnf("title generation failed: %v", err)
			}
			titleCh <- title
		}()
	}

	elapsed := make(map[string]int64)

	emit(Event{Type: EventStage1Start})
	start := time.Now()
	answers, err := c.CollectResponses(ctx, client, req.Query)
	if err != nil {
		return failStream(emit, fmt.Errorf("stage 1 failed: %w", err))
	}
	elapsed["stage1"] = time.Since(start).Milliseconds()
	emit(Event{Type: EventStage1Complete, Data: answers})

	if !anySucceeded(answers) {
		return failStream(emit, ErrAllModelsFailed)
	}

	var rankings []Ranking
	var aggregate []AggregateEntry
	var labelToModel map[string]string
	if c.cfg.RunStage2 {
		emit(Event{Type: EventStage2Start})
		start = time.Now()
		rankings, labelToModel = c.CollectRankings(ctx, client, req.Query, answers)
		aggregate = AggregateRankings(rankings, labelToModel, c.cfg.CouncilModels)
		elapsed["stage2"] = time.Since(start).Milliseconds()
		emit(Event{
			Type: EventStage2Complete,
			Data: rankings,
			Metadata: map[string]any{
				"label_to_model":     labelToModel,
				"aggregate_rankings": aggregate,
			},
		})
	} else {
		emit(Event{Type: EventStage2Skipped})
	}

	emit(Event{Type: EventStage3Start})
	start = time.Now()
	synthesis, err := c.SynthesizeFinal(ctx, client, req.Query, answers, aggregate)
	if err != nil {
		return failStream(emit, fmt.Errorf("stage 3 failed: %w", err))
	}
	elapsed["stage3"] = time.Since(start).Milliseconds()
	emit(Event{Type: EventStage3Complete, Data: synthesis})

	var title string
	if titleCh != nil {
		title = <-titleCh
		if title != "" {
			emit(Event{Type: EventTitleComplete, Data: map[string]string{"title": title}})
		}
	}

	result := &Result{
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
	}

	if req.Persist != nil {
		if err := req.Persist(result, title); err != nil {
			return failStream(emit, fmt.Errorf("saving result: %w", err))
		}
	}

	emit(Event{Type: EventComplete})
	return nil
}

func failStream(emit EmitFunc, err error) error {
	emit(Event{Type: EventError, Message: err.Error()})
	return err
}
