package council

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nexusspace/llm-council/internal/config"
	"github.com/nexusspace/llm-council/internal/llm"
)

// fakeClient scripts per-model replies for pipeline tests. Each model pops
// from its own reply queue, so a model can answer differently in stage 1 and
// stage 2. It records the last prompt each model saw.
type fakeClient struct {
	mu          sync.Mutex
	replies     map[string][]string
	fail        map[string]bool
	lastPrompts map[string]string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		replies:     make(map[string][]string),
		fail:        make(map[string]bool),
		lastPrompts: make(map[string]string),
	}
}

func (f *fakeClient) reply(model string, contents ...string) {
	f.replies[model] = append(f.replies[model], contents...)
}

func (f *fakeClient) QueryModel(ctx context.Context, model string, messages []llm.Message, timeout time.Duration) (*llm.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastPrompts[model] = messages[len(messages)-1].Content
	if f.fail[model] {
		return nil, fmt.Errorf("model %s unavailable", model)
	}

	queue := f.replies[model]
	if len(queue) == 0 {
		return &llm.QueryResult{Content: "canned answer from " + model}, nil
	}
	f.replies[model] = queue[1:]
	return &llm.QueryResult{Content: queue[0]}, nil
}

func (f *fakeClient) QueryModelsParallel(ctx context.Context, models []string, messages []llm.Message) llm.FanOutResult {
	results := make(llm.FanOutResult, len(models))
	for _, model := range models {
		response, err := f.QueryModel(ctx, model, messages, 0)
		if err != nil {
			response = nil
		}
		results[model] = response
	}
	return results
}

func (f *fakeClient) lastPrompt(model string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPrompts[model]
}

// fakeSource hands the pipeline a fixed client, or an error.
type fakeSource struct {
	client llm.Client
	err    error
}

func (s fakeSource) Active() (llm.Client, error) {
	return s.client, s.err
}

func testConfig(runStage2 bool) *config.Config {
	return &config.Config{
		CouncilModels: []string{"model/alpha", "model/beta"},
		ChairmanModel: "model/chair",
		TitleModel:    "model/title",
		RunStage2:     runStage2,
		QueryTimeout:  time.Second,
		TitleTimeout:  time.Second,
	}
}

func testCouncil(client llm.Client, runStage2 bool) *Council {
	return New(testConfig(runStage2), fakeSource{client: client})
}
