package council

// Answer is one council model's stage-1 output. Every configured council
// model gets exactly one Answer, in council-list order; a failed call is
// recorded with Failed=true rather than omitted.
type Answer struct {
	Model     string `json:"model"`
	Content   string `json:"content,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
	Failed    bool   `json:"failed,omitempty"`
}

// Ranking is one council model's stage-2 evaluation of the anonymized
// stage-1 answers.
type Ranking struct {
	Model  string   `json:"model"`
	Raw    string   `json:"ranking"`
	Parsed []string `json:"parsed_ranking"`
}

// AggregateEntry is one row of the consensus ordering, highest score first.
type AggregateEntry struct {
	Model   string `json:"model"`
	Score   int    `json:"score"`
	Rankers int    `json:"rankers"`
}

// Synthesis is the chairman's stage-3 answer. Unlike a council answer it has
// no failed state: a chairman failure fails the whole run.
type Synthesis struct {
	Model   string `json:"model"`
	Content string `json:"response"`
}

// Metadata describes one completed run.
type Metadata struct {
	ModelsQueried []string          `json:"models_queried"`
	ChairmanModel  string            `json:"chairman_model"`
	Stage2Ran      bool              `json:"stage2_ran"`
	ElapsedMS      map[string]int64  `json:"elapsed_ms_per_stage"`
	LabelToModel   map[string]string `json:"label_to_model,omitempty"`
}

// Result is the outcome of a full synchronous run.
type Result struct {
	Stage1    []Answer         `json:"stage1"`
	Stage2    []Ranking        `json:"stage2"`
	Aggregate []AggregateEntry `json:"aggregate"`
	Stage3    Synthesis        `json:"stage3"`
	Metadata  Metadata         `json:"metadata"`
}
