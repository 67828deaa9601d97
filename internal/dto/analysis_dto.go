package dto

// ScoreMeans per-dimension mean scores.
type ScoreMeans struct {
	VoiceMatch     float64 `json:"voice_match"`
	Coherence      float64 `json:"coherence"`
	Engaging       float64 `json:"engaging"`
	MeetsBrief     float64 `json:"meets_brief"`
	OverallQuality float64 `json:"overall_quality"`
}

// AnalysisSummary overall aggregates for one experiment. Means is nil
// while no evaluations exist; InsufficientData flags that case so a zero
// is never mistaken for a real score.
type AnalysisSummary struct {
	EvaluationCount  int              `json:"evaluation_count"`
	GenerationCount  int              `json:"generation_count"`
	Means            *ScoreMeans      `json:"means,omitempty"`
	TotalCostUSD     float64          `json:"total_cost_usd"`
	TotalLatencyMS   float64          `json:"total_latency_ms"`
	InsufficientData bool             `json:"insufficient_data"`
	Best             *CombinationStat `json:"best_combination,omitempty"`
	Worst            *CombinationStat `json:"worst_combination,omitempty"`
}

// GroupStat aggregates for one grouping key (model, strategy or task).
type GroupStat struct {
	Key              string      `json:"key"`
	Provider         string      `json:"provider,omitempty"`
	Count            int         `json:"count"`
	Means            *ScoreMeans `json:"means,omitempty"`
	MeanEditTime     *float64    `json:"mean_edit_time_minutes,omitempty"`
	InsufficientData bool        `json:"insufficient_data"`
}

// CombinationStat aggregates for one (provider, strategy, task) triple.
type CombinationStat struct {
	Provider        string  `json:"provider"`
	Strategy        string  `json:"strategy"`
	TaskID          string  `json:"task_id"`
	Count           int     `json:"count"`
	MeanOverall     float64 `json:"mean_overall_quality"`
	MeanEditTime    float64 `json:"mean_edit_time_minutes"`
}
