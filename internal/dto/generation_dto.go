package dto

// SingleRunRequest targets one combination for an out-of-sequence run,
// typically to retry a failed entry.
type SingleRunRequest struct {
	Provider string `json:"provider" binding:"required"`
	Strategy string `json:"strategy" binding:"required"`
	TaskID   string `json:"task_id" binding:"required"`
}

// FailureRecord one combination that ended failed.
type FailureRecord struct {
	Provider string `json:"provider"`
	Strategy string `json:"strategy"`
	TaskID   string `json:"task_id"`
	Error    string `json:"error"`
}

// GenerationProgress snapshot of a run, pollable at any time.
type GenerationProgress struct {
	Pending  int             `json:"pending"`
	Success  int             `json:"success"`
	Failed   int             `json:"failed"`
	Total    int             `json:"total"`
	CostUSD  float64         `json:"cost_usd"`
	Running  bool            `json:"running"`
	Status   string          `json:"status"`
	Failures []FailureRecord `json:"failures"`
}
