package dto

// BlindItem is one generation presented for judgment. It deliberately
// carries no provider, model or strategy fields.
type BlindItem struct {
	Done            bool   `json:"done"`
	BlindID         string `json:"blind_id,omitempty"`
	Content         string `json:"content,omitempty"`
	TaskTitle       string `json:"task_title,omitempty"`
	TaskDescription string `json:"task_description,omitempty"`
	ContentType     string `json:"content_type,omitempty"`
	Evaluated       int    `json:"evaluated"`
	Total           int    `json:"total"`
}

// SubmitEvaluationRequest one blind judgment. Score fields are validated
// by the recorder, not the transport layer.
type SubmitEvaluationRequest struct {
	BlindID         string `json:"blind_id" binding:"required"`
	VoiceMatch      int    `json:"voice_match" validate:"min=1,max=5"`
	Coherence       int    `json:"coherence" validate:"min=1,max=5"`
	Engaging        int    `json:"engaging" validate:"min=1,max=5"`
	MeetsBrief      int    `json:"meets_brief" validate:"min=1,max=5"`
	OverallQuality  int    `json:"overall_quality" validate:"min=1,max=5"`
	EditTimeMinutes int    `json:"edit_time_minutes" validate:"gte=0"`
	WouldPublish    string `json:"would_publish" validate:"required,oneof=yes no with_edits"`
	Notes           string `json:"notes"`
}

// EvaluationProgress how far the evaluation pass has come.
type EvaluationProgress struct {
	Evaluated int `json:"evaluated"`
	Total     int `json:"total"`
}
