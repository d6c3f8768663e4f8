package domain

// ProcessRequest is the generic AI pipeline envelope.
type ProcessRequest struct {
	OperationType string         `json:"operation_type"`
	ContextData   map[string]any `json:"context_data"`
}

// ProcessResponse mirrors ProcessRequest on the way back.
type ProcessResponse struct {
	OperationType string         `json:"operation_type"`
	ResponseData  map[string]any `json:"response_data"`
}

// AudienceAnalysis scores a post against one audience segment.
type AudienceAnalysis struct {
	Segment     string   `json:"segment"`
	Score       int      `json:"score"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`
}

// AudienceAnalysisResponse wraps one analysis per requested segment.
type AudienceAnalysisResponse struct {
	Analyses []AudienceAnalysis `json:"analyses"`
}

// FinalAnalysis is the pre-publish quality check of a finished draft.
type FinalAnalysis struct {
	OverallScore int      `json:"overall_score"`
	Summary      string   `json:"summary,omitempty"`
	Strengths    []string `json:"strengths"`
	Weaknesses   []string `json:"weaknesses"`
	Suggestions  []string `json:"suggestions"`
}

// CopywriterSuggestion is one rewrite proposed by the copywriter agent.
type CopywriterSuggestion struct {
	Original    string `json:"original"`
	Suggestion  string `json:"suggestion"`
	Explanation string `json:"explanation"`
	RawResponse string `json:"raw_response,omitempty"`
}

// SmartSuggestion is an inline rewrite for a selected text span.
type SmartSuggestion struct {
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason"`
}

// Usage reports the caller's position against the AI rate limit.
type Usage struct {
	CurrentUsage int    `json:"current_usage"`
	Limit        int    `json:"limit"`
	ResetAt      string `json:"reset_at"`
}
