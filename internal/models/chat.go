package models

import "time"

// ChatMessage is one transcript entry. Messages are immutable once appended.
type ChatMessage struct {
	ID        string
	Text      string
	IsUser    bool
	Timestamp time.Time

	// Set on backend replies only.
	Sources      []RelevantDocument
	ResponseTime time.Duration
}

// RelevantDocument is a source excerpt the backend used to build an answer.
type RelevantDocument struct {
	DocumentID int64   `json:"documentId"`
	FileName   string  `json:"fileName"`
	PageNumber int     `json:"pageNumber"`
	Excerpt    string  `json:"excerpt"`
	Similarity float64 `json:"similarity"`
}

// QueryRequest is the body of POST /queries.
type QueryRequest struct {
	Question       string         `json:"question"`
	PromptType     PromptStrategy `json:"promptType"`
	UserName       string         `json:"userName"`
	UserDepartment string         `json:"userDepartment,omitempty"`
}

// QueryResponse is the backend answer to a QueryRequest.
type QueryResponse struct {
	ID                int64              `json:"id"`
	Question          string             `json:"question"`
	Answer            string             `json:"answer"`
	PromptType        PromptStrategy     `json:"promptType"`
	RelevantDocuments []RelevantDocument `json:"relevantDocuments"`
	ResponseTimeMs    int                `json:"responseTimeMs"`
	CreatedAt         LocalTime          `json:"createdAt"`
}

// QueryHistoryEntry is a persisted question/answer pair from the history endpoints.
type QueryHistoryEntry struct {
	ID             int64          `json:"id"`
	Question       string         `json:"question"`
	Answer         string         `json:"answer"`
	PromptType     PromptStrategy `json:"promptType"`
	UserName       string         `json:"userName"`
	UserDepartment string         `json:"userDepartment"`
	ResponseTimeMs int            `json:"responseTimeMs"`
	CreatedAt      LocalTime      `json:"createdAt"`
}
