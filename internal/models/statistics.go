package models

// StatisticsSnapshot is the read-only aggregate returned by GET /statistics.
// A new fetch replaces it wholesale.
type StatisticsSnapshot struct {
	DocumentStatistics DocumentStatistics `json:"documentStatistics"`
	QueryStatistics    QueryStatistics    `json:"queryStatistics"`
}

type DocumentStatistics struct {
	TotalDocuments      int64            `json:"totalDocuments"`
	CompletedDocuments  int64            `json:"completedDocuments"`
	ProcessingDocuments int64            `json:"processingDocuments"`
	FailedDocuments     int64            `json:"failedDocuments"`
	TotalSize           int64            `json:"totalSize"`
	TotalPages          int              `json:"totalPages"`
	StatusCounts        map[string]int64 `json:"statusCounts"`
}

type QueryStatistics struct {
	TotalQueries         int64              `json:"totalQueries"`
	QueriesToday         int64              `json:"queriesToday"`
	QueriesThisWeek      int64              `json:"queriesThisWeek"`
	QueriesThisMonth     int64              `json:"queriesThisMonth"`
	PromptTypeCounts     map[string]int64   `json:"promptTypeCounts"`
	AverageResponseTimes map[string]float64 `json:"averageResponseTimes"`
	TopUsers             []TopUser          `json:"topUsers"`
}

type TopUser struct {
	UserName   string `json:"userName"`
	Department string `json:"department"`
	QueryCount int64  `json:"queryCount"`
}
