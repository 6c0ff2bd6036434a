package models

import (
	"fmt"
	"math"
)

// DocStatus is the server-reported ingestion status of a document.
// The client mirrors it and never derives it locally.
type DocStatus string

const (
	DocUploading  DocStatus = "UPLOADING"
	DocProcessing DocStatus = "PROCESSING"
	DocCompleted  DocStatus = "COMPLETED"
	DocFailed     DocStatus = "FAILED"
)

// DocStatuses lists the known statuses in pipeline order.
var DocStatuses = []DocStatus{DocUploading, DocProcessing, DocCompleted, DocFailed}

var docStatusLabels = map[DocStatus]string{
	DocUploading:  "업로드중",
	DocProcessing: "처리중",
	DocCompleted:  "완료",
	DocFailed:     "실패",
}

// StatusLabel maps a status to its display label. Statuses the client does
// not know yet pass through unchanged.
func StatusLabel(status DocStatus) string {
	if label, ok := docStatusLabels[status]; ok {
		return label
	}
	return string(status)
}

// DocumentSummary is the document record returned by the list, search,
// detail and upload endpoints.
type DocumentSummary struct {
	ID               int64     `json:"id"`
	FileName         string    `json:"fileName,omitempty"`
	OriginalFileName string    `json:"originalFileName"`
	SizeBytes        int64     `json:"fileSize"`
	MimeType         string    `json:"mimeType,omitempty"`
	Description      string    `json:"description,omitempty"`
	PageCount        int       `json:"pageCount"`
	UploadedBy       string    `json:"uploadedBy"`
	Status           DocStatus `json:"status"`
	ErrorMessage     string    `json:"errorMessage,omitempty"`
	CreatedAt        LocalTime `json:"createdAt"`
	UpdatedAt        LocalTime `json:"updatedAt"`
}

// Page is the paginated envelope used by the collection endpoints.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// LocalFile describes a file on disk picked for upload.
type LocalFile struct {
	Path      string
	Name      string
	SizeBytes int64
	MimeType  string
	// PageCount is best effort; zero when the PDF could not be parsed.
	PageCount int
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count with a 1024 base, e.g. 2.5 MB.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := float64(bytes) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return fmt.Sprintf("%s %s", trimFloat(v), sizeUnits[i])
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
