package resumes

import "time"

// Resume is an uploaded resume file and the text extracted from it.
type Resume struct {
	ID               string
	UserID           string
	FileName         string
	OriginalFilename string
	MimeType         string
	SizeBytes        int64
	StorageProvider  string
	StorageKey       string
	ExtractedText    string
	IsActive         bool
	CreatedAt        time.Time
}
