package resumes

import "time"

// Response is the outward-facing representation of a resume.
type Response struct {
	ResumeID   string    `json:"resumeId"`
	FileName   string    `json:"fileName"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	TextLength int       `json:"textLength"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// DetailResponse adds the extracted text.
type DetailResponse struct {
	Response
	ExtractedText string `json:"extractedText"`
}

func toResponse(res Resume) Response {
	return Response{
		ResumeID:   res.ID,
		FileName:   res.FileName,
		MimeType:   res.MimeType,
		SizeBytes:  res.SizeBytes,
		TextLength: len([]rune(res.ExtractedText)),
		UploadedAt: res.CreatedAt,
	}
}

func toDetail(res Resume) DetailResponse {
	return DetailResponse{Response: toResponse(res), ExtractedText: res.ExtractedText}
}
