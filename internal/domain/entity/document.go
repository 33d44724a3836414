package entity

import "time"

// Document represents an uploaded supporting document of a request
type Document struct {
	ID         int64     `json:"id"`
	RequestID  int64     `json:"request_id"`
	StorageKey string    `json:"-"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	FileSize   int64     `json:"file_size"`
	PageCount  int       `json:"page_count,omitempty"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsPDF returns true if the document was uploaded as a PDF
func (d *Document) IsPDF() bool {
	return d.MimeType == "application/pdf"
}

// DocumentFile represents document content read back from storage
type DocumentFile struct {
	Content  []byte
	FileName string
	MimeType string
	Size     int64
}
