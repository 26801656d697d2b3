package domain

import (
	"fmt"
	"time"
)

// FileKind is the broad type of a stored file.
type FileKind string

const (
	KindFolder   FileKind = "folder"
	KindDocument FileKind = "document"
	KindImage    FileKind = "image"
	KindVideo    FileKind = "video"
	KindAudio    FileKind = "audio"
)

// FileKinds lists every FileKind.
func FileKinds() []FileKind {
	return []FileKind{KindFolder, KindDocument, KindImage, KindVideo, KindAudio}
}

// File is metadata for a church document. Content lives in the hosted storage bucket.
type File struct {
	ID         string
	ChurchID   string
	Name       string
	Kind       FileKind
	Category   string
	SizeBytes  *int64
	UploadedBy string
	CreatedAt  time.Time
}

// HumanSize formats SizeBytes as B, KB, MB or GB. Returns "" when unknown.
func (f *File) HumanSize() string {
	if f.SizeBytes == nil {
		return ""
	}
	n := float64(*f.SizeBytes)
	units := []string{"B", "KB", "MB", "GB"}
	i := 0
	for n >= 1024 && i < len(units)-1 {
		n /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", *f.SizeBytes)
	}
	return fmt.Sprintf("%.1f %s", n, units[i])
}
