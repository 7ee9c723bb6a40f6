package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
)

// MaxUploadSize is the payload ceiling enforced before any document
// metadata is written.
const MaxUploadSize = 10 << 20 // 10 MiB

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".txt":  {},
}

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = fmt.Errorf("file exceeds %d bytes", MaxUploadSize)
	ErrNotFound            = errors.New("stored file not found")
)

// Store persists document payloads. The payload write always happens
// before the metadata write, so a crash in between leaves an orphaned
// object rather than a dangling reference.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ValidateUpload rejects payloads outside the extension allow-list or
// over the size ceiling. Called before the payload is stored.
func ValidateUpload(fileName string, size int64) error {
	ext := strings.ToLower(path.Ext(fileName))
	if _, ok := allowedExtensions[ext]; !ok {
		return ErrUnsupportedFileType
	}
	if size > MaxUploadSize {
		return ErrFileTooLarge
	}
	return nil
}

var unsafePathChars = regexp.MustCompile(`[/\\:*?"<>|]`)

// SanitizePathSegment replaces characters that are unsafe in object
// keys and directory names.
func SanitizePathSegment(s string) string {
	return unsafePathChars.ReplaceAllString(s, "_")
}

// ObjectKey builds the storage key for an upload. Proposals and their
// revisions live under C/, result documents under OD/, and the base
// document sits at the meeting root. The layout is inherited from the
// legacy per-meeting directories.
func ObjectKey(acronym, meetingID, kind, fileName string, timestamp int64) string {
	acronym = SanitizePathSegment(acronym)
	meetingID = SanitizePathSegment(meetingID)
	fileName = SanitizePathSegment(fileName)
	switch kind {
	case "result":
		return fmt.Sprintf("data/%s/%s/OD/output_%d_%s", acronym, meetingID, timestamp, fileName)
	case "result-revision":
		return fmt.Sprintf("data/%s/%s/OD/output_rev_%d_%s", acronym, meetingID, timestamp, fileName)
	case "base":
		return fmt.Sprintf("data/%s/%s/base_%d_%s", acronym, meetingID, timestamp, fileName)
	case "revision":
		return fmt.Sprintf("data/%s/%s/C/revision_%d_%s", acronym, meetingID, timestamp, fileName)
	default:
		return fmt.Sprintf("data/%s/%s/C/%d_%s", acronym, meetingID, timestamp, fileName)
	}
}
