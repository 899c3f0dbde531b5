package wizard

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	appErrors "github.com/noah-isme/careers-admin-api/pkg/errors"
)

// Accepted resume formats.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOC  = "application/msword"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DefaultMaxResumeBytes is the resume size ceiling.
const DefaultMaxResumeBytes int64 = 5 << 20

// Word files that the sniffer only recognises as their container format.
var containerOf = map[string]string{
	MIMEDOC:  "application/x-ole-storage",
	MIMEDOCX: "application/zip",
}

// File is an uploaded file as received from the client.
type File struct {
	Name         string
	DeclaredType string
	Data         []byte
}

// Attachment is an accepted file stored inline as base64.
type Attachment struct {
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
	Data      string `json:"data"`
}

// Decode returns the raw file bytes.
func (a Attachment) Decode() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("decode attachment: %w", err)
	}
	return raw, nil
}

// Info drops the payload.
func (a Attachment) Info() AttachmentInfo {
	return AttachmentInfo{FileName: a.FileName, MimeType: a.MimeType, SizeBytes: a.SizeBytes}
}

// AttachmentInfo describes an attachment without its content.
type AttachmentInfo struct {
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

// AttachmentPolicy is the MIME whitelist and size ceiling for resumes.
type AttachmentPolicy struct {
	MaxBytes int64
	Allowed  []string
}

// DefaultAttachmentPolicy accepts PDF, DOC and DOCX up to 5 MiB.
func DefaultAttachmentPolicy() AttachmentPolicy {
	return AttachmentPolicy{MaxBytes: DefaultMaxResumeBytes, Allowed: []string{MIMEPDF, MIMEDOC, MIMEDOCX}}
}

// Accept validates f and encodes it. The type is taken from the content; the
// declared type is only trusted when the content is its container format.
func (p AttachmentPolicy) Accept(f File) (*Attachment, error) {
	if p.MaxBytes <= 0 {
		p.MaxBytes = DefaultMaxResumeBytes
	}
	if len(p.Allowed) == 0 {
		p.Allowed = DefaultAttachmentPolicy().Allowed
	}
	size := int64(len(f.Data))
	if size == 0 {
		return nil, appErrors.UnsupportedFile("file is empty")
	}
	if size > p.MaxBytes {
		return nil, appErrors.UnsupportedFile(fmt.Sprintf("file is %d bytes, limit is %d", size, p.MaxBytes))
	}

	detected := mimetype.Detect(f.Data)
	mime := ""
	for _, allowed := range p.Allowed {
		if detected.Is(allowed) {
			mime = allowed
			break
		}
	}
	if mime == "" {
		declared := normalizeMIME(f.DeclaredType)
		if container, ok := containerOf[declared]; ok && p.allows(declared) && detected.Is(container) {
			mime = declared
		}
	}
	if mime == "" {
		return nil, appErrors.UnsupportedFile(fmt.Sprintf("type %s is not accepted", detected.String()))
	}

	return &Attachment{
		FileName:  strings.TrimSpace(f.Name),
		MimeType:  mime,
		SizeBytes: size,
		Data:      base64.StdEncoding.EncodeToString(f.Data),
	}, nil
}

func (p AttachmentPolicy) allows(mime string) bool {
	for _, a := range p.Allowed {
		if a == mime {
			return true
		}
	}
	return false
}

func normalizeMIME(raw string) string {
	if i := strings.IndexByte(raw, ';'); i >= 0 {
		raw = raw[:i]
	}
	return strings.ToLower(strings.TrimSpace(raw))
}
