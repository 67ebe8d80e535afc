package session

import (
	"fmt"
	"path/filepath"
	"strings"
)

const attachedFilesHeader = "--- Attached Files ---"

// Attachment is a file the user attached to an outgoing message. Uploaded
// files carry Path; files read locally carry Content.
type Attachment struct {
	Name    string
	Type    string
	Path    string
	Content string
	IsText  bool
}

// FileRef is one entry of the files array in a send_message payload
type FileRef struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Path    string `json:"path,omitempty"`
	IsText  bool   `json:"isText,omitempty"`
	Content string `json:"content,omitempty"`
}

// Category says how an attachment travels to the backend
type Category int

const (
	CategoryRejected Category = iota
	CategoryInlineText
	CategorySupportedPath
	CategoryDocumentPath
	CategoryMessageText
)

func (c Category) String() string {
	switch c {
	case CategoryRejected:
		return "rejected"
	case CategoryInlineText:
		return "inline-text"
	case CategorySupportedPath:
		return "supported-path"
	case CategoryDocumentPath:
		return "document-path"
	case CategoryMessageText:
		return "message-text"
	default:
		return "unknown"
	}
}

// Text formats the backend reads directly from a files entry
var inlineTextTypes = map[string]bool{
	"text/plain":       true,
	"text/markdown":    true,
	"text/csv":         true,
	"text/html":        true,
	"text/xml":         true,
	"application/json": true,
	"application/xml":  true,
}

var inlineTextExtensions = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".html": "text/html",
	".xml":  "application/xml",
	".json": "application/json",
}

var documentTypes = map[string]bool{
	"application/msword":            true,
	"application/vnd.ms-excel":      true,
	"application/vnd.ms-powerpoint": true,

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
}

var documentExtensions = map[string]bool{
	".doc": true, ".docx": true,
	".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,
}

// Source files the backend has no reader for; they ride in the message body
var codeExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".tsx": true, ".jsx": true,
	".java": true, ".c": true, ".h": true, ".cpp": true, ".rs": true, ".rb": true,
	".sh": true, ".yaml": true, ".yml": true, ".toml": true, ".sql": true, ".css": true,
}

func supportedPathType(mimeType string) bool {
	for _, prefix := range []string{"image/", "audio/", "video/"} {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return mimeType == "application/pdf"
}

func (a Attachment) ext() string {
	return strings.ToLower(filepath.Ext(a.Name))
}

func (a Attachment) mimeType() string {
	t := strings.ToLower(strings.TrimSpace(a.Type))
	if i := strings.Index(t, ";"); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if t == "" {
		t = inlineTextExtensions[a.ext()]
	}
	return t
}

func (a Attachment) isText() bool {
	if a.IsText {
		return true
	}
	t := a.mimeType()
	return strings.HasPrefix(t, "text/") || inlineTextTypes[t] || codeExtensions[a.ext()]
}

// Categorize decides how an attachment travels. maxInline caps text
// content in bytes, zero means no cap. Rejections come with a reason.
func Categorize(a Attachment, maxInline int) (Category, string) {
	t := a.mimeType()
	switch {
	case documentTypes[t] || documentExtensions[a.ext()]:
		if a.Path == "" {
			return CategoryRejected, fmt.Sprintf("%s has not been uploaded", a.Name)
		}
		return CategoryDocumentPath, ""

	case a.isText() && a.Content != "":
		if maxInline > 0 && len(a.Content) > maxInline {
			return CategoryRejected, fmt.Sprintf("%s is too large to attach (%d bytes, limit %d)", a.Name, len(a.Content), maxInline)
		}
		if inlineTextTypes[t] {
			return CategoryInlineText, ""
		}
		return CategoryMessageText, ""

	case a.Path != "" && (supportedPathType(t) || a.isText()):
		return CategorySupportedPath, ""

	case a.Path != "":
		return CategoryRejected, fmt.Sprintf("%s has an unsupported type %q", a.Name, t)

	default:
		return CategoryRejected, fmt.Sprintf("%s cannot be sent without an upload", a.Name)
	}
}

// prepared is the outcome of categorizing every attachment of a send
type prepared struct {
	files    []FileRef
	message  string
	rejected []string
}

func prepareAttachments(message string, attachments []Attachment, maxInline int) prepared {
	var out prepared
	var appended []string

	for _, a := range attachments {
		cat, reason := Categorize(a, maxInline)
		switch cat {
		case CategoryInlineText:
			out.files = append(out.files, FileRef{Name: a.Name, Type: a.mimeType(), IsText: true, Content: a.Content})
		case CategorySupportedPath, CategoryDocumentPath:
			out.files = append(out.files, FileRef{Name: a.Name, Type: a.mimeType(), Path: a.Path})
		case CategoryMessageText:
			appended = append(appended, fmt.Sprintf("File: %s\n%s", a.Name, strings.TrimRight(a.Content, "\n")))
		default:
			out.rejected = append(out.rejected, reason)
		}
	}

	out.message = message
	if len(appended) > 0 {
		section := attachedFilesHeader + "\n\n" + strings.Join(appended, "\n\n")
		if strings.TrimSpace(message) == "" {
			out.message = section
		} else {
			out.message = message + "\n\n" + section
		}
	}
	return out
}
