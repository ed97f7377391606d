// Package document downloads a referenced document and extracts plain
// text from it. Supported formats: PDF, DOCX, email and plain text.
// The retrieval pipeline only ever sees the normalized text produced
// here.
package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"docqa/internal/domain"
)

// Processor fetches documents by URL and extracts their text.
type Processor struct {
	maxBytes int64
	client   *http.Client
}

// NewProcessor creates a processor that rejects documents larger than
// maxSizeMB megabytes (50 by default).
func NewProcessor(maxSizeMB int, timeout time.Duration) *Processor {
	if maxSizeMB <= 0 {
		maxSizeMB = 50
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Processor{
		maxBytes: int64(maxSizeMB) << 20,
		client:   &http.Client{Timeout: timeout},
	}
}

// FetchText downloads the document at url and returns its cleaned text.
// Failures wrap the document error: without text there is nothing to
// chunk, so callers abort the whole request.
func (p *Processor) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDocument, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: download: %v", domain.ErrDocument, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: download: HTTP %d", domain.ErrDocument, resp.StatusCode)
	}
	if resp.ContentLength > p.maxBytes {
		return "", fmt.Errorf("%w: document too large: %d bytes", domain.ErrDocument, resp.ContentLength)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", domain.ErrDocument, err)
	}
	if int64(len(content)) > p.maxBytes {
		return "", fmt.Errorf("%w: document exceeds %d bytes", domain.ErrDocument, p.maxBytes)
	}

	return p.Extract(url, content)
}

// Extract sniffs the document type from the name and content and
// returns the cleaned text.
func (p *Processor) Extract(name string, content []byte) (string, error) {
	lower := strings.ToLower(name)
	// strip query string before matching the extension
	if i := strings.IndexByte(lower, '?'); i >= 0 {
		lower = lower[:i]
	}
	var (
		text string
		err  error
	)
	switch {
	case strings.HasSuffix(lower, ".pdf") || bytes.HasPrefix(content, []byte("%PDF")):
		text, err = extractPDF(content)
	case strings.HasSuffix(lower, ".docx") || bytes.HasPrefix(content, []byte("PK")):
		text, err = extractDOCX(content)
	case strings.Contains(lower, "email") || looksLikeEmail(content):
		text, err = extractEmail(string(content)), nil
	default:
		text = string(content)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDocument, err)
	}
	text = CleanText(text)
	if text == "" {
		return "", fmt.Errorf("%w: no text could be extracted", domain.ErrDocument)
	}
	return text, nil
}

func extractPDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %v", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %v", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf buffer: %v", err)
	}
	return buf.String(), nil
}

// extractDOCX walks word/document.xml and collects the text runs. Each
// paragraph and each table row becomes its own line.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx: %v", err)
	}
	var docXML io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("open docx document: %v", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("docx has no word/document.xml")
	}
	defer docXML.Close()

	var b strings.Builder
	dec := xml.NewDecoder(docXML)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx xml: %v", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p", "tr":
				b.WriteByte('\n')
			case "tc":
				b.WriteByte(' ')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

var emailMarkers = []string{"from:", "to:", "subject:", "reply-to:"}

func looksLikeEmail(content []byte) bool {
	head := strings.ToLower(string(content[:min(len(content), 2048)]))
	for _, marker := range emailMarkers {
		if strings.Contains(head, marker) {
			return true
		}
	}
	return false
}

var replyLineRe = regexp.MustCompile(`(?i)^on .+ wrote:\s*$`)

// extractEmail keeps the latest message body: headers, quoted lines and
// reply attribution lines are dropped. If stripping leaves nothing, the
// original content is returned instead.
func extractEmail(content string) string {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(trimmed, ">") || replyLineRe.MatchString(trimmed) {
			continue
		}
		isHeader := false
		for _, marker := range emailMarkers {
			if strings.HasPrefix(lower, marker) {
				isHeader = true
				break
			}
		}
		if isHeader {
			continue
		}
		kept = append(kept, line)
	}
	body := strings.TrimSpace(strings.Join(kept, "\n"))
	if body == "" {
		return content
	}
	return body
}

var (
	wsRe      = regexp.MustCompile(`\s+`)
	charRe    = regexp.MustCompile(`[^\w\s.,!?:;\-()\[\]"']+`)
	newlineRe = regexp.MustCompile(`\n+`)
)

// CleanText normalizes whitespace and strips control and symbol
// characters while keeping punctuation.
func CleanText(text string) string {
	text = wsRe.ReplaceAllString(text, " ")
	text = charRe.ReplaceAllString(text, "")
	text = newlineRe.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
