package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	contentTypeJSON = "application/json"
)

// encodedBody is a request body ready to send. When force is set the content
// type replaces any Content-Type header given by the caller.
type encodedBody struct {
	reader      io.Reader
	contentType string
	force       bool
}

func encodeBody(p Params) (*encodedBody, error) {
	switch {
	case p.Form != nil:
		return &encodedBody{
			reader:      strings.NewReader(url.Values(p.Form).Encode()),
			contentType: contentTypeForm,
		}, nil
	case p.FormData != nil:
		body, ct, err := BuildMultipartBody(p.FormData, p.BaseDir)
		if err != nil {
			return nil, err
		}
		return &encodedBody{reader: body, contentType: ct, force: true}, nil
	case p.JSON != nil:
		data, err := json.Marshal(p.JSON)
		if err != nil {
			return nil, fmt.Errorf("encoding JSON body: %w", err)
		}
		return &encodedBody{reader: bytes.NewReader(data), contentType: contentTypeJSON, force: true}, nil
	case p.Body != "":
		return &encodedBody{reader: strings.NewReader(p.Body)}, nil
	}
	return &encodedBody{}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// BuildMultipartBody creates a multipart form data body from form fields
func BuildMultipartBody(fields []FormField, baseDir string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, field := range fields {
		var err error
		switch {
		case field.Path != "":
			err = writeFilePart(writer, field, baseDir)
		case field.Content != nil || field.Filename != "":
			err = writeReaderPart(writer, field)
		default:
			err = writer.WriteField(field.Name, field.Value)
		}
		if err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

func writeFilePart(writer *multipart.Writer, field FormField, baseDir string) error {
	// Resolve file path relative to base directory
	filePath := field.Path
	if !filepath.IsAbs(filePath) && baseDir != "" {
		filePath = filepath.Join(baseDir, filePath)
	}

	if err := validatePathWithinBase(filePath, baseDir); err != nil {
		return err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	if field.Filename == "" {
		field.Filename = filepath.Base(filePath)
	}
	field.Content = file
	return writeReaderPart(writer, field)
}

func writeReaderPart(writer *multipart.Writer, field FormField) error {
	contentType := field.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := field.Filename
	if filename == "" {
		filename = field.Name
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field.Name), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return err
	}

	src := field.Content
	if src == nil {
		src = strings.NewReader(field.Value)
	}
	_, err = io.Copy(part, src)
	return err
}

// validatePathWithinBase checks that the resolved path stays within the base directory
// to prevent path traversal attacks
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}

	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %v", err)
	}

	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %v", err)
	}

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}

	return nil
}
