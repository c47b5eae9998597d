package liferay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-fleetform/pkg/model"
)

// ErrNoFolder is returned when an upload category has no document folder.
var ErrNoFolder = errors.New("liferay: no document folder configured for category")

// File is an upload request.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// FolderResolver maps an upload category to a document folder id.
type FolderResolver func(category string) (int64, bool)

// Uploader stores files in document folders and renames once on a name
// collision.
type Uploader struct {
	client  *Client
	folders FolderResolver
	rename  func(name string) string
}

// UploaderOption customises an Uploader.
type UploaderOption func(*Uploader)

// WithRenamer replaces the collision rename strategy.
func WithRenamer(fn func(name string) string) UploaderOption {
	return func(u *Uploader) {
		if fn != nil {
			u.rename = fn
		}
	}
}

// NewUploader returns an uploader bound to the client.
func NewUploader(client *Client, folders FolderResolver, opts ...UploaderOption) *Uploader {
	u := &Uploader{client: client, folders: folders, rename: UniqueName}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	return u
}

// UniqueName inserts eight random hex characters before the extension:
// `report.pdf` becomes `report-1a2b3c4d.pdf`.
func UniqueName(name string) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		base = "file"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return base + "-" + suffix + ext
}

type documentResponse struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	FileName   string `json:"fileName"`
	ContentURL string `json:"contentUrl"`
}

// Upload stores file in the folder configured for category. A name
// collision is retried once under a regenerated name before failing.
func (u *Uploader) Upload(ctx context.Context, file File, category string) (*model.Attachment, error) {
	if u == nil || u.client == nil {
		return nil, fmt.Errorf("liferay: uploader is not configured")
	}
	name := strings.TrimSpace(file.Name)
	if name == "" {
		return nil, fmt.Errorf("liferay: upload file name is required")
	}
	if u.folders == nil {
		return nil, fmt.Errorf("%w %q", ErrNoFolder, category)
	}
	folder, ok := u.folders(category)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNoFolder, category)
	}

	attachment, err := u.post(ctx, folder, name, file)
	if err == nil {
		return attachment, nil
	}
	var problem *Problem
	if !errors.As(err, &problem) || !problem.Conflict() {
		return nil, err
	}
	renamed := u.rename(name)
	u.client.logger.Info("upload name collision, retrying", "name", name, "renamed", renamed)
	return u.post(ctx, folder, renamed, file)
}

func (u *Uploader) post(ctx context.Context, folder int64, name string, file File) (*model.Attachment, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	meta, err := json.Marshal(map[string]string{"title": name})
	if err != nil {
		return nil, fmt.Errorf("liferay: encode document metadata: %w", err)
	}
	if err := writer.WriteField("document", string(meta)); err != nil {
		return nil, fmt.Errorf("liferay: write document field: %w", err)
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(file.Data)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("liferay: create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("liferay: write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("liferay: close multipart body: %w", err)
	}

	target := "o/headless-delivery/v1.0/document-folders/" + strconv.FormatInt(folder, 10) + "/documents"
	data, err := u.client.do(ctx, http.MethodPost, target, nil, &body, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var doc documentResponse
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("liferay: decode document: %w", err)
	}
	attachment := &model.Attachment{ID: doc.ID, Name: firstNonEmpty(doc.Title, doc.FileName, name), URL: doc.ContentURL}
	if strings.HasPrefix(attachment.URL, "/") {
		if ref, err := url.Parse(attachment.URL); err == nil {
			attachment.URL = u.client.base.ResolveReference(ref).String()
		}
	}
	return attachment, nil
}
