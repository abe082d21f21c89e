package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
)

const maxImagesPerRecord = 10

type attachmentStore interface {
	Save(filename string, data []byte) (string, error)
	ReadAll(filename string) ([]byte, error)
	Delete(filename string) error
}

type urlSigner interface {
	Generate(ownerID, relPath string) (string, time.Time, error)
	Parse(token string) (ownerID, relPath string, expiresAt time.Time, err error)
	Verify(token string) (ownerID, relPath string, err error)
}

// AttachmentConfig bounds accepted uploads.
type AttachmentConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
	// URLPrefix is prepended to signed tokens when building links.
	URLPrefix string
}

// AttachmentService stores record images and serves them through signed URLs.
type AttachmentService struct {
	store   attachmentStore
	signer  urlSigner
	config  AttachmentConfig
	allowed map[string]string
	logger  *zap.Logger
}

// NewAttachmentService constructs the service.
func NewAttachmentService(store attachmentStore, signer urlSigner, cfg AttachmentConfig, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png", "image/webp"}
	}
	allowed := make(map[string]string, len(cfg.AllowedMIMEs))
	for _, mime := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(mime)] = extensionFor(mime)
	}
	return &AttachmentService{store: store, signer: signer, config: cfg, allowed: allowed, logger: logger}
}

// StoreImages persists submitted images for a record. Entries may be base64
// data URLs, references already stored for the same record, or the signed
// links handed out for those references.
func (s *AttachmentService) StoreImages(ctx context.Context, recordID string, images []string) ([]string, error) {
	if len(images) > maxImagesPerRecord {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d images are allowed", maxImagesPerRecord))
	}
	refs := make([]string, 0, len(images))
	saved := make([]string, 0, len(images))
	seen := make(map[string]struct{}, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		if !strings.HasPrefix(img, "data:") {
			ref, ok := s.existingRef(recordID, img)
			if !ok {
				s.Discard(saved)
				return nil, appErrors.Clone(appErrors.ErrValidation, "image reference does not belong to record")
			}
			if _, dup := seen[ref]; !dup {
				seen[ref] = struct{}{}
				refs = append(refs, ref)
			}
			continue
		}
		data, mime, err := s.decode(img)
		if err != nil {
			s.Discard(saved)
			return nil, err
		}
		name := fmt.Sprintf("%s/%s%s", recordID, uuid.NewString(), s.allowed[mime])
		if _, err := s.store.Save(name, data); err != nil {
			s.Discard(saved)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
		}
		saved = append(saved, name)
		refs = append(refs, name)
	}
	return refs, nil
}

// Discard removes stored files, logging failures.
func (s *AttachmentService) Discard(refs []string) {
	for _, ref := range refs {
		if err := s.store.Delete(ref); err != nil {
			s.logger.Warn("failed to discard attachment", zap.String("ref", ref), zap.Error(err))
		}
	}
}

// Links converts stored references into signed download URLs.
func (s *AttachmentService) Links(recordID string, refs []string) []string {
	links := make([]string, 0, len(refs))
	for _, ref := range refs {
		token, _, err := s.signer.Generate(recordID, ref)
		if err != nil {
			s.logger.Warn("failed to sign attachment", zap.String("ref", ref), zap.Error(err))
			continue
		}
		links = append(links, s.config.URLPrefix+token)
	}
	return links
}

// Open resolves a signed token into file bytes and content type.
func (s *AttachmentService) Open(ctx context.Context, token string) ([]byte, string, error) {
	recordID, ref, _, err := s.signer.Parse(token)
	if err != nil || path.Dir(ref) != recordID {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
	}
	data, err := s.store.ReadAll(ref)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
	}
	return data, http.DetectContentType(data), nil
}

// existingRef resolves a stored reference or a signed link issued for one.
// Expired links are accepted as long as the signature holds.
func (s *AttachmentService) existingRef(recordID, image string) (string, bool) {
	if !strings.Contains(image, "://") && path.Dir(image) == recordID {
		return image, true
	}
	image, _, _ = strings.Cut(image, "?")
	token := path.Base(image)
	owner, ref, err := s.signer.Verify(token)
	if err != nil || owner != recordID || path.Dir(ref) != recordID {
		return "", false
	}
	return ref, true
}

func (s *AttachmentService) decode(dataURL string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "image must be a base64 data URL")
	}
	maxEncoded := base64.StdEncoding.EncodedLen(int(s.config.MaxFileSizeBytes))
	if len(payload) > maxEncoded {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "image exceeds the maximum size")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "image is not valid base64")
	}
	if int64(len(data)) > s.config.MaxFileSizeBytes {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "image exceeds the maximum size")
	}
	mime := strings.ToLower(http.DetectContentType(data))
	if _, ok := s.allowed[mime]; !ok {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("image type %s is not allowed", mime))
	}
	return data, mime, nil
}

func extensionFor(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ""
}
