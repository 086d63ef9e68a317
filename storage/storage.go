package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix local files are served under
const PublicPrefix = "/uploads"

var ErrInvalidImage = errors.New("payment proof must be a jpg, jpeg, png or webp image within the size limit")

// ProofStorage persists payment proof images and returns where they can be fetched
type ProofStorage interface {
	Save(ctx context.Context, header *multipart.FileHeader, userID uint) (string, error)
	Remove(ctx context.Context, location string) error
}

// ValidateImageFile checks extension and size
func ValidateImageFile(h *multipart.FileHeader, maxBytes int64) error {
	if h == nil || h.Size <= 0 || h.Size > maxBytes {
		return ErrInvalidImage
	}
	switch strings.ToLower(filepath.Ext(h.Filename)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return nil
	default:
		return ErrInvalidImage
	}
}

// LocalStorage writes files into a directory served statically at PublicPrefix
type LocalStorage struct {
	dir      string
	maxBytes int64
}

func NewLocalStorage(dir string, maxBytes int64) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{dir: dir, maxBytes: maxBytes}, nil
}

func (s *LocalStorage) Dir() string { return s.dir }

func (s *LocalStorage) Save(_ context.Context, header *multipart.FileHeader, userID uint) (string, error) {
	if err := ValidateImageFile(header, s.maxBytes); err != nil {
		return "", err
	}

	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := fmt.Sprintf("%d-%s%s", userID, uuid.NewString(), strings.ToLower(filepath.Ext(header.Filename)))
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return path.Join(PublicPrefix, name), nil
}

func (s *LocalStorage) Remove(_ context.Context, location string) error {
	name := path.Base(location)
	if name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// CloudinaryStorage uploads proofs to Cloudinary
type CloudinaryStorage struct {
	cld      *cloudinary.Cloudinary
	folder   string
	maxBytes int64
}

func NewCloudinaryStorage(cloudinaryURL string, maxBytes int64) (*CloudinaryStorage, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary initialization failed: %w", err)
	}
	return &CloudinaryStorage{cld: cld, folder: "bookings/payment_proofs", maxBytes: maxBytes}, nil
}

func (s *CloudinaryStorage) Save(ctx context.Context, header *multipart.FileHeader, userID uint) (string, error) {
	if err := ValidateImageFile(header, s.maxBytes); err != nil {
		return "", err
	}

	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	overwrite := false
	res, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       fmt.Sprintf("%s/%d", s.folder, userID),
		PublicID:     uuid.NewString(),
		Overwrite:    &overwrite,
		ResourceType: "image",
	})
	if err != nil {
		return "", err
	}
	log.Printf("✅ Payment proof uploaded to Cloudinary: %s", res.PublicID)
	return res.SecureURL, nil
}

func (s *CloudinaryStorage) Remove(ctx context.Context, location string) error {
	publicID := PublicIDFromURL(location)
	if publicID == "" {
		return nil
	}
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: "image"})
	return err
}

var versionSegment = regexp.MustCompile(`^v\d+/`)

// PublicIDFromURL extracts the Cloudinary public id from a delivery URL
func PublicIDFromURL(location string) string {
	idx := strings.Index(location, "/upload/")
	if idx < 0 {
		return ""
	}
	rest := versionSegment.ReplaceAllString(location[idx+len("/upload/"):], "")
	return strings.TrimSuffix(rest, path.Ext(rest))
}
