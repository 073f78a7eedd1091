package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"log"
	"path/filepath"
	"strings"
	"time"

	"commerce-service/internal/domain"
	"commerce-service/internal/infra/storage"
	"commerce-service/internal/validation"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var allowedUploadTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// ImageOptions asks for an image to be re-encoded before it is stored.
type ImageOptions struct {
	// MaxDimension caps the longest side in pixels; 0 keeps the size.
	MaxDimension int `json:"maxDimension" validate:"min=0,max=8000"`
	// Format is jpeg or png; empty keeps jpeg/png sources and turns the rest into png.
	Format  string `json:"format" validate:"omitempty,oneof=jpeg png"`
	Quality int    `json:"quality" validate:"min=0,max=100"`
}

type UploadService struct {
	repos    Repositories
	files    storage.FileStore
	maxBytes int64
}

func NewUploadService(repos Repositories, files storage.FileStore, maxBytes int64) *UploadService {
	return &UploadService{repos: repos, files: files, maxBytes: maxBytes}
}

func (s *UploadService) Upload(ctx context.Context, ownerID, filename string, data []byte, opts *ImageOptions) (*domain.Upload, error) {
	if len(data) == 0 {
		return nil, domain.NewValidationError("file", "is empty")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, domain.NewValidationError("file", fmt.Sprintf("exceeds %d bytes", s.maxBytes))
	}

	mtype := mimetype.Detect(data)
	mime := strings.SplitN(mtype.String(), ";", 2)[0]
	if _, ok := allowedUploadTypes[mime]; !ok {
		return nil, domain.NewValidationError("file", "type "+mime+" is not allowed")
	}
	ext := mtype.Extension()

	if opts != nil && strings.HasPrefix(mime, "image/") {
		if err := validation.Struct(opts); err != nil {
			return nil, err
		}
		out, outMime, err := processImage(data, mime, *opts)
		if err != nil {
			return nil, domain.NewValidationError("file", "could not be decoded as an image")
		}
		data, mime = out, outMime
		ext = map[string]string{"image/jpeg": ".jpg", "image/png": ".png"}[mime]
	}

	name := time.Now().UTC().Format("2006/01") + "/" + uuid.NewString() + ext
	url, err := s.files.Save(ctx, name, data)
	if err != nil {
		return nil, serviceError("store upload", err)
	}

	upload := &domain.Upload{
		OwnerID:  ownerID,
		Filename: sanitizeFilename(filename),
		MimeType: mime,
		Size:     int64(len(data)),
		URL:      url,
	}
	if err := s.repos.Uploads.Create(ctx, upload); err != nil {
		if delErr := s.files.Delete(ctx, name); delErr != nil {
			log.Printf("[upload] failed to remove orphan %s: %v", name, delErr)
		}
		return nil, serviceError("save upload", err)
	}

	log.Printf("[upload] stored %s (%s, %d bytes) for %s", upload.URL, mime, upload.Size, ownerID)
	return upload, nil
}

// processImage scales the image down to fit MaxDimension and re-encodes it.
func processImage(data []byte, mime string, opts ImageOptions) ([]byte, string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	img := src
	b := src.Bounds()
	if longest := max(b.Dx(), b.Dy()); opts.MaxDimension > 0 && longest > opts.MaxDimension {
		w := b.Dx() * opts.MaxDimension / longest
		h := b.Dy() * opts.MaxDimension / longest
		dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		img = dst
	}

	format := opts.Format
	if format == "" {
		format = "png"
		if mime == "image/jpeg" {
			format = "jpeg"
		}
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		quality := opts.Quality
		if quality == 0 {
			quality = 85
		}
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
		mime = "image/jpeg"
	default:
		err = png.Encode(&buf, img)
		mime = "image/png"
	}
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mime, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	if len(name) > 255 {
		name = name[len(name)-255:]
	}
	return name
}
