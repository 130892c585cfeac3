package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/chai2010/webp"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// MaxUploadBytes bounds what a result photo upload may read.
const MaxUploadBytes = 10 << 20

var ErrUnsupportedImage = errors.New("storage: unsupported image format")

// S3API is the subset of the S3 client used by PhotoStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// NewS3Client builds a client for AWS or any S3 compatible endpoint.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region: cfg.Region,
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// PhotoStore keeps appointment result photos as downscaled WebP objects.
type PhotoStore struct {
	client        S3API
	bucket        string
	publicBaseURL string

	MaxWidth  int
	MaxHeight int
	Quality   float32
}

func NewPhotoStore(client S3API, bucket, publicBaseURL string) *PhotoStore {
	return &PhotoStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		MaxWidth:      1280,
		MaxHeight:     1280,
		Quality:       80,
	}
}

func (p *PhotoStore) Enabled() bool {
	return p != nil && p.client != nil && p.bucket != ""
}

// UploadResultPhoto converts the image to WebP and returns its public URL.
func (p *PhotoStore) UploadResultPhoto(ctx context.Context, barbershopID, appointmentID uint, r io.Reader) (string, error) {
	if !p.Enabled() {
		return "", errors.New("storage: photo store not configured")
	}

	raw, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("storage: read upload: %w", err)
	}
	if len(raw) > MaxUploadBytes {
		return "", fmt.Errorf("storage: upload larger than %d bytes", MaxUploadBytes)
	}

	img, err := decodeImage(raw)
	if err != nil {
		return "", err
	}

	data, err := EncodeWebP(downscale(img, p.MaxWidth, p.MaxHeight), p.Quality)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("results/%d/%d-%s.webp", barbershopID, appointmentID, uuid.NewString())

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/webp"),
	})
	if err != nil {
		return "", fmt.Errorf("storage: s3 put %s: %w", key, err)
	}

	return p.publicURL(key), nil
}

func (p *PhotoStore) publicURL(key string) string {
	if p.publicBaseURL != "" {
		return p.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", p.bucket, key)
}

func decodeImage(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, ErrUnsupportedImage
	}

	ct := http.DetectContentType(raw)

	var (
		img image.Image
		err error
	)
	switch {
	case strings.Contains(ct, "jpeg"):
		img, err = jpeg.Decode(bytes.NewReader(raw))
	case strings.Contains(ct, "png"):
		img, err = png.Decode(bytes.NewReader(raw))
	case strings.Contains(ct, "webp"):
		img, err = webp.Decode(bytes.NewReader(raw))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, ct)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: decode image: %w", err)
	}
	return img, nil
}

// downscale keeps the aspect ratio and never enlarges.
func downscale(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if (maxW <= 0 || w <= maxW) && (maxH <= 0 || h <= maxH) {
		return src
	}

	scale := 1.0
	if maxW > 0 {
		scale = math.Min(scale, float64(maxW)/float64(w))
	}
	if maxH > 0 {
		scale = math.Min(scale, float64(maxH)/float64(h))
	}

	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func EncodeWebP(img image.Image, quality float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("storage: encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
