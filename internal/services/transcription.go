package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	vision "cloud.google.com/go/vision/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/sheetgrader-backend/internal/logger"
	"github.com/yungbote/sheetgrader-backend/internal/types"
)

// ErrTranscription marks any failure of the transcription stage; callers
// surface it stage-scoped and let the grader retry.
var ErrTranscription = errors.New("transcription failed")

// TranscriptionService turns a stored answer sheet into an ordered list of
// (item number, recognized text) pairs.
type TranscriptionService interface {
	Transcribe(ctx context.Context, sheetURL string) ([]types.TranscribedItem, error)
	// ExtractText returns the raw recognized text without item splitting.
	ExtractText(ctx context.Context, sheetURL string) (string, error)
	Close() error
}

type visionTranscriptionService struct {
	log          *logger.Logger
	visionClient *vision.ImageAnnotatorClient
	storage      *storage.Client
	bucketName   string
}

func NewVisionTranscriptionService(log *logger.Logger) (TranscriptionService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	serviceLog := log.With("service", "VisionTranscriptionService")

	bucket := os.Getenv("GCS_BUCKET_NAME")
	if bucket == "" {
		return nil, fmt.Errorf("missing env var GCS_BUCKET_NAME")
	}

	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	ctx := context.Background()

	var (
		vClient *vision.ImageAnnotatorClient
		sClient *storage.Client
		err     error
	)

	if creds != "" {
		vClient, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(creds))
		if err != nil {
			return nil, fmt.Errorf("vision client: %w", err)
		}
		sClient, err = storage.NewClient(ctx, option.WithCredentialsFile(creds))
		if err != nil {
			_ = vClient.Close()
			return nil, fmt.Errorf("storage client: %w", err)
		}
	} else {
		vClient, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("vision client: %w", err)
		}
		sClient, err = storage.NewClient(ctx)
		if err != nil {
			_ = vClient.Close()
			return nil, fmt.Errorf("storage client: %w", err)
		}
	}

	return &visionTranscriptionService{
		log:          serviceLog,
		visionClient: vClient,
		storage:      sClient,
		bucketName:   bucket,
	}, nil
}

func (s *visionTranscriptionService) Close() error {
	if s == nil {
		return nil
	}
	if s.visionClient != nil {
		_ = s.visionClient.Close()
	}
	if s.storage != nil {
		_ = s.storage.Close()
	}
	return nil
}

func (s *visionTranscriptionService) Transcribe(ctx context.Context, sheetURL string) ([]types.TranscribedItem, error) {
	text, err := s.ExtractText(ctx, sheetURL)
	if err != nil {
		return nil, err
	}
	items := SplitNumberedItems(text)
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no numbered answers recognized in sheet", ErrTranscription)
	}
	return items, nil
}

func (s *visionTranscriptionService) ExtractText(ctx context.Context, sheetURL string) (string, error) {
	bucket, key, err := s.resolveObject(sheetURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}

	if strings.HasSuffix(strings.ToLower(key), ".pdf") || strings.HasSuffix(strings.ToLower(key), ".tiff") {
		text, err := s.ocrFileAsync(ctx, bucket, key)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrTranscription, err)
		}
		return text, nil
	}

	text, err := s.ocrImage(ctx, bucket, key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	return text, nil
}

// resolveObject accepts gs:// URIs and the public URL form the bucket
// service hands out.
func (s *visionTranscriptionService) resolveObject(ref string) (string, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", fmt.Errorf("empty sheet reference")
	}
	if strings.HasPrefix(ref, "gs://") {
		rest := strings.TrimPrefix(ref, "gs://")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("malformed gs uri %q", ref)
		}
		return parts[0], parts[1], nil
	}
	const gcsHTTP = "https://storage.googleapis.com/"
	if strings.HasPrefix(ref, gcsHTTP) {
		rest := strings.TrimPrefix(ref, gcsHTTP)
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("malformed storage url %q", ref)
		}
		return parts[0], parts[1], nil
	}
	cdn := os.Getenv("CDN_DOMAIN")
	if cdn != "" && strings.HasPrefix(ref, "https://"+cdn+"/") {
		return s.bucketName, strings.TrimPrefix(ref, "https://"+cdn+"/"), nil
	}
	return "", "", fmt.Errorf("unsupported sheet reference %q", ref)
}

func (s *visionTranscriptionService) ocrImage(ctx context.Context, bucket, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	r, err := s.storage.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return "", fmt.Errorf("open sheet object: %w", err)
	}
	img, err := io.ReadAll(r)
	_ = r.Close()
	if err != nil {
		return "", fmt.Errorf("read sheet object: %w", err)
	}

	vimg, err := vision.NewImageFromReader(bytes.NewReader(img))
	if err != nil {
		return "", fmt.Errorf("vision NewImageFromReader: %w", err)
	}
	doc, err := s.visionClient.DetectDocumentText(ctx, vimg, nil)
	if err != nil {
		return "", fmt.Errorf("vision DetectDocumentText: %w", err)
	}
	if doc == nil {
		return "", nil
	}
	return doc.Text, nil
}

// ocrFileAsync runs Vision's async batch OCR for PDF/TIFF sheets, waits for
// the operation, then reads the produced JSON shards concurrently.
func (s *visionTranscriptionService) ocrFileAsync(ctx context.Context, bucket, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	source := fmt.Sprintf("gs://%s/%s", bucket, key)
	outPrefix := fmt.Sprintf("gs://%s/ocr-output/%s/", bucket, strings.ReplaceAll(key, "/", "_"))

	mimeType := "application/pdf"
	if strings.HasSuffix(strings.ToLower(key), ".tiff") {
		mimeType = "image/tiff"
	}

	req := &visionpb.AsyncBatchAnnotateFilesRequest{
		Requests: []*visionpb.AsyncAnnotateFileRequest{
			{
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				InputConfig: &visionpb.InputConfig{
					GcsSource: &visionpb.GcsSource{Uri: source},
					MimeType:  mimeType,
				},
				OutputConfig: &visionpb.OutputConfig{
					GcsDestination: &visionpb.GcsDestination{Uri: outPrefix},
					BatchSize:      10,
				},
			},
		},
	}

	op, err := s.visionClient.AsyncBatchAnnotateFiles(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision AsyncBatchAnnotateFiles: %w", err)
	}
	if _, err := op.Wait(ctx); err != nil {
		return "", fmt.Errorf("vision operation wait: %w", err)
	}

	prefix := strings.TrimPrefix(outPrefix, "gs://"+bucket+"/")
	var keys []string
	it := s.storage.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", fmt.Errorf("list vision outputs: %w", err)
		}
		if strings.HasSuffix(attrs.Name, ".json") {
			keys = append(keys, attrs.Name)
		}
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return "", fmt.Errorf("no vision output files under %s", outPrefix)
	}

	texts := make([]string, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range keys {
		g.Go(func() error {
			r, err := s.storage.Bucket(bucket).Object(k).NewReader(gctx)
			if err != nil {
				return fmt.Errorf("open vision output %s: %w", k, err)
			}
			raw, err := io.ReadAll(r)
			_ = r.Close()
			if err != nil {
				return fmt.Errorf("read vision output %s: %w", k, err)
			}
			texts[i] = parseAsyncOutputText(raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(t)
	}
	return sb.String(), nil
}

// parseAsyncOutputText pulls the per-page fullTextAnnotation text out of one
// async OCR output shard.
func parseAsyncOutputText(raw []byte) string {
	var payload struct {
		Responses []struct {
			FullTextAnnotation struct {
				Text string `json:"text"`
			} `json:"fullTextAnnotation"`
		} `json:"responses"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	var sb strings.Builder
	for _, r := range payload.Responses {
		t := strings.TrimSpace(r.FullTextAnnotation.Text)
		if t == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(t)
	}
	return sb.String()
}

var itemHeadRe = regexp.MustCompile(`(?m)^\s*(?:Q(?:uestion)?\s*)?(\d{1,3})\s*[\.\)\:-]\s*`)

// SplitNumberedItems splits recognized sheet text into per-item answers by
// their leading item numbers, preserving sheet order.
func SplitNumberedItems(text string) []types.TranscribedItem {
	locs := itemHeadRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	items := make([]types.TranscribedItem, 0, len(locs))
	for i, loc := range locs {
		numStr := text[loc[2]:loc[3]]
		num, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		start := loc[1]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(text[start:end])
		items = append(items, types.TranscribedItem{Number: num, Text: body})
	}
	return items
}
