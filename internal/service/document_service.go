package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/signchain/signchain/internal/model"
	"github.com/signchain/signchain/internal/pdf"
	"github.com/signchain/signchain/internal/storage"
)

// MaxUploadSize bounds files accepted by Upload.
const MaxUploadSize = 10 << 20

type DocumentRenderer interface {
	Generate(text, title string) (*pdf.Rendered, error)
}

type DocumentService struct {
	renderer     DocumentRenderer
	uploader     storage.Uploader
	metrics      Recorder
	log          zerolog.Logger
	defaultTitle string
}

type RenderDocumentInput struct {
	Contract  string
	Title     string
	Principal model.Principal
}

type RenderDocumentResult struct {
	FileName string
	Title    string
	Content  []byte
	Pages    int
}

type PublishDocumentResult struct {
	FileName string
	Title    string
	Pages    int
	Object   model.StoredObject
}

type UploadFileInput struct {
	FileName  string
	Content   []byte
	Principal model.Principal
}

func NewDocumentService(renderer DocumentRenderer, uploader storage.Uploader, defaultTitle string, metrics Recorder, log zerolog.Logger) *DocumentService {
	if strings.TrimSpace(defaultTitle) == "" {
		defaultTitle = pdf.DefaultTitle
	}
	return &DocumentService{
		renderer:     renderer,
		uploader:     uploader,
		metrics:      recorderOrNoop(metrics),
		log:          log,
		defaultTitle: defaultTitle,
	}
}

func (s *DocumentService) Render(ctx context.Context, input RenderDocumentInput) (*RenderDocumentResult, error) {
	if input.Principal.IsZero() {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.Contract) == "" {
		return nil, fmt.Errorf("%w: contract text is required", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = s.defaultTitle
	}

	rendered, err := s.renderer.Generate(input.Contract, title)
	if err != nil {
		return nil, stageError(MessageRenderFailed, fmt.Errorf("render %q: %w", title, err))
	}
	s.metrics.RecordPages(rendered.Pages)

	return &RenderDocumentResult{
		FileName: pdf.FileName(title),
		Title:    title,
		Content:  rendered.Content,
		Pages:    rendered.Pages,
	}, nil
}

// Publish renders the contract and uploads the PDF in one step.
func (s *DocumentService) Publish(ctx context.Context, input RenderDocumentInput) (*PublishDocumentResult, error) {
	doc, err := s.Render(ctx, input)
	if err != nil {
		return nil, err
	}

	object, err := s.upload(ctx, doc.Content, doc.FileName, input.Principal)
	if err != nil {
		return nil, err
	}
	return &PublishDocumentResult{
		FileName: doc.FileName,
		Title:    doc.Title,
		Pages:    doc.Pages,
		Object:   object,
	}, nil
}

func (s *DocumentService) Upload(ctx context.Context, input UploadFileInput) (*model.StoredObject, error) {
	if input.Principal.IsZero() {
		return nil, ErrPermissionDenied
	}
	if len(input.Content) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if len(input.Content) > MaxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, MaxUploadSize)
	}

	fileName := path.Base(strings.ReplaceAll(strings.TrimSpace(input.FileName), "\\", "/"))
	if fileName == "." || fileName == "/" || fileName == "" {
		fileName = pdf.DefaultFileName
	}

	object, err := s.upload(ctx, input.Content, fileName, input.Principal)
	if err != nil {
		return nil, err
	}
	return &object, nil
}

func (s *DocumentService) upload(ctx context.Context, content []byte, fileName string, principal model.Principal) (model.StoredObject, error) {
	object, err := s.uploader.Upload(ctx, content, fileName)
	s.metrics.RecordUpload(err)
	if err != nil {
		return model.StoredObject{}, stageError(MessageUploadFailed, fmt.Errorf("%w: upload %s: %w", ErrUnavailable, fileName, err))
	}

	s.log.Info().
		Str("wallet", principal.Address).
		Str("file_name", fileName).
		Str("cid", object.CID).
		Int("size", len(content)).
		Msg("document uploaded")
	return object, nil
}
