package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"breakfast-order-service/internal/catalog"
	"breakfast-order-service/internal/docstore"
	"breakfast-order-service/internal/roster"
)

// Uploader is the subset of the object store the archiver writes through.
type Uploader interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string, cacheControl string) (string, error)
}

var ErrArchiveDisabled = errors.New("report archive is not configured")

type Archived struct {
	DateKey string `json:"dateKey"`
	PDFURL  string `json:"pdfUrl"`
	XLSXURL string `json:"xlsxUrl"`
}

// Generator loads a date from the store and renders its reports. With an
// uploader it can also archive them.
type Generator struct {
	store    docstore.Store
	menu     *catalog.Menu
	rooms    *roster.Roster
	uploader Uploader
	pdf      PDFOptions
	now      func() time.Time
	logger   *zap.Logger
}

func NewGenerator(store docstore.Store, menu *catalog.Menu, rooms *roster.Roster, uploader Uploader, pdf PDFOptions, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		store:    store,
		menu:     menu,
		rooms:    rooms,
		uploader: uploader,
		pdf:      pdf,
		now:      time.Now,
		logger:   logger,
	}
}

func (g *Generator) Build(ctx context.Context, dateKey string) (Report, error) {
	records, err := g.store.LoadOrders(ctx, dateKey)
	if err != nil {
		return Report{}, err
	}
	return Build(g.menu, g.rooms, dateKey, records, g.now()), nil
}

func (g *Generator) PDF(ctx context.Context, dateKey string) ([]byte, error) {
	rep, err := g.Build(ctx, dateKey)
	if err != nil {
		return nil, err
	}
	return PDF(rep, g.pdf)
}

func (g *Generator) XLSX(ctx context.Context, dateKey string) ([]byte, error) {
	rep, err := g.Build(ctx, dateKey)
	if err != nil {
		return nil, err
	}
	return XLSX(rep)
}

func (g *Generator) CanArchive() bool {
	return g.uploader != nil
}

// ArchiveReports renders both files from one snapshot and uploads them.
func (g *Generator) ArchiveReports(ctx context.Context, dateKey string) (Archived, error) {
	if g.uploader == nil {
		return Archived{}, ErrArchiveDisabled
	}
	rep, err := g.Build(ctx, dateKey)
	if err != nil {
		return Archived{}, err
	}
	pdfBody, err := PDF(rep, g.pdf)
	if err != nil {
		return Archived{}, err
	}
	xlsxBody, err := XLSX(rep)
	if err != nil {
		return Archived{}, err
	}

	out := Archived{DateKey: dateKey}
	out.PDFURL, err = g.uploader.PutObject(ctx, ObjectKey(dateKey, "pdf"), pdfBody, PDFContentType, "no-cache")
	if err != nil {
		return Archived{}, fmt.Errorf("upload pdf: %w", err)
	}
	out.XLSXURL, err = g.uploader.PutObject(ctx, ObjectKey(dateKey, "xlsx"), xlsxBody, XLSXContentType, "no-cache")
	if err != nil {
		return Archived{}, fmt.Errorf("upload xlsx: %w", err)
	}
	g.logger.Info("report archived",
		zap.String("dateKey", dateKey),
		zap.String("pdf", out.PDFURL),
		zap.String("xlsx", out.XLSXURL),
	)
	return out, nil
}

// Archive satisfies the queue worker's archiver.
func (g *Generator) Archive(ctx context.Context, dateKey string) error {
	_, err := g.ArchiveReports(ctx, dateKey)
	return err
}
