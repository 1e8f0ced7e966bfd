package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SergeiKhy/tracking-links/internal/config"
	"github.com/SergeiKhy/tracking-links/internal/models"
	"github.com/SergeiKhy/tracking-links/internal/repository"
	"github.com/SergeiKhy/tracking-links/internal/storage"
)

const (
	defaultQRSize = 250
	minQRSize     = 100
	maxQRSize     = 1000
	qrFileLayout  = "2006-01-02_15-04-05"
	// колонка QR кода через одну после "Long Link"
	qrColumnOffset = 2
)

// QRService QR коды для длинных ссылок
type QRService interface {
	// GenerateURLs пишет URL картинки QR в колонку "QR Code URL"
	GenerateURLs(ctx context.Context) (*models.QRSummary, error)
	// Download скачивает картинки в хранилище
	Download(ctx context.Context) (*models.QRSummary, error)
}

type qrService struct {
	store   repository.SheetStore
	objects storage.ObjectStore
	http    *http.Client
	apiURL  string
	clock   Clock
	logger  *zap.Logger
}

func NewQRService(store repository.SheetStore, objects storage.ObjectStore, cfg config.QRConfig, clock Clock, logger *zap.Logger) QRService {
	return &qrService{
		store:   store,
		objects: objects,
		http:    &http.Client{Timeout: 30 * time.Second},
		apiURL:  cfg.APIURL,
		clock:   clock,
		logger:  logger,
	}
}

// qrRow строка с длинной ссылкой
type qrRow struct {
	index int
	name  string
	link  string
}

func (s *qrService) collect() ([]qrRow, int, int, error) {
	layout, err := loadLayout(s.store)
	if err != nil {
		return nil, 0, 0, err
	}
	longIdx := layout.Index(HeaderLongLink)
	if longIdx == -1 {
		return nil, 0, 0, ErrLongLinkColumnMissing
	}

	size, err := s.size()
	if err != nil {
		return nil, 0, 0, err
	}

	rows, err := loadDataRows(s.store)
	if err != nil {
		return nil, 0, 0, err
	}
	out := make([]qrRow, 0)
	for _, row := range rows {
		link := strings.TrimSpace(row.Value(longIdx))
		if link == "" {
			continue
		}
		out = append(out, qrRow{index: row.Index, name: row.TrackingLinkName(), link: link})
	}
	// 1-based колонка QR
	return out, longIdx + 1 + qrColumnOffset, size, nil
}

// size H5 в пределах [100, 1000], иначе 250
func (s *qrService) size() (int, error) {
	raw, err := s.store.GetCell(repository.SheetCreateLinks, cellQRSize)
	if err != nil {
		return 0, fmt.Errorf("failed to read QR size: %w", err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < minQRSize || v > maxQRSize {
		return defaultQRSize, nil
	}
	return int(v), nil
}

func (s *qrService) qrURL(link string, size int) string {
	return fmt.Sprintf("%s?size=%dx%d&data=%s", s.apiURL, size, size, url.QueryEscape(link))
}

func (s *qrService) GenerateURLs(ctx context.Context) (*models.QRSummary, error) {
	rows, qrCol, size, err := s.collect()
	if err != nil {
		return nil, err
	}

	summary := &models.QRSummary{Rows: len(rows)}
	for _, r := range rows {
		cell := repository.CellName(qrCol, r.index)
		if err := s.store.SetCell(repository.SheetCreateLinks, cell, s.qrURL(r.link, size)); err != nil {
			return summary, err
		}
		summary.Saved++
	}
	if err := s.store.Flush(); err != nil {
		return summary, err
	}

	s.logger.Info("QR URLs generated", zap.Int("rows", summary.Saved), zap.Int("size", size))
	return summary, nil
}

func (s *qrService) Download(ctx context.Context) (*models.QRSummary, error) {
	rows, qrCol, size, err := s.collect()
	if err != nil {
		return nil, err
	}

	summary := &models.QRSummary{Files: []string{}}
	for _, r := range rows {
		// имя файла берётся из колонки B
		if r.name == "" {
			continue
		}
		summary.Rows++

		fileName := fmt.Sprintf("%s_%s.png", r.name, s.clock.Now().Format(qrFileLayout))
		location, err := s.download(ctx, s.qrURL(r.link, size), fileName)
		if err != nil {
			summary.Failed++
			s.logger.Warn("Failed to download QR code", zap.Int("row", r.index), zap.Error(err))
			continue
		}

		cell := repository.CellName(qrCol, r.index)
		if err := s.store.SetCell(repository.SheetCreateLinks, cell, "Image Saved: "+fileName); err != nil {
			return summary, err
		}
		summary.Saved++
		summary.Files = append(summary.Files, location)
	}
	if err := s.store.Flush(); err != nil {
		return summary, err
	}

	s.logger.Info("QR codes downloaded", zap.Int("saved", summary.Saved), zap.Int("failed", summary.Failed))
	return summary, nil
}

func (s *qrService) download(ctx context.Context, qrURL, fileName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, qrURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("QR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("QR API responded %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read QR image: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return s.objects.Put(ctx, fileName, bytes.NewReader(data), contentType)
}
