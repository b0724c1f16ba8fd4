package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	later2pdf "github.com/alnah/go-later2pdf"
	"github.com/alnah/go-later2pdf/internal/article"
	"github.com/alnah/go-later2pdf/internal/metrics"
	"github.com/alnah/go-later2pdf/internal/source"
)

// pageTypeIndex asks for the capped index view of a listing.
const pageTypeIndex = "index"

// keepAlive is the SSE comment interval that keeps idle proxies open.
const keepAlive = 15 * time.Second

// HeaderRequestID echoes the progress key of a conversion.
const HeaderRequestID = "X-Request-ID"

type listRequest struct {
	APIKey   string `json:"api_key"`
	Tag      string `json:"tag"`
	Sort     string `json:"sort"`
	PageType string `json:"page_type"`
}

type listResponse struct {
	Articles []article.Summary `json:"articles"`
}

type convertRequest struct {
	APIKey          string   `json:"api_key"`
	ArticleIDs      []string `json:"article_ids"`
	Format          string   `json:"format"`
	TwoColumnLayout bool     `json:"two_column_layout"`
	Archive         bool     `json:"archive"`
	RequestID       string   `json:"request_id"`
}

func (s *Server) handleList(c echo.Context) error {
	var req listRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	creds := source.Credentials{APIKey: req.APIKey}
	if err := creds.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	summaries, err := s.lister.List(c.Request().Context(), creds, source.Query{
		Tag:  strings.TrimSpace(req.Tag),
		Sort: source.ParseSort(req.Sort),
	})
	if err != nil {
		s.logger.Error("listing articles", "error", err)
		return c.JSON(later2pdf.StatusCode(err), errorResponse{Error: err.Error()})
	}

	if req.PageType == pageTypeIndex && len(summaries) > s.cfg.MaxIndex {
		summaries = summaries[:s.cfg.MaxIndex]
	}
	if summaries == nil {
		summaries = []article.Summary{}
	}
	return c.JSON(http.StatusOK, listResponse{Articles: summaries})
}

func (s *Server) handleConvert(c echo.Context) error {
	var req convertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	format, err := later2pdf.ParseFormat(req.Format)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	requestID := strings.TrimSpace(req.RequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Response().Header().Set(HeaderRequestID, requestID)

	start := time.Now()
	res, err := s.conv.Convert(c.Request().Context(), later2pdf.Request{
		Credentials: source.Credentials{APIKey: req.APIKey},
		IDs:         req.ArticleIDs,
		Format:      format,
		Layout:      later2pdf.LayoutFor(req.TwoColumnLayout),
		Archive:     req.Archive,
		Progress:    s.hub.Reporter(requestID),
	})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordConversion(string(format), false, elapsed, 0)
		s.logger.Error("conversion failed", "request_id", requestID, "format", format, "error", err)
		return c.JSON(later2pdf.StatusCode(err), errorResponse{Error: err.Error()})
	}
	defer res.Cleanup()

	metrics.RecordConversion(string(format), true, elapsed, len(res.Articles))
	s.logger.Info("conversion complete",
		"request_id", requestID,
		"format", format,
		"articles", len(res.Articles),
		"filename", res.Filename)

	c.Response().Header().Set(echo.HeaderContentType, res.ContentType)
	return c.Attachment(res.Path, res.Filename)
}

// handleProgress streams events for one request id until the pipeline
// reports 100 or the client goes away.
func (s *Server) handleProgress(c echo.Context) error {
	id := c.Param("id")
	if strings.TrimSpace(id) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing request id")
	}

	ch, cancel := s.hub.Subscribe(id)
	defer cancel()
	metrics.ProgressSubscribers.Inc()
	defer metrics.ProgressSubscribers.Dec()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	ctx := c.Request().Context()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case e, ok := <-ch.Events():
			if !ok {
				return nil
			}
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return nil
			}
			w.Flush()
			if e.Progress >= 100 {
				return nil
			}
		}
	}
}
