package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/theirongolddev/rab/internal/budget"
	"github.com/theirongolddev/rab/internal/export"
	"github.com/theirongolddev/rab/internal/ingest"
	"github.com/theirongolddev/rab/internal/model"
)

// itemRequest is the manual entry payload, as JSON or form fields.
type itemRequest struct {
	Description       flexString `json:"uraian" form:"uraian" binding:"required"`
	Volume            flexString `json:"volume" form:"volume" binding:"required"`
	Unit              flexString `json:"satuan" form:"satuan" binding:"required"`
	LaborUnitPrice    flexString `json:"hargaUpah" form:"hargaUpah"`
	MaterialUnitPrice flexString `json:"hargaBahan" form:"hargaBahan"`
}

func (r itemRequest) entry() model.Entry {
	return model.Entry{
		Description:       string(r.Description),
		Volume:            string(r.Volume),
		Unit:              string(r.Unit),
		LaborUnitPrice:    string(r.LaborUnitPrice),
		MaterialUnitPrice: string(r.MaterialUnitPrice),
	}
}

// itemView is a line item with its derived amounts.
type itemView struct {
	model.LineItem
	LaborAmount    float64 `json:"jumlahUpah"`
	MaterialAmount float64 `json:"jumlahBahan"`
	Total          float64 `json:"jumlahHarga"`
}

func viewOf(li model.LineItem) itemView {
	return itemView{
		LineItem:       li,
		LaborAmount:    li.LaborAmount(),
		MaterialAmount: li.MaterialAmount(),
		Total:          li.RowTotal(),
	}
}

func viewsOf(items []model.LineItem) []itemView {
	out := make([]itemView, len(items))
	for i, li := range items {
		out[i] = viewOf(li)
	}
	return out
}

// bindEntry decodes the request body. A body that decodes but lacks
// required fields is a validation error.
func bindEntry(c *gin.Context) (model.Entry, error) {
	var req itemRequest
	if err := c.ShouldBind(&req); err != nil {
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		if errors.As(err, &syn) || errors.As(err, &typ) {
			return model.Entry{}, err
		}
		return model.Entry{}, fmt.Errorf("%w: %v", model.ErrMissingField, err)
	}
	return req.entry(), nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok\n")
}

func (s *Server) handleListItems(c *gin.Context) {
	respondJSON(c, http.StatusOK, "ok", viewsOf(s.svc.Items()))
}

func (s *Server) handleAddItem(c *gin.Context) {
	e, err := bindEntry(c)
	if err != nil && !errors.Is(err, model.ErrMissingField) {
		_ = c.Error(err)
		respondJSON(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := s.svc.AddEntry(e)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, "item added", viewOf(item))
}

func (s *Server) handleDeleteItem(c *gin.Context) {
	s.svc.Remove(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) handleUpload(c *gin.Context) {
	name, data, err := readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	out := s.svc.Upload(c.Request.Context(), name, data)
	if !out.OK() {
		respondError(c, out.Err)
		return
	}
	respondJSON(c, http.StatusOK, fmt.Sprintf("%d items extracted", len(out.Items)), viewsOf(out.Items))
}

// readUpload reads the multipart "file" field.
func readUpload(c *gin.Context) (string, []byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("%w: no file in form field \"file\"", ingest.ErrUnreadable)
	}
	if fh.Size > ingest.MaxUploadSize {
		return "", nil, ingest.ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ingest.ErrUnreadable, err)
	}
	defer f.Close()

	data, err := ingest.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return fh.Filename, data, nil
}

func (s *Server) handleSummary(c *gin.Context) {
	respondJSON(c, http.StatusOK, "ok", s.svc.Summary())
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Status())
}

func (s *Server) handleEvents(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Events())
}

func (s *Server) handleStream(c *gin.Context) {
	w := c.Writer
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch, unsubscribe := s.svc.Subscribe(16)
	defer unsubscribe()

	writeSSE(w, s.svc.CurrentEvent())
	w.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			w.Flush()
		}
	}
}

func writeSSE(w gin.ResponseWriter, ev budget.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Server) exportData() export.Data {
	return export.NewData(s.cfg.Title, s.svc.Summary(), time.Now())
}

func (s *Server) handleExportXLSX(c *gin.Context) {
	out, err := export.XLSX(s.exportData())
	if err != nil {
		_ = c.Error(err)
		respondJSON(c, http.StatusInternalServerError, "export failed", nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="rab.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out)
}

func (s *Server) handleExportPDF(c *gin.Context) {
	out, err := export.PDF(s.exportData())
	if err != nil {
		_ = c.Error(err)
		respondJSON(c, http.StatusInternalServerError, "export failed", nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="rab.pdf"`)
	c.Data(http.StatusOK, "application/pdf", out)
}
