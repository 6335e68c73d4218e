package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"whatsapp-relay/internal/dispatch"
	"whatsapp-relay/internal/errs"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Dispatcher is implemented by *dispatch.Engine.
type Dispatcher interface {
	SendSingle(ctx context.Context, req dispatch.SingleRequest) (*dispatch.BatchResult, error)
	SendBulkFromTemplate(ctx context.Context, templateID int64, recipients []dispatch.BulkRecipient) (*dispatch.BatchResult, error)
	Demo(ctx context.Context, phone string) (*dispatch.BatchResult, error)
	LastStats() dispatch.Stats
}

type BroadcastHandler struct {
	Dispatcher Dispatcher
	UploadDir  string
	log        zerolog.Logger

	// saveFile copies an upload to dst; swapped in tests.
	saveFile func(src *multipart.FileHeader, dst string) error
}

func NewBroadcastHandler(d Dispatcher, uploadDir string, log zerolog.Logger) *BroadcastHandler {
	return &BroadcastHandler{Dispatcher: d, UploadDir: uploadDir, log: log}
}

type sendMessageForm struct {
	Phone             string `form:"phone"`
	Message           string `form:"message"`
	TemplateID        string `form:"templateId"`
	TemplateVariables string `form:"templateVariables"`
}

// SendMessage sends one message, literal or template based, to a comma
// separated recipient list with an optional attachment.
func (h *BroadcastHandler) SendMessage(c *gin.Context) {
	var form sendMessageForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := dispatch.SingleRequest{Phone: form.Phone, Message: form.Message}
	if strings.TrimSpace(form.TemplateID) != "" {
		id, err := parseID(form.TemplateID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.TemplateID = &id
	}
	if form.TemplateVariables != "" {
		if err := json.Unmarshal([]byte(form.TemplateVariables), &req.Variables); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "templateVariables must be a JSON object of strings"})
			return
		}
	}

	// The engine owns the saved file from here and removes it on every path.
	attachment, err := h.saveAttachment(c)
	if err != nil {
		respondError(c, err)
		return
	}
	req.Attachment = attachment

	result, err := h.Dispatcher.SendSingle(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": result.Results, "stats": result.Stats})
}

// saveAttachment stores the optional "attachment" file under UploadDir with a
// unique prefix. It returns nil when no file was sent.
func (h *BroadcastHandler) saveAttachment(c *gin.Context) (*dispatch.Attachment, error) {
	header, err := c.FormFile("attachment")
	save := h.saveFile
	if save == nil {
		save = func(src *multipart.FileHeader, dst string) error {
			return c.SaveUploadedFile(src, dst)
		}
	}
	return h.storeAttachment(header, err, save)
}

// storeAttachment takes the result of the form file lookup. A missing file,
// or a body that is not multipart at all, means no attachment.
func (h *BroadcastHandler) storeAttachment(header *multipart.FileHeader, lookupErr error, save func(*multipart.FileHeader, string) error) (*dispatch.Attachment, error) {
	if errors.Is(lookupErr, http.ErrMissingFile) || errors.Is(lookupErr, http.ErrNotMultipart) {
		return nil, nil
	}
	if lookupErr != nil {
		return nil, fmt.Errorf("%w: read attachment: %v", errs.ErrInternal, lookupErr)
	}

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create upload dir: %v", errs.ErrInternal, err)
	}
	name := filepath.Base(header.Filename)
	dst := filepath.Join(h.UploadDir, uuid.NewString()+"-"+name)
	if err := save(header, dst); err != nil {
		if rmErr := os.Remove(dst); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			h.log.Error().Err(rmErr).Str("path", dst).Msg("failed to remove partial attachment")
		}
		return nil, fmt.Errorf("%w: save attachment: %v", errs.ErrInternal, err)
	}
	h.log.Debug().Str("path", dst).Int64("size", header.Size).Msg("attachment stored")
	return &dispatch.Attachment{Path: dst, FileName: name}, nil
}

type bulkTemplateRequest struct {
	TemplateID flexID                   `json:"templateId" binding:"required"`
	Recipients []dispatch.BulkRecipient `json:"recipients"`
}

// SendBulkTemplate renders the template separately for every recipient.
func (h *BroadcastHandler) SendBulkTemplate(c *gin.Context) {
	var req bulkTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Dispatcher.SendBulkFromTemplate(c.Request.Context(), int64(req.TemplateID), req.Recipients)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": result.Results, "stats": result.Stats})
}

type demoRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// DemoMessage simulates a send so the UI can be exercised without a session.
func (h *BroadcastHandler) DemoMessage(c *gin.Context) {
	var req demoRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Dispatcher.Demo(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": result.Results,
		"stats":   result.Stats,
		"message": "Demo mode: Message simulated (WhatsApp not available)",
	})
}
