package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/AnTengye/contractintel/model"
	"github.com/AnTengye/contractintel/pkg/logger"
	"github.com/AnTengye/contractintel/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ContractHandler struct {
	store       *service.ContractStore
	files       service.FileStore
	processor   *service.Processor
	supervisor  *service.Supervisor
	maxFileSize int64
}

func NewContractHandler(store *service.ContractStore, files service.FileStore, processor *service.Processor, supervisor *service.Supervisor, maxFileSize int64) *ContractHandler {
	return &ContractHandler{
		store:       store,
		files:       files,
		processor:   processor,
		supervisor:  supervisor,
		maxFileSize: maxFileSize,
	}
}

// Upload accepts a contract file, creates a pending record and schedules
// the processing pipeline. The caller polls the status endpoint afterwards.
func (h *ContractHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("File too large. Maximum size is %.1fMB", float64(h.maxFileSize)/1024/1024),
		})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}

	contractID := uuid.New().String()
	objectName := contractID + filepath.Ext(header.Filename)

	if err := h.files.Save(c.Request.Context(), objectName, file, header.Size, contentType); err != nil {
		logger.Error(c.Request.Context(), "failed to store upload", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	contract := &model.Contract{
		ContractID: contractID,
		Filename:   header.Filename,
		FilePath:   objectName,
		FileSize:   header.Size,
		MimeType:   contentType,
		Status:     model.StatusPending,
		Progress:   0,
	}
	if err := h.store.Create(c.Request.Context(), contract); err != nil {
		logger.Error(c.Request.Context(), "failed to create contract record", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contract record"})
		return
	}

	h.supervisor.Submit(contractID, objectName)

	logger.Info(c.Request.Context(), "contract uploaded and queued", "contract_id", contractID, "filename", header.Filename)

	c.JSON(http.StatusOK, model.UploadResponse{
		ContractID: contractID,
		Message:    "Contract uploaded successfully and queued for processing",
		Status:     model.StatusPending,
	})
}

// GetStatus returns the processing status of a contract.
func (h *ContractHandler) GetStatus(c *gin.Context) {
	contract, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, model.StatusOf(contract))
}

// Get returns the full contract record. Processing must have completed;
// asking earlier is a client error, not a missing resource.
func (h *ContractHandler) Get(c *gin.Context) {
	contract, ok := h.lookup(c)
	if !ok {
		return
	}

	if contract.Status != model.StatusCompleted {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Contract processing not complete. Current status: %s", contract.Status),
		})
		return
	}

	c.JSON(http.StatusOK, contract)
}

// List returns a paginated, reverse-chronological page of contracts with
// an optional status filter.
func (h *ContractHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page parameter"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter, must be 1-100"})
		return
	}

	statusFilter := model.Status(c.Query("status"))
	if statusFilter != "" && !statusFilter.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid status %q. Must be one of: pending, processing, completed, failed", statusFilter),
		})
		return
	}

	result, err := h.store.List(c.Request.Context(), page, limit, statusFilter)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list contracts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Download streams back the original stored bytes.
func (h *ContractHandler) Download(c *gin.Context) {
	contract, ok := h.lookup(c)
	if !ok {
		return
	}

	f, err := h.files.Open(c.Request.Context(), contract.FilePath)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract file not found"})
			return
		}
		logger.Error(c.Request.Context(), "failed to open stored file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", contract.Filename))
	c.Header("Content-Type", contract.MimeType)
	if _, err := io.Copy(c.Writer, f); err != nil {
		logger.Warn(c.Request.Context(), "download interrupted", "error", err)
	}
}

// SimpleParse is the synchronous variant: text extraction plus one
// lightweight structured call, no persisted record. The temporarily stored
// bytes are removed whether or not parsing succeeds.
func (h *ContractHandler) SimpleParse(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("File too large. Maximum size is %.1fMB", float64(h.maxFileSize)/1024/1024),
		})
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	fileID := uuid.New().String()
	tempName := "temp_" + fileID + filepath.Ext(header.Filename)

	if err := h.files.Save(c.Request.Context(), tempName, bytes.NewReader(content), int64(len(content)), header.Header.Get("Content-Type")); err != nil {
		logger.Error(c.Request.Context(), "failed to store temp file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer func() {
		if err := h.files.Remove(c.Request.Context(), tempName); err != nil {
			logger.Warn(c.Request.Context(), "failed to clean up temp file", "file", tempName, "error", err)
		}
	}()

	result, err := h.processor.SimpleParse(c.Request.Context(), content, fileID, header.Filename)
	if err != nil {
		logger.Error(c.Request.Context(), "simple parse failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Delete removes a contract record and its stored file. Management
// operation; the pipeline itself never deletes.
func (h *ContractHandler) Delete(c *gin.Context) {
	contract, ok := h.lookup(c)
	if !ok {
		return
	}

	if err := h.files.Remove(c.Request.Context(), contract.FilePath); err != nil {
		logger.Warn(c.Request.Context(), "failed to remove stored file", "error", err)
	}
	if err := h.store.Delete(c.Request.Context(), contract.ContractID); err != nil && !errors.Is(err, service.ErrNotFound) {
		logger.Error(c.Request.Context(), "failed to delete contract", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contract deleted"})
}

// lookup fetches the contract named in the path, writing the error
// response itself when the record cannot be returned.
func (h *ContractHandler) lookup(c *gin.Context) (*model.Contract, bool) {
	id := c.Param("id")

	contract, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return nil, false
		}
		logger.Error(c.Request.Context(), "failed to load contract", "contract_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return contract, true
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
