package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/AnTengye/contractintel/config"
)

// TextExtractor turns document bytes into plain text. Implementations are
// expected to bound their own call duration.
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte) (string, error)
}

// OCRService extracts text through the OCR.space API.
type OCRService struct {
	config     *config.OCRConfig
	httpClient *http.Client
}

// ocrResponse is the OCR.space parse envelope.
type ocrResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool     `json:"IsErroredOnProcessing"`
	ErrorMessage          []string `json:"ErrorMessage,omitempty"`
}

func NewOCRService(cfg *config.OCRConfig) *OCRService {
	return &OCRService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // OCR can be slow
		},
	}
}

// ExtractText sends the document to OCR.space and returns the combined text
// of all pages. An empty result is an error.
func (s *OCRService) ExtractText(ctx context.Context, content []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"apikey":            s.config.APIKey,
		"language":          s.config.Language,
		"filetype":          "PDF",
		"isOverlayRequired": "false",
		"detectOrientation": "true",
		"scale":             "true",
		"isTable":           "true", // better for contracts with tables
		"OCREngine":         "2",    // engine 2 for better accuracy
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return "", fmt.Errorf("failed to build request: %w", err)
		}
	}

	part, err := writer.CreateFormFile("file", "contract.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIURL, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OCR API returned status %d", resp.StatusCode)
	}

	var result ocrResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if result.IsErroredOnProcessing {
		msg := "unknown OCR error"
		if len(result.ErrorMessage) > 0 {
			msg = strings.Join(result.ErrorMessage, "; ")
		}
		return "", fmt.Errorf("OCR processing error: %s", msg)
	}

	var text strings.Builder
	for _, page := range result.ParsedResults {
		text.WriteString(page.ParsedText)
		text.WriteString("\n")
	}

	extracted := strings.TrimSpace(text.String())
	if extracted == "" {
		return "", fmt.Errorf("OCR returned no text")
	}
	return extracted, nil
}
