package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"classcapture-api/models"
	"classcapture-api/utils"
)

// Client talks to the external analysis backend that turns an uploaded
// image of notes into a summary and quiz.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the given backend base URL. A nil
// httpClient falls back to http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// FallbackResult is the canned analysis substituted when the backend call
// fails, so the rest of the pipeline always has something to work with.
func FallbackResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Summary: "This is a clean, structured summary.\n• Core concepts identified.\n• Readability optimized.",
		Quiz: []models.QuizQuestion{
			{
				Question: "Sample Question?",
				Options:  []string{"A", "B"},
				Answer:   "A",
			},
		},
	}
}

// Analyze uploads one file and returns the parsed analysis. It never fails:
// any network, HTTP, or decode error is logged and replaced with the
// fallback payload, and the second return value reports that substitution.
func (c *Client) Analyze(ctx context.Context, fileName string, file io.Reader) (*models.AnalysisResult, bool) {
	utils.LogAnalyzer("Forwarding %s to %s", fileName, c.baseURL)
	result, err := c.analyze(ctx, fileName, file)
	if err != nil {
		utils.LogAnalyzer("Analysis request failed, substituting fallback: %v", err)
		return FallbackResult(), true
	}
	utils.LogAnalyzer("Analysis complete for %s: %d quiz questions", fileName, len(result.Quiz))
	return result, false
}

func (c *Client) analyze(ctx context.Context, fileName string, file io.Reader) (*models.AnalysisResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart payload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyzer returned status %d", resp.StatusCode)
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode analyzer response: %w", err)
	}

	return &result, nil
}
