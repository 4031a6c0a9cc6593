package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// VectorClient pushes documents into the vector memory store hosted by the
// AI service. All writes are best-effort from the caller's point of view:
// the SQL database stays the source of truth and the store can be rebuilt.
type VectorClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewVectorClient creates a new vector store client
func NewVectorClient(baseURL string, timeout time.Duration) *VectorClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &VectorClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// HealthCheck checks if the vector store is reachable
func (c *VectorClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status=%d", resp.StatusCode)
	}
	return nil
}

// IngestRequest is one document push
type IngestRequest struct {
	UserID   string                 `json:"user_id"`
	DocID    string                 `json:"doc_id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Ingest pushes a document into the store
func (c *VectorClient) Ingest(ctx context.Context, req *IngestRequest) error {
	c.logger.WithFields(logrus.Fields{
		"user_id":     req.UserID,
		"doc_id":      req.DocID,
		"text_length": len(req.Text),
	}).Info("Ingesting document")

	return c.post(ctx, "/ingest", req)
}

// IngestSyllabus replaces a course's syllabus chunks: the store deletes
// previous chunks for the course before adding the new ones.
func (c *VectorClient) IngestSyllabus(ctx context.Context, userID, courseID, courseName, syllabus string) error {
	payload := map[string]interface{}{
		"user_id":     userID,
		"course_id":   courseID,
		"course_name": courseName,
		"syllabus":    syllabus,
	}

	c.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"course_id": courseID,
	}).Info("Ingesting syllabus")

	return c.post(ctx, "/ingest/syllabus", payload)
}

// DeleteSyllabus removes a course's syllabus chunks from the store
func (c *VectorClient) DeleteSyllabus(ctx context.Context, userID, courseID string) error {
	endpoint := fmt.Sprintf("%s/ingest/syllabus/%s?user_id=%s",
		c.baseURL, url.PathEscape(courseID), url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, "DELETE", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vector store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vector store error: status=%d, body=%s", resp.StatusCode, string(body))
	}
	return nil
}

// DeleteDocument removes one document from the store. A missing document is
// not an error; the registry row is what matters.
func (c *VectorClient) DeleteDocument(ctx context.Context, userID, docID string) error {
	endpoint := fmt.Sprintf("%s/ingest/%s?user_id=%s",
		c.baseURL, url.PathEscape(docID), url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, "DELETE", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vector store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vector store error: status=%d, body=%s", resp.StatusCode, string(body))
	}
	return nil
}

// SyllabusStatus reports whether a course's syllabus is present in the store
type SyllabusStatus struct {
	Present    bool `json:"present"`
	ChunkCount int  `json:"chunk_count"`
}

// VerifySyllabus checks whether a course's syllabus chunks are in the store
func (c *VectorClient) VerifySyllabus(ctx context.Context, userID, courseID string) (*SyllabusStatus, error) {
	endpoint := fmt.Sprintf("%s/verify-syllabus/%s?user_id=%s",
		c.baseURL, url.PathEscape(courseID), url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create verify request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vector store request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vector store error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var status SyllabusStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &status, nil
}

func (c *VectorClient) post(ctx context.Context, path string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vector store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vector store error: status=%d, body=%s", resp.StatusCode, string(body))
	}
	return nil
}
