// Package client provides an HTTP client for the tenant-assessment REST API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/grhey0115/Tenant-Assessment/internal/applicant"
	"github.com/grhey0115/Tenant-Assessment/internal/assessment"
	"github.com/grhey0115/Tenant-Assessment/internal/email"
	"github.com/grhey0115/Tenant-Assessment/internal/note"
)

// Client is an HTTP client for the tenant-assessment API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusError is returned for 4xx and 5xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// StageCount is the number of applicants in one stage.
type StageCount struct {
	Stage string `json:"stage"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ListResponse is the response from GET /api/applicants.
type ListResponse struct {
	Applicants []*applicant.Applicant `json:"applicants"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	TotalPages int                    `json:"total_pages"`
	Counts     []StageCount           `json:"counts"`
}

// ShowResponse is the response from GET /api/applicants/{id}.
type ShowResponse struct {
	Applicant *applicant.Applicant `json:"applicant"`
	Notes     []*note.Note         `json:"notes"`
}

// ListOptions controls filtering for ListApplicants. Empty fields match all.
type ListOptions struct {
	Stage    string
	Property string
	Search   string
	Page     int
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Stage != "" {
		q.Set("stage", o.Stage)
	}
	if o.Property != "" {
		q.Set("property", o.Property)
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListApplicants returns the applicants matching opts.
func (c *Client) ListApplicants(opts ListOptions) (*ListResponse, error) {
	var resp ListResponse
	if err := c.get("/api/applicants"+opts.query(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetApplicant returns an applicant with its notes.
func (c *Client) GetApplicant(id int64) (*ShowResponse, error) {
	var resp ShowResponse
	if err := c.get(fmt.Sprintf("/api/applicants/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddApplicant creates an applicant. The server fills defaults.
func (c *Client) AddApplicant(a *applicant.Applicant) (*applicant.Applicant, error) {
	var created applicant.Applicant
	if err := c.post("/api/applicants", a, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Advance moves an applicant to the next stage. When from is set the
// server refuses the move unless the applicant is still in that stage.
func (c *Client) Advance(id int64, from string) (*applicant.Applicant, error) {
	body := map[string]string{}
	if from != "" {
		body["from"] = from
	}
	var updated applicant.Applicant
	if err := c.post(fmt.Sprintf("/api/applicants/%d/advance", id), body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// AddNote appends a note to an applicant.
func (c *Client) AddNote(id int64, text string) (*note.Note, error) {
	body := map[string]string{"text": text}
	var n note.Note
	if err := c.post(fmt.Sprintf("/api/applicants/%d/notes", id), body, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNotes returns the notes of an applicant, newest first.
func (c *Client) ListNotes(id int64) ([]*note.Note, error) {
	var notes []*note.Note
	if err := c.get(fmt.Sprintf("/api/applicants/%d/notes", id), &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// AssessmentList is the response from GET /api/assessments.
type AssessmentList struct {
	Assessments []*assessment.Assessment `json:"assessments"`
	Total       int                      `json:"total"`
	Page        int                      `json:"page"`
	TotalPages  int                      `json:"total_pages"`
}

// ListAssessments returns submitted assessments matching f.
func (c *Client) ListAssessments(f assessment.ReviewFilter, page int) (*AssessmentList, error) {
	q := url.Values{}
	for k, v := range map[string]string{
		"recommendation": f.Recommendation,
		"property":       f.Property,
		"agent":          f.Agent,
		"search":         f.Search,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	path := "/api/assessments"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp AssessmentList
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Analytics returns assessment counts by recommendation, property and agent.
func (c *Client) Analytics() (*assessment.Analytics, error) {
	var a assessment.Analytics
	if err := c.get("/api/analytics", &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// EmailResponse is the response from POST /api/send-email.
type EmailResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// SendConfirmation emails an assessment confirmation.
func (c *Client) SendConfirmation(req email.Confirmation) (*EmailResponse, error) {
	var resp EmailResponse
	if err := c.post("/api/send-email", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := "server error: " + http.StatusText(resp.StatusCode)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
