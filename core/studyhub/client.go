// Package studyhub is a thin client for the saved study material
// the server accumulates across sessions: quizzes and flashcard
// decks with their source session, plus course-file uploads that
// feed the teacher extra context.
package studyhub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	sessionsPath = "/learn/sessions"
	itemsPath    = "/learn/study-hub-items"
)

// ArtifactTypeQuiz and ArtifactTypeFlashcards name the two kinds of
// saved artifact a session accumulates.
const (
	ArtifactTypeQuiz       = "quiz"
	ArtifactTypeFlashcards = "flashcards"
)

// SessionSummary is one row of the stored-session listing.
type SessionSummary struct {
	SessionID        string  `json:"session_id"`
	LessonID         string  `json:"lesson_id"`
	CreatedAt        string  `json:"created_at"`
	Difficulty       string  `json:"difficulty"`
	Turns            int     `json:"turns"`
	Summary          string  `json:"summary"`
	UploadedFileName *string `json:"uploaded_file_name"`
}

// Item is one saved quiz or flashcard deck. Data holds the artifact
// body as the server stored it; the remaining fields locate it for
// display and deletion.
type Item struct {
	Data          map[string]json.RawMessage `json:"-"`
	SourceTitle   string                     `json:"source_title"`
	SessionID     string                     `json:"session_id"`
	OriginalIndex int                        `json:"original_index"`
}

func (i *Item) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	type plain Item
	if err := json.Unmarshal(data, (*plain)(i)); err != nil {
		return err
	}

	delete(fields, "source_title")
	delete(fields, "session_id")
	delete(fields, "original_index")
	i.Data = fields
	return nil
}

// Items is the aggregated study material across all stored sessions.
type Items struct {
	Quizzes    []Item `json:"quizzes"`
	Flashcards []Item `json:"flashcards"`
}

// UploadResult reports a stored course file.
type UploadResult struct {
	Success       bool   `json:"success"`
	FileName      string `json:"file_name"`
	ContentLength int    `json:"content_length"`
	Message       string `json:"message"`
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	authToken  string
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithAuthToken sends the given bearer token with every request. The
// token is opaque to the client.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}

	client := &Client{
		baseURL: parsed,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ListSessions returns summaries of every stored session.
func (c *Client) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	ctx, span := tracer.Start(ctx, "list stored sessions")
	defer span.End()

	var sessions []SessionSummary
	if err := c.getJSON(ctx, sessionsPath, &sessions); err != nil {
		err = fmt.Errorf("failed to list sessions: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return sessions, nil
}

// Items aggregates the saved quizzes and flashcard decks across all
// stored sessions, each tagged with the session it came from.
func (c *Client) Items(ctx context.Context) (Items, error) {
	ctx, span := tracer.Start(ctx, "list study material")
	defer span.End()

	var items Items
	if err := c.getJSON(ctx, itemsPath, &items); err != nil {
		err = fmt.Errorf("failed to list study material: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Items{}, err
	}

	span.SetAttributes(
		attribute.Int("studyhub.quizzes", len(items.Quizzes)),
		attribute.Int("studyhub.flashcards", len(items.Flashcards)),
	)
	return items, nil
}

// DeleteArtifact removes one saved quiz or flashcard deck from a
// stored session. artifactType is ArtifactTypeQuiz or
// ArtifactTypeFlashcards; index is the artifact's position within
// the session, as reported by Items.
func (c *Client) DeleteArtifact(ctx context.Context, sessionID, artifactType string, index int) error {
	ctx, span := tracer.Start(ctx, "delete study artifact")
	defer span.End()

	endpoint := c.resolve(sessionsPath + "/" + sessionID + "/artifacts")
	query := endpoint.Query()
	query.Set("type", artifactType)
	query.Set("index", strconv.Itoa(index))
	endpoint.RawQuery = query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build artifact delete request: %w", err)
	}

	if err := c.do(request, nil); err != nil {
		err = fmt.Errorf("failed to delete artifact: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// DeleteSession removes a stored session and everything saved under
// it.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	ctx, span := tracer.Start(ctx, "delete stored session")
	defer span.End()

	request, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.resolve(sessionsPath+"/"+sessionID).String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build session delete request: %w", err)
	}

	if err := c.do(request, nil); err != nil {
		err = fmt.Errorf("failed to delete session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// RenameSession sets a stored session's display title.
func (c *Client) RenameSession(ctx context.Context, sessionID, title string) error {
	ctx, span := tracer.Start(ctx, "rename stored session")
	defer span.End()

	body, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return fmt.Errorf("failed to encode rename request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.resolve(sessionsPath+"/"+sessionID).String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build rename request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	if err := c.do(request, nil); err != nil {
		err = fmt.Errorf("failed to rename session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// UploadCourseFile attaches a course document to a live session. The
// server extracts its text and grounds subsequent teaching in it.
func (c *Client) UploadCourseFile(ctx context.Context, sessionID, filename string, content io.Reader) (UploadResult, error) {
	ctx, span := tracer.Start(ctx, "upload course file")
	defer span.End()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to build upload body: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return UploadResult{}, fmt.Errorf("failed to read course file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("failed to finish upload body: %w", err)
	}

	endpoint := c.resolve("/learn/session/" + sessionID + "/upload-course")
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), &body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to build upload request: %w", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())

	var result UploadResult
	if err := c.do(request, &result); err != nil {
		err = fmt.Errorf("failed to upload course file: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return UploadResult{}, err
	}

	logger.Info("Course file uploaded", "file", result.FileName, "content_length", result.ContentLength)
	return result, nil
}

func (c *Client) resolve(path string) *url.URL {
	return c.baseURL.ResolveReference(&url.URL{Path: path})
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path).String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(request, out)
}

func (c *Client) do(request *http.Request, out any) error {
	if c.authToken != "" {
		request.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		return fmt.Errorf("unexpected status %d: %s", response.StatusCode, string(payload))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
