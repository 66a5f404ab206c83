package studyhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestListSessionsDecodesSummaries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/learn/sessions" {
			t.Errorf("expected GET /learn/sessions, got %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer top-secret" {
			t.Errorf("expected the bearer token on the request, got %q", got)
		}
		w.Write([]byte(`[{"session_id":"sess-9","lesson_id":"algebra","turns":12,"summary":"Linear equations"}]`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, WithAuthToken("top-secret"))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	sessions, err := client.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected one stored session, got %d", len(sessions))
	}
	if sessions[0].SessionID != "sess-9" || sessions[0].Turns != 12 {
		t.Fatalf("expected the decoded summary, got %+v", sessions[0])
	}
}

func TestItemsSeparatesArtifactBodyFromLinkage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/learn/study-hub-items" {
			t.Errorf("expected /learn/study-hub-items, got %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"quizzes": [{
				"question": "What is 2+2?",
				"options": ["3", "4"],
				"source_title": "Arithmetic",
				"session_id": "sess-9",
				"original_index": 0
			}],
			"flashcards": []
		}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	items, err := client.Items(context.Background())
	if err != nil {
		t.Fatalf("failed to list study material: %v", err)
	}
	if len(items.Quizzes) != 1 || len(items.Flashcards) != 0 {
		t.Fatalf("expected one quiz and no flashcards, got %d and %d", len(items.Quizzes), len(items.Flashcards))
	}

	quiz := items.Quizzes[0]
	if quiz.SourceTitle != "Arithmetic" || quiz.SessionID != "sess-9" || quiz.OriginalIndex != 0 {
		t.Fatalf("expected the linkage fields decoded, got %+v", quiz)
	}
	if _, ok := quiz.Data["question"]; !ok {
		t.Fatalf("expected the artifact body kept in Data, got %v", quiz.Data)
	}
	for _, meta := range []string{"source_title", "session_id", "original_index"} {
		if _, ok := quiz.Data[meta]; ok {
			t.Fatalf("expected %q stripped from the artifact body", meta)
		}
	}
}

func TestDeleteArtifactSendsTypeAndIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/learn/sessions/sess-9/artifacts" {
			t.Errorf("expected DELETE on the artifacts path, got %s %s", r.Method, r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("type") != ArtifactTypeQuiz || query.Get("index") != "2" {
			t.Errorf("expected type=quiz and index=2, got %s", r.URL.RawQuery)
		}
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if err := client.DeleteArtifact(context.Background(), "sess-9", ArtifactTypeQuiz, 2); err != nil {
		t.Fatalf("failed to delete artifact: %v", err)
	}
}

func TestRenameSessionPatchesTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/learn/sessions/sess-9" {
			t.Errorf("expected PATCH on the session path, got %s %s", r.Method, r.URL.Path)
		}
		body := make([]byte, r.ContentLength)
		r.Body.Read(body)
		if !strings.Contains(string(body), `"title":"Fractions revisited"`) {
			t.Errorf("expected the new title in the body, got %s", body)
		}
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if err := client.RenameSession(context.Background(), "sess-9", "Fractions revisited"); err != nil {
		t.Fatalf("failed to rename session: %v", err)
	}
}

func TestUploadCourseFileSendsMultipartForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/learn/session/sess-9/upload-course" {
			t.Errorf("expected POST on the upload path, got %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("expected a multipart file field: %v", err)
			return
		}
		defer file.Close()
		if header.Filename != "notes.pdf" {
			t.Errorf("expected the original filename, got %q", header.Filename)
		}
		w.Write([]byte(`{"success":true,"file_name":"notes.pdf","content_length":11,"message":"File processed"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	result, err := client.UploadCourseFile(context.Background(), "sess-9", "notes.pdf", strings.NewReader("lesson text"))
	if err != nil {
		t.Fatalf("failed to upload course file: %v", err)
	}
	if !result.Success || result.FileName != "notes.pdf" {
		t.Fatalf("expected a confirmed upload, got %+v", result)
	}
}

func TestErrorStatusSurfacesServerBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Session not found"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if err := client.DeleteSession(context.Background(), "missing"); err == nil {
		t.Fatalf("expected the 404 surfaced as an error")
	} else if !strings.Contains(err.Error(), "Session not found") {
		t.Fatalf("expected the server detail in the error, got %v", err)
	}
}
