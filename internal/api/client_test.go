package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kingrea/forumterm/internal/config"
	"github.com/kingrea/forumterm/internal/forum"
	"github.com/kingrea/forumterm/internal/votes"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]string
}

type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *recorder) add(req recordedRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

func (r *recorder) last(t *testing.T) recordedRequest {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		t.Fatalf("no requests recorded")
	}
	return r.requests[len(r.requests)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		rec.add(recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		if handler != nil {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	client := New(Settings{BaseURL: srv.URL + "/api/", Token: "tok", Timeout: time.Second, PageSize: 5})
	return client, rec
}

func TestDebatesRequestsCollectionPage(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"_id":"d1","topic":"Cities","publishedStatus":"published"}],"totalPages":4}`)
	})
	page, err := client.Debates(context.Background(), forum.CollectionMine, forum.Ref{Type: forum.TypeClub, ID: "c9"}, 2, 0)
	if err != nil {
		t.Fatalf("Debates: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "d1" {
		t.Fatalf("unexpected items: %+v", page.Items)
	}
	if page.Page != 2 || page.TotalPages != 4 {
		t.Fatalf("page = %d/%d, want 2/4", page.Page, page.TotalPages)
	}
	req := rec.last(t)
	if req.Path != "/api/debate/my-debates" {
		t.Fatalf("path = %s", req.Path)
	}
	if req.Auth != "Bearer tok" {
		t.Fatalf("auth header = %q", req.Auth)
	}
	for _, want := range []string{"entityId=c9", "entity=club", "page=2", "limit=5"} {
		if !strings.Contains(req.Query, want) {
			t.Fatalf("query %q missing %s", req.Query, want)
		}
	}
}

func TestErrorResponsesBecomeTypedErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"code":"TOKEN_EXPIRED","message":"session expired"}`)
	})
	_, err := client.Debates(context.Background(), forum.CollectionAll, forum.Ref{Type: forum.TypeNode, ID: "n1"}, 1, 10)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if apiErr.Code != "TOKEN_EXPIRED" || apiErr.Message != "session expired" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
	if !IsUnauthorized(err) {
		t.Fatalf("IsUnauthorized = false")
	}
}

func TestAdoptDebateSendsForumSpecificID(t *testing.T) {
	client, rec := newTestClient(t, nil)
	if err := client.AdoptDebate(context.Background(), "d1", forum.Ref{Type: forum.TypeNode, ID: "n2"}); err != nil {
		t.Fatalf("AdoptDebate: %v", err)
	}
	req := rec.last(t)
	if req.Method != http.MethodPost || req.Path != "/api/debate/adopt" {
		t.Fatalf("request = %s %s", req.Method, req.Path)
	}
	if req.Body["debateId"] != "d1" || req.Body["type"] != "node" || req.Body["nodeId"] != "n2" {
		t.Fatalf("body = %v", req.Body)
	}
	if _, ok := req.Body["clubId"]; ok {
		t.Fatalf("node adoption must not carry clubId")
	}
}

func TestReviewDebateRejectsBlankReasonWithoutRequest(t *testing.T) {
	client, rec := newTestClient(t, nil)
	err := client.ReviewDebate(context.Background(), "d1", forum.Review{Approve: false, Reason: " "})
	if !errors.Is(err, forum.ErrReasonRequired) {
		t.Fatalf("err = %v, want ErrReasonRequired", err)
	}
	if rec.count() != 0 {
		t.Fatalf("expected no request, got %d", rec.count())
	}
}

func TestHandleRequestBodies(t *testing.T) {
	client, rec := newTestClient(t, nil)
	ctx := context.Background()
	if err := client.HandleRequest(ctx, forum.Ref{Type: forum.TypeClub, ID: "c1"}, "r1", forum.RequestAccepted); err != nil {
		t.Fatalf("HandleRequest: %v", err)
	}
	req := rec.last(t)
	if req.Path != "/api/clubs/handle-request" || req.Body["clubId"] != "c1" || req.Body["requestId"] != "r1" || req.Body["status"] != "ACCEPTED" {
		t.Fatalf("club request = %+v", req)
	}
	if err := client.HandleRequest(ctx, forum.Ref{Type: forum.TypeNode, ID: "n1"}, "r2", forum.RequestRequested); err == nil {
		t.Fatalf("expected error for unresolved status")
	}
	if err := client.HandleRequest(ctx, forum.Ref{Type: forum.TypeChapter, ID: "ch"}, "r3", forum.RequestRejected); err == nil {
		t.Fatalf("expected error for chapter join requests")
	}
}

func TestLikeRuleTogglesEndpoint(t *testing.T) {
	client, rec := newTestClient(t, nil)
	ctx := context.Background()
	if err := client.LikeRule(ctx, "rule-1", votes.Up); err != nil {
		t.Fatal(err)
	}
	if got := rec.last(t); got.Path != "/api/rules-regulations/like-rules" || got.Body["rulesId"] != "rule-1" {
		t.Fatalf("like request = %+v", got)
	}
	if err := client.LikeRule(ctx, "rule-1", votes.None); err != nil {
		t.Fatal(err)
	}
	if got := rec.last(t); got.Path != "/api/rules-regulations/unlike-rules" {
		t.Fatalf("unlike path = %s", got.Path)
	}
	if err := client.LikeRule(ctx, "rule-1", votes.Down); err == nil {
		t.Fatalf("expected error for rule downvote")
	}
}

func TestPostCommentMultipart(t *testing.T) {
	var gotContent, gotEntity, gotFile string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		gotContent = r.FormValue("content")
		gotEntity = r.FormValue("entityId")
		if f, _, err := r.FormFile("file"); err == nil {
			data, _ := io.ReadAll(f)
			gotFile = string(data)
		}
		_, _ = io.WriteString(w, `{"_id":"cm1","content":"hello"}`)
	})
	comment, err := client.PostComment(context.Background(), CommentDraft{
		EntityID: "d1",
		Content:  "hello",
		FileName: "notes.txt",
		File:     strings.NewReader("attached"),
	})
	if err != nil {
		t.Fatalf("PostComment: %v", err)
	}
	if comment.ID != "cm1" {
		t.Fatalf("comment id = %s", comment.ID)
	}
	if gotContent != "hello" || gotEntity != "d1" || gotFile != "attached" {
		t.Fatalf("form = %q %q %q", gotContent, gotEntity, gotFile)
	}
}

func TestPendingRequestsFiltersResolved(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"_id":"r1","status":"REQUESTED"},{"_id":"r2","status":"ACCEPTED"},{"_id":"r3"}]`)
	})
	pending, err := client.PendingRequests(context.Background(), forum.Ref{Type: forum.TypeNode, ID: "n1"})
	if err != nil {
		t.Fatalf("PendingRequests: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "r1" || pending[1].ID != "r3" {
		t.Fatalf("pending = %+v", pending)
	}
	if pending[0].Forum.ID != "n1" {
		t.Fatalf("forum not stamped: %+v", pending[0].Forum)
	}
	if got := rec.last(t).Path; got != "/api/node/join-requests/n1" {
		t.Fatalf("path = %s", got)
	}
}

func TestSettingsFromConfigHonorsEnv(t *testing.T) {
	t.Setenv("FORUMTERM_API_URL", "https://override.example/api/")
	t.Setenv("FORUMTERM_TOKEN", "env-token")
	t.Setenv("FORUMTERM_TIMEOUT", "3s")
	cfg := &config.Config{Project: config.ProjectConfig{API: config.APIConfig{BaseURL: "http://ignored", Token: "cfg", PageSize: 20}}}
	settings := SettingsFromConfig(cfg)
	if settings.BaseURL != "https://override.example/api" {
		t.Fatalf("base url = %s", settings.BaseURL)
	}
	if settings.Token != "env-token" {
		t.Fatalf("token = %s", settings.Token)
	}
	if settings.Timeout != 3*time.Second {
		t.Fatalf("timeout = %s", settings.Timeout)
	}
	if settings.PageSize != 20 {
		t.Fatalf("page size = %d", settings.PageSize)
	}
}
