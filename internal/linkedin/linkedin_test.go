package linkedin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/oauth2"

	"linketron/internal/credentials"
)

func TestParseCode(t *testing.T) {
	cases := []struct {
		in, state, want string
		err             error
	}{
		{in: "  AQUabc  ", want: "AQUabc"},
		{in: "https://www.google.com/?code=AQU1&state=s1", state: "s1", want: "AQU1"},
		{in: "https://www.google.com/?code=AQU1", state: "s1", want: "AQU1"},
		{in: "https://www.google.com/?code=AQU1&state=other", state: "s1", err: ErrStateMismatch},
		{in: "https://www.google.com/", err: ErrNoCode},
		{in: "hello there", err: ErrNoCode},
		{in: "", err: ErrNoCode},
	}
	for _, tc := range cases {
		got, err := ParseCode(tc.in, tc.state)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q: want %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %q, %v", tc.in, got, err)
		}
	}
	if _, err := ParseCode("https://x/?error=user_cancelled_login&error_description=The+user+cancelled", ""); err == nil || !strings.Contains(err.Error(), "The user cancelled") {
		t.Fatalf("error answer: %v", err)
	}
}

func TestOAuthExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v2/accessToken", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "AQU1" || r.Form.Get("grant_type") != "authorization_code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":5183999}`))
	})
	mux.HandleFunc("/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"sub":"member-42","name":"A"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	o := NewOAuth("id", "secret", "https://www.google.com", srv.URL, srv.Client()).WithEndpoint(oauth2.Endpoint{
		AuthURL:   srv.URL + "/oauth/v2/authorization",
		TokenURL:  srv.URL + "/oauth/v2/accessToken",
		AuthStyle: oauth2.AuthStyleInParams,
	})

	u := o.AuthURL("st")
	for _, want := range []string{"client_id=id", "state=st", "w_member_social", "response_type=code"} {
		if !strings.Contains(u, want) {
			t.Fatalf("auth url %s missing %s", u, want)
		}
	}

	rec, err := o.Exchange(context.Background(), "https://www.google.com/?code=AQU1&state=st", "st")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if rec.AccessToken != "tok-1" || rec.UserURN != "member-42" {
		t.Fatalf("record: %+v", rec)
	}

	if _, err := o.Exchange(context.Background(), "BADCODE", ""); err == nil {
		t.Fatalf("expected error for rejected code")
	}
}

type recordedRequest struct {
	Method, Path, Auth, Restli, ContentType string
	Body                                     []byte
}

func fakeLinkedIn(t *testing.T, postStatus int) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recordedRequest
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{
			Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization"),
			Restli: r.Header.Get("X-Restli-Protocol-Version"), ContentType: r.Header.Get("Content-Type"), Body: body,
		})
		mu.Unlock()
		switch {
		case r.URL.Path == "/v2/assets" && r.URL.Query().Get("action") == "registerUpload":
			resp := map[string]any{"value": map[string]any{
				"asset": "urn:li:digitalmediaAsset:A1",
				"uploadMechanism": map[string]any{
					uploadMechanism: map[string]any{"uploadUrl": srv.URL + "/upload/A1"},
				},
			}}
			_ = json.NewEncoder(w).Encode(resp)
		case r.URL.Path == "/upload/A1":
			w.WriteHeader(http.StatusCreated)
		case r.URL.Path == "/v2/ugcPosts":
			w.WriteHeader(postStatus)
			if postStatus == http.StatusCreated {
				_, _ = w.Write([]byte(`{"id":"urn:li:share:99"}`))
			} else {
				_, _ = w.Write([]byte(`{"message":"Duplicate post"}`))
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

var rec = credentials.Record{AccessToken: "tok", UserURN: "abc"}

func TestPublish_TextOnly(t *testing.T) {
	srv, reqs := fakeLinkedIn(t, http.StatusCreated)
	id, err := NewPublisher(srv.URL, srv.Client(), nil).Publish(context.Background(), rec, "hello", "")
	if err != nil || id != "urn:li:share:99" {
		t.Fatalf("publish: %q %v", id, err)
	}
	if len(*reqs) != 1 {
		t.Fatalf("want 1 request, got %d", len(*reqs))
	}
	r := (*reqs)[0]
	if r.Auth != "Bearer tok" || r.Restli != "2.0.0" {
		t.Fatalf("headers: %+v", r)
	}
	var payload map[string]any
	_ = json.Unmarshal(r.Body, &payload)
	if payload["author"] != "urn:li:person:abc" {
		t.Fatalf("author: %v", payload["author"])
	}
	share := payload["specificContent"].(map[string]any)["com.linkedin.ugc.ShareContent"].(map[string]any)
	if share["shareMediaCategory"] != "NONE" || share["shareCommentary"].(map[string]any)["text"] != "hello" {
		t.Fatalf("share: %+v", share)
	}
}

func TestPublish_WithImage(t *testing.T) {
	srv, reqs := fakeLinkedIn(t, http.StatusCreated)
	img := filepath.Join(t.TempDir(), "ai.png")
	_ = os.WriteFile(img, []byte("PNG"), 0o644)

	if _, err := NewPublisher(srv.URL, srv.Client(), nil).Publish(context.Background(), rec, "hello", img); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(*reqs) != 3 {
		t.Fatalf("want 3 requests, got %d", len(*reqs))
	}
	upload := (*reqs)[1]
	if upload.Method != http.MethodPut || string(upload.Body) != "PNG" || upload.Auth != "Bearer tok" {
		t.Fatalf("upload: %+v", upload)
	}
	if upload.ContentType != "" || upload.Restli != "" {
		t.Fatalf("upload should carry only the bearer header: %+v", upload)
	}
	var payload map[string]any
	_ = json.Unmarshal((*reqs)[2].Body, &payload)
	share := payload["specificContent"].(map[string]any)["com.linkedin.ugc.ShareContent"].(map[string]any)
	media := share["media"].([]any)[0].(map[string]any)
	if share["shareMediaCategory"] != "IMAGE" || media["media"] != "urn:li:digitalmediaAsset:A1" || media["status"] != "READY" {
		t.Fatalf("media entry: %+v", share)
	}
}

func TestPublish_APIError(t *testing.T) {
	srv, _ := fakeLinkedIn(t, http.StatusUnprocessableEntity)
	_, err := NewPublisher(srv.URL, srv.Client(), nil).Publish(context.Background(), rec, "hello", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnprocessableEntity || !strings.Contains(apiErr.Body, "Duplicate post") {
		t.Fatalf("err = %v", err)
	}
}

func TestPublish_MissingCredentials(t *testing.T) {
	_, err := NewPublisher("", nil, nil).Publish(context.Background(), credentials.Record{AccessToken: "x"}, "hello", "")
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err = %v", err)
	}
}
