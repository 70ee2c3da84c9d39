package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/samvad-hq/samvad-comment-ingestor/pkg/httpclient"
)

// stubResponse implements httpclient.Response.
type stubResponse struct {
	body       []byte
	statusCode int
}

func (s stubResponse) Body() []byte    { return s.body }
func (s stubResponse) StatusCode() int { return s.statusCode }

// stubClient records the last POST and returns a scripted response.
type stubClient struct {
	lastURL  string
	lastBody any
	resp     httpclient.Response
	err      error
}

func (s *stubClient) Get(context.Context, string, map[string]string) (httpclient.Response, error) {
	return nil, errors.New("unexpected GET")
}

func (s *stubClient) Post(_ context.Context, url string, _ map[string]string, body any) (httpclient.Response, error) {
	s.lastURL = url
	s.lastBody = body
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func TestLoginStoresToken(t *testing.T) {
	client := &stubClient{resp: stubResponse{body: []byte(`{"token":"tok-1"}`), statusCode: 200}}
	mgr := NewManager(client, "https://upstream.example/api/login", "user", "pass")

	if _, ok := mgr.Current(); ok {
		t.Fatalf("expected no token before login")
	}

	if err := mgr.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}

	token, ok := mgr.Current()
	if !ok || token != "tok-1" {
		t.Fatalf("Current() = %q, %v", token, ok)
	}
	if client.lastURL != "https://upstream.example/api/login" {
		t.Fatalf("login hit %q", client.lastURL)
	}
	req, isReq := client.lastBody.(loginRequest)
	if !isReq || req.Username != "user" || req.Password != "pass" {
		t.Fatalf("unexpected login body %#v", client.lastBody)
	}
}

func TestLoginFailsOnNonOKStatus(t *testing.T) {
	client := &stubClient{resp: stubResponse{body: []byte(`denied`), statusCode: 403}}
	mgr := NewManager(client, "https://upstream.example/api/login", "user", "pass")

	if err := mgr.Login(context.Background()); err == nil {
		t.Fatalf("expected error on status 403")
	}
	if _, ok := mgr.Current(); ok {
		t.Fatalf("failed login must not store a token")
	}
}

func TestLoginFailsOnTransportError(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}
	mgr := NewManager(client, "https://upstream.example/api/login", "user", "pass")

	if err := mgr.Login(context.Background()); err == nil {
		t.Fatalf("expected transport error to surface")
	}
}

func TestLoginFailsOnMissingToken(t *testing.T) {
	client := &stubClient{resp: stubResponse{body: []byte(`{"token":""}`), statusCode: 200}}
	mgr := NewManager(client, "https://upstream.example/api/login", "user", "pass")

	if err := mgr.Login(context.Background()); err == nil {
		t.Fatalf("expected error when response has no token")
	}
}

func TestInvalidateClearsToken(t *testing.T) {
	client := &stubClient{resp: stubResponse{body: []byte(`{"token":"tok-2"}`), statusCode: 200}}
	mgr := NewManager(client, "https://upstream.example/api/login", "user", "pass")

	if err := mgr.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	mgr.Invalidate()
	if _, ok := mgr.Current(); ok {
		t.Fatalf("expected token cleared after Invalidate")
	}
}
