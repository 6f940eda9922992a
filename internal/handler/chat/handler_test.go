package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	chatmodel "github.com/talktotj/chat/backend/internal/model/chat"
	"github.com/talktotj/chat/backend/internal/model/persona"
	aiservice "github.com/talktotj/chat/backend/internal/service/ai"
)

type fakeResponder struct {
	reply    string
	err      error
	calls    int
	messages []string
}

func (f *fakeResponder) Reply(_ context.Context, userMessage string) (string, error) {
	f.calls++
	f.messages = append(f.messages, userMessage)
	return f.reply, f.err
}

func (f *fakeResponder) ProviderName() string {
	return "OpenAI"
}

// stubChatModel stands in for the hosted provider behind a real ai.Service.
type stubChatModel struct {
	reply string
	err   error
	calls int
}

func (s *stubChatModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

func (s *stubChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not used")
}

func setupRouter(responder Responder) *chi.Mux {
	r := chi.NewRouter()
	New(responder).RegisterRoutes(r)
	return r
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func doRequest(r http.Handler, method string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) chatmodel.ErrorResponse {
	t.Helper()
	var body chatmodel.ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, resp.Body.String())
	}
	return body
}

func TestRelaySuccessThroughService(t *testing.T) {
	stub := &stubChatModel{reply: "Hi there!"}
	svc := aiservice.NewService(stub, persona.Seed()[0], aiservice.Options{Provider: "OpenAI"})
	r := setupRouter(svc)

	resp := doRequest(r, http.MethodPost, []byte(`{"message":"hello"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body chatmodel.RelayResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Response != "Hi there!" {
		t.Fatalf("unexpected response %q", body.Response)
	}
	if stub.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", stub.calls)
	}
}

func TestRelayRejectsMissingMessage(t *testing.T) {
	cases := map[string]string{
		"empty body":    "",
		"empty object":  `{}`,
		"empty message": `{"message":""}`,
		"whitespace":    `{"message":"   "}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fake := &fakeResponder{reply: "unused"}
			resp := doRequest(setupRouter(fake), http.MethodPost, []byte(body))

			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.Code)
			}
			if got := decodeError(t, resp).Error; got != "Message is required" {
				t.Fatalf("unexpected error %q", got)
			}
			if fake.calls != 0 {
				t.Fatalf("provider must not be called, got %d calls", fake.calls)
			}
		})
	}
}

func TestRelayRejectsMalformedBody(t *testing.T) {
	for _, body := range []string{`{"message":`, `{"message":42}`, `[]`} {
		fake := &fakeResponder{}
		resp := doRequest(setupRouter(fake), http.MethodPost, []byte(body))

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, resp.Code)
		}
		if decodeError(t, resp).Error == "" {
			t.Fatalf("%s: expected error field", body)
		}
		if fake.calls != 0 {
			t.Fatalf("%s: provider must not be called", body)
		}
	}
}

func TestRelayRejectsOtherMethods(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		fake := &fakeResponder{reply: "unused"}
		resp := doRequest(setupRouter(fake), method, []byte(`{"message":"hello"}`))

		if resp.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", method, resp.Code)
		}
		if got := decodeError(t, resp).Error; got != "Method not allowed" {
			t.Fatalf("%s: unexpected error %q", method, got)
		}
		if resp.Header().Get("Allow") != http.MethodPost {
			t.Fatalf("%s: expected Allow header", method)
		}
		if fake.calls != 0 {
			t.Fatalf("%s: provider must not be called", method)
		}
	}
}

func TestRelayProviderFailureLoggedOnce(t *testing.T) {
	buf := captureLog(t)
	stub := &stubChatModel{err: errors.New("You exceeded your current quota")}
	svc := aiservice.NewService(stub, persona.Seed()[0], aiservice.Options{Provider: "OpenAI"})

	resp := doRequest(setupRouter(svc), http.MethodPost, []byte(`{"message":"hello"}`))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	body := decodeError(t, resp)
	if body.Error != "OpenAI API error" {
		t.Fatalf("unexpected error %q", body.Error)
	}
	if body.Details != "You exceeded your current quota" {
		t.Fatalf("unexpected details %q", body.Details)
	}
	if n := strings.Count(buf.String(), "[relay]"); n != 1 {
		t.Fatalf("expected failure logged once, got %d lines:\n%s", n, buf.String())
	}
}

func TestRelayPlainErrorUsesMessageAsDetails(t *testing.T) {
	captureLog(t)
	fake := &fakeResponder{err: fmt.Errorf("failed to render prompt")}

	resp := doRequest(setupRouter(fake), http.MethodPost, []byte(`{"message":"hello"}`))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if got := decodeError(t, resp).Details; got != "failed to render prompt" {
		t.Fatalf("unexpected details %q", got)
	}
}

func TestRelayTimeout(t *testing.T) {
	captureLog(t)
	fake := &fakeResponder{err: &aiservice.ProviderError{Provider: "OpenAI", Err: context.DeadlineExceeded, Timeout: true}}

	resp := doRequest(setupRouter(fake), http.MethodPost, []byte(`{"message":"hello"}`))

	if resp.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", resp.Code)
	}
	body := decodeError(t, resp)
	if body.Error != "OpenAI API timeout" {
		t.Fatalf("unexpected error %q", body.Error)
	}
	if body.Details != context.DeadlineExceeded.Error() {
		t.Fatalf("unexpected details %q", body.Details)
	}
}

func TestRelayTimeoutThroughService(t *testing.T) {
	captureLog(t)
	slow := &slowChatModel{delay: time.Second}
	svc := aiservice.NewService(slow, persona.Seed()[0], aiservice.Options{Provider: "OpenAI", Timeout: 10 * time.Millisecond})

	resp := doRequest(setupRouter(svc), http.MethodPost, []byte(`{"message":"hello"}`))

	if resp.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", resp.Code)
	}
}

func TestRelayRepeatedRequestsAreIndependent(t *testing.T) {
	fake := &fakeResponder{reply: "ok"}
	r := setupRouter(fake)

	for i := 0; i < 2; i++ {
		if resp := doRequest(r, http.MethodPost, []byte(`{"message":"same"}`)); resp.Code != http.StatusOK {
			t.Fatalf("call %d: expected 200, got %d", i, resp.Code)
		}
	}
	if fake.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", fake.calls)
	}
}

func TestRelayForwardsMessageUntrimmed(t *testing.T) {
	fake := &fakeResponder{reply: "ok"}
	doRequest(setupRouter(fake), http.MethodPost, []byte(`{"message":"  hi  "}`))

	if len(fake.messages) != 1 || fake.messages[0] != "  hi  " {
		t.Fatalf("unexpected forwarded messages %q", fake.messages)
	}
}

type slowChatModel struct {
	delay time.Duration
}

func (s *slowChatModel) Generate(ctx context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	select {
	case <-time.After(s.delay):
		return schema.AssistantMessage("late", nil), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *slowChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not used")
}
