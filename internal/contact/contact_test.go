package contact

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"mockexam/internal/auth"

	"github.com/sirupsen/logrus"
)

type recordingNotifier struct {
	got []Request
	err error
}

func (n *recordingNotifier) NotifyContact(ctx context.Context, req Request) error {
	n.got = append(n.got, req)
	return n.err
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSubmitValidation(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, quietLogger())
	tests := []struct {
		name string
		in   SubmitInput
	}{
		{name: "missing name", in: SubmitInput{Email: "a@example.com", Message: "hi"}},
		{name: "bad email", in: SubmitInput{Name: "Ada", Email: "not-an-email", Message: "hi"}},
		{name: "missing message", in: SubmitInput{Name: "Ada", Email: "a@example.com", Message: "  "}},
		{name: "long name", in: SubmitInput{Name: strings.Repeat("a", 121), Email: "a@example.com", Message: "hi"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Submit(context.Background(), tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSubmitStoresAndNotifies(t *testing.T) {
	store := NewMemoryStore()
	notifier := &recordingNotifier{err: errors.New("relay down")}
	svc := NewService(store, notifier, quietLogger())

	req, err := svc.Submit(context.Background(), SubmitInput{
		Name:         " Ada ",
		Email:        "Ada Lovelace <ADA@Example.com>",
		ExamInterest: "mock2",
		Message:      "Please unlock the full exam.",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.Name != "Ada" || req.Email != "ada@example.com" {
		t.Fatalf("unexpected normalised request: %+v", req)
	}
	if len(notifier.got) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.got))
	}

	items, err := svc.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ID != req.ID {
		t.Fatalf("unexpected list: %+v", items)
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_ = store.Insert(context.Background(), Request{Name: string(rune('a' + i)), CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}

	items, _ := store.List(context.Background(), 2, 0)
	if len(items) != 2 || items[0].Name != "c" || items[1].Name != "b" {
		t.Fatalf("unexpected page: %+v", items)
	}
	items, _ = store.List(context.Background(), 2, 5)
	if len(items) != 0 {
		t.Fatalf("expected empty page past end, got %d", len(items))
	}
}

func TestNewSMTPMailerRequiresConfig(t *testing.T) {
	if m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "a@example.com"}); m != nil {
		t.Fatalf("expected nil mailer without recipient")
	}
}

func TestSMTPMailerMessage(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 2525, From: "noreply@example.com", To: "owner@example.com"})
	var gotAddr string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotMsg = msg
		return nil
	}

	err := m.NotifyContact(context.Background(), Request{
		Name:      "Ada\r\nBcc: evil@example.com",
		Email:     "ada@example.com",
		Message:   "hello",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if gotAddr != "smtp.example.com:2525" {
		t.Fatalf("unexpected addr %s", gotAddr)
	}
	if bytes.Contains(gotMsg, []byte("\r\nBcc:")) {
		t.Fatalf("header injection not neutralised:\n%s", gotMsg)
	}
	if !bytes.Contains(gotMsg, []byte("Reply-To: ada@example.com")) {
		t.Fatalf("missing reply-to:\n%s", gotMsg)
	}
}

type mockContactService struct {
	submitFn func(ctx context.Context, in SubmitInput) (*Request, error)
	listFn   func(ctx context.Context, limit, offset int) ([]Request, error)
}

func (m *mockContactService) Submit(ctx context.Context, in SubmitInput) (*Request, error) {
	if m.submitFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.submitFn(ctx, in)
}

func (m *mockContactService) List(ctx context.Context, limit, offset int) ([]Request, error) {
	if m.listFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.listFn(ctx, limit, offset)
}

func TestHandlerSubmit(t *testing.T) {
	var got SubmitInput
	h := NewHandler(&mockContactService{
		submitFn: func(ctx context.Context, in SubmitInput) (*Request, error) {
			got = in
			return &Request{Name: in.Name}, nil
		},
	})

	body := `{"name":"Ada","email":"ada@example.com","message":"hi","exam_interest":"mock1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(body))
	req.RemoteAddr = "10.1.1.1:5000"
	w := httptest.NewRecorder()
	h.Submit(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if got.ExamInterest != "mock1" || got.RemoteAddr != "10.1.1.1:5000" {
		t.Fatalf("unexpected input: %+v", got)
	}
}

func TestHandlerSubmitInvalid(t *testing.T) {
	h := NewHandler(&mockContactService{
		submitFn: func(ctx context.Context, in SubmitInput) (*Request, error) {
			return nil, ErrInvalidInput
		},
	})

	w := httptest.NewRecorder()
	h.Submit(w, httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(`{"name":""}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.Submit(w, httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(`{`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestHandlerListRequiresAdmin(t *testing.T) {
	var gotLimit, gotOffset int
	h := NewHandler(&mockContactService{
		listFn: func(ctx context.Context, limit, offset int) ([]Request, error) {
			gotLimit, gotOffset = limit, offset
			return []Request{{Name: "Ada"}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/contact?limit=10&offset=5", nil)
	w := httptest.NewRecorder()
	h.List(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without admin context, got %d", w.Code)
	}

	req = req.WithContext(auth.ContextWithAdmin(req.Context()))
	w = httptest.NewRecorder()
	h.List(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotLimit != 10 || gotOffset != 5 {
		t.Fatalf("unexpected paging %d/%d", gotLimit, gotOffset)
	}
}
