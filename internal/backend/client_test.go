package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestUserFromToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("apikey header = %q", r.Header.Get("apikey"))
		}
		if r.Header.Get("Authorization") != "Bearer session-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":"user-1","email":"a@b.c"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key", zerolog.Nop())

	u, err := c.UserFromToken(context.Background(), "session-token")
	if err != nil {
		t.Fatalf("UserFromToken: %v", err)
	}
	if u.ID != "user-1" || u.Email != "a@b.c" {
		t.Errorf("user = %+v", u)
	}

	if _, err := c.UserFromToken(context.Background(), "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
	if _, err := c.UserFromToken(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("empty token err = %v, want ErrUnauthorized", err)
	}
}

func TestCreditsRemaining(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/user_credits" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "eq.user-1" {
			t.Errorf("id filter = %q", got)
		}
		w.Write([]byte(`[{"credits_remaining":42}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key", zerolog.Nop())
	credits, err := c.CreditsRemaining(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CreditsRemaining: %v", err)
	}
	if credits != 42 {
		t.Errorf("credits = %d, want 42", credits)
	}
}

func TestCreditsRemaining_NoRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key", zerolog.Nop())
	credits, err := c.CreditsRemaining(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("CreditsRemaining: %v", err)
	}
	if credits != 0 {
		t.Errorf("credits = %d, want 0", credits)
	}
}

func TestUploads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("user_id"); got != "eq.user-1" {
			t.Errorf("user_id filter = %q", got)
		}
		if got := r.URL.Query().Get("order"); got != "created_at.desc" {
			t.Errorf("order = %q", got)
		}
		w.Write([]byte(`[{"id":2,"user_id":"user-1","file_name":"b.wav","duration":12.5,"language":"en","srt_url":"https://x/b.srt"},
			{"id":1,"user_id":"user-1","file_name":"a.mp3","duration":3,"language":"de","srt_url":"https://x/a.srt"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key", zerolog.Nop())
	ups, err := c.Uploads(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Uploads: %v", err)
	}
	if len(ups) != 2 || ups[0].FileName != "b.wav" || ups[1].Language != "de" {
		t.Errorf("uploads = %+v", ups)
	}
}

func TestInsertUpload(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/v1/uploads" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key", zerolog.Nop())
	err := c.InsertUpload(context.Background(), Upload{
		UserID:   "user-1",
		FileName: "talk.mp3",
		Duration: 10,
		Language: "en",
		SRTURL:   "https://x/y.srt",
	})
	if err != nil {
		t.Fatalf("InsertUpload: %v", err)
	}
	for _, want := range []string{`"user_id":"user-1"`, `"file_name":"talk.mp3"`} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("body %q missing %q", gotBody, want)
		}
	}
}

func TestStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", "0-2/3")
		w.Write([]byte(`[{"user_id":"a"},{"user_id":"b"},{"user_id":"a"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key", zerolog.Nop())
	stats, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.FilesTranscribed != 3 {
		t.Errorf("FilesTranscribed = %d, want 3", stats.FilesTranscribed)
	}
	if stats.ActiveUsers != 2 {
		t.Errorf("ActiveUsers = %d, want 2", stats.ActiveUsers)
	}
}

func TestUnconfiguredFailsClosed(t *testing.T) {
	c := NewClient("", "", zerolog.Nop())
	if _, err := c.UserFromToken(context.Background(), "tok"); err == nil {
		t.Error("UserFromToken succeeded without configuration")
	}
	if _, err := c.CreditsRemaining(context.Background(), "u"); err == nil {
		t.Error("CreditsRemaining succeeded without configuration")
	}
	if _, err := c.Stats(context.Background()); err == nil {
		t.Error("Stats succeeded without configuration")
	}
}
