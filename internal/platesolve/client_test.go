package platesolve

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeNova struct {
	logins     atomic.Int32
	uploads    atomic.Int32
	failUpload atomic.Int32 // number of upload calls answered with 503
	staleOnce  atomic.Bool
}

func (f *fakeNova) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		f.logins.Add(1)
		var req struct {
			APIKey string `json:"apikey"`
		}
		if err := json.Unmarshal([]byte(r.FormValue("request-json")), &req); err != nil || req.APIKey != "secret" {
			json.NewEncoder(w).Encode(map[string]string{"status": "error", "errormessage": "bad apikey"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "success", "session": "sess-" + string(rune('0'+f.logins.Load()))})
	})
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		f.uploads.Add(1)
		if f.failUpload.Load() > 0 {
			f.failUpload.Add(-1)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("upload is not multipart: %v", err)
		}
		file, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("no file part: %v", err)
			return
		}
		data, _ := io.ReadAll(file)
		if hdr.Filename != "m31.jpg" || string(data) != "JPEGDATA" {
			t.Errorf("unexpected file %q: %q", hdr.Filename, data)
		}
		var req map[string]string
		json.Unmarshal([]byte(r.FormValue("request-json")), &req)
		if req["publicly_visible"] != "n" {
			t.Errorf("uploads must not be public: %v", req)
		}
		if f.staleOnce.CompareAndSwap(true, false) {
			json.NewEncoder(w).Encode(map[string]string{"status": "error", "errormessage": "no session with key " + req["session"]})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "subid": 4242})
	})
	mux.HandleFunc("/api/submissions/4242", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs": [77]}`))
	})
	mux.HandleFunc("/api/submissions/5", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs": [null]}`))
	})
	mux.HandleFunc("/api/jobs/77/info", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "success"}`))
	})
	mux.HandleFunc("/api/jobs/77/annotations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"annotations": [{"names": ["M 31", "NGC 224"], "type": "ngc", "pixelx": 512.5, "pixely": 300, "radius": 120}]}`))
	})
	return mux
}

func newTestClient(t *testing.T, key string) (*Client, *fakeNova) {
	t.Helper()
	nova := &fakeNova{}
	srv := httptest.NewServer(nova.handler(t))
	t.Cleanup(srv.Close)

	c := NewClient(srv.Client(), Config{APIURL: srv.URL + "/api", DisplayURL: "http://nova.example/", APIKey: key})
	c.backoff = BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	return c, nova
}

func TestUploadLogsInOnce(t *testing.T) {
	c, nova := newTestClient(t, "secret")

	for i := 0; i < 2; i++ {
		subID, err := c.Upload(context.Background(), "m31.jpg", []byte("JPEGDATA"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if subID != 4242 {
			t.Errorf("subID = %d", subID)
		}
	}
	if n := nova.logins.Load(); n != 1 {
		t.Errorf("logged in %d times, want 1", n)
	}
}

func TestConcurrentLoginsShareOneSession(t *testing.T) {
	c, nova := newTestClient(t, "secret")

	var wg sync.WaitGroup
	sessions := make([]string, 8)
	errs := make([]error, len(sessions))
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i], errs[i] = c.Login(context.Background())
		}(i)
	}
	wg.Wait()

	for i := range sessions {
		if errs[i] != nil {
			t.Fatalf("login %d: %v", i, errs[i])
		}
		if sessions[i] != sessions[0] {
			t.Errorf("login %d got session %q, want %q", i, sessions[i], sessions[0])
		}
	}
	if n := nova.logins.Load(); n != 1 {
		t.Errorf("logged in %d times, want 1", n)
	}
}

func TestUploadRetriesServerErrors(t *testing.T) {
	c, nova := newTestClient(t, "secret")
	nova.failUpload.Store(2)

	if _, err := c.Upload(context.Background(), "m31.jpg", []byte("JPEGDATA")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := nova.uploads.Load(); n != 3 {
		t.Errorf("upload attempts = %d, want 3", n)
	}
}

func TestUploadRenewsStaleSession(t *testing.T) {
	c, nova := newTestClient(t, "secret")
	nova.staleOnce.Store(true)

	if _, err := c.Upload(context.Background(), "m31.jpg", []byte("JPEGDATA")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := nova.logins.Load(); n != 2 {
		t.Errorf("logged in %d times, want 2", n)
	}
}

func TestUploadNotConfigured(t *testing.T) {
	for _, key := range []string{"", PlaceholderKey} {
		c, nova := newTestClient(t, key)
		if _, err := c.Upload(context.Background(), "m31.jpg", []byte("x")); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("key %q: expected ErrNotConfigured, got %v", key, err)
		}
		if nova.logins.Load() != 0 {
			t.Errorf("key %q: should not contact the service", key)
		}
	}
}

func TestLoginRejected(t *testing.T) {
	c, _ := newTestClient(t, "wrong")
	if _, err := c.Login(context.Background()); err == nil {
		t.Fatal("expected login failure")
	}
}

func TestSubmissionStatus(t *testing.T) {
	c, _ := newTestClient(t, "secret")

	st, err := c.SubmissionStatus(context.Background(), 4242)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Status != StatusSuccess || st.JobID == nil || *st.JobID != 77 {
		t.Errorf("unexpected status %+v", st)
	}
	if st.AnnotatedImageURL == nil || *st.AnnotatedImageURL != "http://nova.example/annotated_display/77" {
		t.Errorf("annotated url = %v", st.AnnotatedImageURL)
	}

	st, err = c.SubmissionStatus(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Status != StatusPending || st.JobID != nil {
		t.Errorf("submission without a job should be pending, got %+v", st)
	}

	if _, err := c.SubmissionStatus(context.Background(), 999); !errors.Is(err, errUnexpected) {
		t.Errorf("expected a non-retried client error, got %v", err)
	}
}

func TestAnnotations(t *testing.T) {
	c, _ := newTestClient(t, "secret")
	anns, err := c.Annotations(context.Background(), 77)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anns) != 1 || anns[0].Names[0] != "M 31" || anns[0].PixelX != 512.5 || anns[0].Type != "ngc" {
		t.Errorf("unexpected annotations %+v", anns)
	}
}
