// Package platesolve talks to the nova.astrometry.net API and tracks the
// submissions users upload for solving.
package platesolve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/skyview/skyview-reprojection/internal/common"
)

// PlaceholderKey is the value shipped in sample configuration.
const PlaceholderKey = "YOUR_API_KEY_HERE"

// ErrNotConfigured is returned when no usable API key was provided.
var ErrNotConfigured = errors.New("astrometry.net API key not configured")

// Config holds the endpoints and key of the solver.
type Config struct {
	APIURL     string
	DisplayURL string
	APIKey     string
}

// Configured reports whether the key looks usable.
func (c Config) Configured() bool {
	return common.Present(c.APIKey, PlaceholderKey)
}

// Client is an astrometry.net API client. The login session is shared by
// all calls and renewed when the service rejects it.
type Client struct {
	cfg     Config
	http    *http.Client
	backoff BackoffConfig
	breaker *gobreaker.CircuitBreaker

	// mu guards session and is held across a login, so concurrent callers
	// wait for the one login in flight instead of each starting their own.
	mu      sync.Mutex
	session string
}

func NewClient(client *http.Client, cfg Config) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "astrometry",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		cfg:  cfg,
		http: client,
		backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		breaker: cb,
	}
}

// Login returns the cached session key, logging in first if needed. Only
// one login runs at a time; callers arriving meanwhile block until it
// finishes (retries included, bounded by ctx) and reuse its session.
func (c *Client) Login(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != "" {
		return c.session, nil
	}
	if !c.cfg.Configured() {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]string{"apikey": c.cfg.APIKey})
	if err != nil {
		return "", err
	}

	var reply struct {
		apiReply
		Session string `json:"session"`
	}
	err = c.call(ctx, "login", func() (*http.Request, error) {
		form := url.Values{"request-json": {string(payload)}}
		req, err := http.NewRequest(http.MethodPost, c.cfg.APIURL+"/login", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}, &reply)
	if err != nil {
		return "", err
	}
	if reply.Status != "success" || reply.Session == "" {
		return "", fmt.Errorf("API login failed: %s", reply.ErrorMessage)
	}

	c.session = reply.Session
	return c.session, nil
}

func (c *Client) dropSession(stale string) {
	c.mu.Lock()
	if c.session == stale {
		c.session = ""
	}
	c.mu.Unlock()
}

// Upload sends an image for solving and returns the submission id.
func (c *Client) Upload(ctx context.Context, filename string, image []byte) (int, error) {
	for retried := false; ; retried = true {
		session, err := c.Login(ctx)
		if err != nil {
			return 0, err
		}

		subID, reply, err := c.upload(ctx, session, filename, image)
		if err != nil {
			return 0, err
		}
		if reply.Status == "success" {
			return subID, nil
		}

		msg := reply.ErrorMessage
		if msg == "" {
			msg = "Upload failed"
		}
		if !retried && common.HasAny(strings.ToLower(msg), "session", "not logged in") {
			c.dropSession(session)
			continue
		}
		return 0, errors.New(msg)
	}
}

func (c *Client) upload(ctx context.Context, session, filename string, image []byte) (int, apiReply, error) {
	payload, err := json.Marshal(map[string]string{"session": session, "publicly_visible": "n"})
	if err != nil {
		return 0, apiReply{}, err
	}

	var reply struct {
		apiReply
		SubID int `json:"subid"`
	}
	err = c.call(ctx, "upload", func() (*http.Request, error) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		if err := mw.WriteField("request-json", string(payload)); err != nil {
			return nil, err
		}
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(image); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequest(http.MethodPost, c.cfg.APIURL+"/upload", &body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	}, &reply)
	return reply.SubID, reply.apiReply, err
}

// SubmissionStatus reports the state of the first job spawned by a
// submission. A submission without a job yet is pending.
func (c *Client) SubmissionStatus(ctx context.Context, subID int) (JobStatus, error) {
	var sub struct {
		Jobs []*int `json:"jobs"`
	}
	if err := c.call(ctx, "submission", c.get(fmt.Sprintf("/submissions/%d", subID)), &sub); err != nil {
		return JobStatus{}, err
	}
	if len(sub.Jobs) == 0 || sub.Jobs[0] == nil {
		return JobStatus{Status: StatusPending}, nil
	}
	jobID := *sub.Jobs[0]

	var info struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, "job_info", c.get(fmt.Sprintf("/jobs/%d/info", jobID)), &info); err != nil {
		return JobStatus{}, err
	}

	st := JobStatus{Status: parseStatus(info.Status), JobID: &jobID}
	if st.Status == StatusSuccess {
		u := fmt.Sprintf("%s/annotated_display/%d", strings.TrimRight(c.cfg.DisplayURL, "/"), jobID)
		st.AnnotatedImageURL = &u
	}
	return st, nil
}

// Annotations lists the objects found in a solved job.
func (c *Client) Annotations(ctx context.Context, jobID int) ([]Annotation, error) {
	var reply struct {
		Annotations []Annotation `json:"annotations"`
	}
	if err := c.call(ctx, "annotations", c.get(fmt.Sprintf("/jobs/%d/annotations", jobID)), &reply); err != nil {
		return nil, err
	}
	if reply.Annotations == nil {
		return []Annotation{}, nil
	}
	return reply.Annotations, nil
}

func (c *Client) get(path string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.cfg.APIURL+path, nil)
	}
}

func parseStatus(s string) Status {
	switch Status(s) {
	case StatusSuccess, StatusFailure, StatusSolving:
		return Status(s)
	}
	return StatusUnknown
}
