// Package leaphttp fetches L3VA scores from the Leap people API.
package leaphttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mind-engage/gradetracker/pkg/gradebook"
)

const maxBody = 1 << 20

type FailureKind string

const (
	KindUnreachable FailureKind = "unreachable"
	KindStatus      FailureKind = "status"
	KindEmpty       FailureKind = "empty"
	KindMalformed   FailureKind = "malformed"
)

// FetchError describes why no score could be read for a student. It never
// carries the API token.
type FetchError struct {
	StudentID string
	Kind      FailureKind
	Status    int
	Cause     error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("leap %s for %s", e.Kind, e.StudentID)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Cause }

type Config struct {
	// URLTemplate takes the student id then the token, e.g. ".../people/%s.json?token=%s".
	URLTemplate string
	Token       string
	Timeout     time.Duration
	HTTP        *http.Client
}

type Client struct {
	http  *http.Client
	tmpl  string
	token string
}

var _ gradebook.ScoreSource = (*Client)(nil)

func New(cfg Config) *Client {
	h := &http.Client{}
	if cfg.HTTP != nil {
		cp := *cfg.HTTP
		h = &cp
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &Client{http: h, tmpl: cfg.URLTemplate, token: cfg.Token}
}

type personPayload struct {
	Person *struct {
		L3VA json.RawMessage `json:"l3va"`
	} `json:"person"`
}

// FetchScore returns the student's l3va as text. A person with no l3va, or a
// null one, yields "" and no error.
func (c *Client) FetchScore(ctx context.Context, studentID string) (string, error) {
	u := fmt.Sprintf(c.tmpl, url.PathEscape(studentID), url.QueryEscape(c.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", &FetchError{StudentID: studentID, Kind: KindUnreachable, Cause: c.redact(err)}
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", &FetchError{StudentID: studentID, Kind: KindUnreachable, Cause: c.redact(err)}
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return "", &FetchError{StudentID: studentID, Kind: KindStatus, Status: res.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return "", &FetchError{StudentID: studentID, Kind: KindUnreachable, Cause: c.redact(err)}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", &FetchError{StudentID: studentID, Kind: KindEmpty}
	}

	var p personPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return "", &FetchError{StudentID: studentID, Kind: KindMalformed, Cause: err}
	}
	if p.Person == nil {
		return "", &FetchError{StudentID: studentID, Kind: KindMalformed, Cause: errors.New("no person object")}
	}
	score, err := scoreText(p.Person.L3VA)
	if err != nil {
		return "", &FetchError{StudentID: studentID, Kind: KindMalformed, Cause: err}
	}
	return score, nil
}

func scoreText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(raw), nil
}

func (c *Client) redact(err error) error {
	if c.token == "" {
		return err
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = strings.ReplaceAll(ue.URL, url.QueryEscape(c.token), "REDACTED")
	}
	return err
}
