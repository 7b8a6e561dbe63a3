package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"inbox-lab/contract"
	"inbox-lab/domain"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

const sessionHeader = "X-Session"

// gatewaySession is the credential stored for a gateway user.
type gatewaySession struct {
	Session string              `json:"session"`
	UserID  domain.RemoteUserID `json:"user_id"`
}

// GatewayDirectory talks JSON over HTTP to a sidecar that fronts the
// remote platform. The sidecar owns the platform protocol.
type GatewayDirectory struct {
	baseURL string
	client  *http.Client

	mu      sync.RWMutex
	session gatewaySession
}

// NewGatewayFactory builds GatewayDirectory values sharing one http.Client.
func NewGatewayFactory(baseURL string, client *http.Client) contract.DirectoryFactory {
	if client == nil {
		client = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return func(domain.UserID) contract.Directory {
		return &GatewayDirectory{baseURL: baseURL, client: client}
	}
}

func (g *GatewayDirectory) Login(ctx context.Context, userID domain.UserID, secret string) (domain.Credential, error) {
	body := map[string]string{"username": string(userID), "password": secret}
	var session gatewaySession
	if err := g.do(ctx, http.MethodPost, "/login", nil, body, &session); err != nil {
		return nil, err
	}
	if session.Session == "" {
		return nil, fmt.Errorf("gateway returned an empty session")
	}
	g.setSession(session)
	return json.Marshal(session)
}

func (g *GatewayDirectory) RestoreSession(ctx context.Context, credential domain.Credential) error {
	var stored gatewaySession
	if err := json.Unmarshal(credential, &stored); err != nil {
		return fmt.Errorf("unreadable credential: %w", err)
	}
	g.setSession(stored)

	var restored gatewaySession
	if err := g.do(ctx, http.MethodPost, "/session/restore", nil, nil, &restored); err != nil {
		return err
	}
	if restored.UserID != "" {
		stored.UserID = restored.UserID
		g.setSession(stored)
	}
	return nil
}

func (g *GatewayDirectory) ProbeSession(ctx context.Context) error {
	return g.do(ctx, http.MethodGet, "/session/probe", nil, nil, nil)
}

func (g *GatewayDirectory) CurrentUserID() domain.RemoteUserID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session.UserID
}

func (g *GatewayDirectory) ListThreads(ctx context.Context, limit int) ([]domain.RawThread, error) {
	var threads []domain.RawThread
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := g.do(ctx, http.MethodGet, "/threads", query, nil, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

func (g *GatewayDirectory) FetchThread(ctx context.Context, threadID domain.ThreadID, limit int) (domain.RawThread, error) {
	var thread domain.RawThread
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	path := "/threads/" + url.PathEscape(string(threadID))
	if err := g.do(ctx, http.MethodGet, path, query, nil, &thread); err != nil {
		return domain.RawThread{}, err
	}
	return thread, nil
}

func (g *GatewayDirectory) SendMessage(ctx context.Context, threadID domain.ThreadID, text string) error {
	path := "/threads/" + url.PathEscape(string(threadID)) + "/messages"
	return g.do(ctx, http.MethodPost, path, nil, map[string]string{"text": text}, nil)
}

func (g *GatewayDirectory) Logout(ctx context.Context) error {
	err := g.do(ctx, http.MethodPost, "/logout", nil, nil, nil)
	g.setSession(gatewaySession{})
	return err
}

func (g *GatewayDirectory) setSession(session gatewaySession) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = session
}

func (g *GatewayDirectory) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	target := g.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	g.mu.RLock()
	if g.session.Session != "" {
		req.Header.Set(sessionHeader, g.session.Session)
	}
	g.mu.RUnlock()

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway %s %s: decode: %w", method, path, err)
	}
	return nil
}
