package fetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmylchreest/pubscope/internal/models"
)

// ProxyStrategy (Strategy B) calls a proxy API authenticated by a shared
// secret (basic auth) that performs the fetch on this service's behalf and
// returns a base64-encoded body.
type ProxyStrategy struct {
	endpoint string
	authUser string
	apiKey   string
	client   *http.Client
}

type proxyRequest struct {
	URL              string `json:"url"`
	HTTPResponseBody bool   `json:"httpResponseBody"`
}

type proxyResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"` // base64
}

// NewProxyStrategy builds Strategy B.
func NewProxyStrategy(endpoint, authUser, apiKey string, timeout time.Duration) *ProxyStrategy {
	return &ProxyStrategy{
		endpoint: endpoint,
		authUser: authUser,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *ProxyStrategy) Name() string { return StrategyProxy }

func (s *ProxyStrategy) Fetch(ctx context.Context, url string) (models.FetchResult, error) {
	payload, err := json.Marshal(proxyRequest{URL: url, HTTPResponseBody: true})
	if err != nil {
		return models.FetchResult{}, &FetchError{Strategy: StrategyProxy, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return models.FetchResult{}, &FetchError{Strategy: StrategyProxy, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.authUser, s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return models.FetchResult{}, &FetchError{Strategy: StrategyProxy, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.FetchResult{}, &FetchError{Strategy: StrategyProxy, Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return models.FetchResult{}, &FetchError{
			Strategy: StrategyProxy,
			Cause:    fmt.Errorf("proxy returned status %d", resp.StatusCode),
		}
	}

	var parsed proxyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return models.FetchResult{}, &FetchError{Strategy: StrategyProxy, Cause: err}
	}

	body, err := base64.StdEncoding.DecodeString(parsed.Body)
	if err != nil {
		return models.FetchResult{}, &FetchError{Strategy: StrategyProxy, Cause: fmt.Errorf("undecodable proxy body: %w", err)}
	}

	return models.FetchResult{
		Body:       body,
		StatusCode: resp.StatusCode,
		Strategy:   StrategyProxy,
		FinalURL:   url,
	}, nil
}
