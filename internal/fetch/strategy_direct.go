package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/pubscope/internal/models"
	"github.com/jmylchreest/pubscope/internal/protection"
)

// defaultUserAgent is the desktop browser User-Agent header strategy A sends.
// Only this header is set; the TLS handshake is Go's standard one and does
// not imitate a browser's TLS fingerprint.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DirectStrategy (Strategy A) fetches a URL directly using a Colly collector
// configured to look like a browser, then runs the protection Detector over
// the response to turn WAF challenge pages into failures instead of false
// successes.
type DirectStrategy struct {
	detector  *protection.Detector
	logger    *slog.Logger
	userAgent string
	timeout   time.Duration
}

// NewDirectStrategy builds Strategy A.
func NewDirectStrategy(logger *slog.Logger, timeout time.Duration) *DirectStrategy {
	return &DirectStrategy{
		detector:  protection.NewDetector(),
		logger:    logger,
		userAgent: defaultUserAgent,
		timeout:   timeout,
	}
}

func (s *DirectStrategy) Name() string { return StrategyDirect }

// Fetch performs a single GET through Colly and classifies the response.
func (s *DirectStrategy) Fetch(ctx context.Context, url string) (models.FetchResult, error) {
	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.AllowURLRevisit(),
	)

	timeout := s.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c.SetRequestTimeout(timeout)

	var result models.FetchResult
	var statusCode int
	var rawBody []byte

	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		rawBody = r.Body
		result = models.FetchResult{
			Body:       r.Body,
			StatusCode: r.StatusCode,
			Strategy:   StrategyDirect,
			FinalURL:   r.Request.URL.String(),
			Headers:    map[string][]string(*r.Headers),
		}
	})

	if err := c.Visit(url); err != nil {
		return models.FetchResult{}, &FetchError{Strategy: StrategyDirect, Cause: err}
	}

	if detection := s.detector.DetectFromResponse(statusCode, rawBody); detection.Detected {
		s.logger.Info("waf challenge detected on direct fetch",
			"url", url, "signal", detection.Signal, "status", statusCode)
		return models.FetchResult{}, &FetchError{
			Strategy: StrategyDirect,
			Cause:    &waError{detection.Description},
		}
	}

	if statusCode < 200 || statusCode >= 300 {
		return models.FetchResult{}, &FetchError{
			Strategy: StrategyDirect,
			Cause:    &waError{"unexpected status " + http.StatusText(statusCode)},
		}
	}

	return result, nil
}

type waError struct{ msg string }

func (e *waError) Error() string { return e.msg }
