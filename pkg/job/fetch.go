// Copyright 2023 Paolo Fabio Zaino
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package job

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/privaxis/doublefetch/pkg/common"
)

// HTTPFetcher is the default Fetcher: a retrying, redirect-aware
// anonymous GET limited to the HTTP(S)-only shape this job actually
// needs, with no S3 support and no SSRF-guard DNS check. Identity
// anonymization here means rotating the User-Agent per request, not
// hiding the outbound IP.
type HTTPFetcher struct {
	Client         *http.Client
	UserAgents     *common.UserAgentPool
	Timeout        time.Duration
	ConnectTimeout time.Duration
	MaxSize        int64
	Retries        int
	RetryBaseDelay time.Duration
}

// NewHTTPFetcher builds an HTTPFetcher with reasonable defaults (30s
// total timeout, 10s connect timeout, 16MiB cap, 200ms base backoff).
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		UserAgents:     common.DefaultUserAgentPool,
		Timeout:        30 * time.Second,
		ConnectTimeout: 10 * time.Second,
		MaxSize:        16 << 20,
		Retries:        2,
		RetryBaseDelay: 200 * time.Millisecond,
	}
}

// Get implements Fetcher.
func (f *HTTPFetcher) Get(ctx context.Context, url string, opts FetchOptions) (FetchResult, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{
			Timeout: f.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: f.ConnectTimeout}).DialContext,
			},
		}
	}

	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	follow := opts.FollowRedirects
	client.CheckRedirect = func(r *http.Request, via []*http.Request) error {
		if !follow {
			return http.ErrUseLastResponse
		}
		if len(via) >= maxRedirects {
			return common.NewPermanentError("stopped after %d redirects", maxRedirects)
		}
		return nil
	}

	delay := f.RetryBaseDelay
	var lastErr error
	for attempt := 0; attempt <= f.Retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return FetchResult{}, common.NewPermanentError("building request: %v", err)
		}
		req.Header.Set("User-Agent", f.UserAgents.Pick())
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			if attempt < f.Retries && isTransientNetErr(err) {
				time.Sleep(delay)
				delay *= 2
				lastErr = err
				continue
			}
			return FetchResult{}, common.NewTransientError("fetching %s: %v", url, err)
		}

		result, retry, fetchErr := f.readResponse(resp, url)
		if fetchErr == nil {
			return result, nil
		}
		if retry && attempt < f.Retries {
			time.Sleep(delay)
			delay *= 2
			lastErr = fetchErr
			continue
		}
		return FetchResult{}, fetchErr
	}

	return FetchResult{}, common.NewTransientError("fetching %s: exhausted retries: %v", url, lastErr)
}

// readResponse classifies the response status: HTTP 429 is a
// PermanentError (never retried, never treated as a transient network
// blip), other 5xx is retryable, and anything else outside 2xx is a
// permanent failure for this request.
func (f *HTTPFetcher) readResponse(resp *http.Response, url string) (FetchResult, bool, error) {
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return FetchResult{}, false, common.NewPermanentError("fetching %s: rate limited (429)", url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode >= 500 {
			return FetchResult{}, true, common.NewTransientError("fetching %s: HTTP %d", url, resp.StatusCode)
		}
		return FetchResult{}, false, common.NewPermanentError("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, f.MaxSize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return FetchResult{}, true, common.NewTransientError("reading body of %s: %v", url, err)
	}
	if int64(len(data)) > f.MaxSize {
		return FetchResult{}, false, common.NewPermanentError("response for %s exceeded %d bytes", url, f.MaxSize)
	}

	return FetchResult{Body: data, ContentType: resp.Header.Get("Content-Type")}, false, nil
}

func isTransientNetErr(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "eof")
}
