package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// FetchedFile is the result of downloading a remote file link.
type FetchedFile struct {
	Content     []byte
	ContentType string
	Filename    string
}

// FileFetcher downloads remote file links with a bounded timeout. A circuit
// breaker stops hammering an origin that keeps failing; breaker rejections
// surface as ErrFetchFailed like any other fetch problem.
type FileFetcher struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	maxSize int64
}

// NewFileFetcher builds a fetcher with the given per-request timeout and
// response size cap.
func NewFileFetcher(timeout time.Duration, maxSize int64) *FileFetcher {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "FileFetch",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &FileFetcher{
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		maxSize: maxSize,
	}
}

// Fetch downloads the file link. Non-2xx responses and transport errors abort
// before any extraction is attempted.
func (f *FileFetcher) Fetch(ctx context.Context, fileLink string) (*FetchedFile, error) {
	result, err := f.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileLink, nil)
		if err != nil {
			return nil, err
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		body := io.Reader(resp.Body)
		if f.maxSize > 0 {
			body = io.LimitReader(resp.Body, f.maxSize+1)
		}
		content, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}
		if f.maxSize > 0 && int64(len(content)) > f.maxSize {
			return nil, fmt.Errorf("file exceeds %d bytes", f.maxSize)
		}

		return &FetchedFile{
			Content:     content,
			ContentType: resp.Header.Get("Content-Type"),
			Filename:    filenameFromLink(fileLink),
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, fileLink, err)
	}

	return result.(*FetchedFile), nil
}

// filenameFromLink derives a filename from the last URL path segment. Links
// without a usable segment get a generated placeholder so detection can still
// run on the response content type.
func filenameFromLink(fileLink string) string {
	if u, err := url.Parse(fileLink); err == nil {
		if segment := u.Path[strings.LastIndex(u.Path, "/")+1:]; segment != "" {
			return segment
		}
	}
	return "download-" + uuid.NewString()
}
