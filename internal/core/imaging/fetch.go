package imaging

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultFetchTimeout = 30 * time.Second

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type HTTPFetcher struct {
	client *resty.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: resty.New().SetTimeout(defaultFetchTimeout)}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	res, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", url, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("error fetching %s: status %s", url, res.Status())
	}
	return res.Body(), nil
}
