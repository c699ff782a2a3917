package training

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const datasetTimeout = 2 * time.Minute

// FetchDataset returns the bytes behind source, which is either an http(s) URL or a local path.
func FetchDataset(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("error reading dataset %s: %w", source, err)
		}
		return data, nil
	}

	res, err := resty.New().SetTimeout(datasetTimeout).R().SetContext(ctx).Get(source)
	if err != nil {
		return nil, fmt.Errorf("error downloading dataset %s: %w", source, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("error downloading dataset %s: status %s", source, res.Status())
	}
	return res.Body(), nil
}
