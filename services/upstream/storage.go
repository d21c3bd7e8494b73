package upstream

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/profileimg"
)

// StorageClient resolves stored files into display URLs.
type StorageClient struct {
	*Client
}

var _ profileimg.FileLookup = (*StorageClient)(nil)

func NewStorageClient(conf *core.Config) *StorageClient {
	return &StorageClient{NewClient("storage", conf.Services.StorageURL, newHTTPClient(conf))}
}

type fileResponse struct {
	URL string `json:"url"`
}

func (c *StorageClient) FileURL(ctx context.Context, id string) (string, error) {
	var file fileResponse
	if err := c.get(ctx, "/files/"+url.PathEscape(id), nil, &file); err != nil {
		return "", err
	}
	if file.URL == "" {
		return "", errors.Errorf("storage: file %q has no url", id)
	}
	return file.URL, nil
}
