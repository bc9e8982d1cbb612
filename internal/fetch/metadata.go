package fetch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cluequest-ar/internal/apierr"

	"github.com/valyala/fasthttp"
)

// AssetMetadata describes a remote model file. ETag doubles as the content
// version stamp used in variant cache keys.
type AssetMetadata struct {
	ContentLength int64
	ContentType   string
	ETag          string
}

type MetadataClient struct {
	client *fasthttp.Client
}

func NewMetadataClient() *MetadataClient {
	return &MetadataClient{
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// Fetch resolves size, content type and etag of a remote model URL with a
// HEAD request.
func (c *MetadataClient) Fetch(ctx context.Context, url string) (*AssetMetadata, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodHead)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.Do(req, resp)
	}
	if err != nil {
		return nil, apierr.UpstreamIO("fetch asset metadata", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, apierr.UpstreamIO("fetch asset metadata", fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}

	meta := &AssetMetadata{
		ContentType: string(resp.Header.ContentType()),
		ETag:        strings.Trim(string(resp.Header.Peek("ETag")), `"`),
	}
	if cl := string(resp.Header.Peek("Content-Length")); cl != "" {
		if val, err := strconv.ParseInt(cl, 10, 64); err == nil {
			meta.ContentLength = val
		}
	}
	return meta, nil
}
