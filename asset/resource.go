package asset

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var ErrUnsupportedScheme = errors.New("resource: unsupported scheme")

// Client used for fetching remote resources.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// Resource wraps a streamable local file or remote http(s) document.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Resolve returns the location of target relative to the directory that
// contains this resource. Absolute paths and URLs are returned unchanged.
func (r *Resource) Resolve(target string) string {
	target = strings.Replace(target, `\`, `/`, -1)
	if target == "" || filepath.IsAbs(target) || hasScheme(target) {
		return target
	}

	if r.IsRemote() {
		resolved := *r.url
		resolved.Path = path.Join(path.Dir(r.url.Path), target)
		resolved.RawQuery = ""
		return resolved.String()
	}
	return filepath.Join(filepath.Dir(r.url.Path), target)
}

func hasScheme(target string) bool {
	u, err := url.Parse(target)
	// Single letter schemes are windows drive letters.
	return err == nil && len(u.Scheme) > 1
}

// Open a resource stream. If relTo is specified then relative paths are
// resolved against the location of relTo.
//
// The caller must close the returned resource to release the underlying
// file or http response.
func Open(location string, relTo *Resource) (*Resource, error) {
	if relTo != nil {
		location = relTo.Resolve(location)
	}

	u, err := url.Parse(strings.Replace(location, `\`, `/`, -1))
	if err != nil {
		return nil, errors.Wrapf(err, "resource: could not parse %q", location)
	}
	if len(u.Scheme) == 1 {
		u = &url.URL{Path: location}
	}

	var reader io.ReadCloser
	switch u.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(u.Path))
		if err != nil {
			return nil, errors.Wrapf(err, "resource: could not open %q", location)
		}
	case "http", "https":
		resp, err := httpClient.Get(u.String())
		if err != nil {
			return nil, errors.Wrapf(err, "resource: could not fetch %q", u.String())
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, errors.Errorf("resource: could not fetch %q: status %d", u.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, errors.Wrapf(ErrUnsupportedScheme, "%q", u.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        u,
	}, nil
}

// ReadAll opens a resource and returns its contents.
func ReadAll(location string, relTo *Resource) ([]byte, *Resource, error) {
	res, err := Open(location, relTo)
	if err != nil {
		return nil, nil, err
	}
	defer res.Close()

	data, err := io.ReadAll(res)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "resource: could not read %q", res.Path())
	}
	return data, res, nil
}
