package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"
)

// NewFrontendProxy creates an HTTP reverse proxy to a separately served
// browser client, typically a dev server with hot reload.
//
// FlushInterval is -1 so that event streams the dev server pushes (live
// reload) are flushed to the browser immediately.
func NewFrontendProxy(targetURL string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(targetURL)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = target.Host
	}

	proxy.FlushInterval = -1 * time.Millisecond

	proxy.Transport = &http.Transport{
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	return proxy, nil
}
