// Package util holds the outbound-HTTP plumbing shared by URL checks:
// proxy resolution and robots.txt gating.
package util

import (
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// NewProxyFunc builds the transport proxy function. Explicit settings
// win; otherwise the standard HTTP_PROXY/HTTPS_PROXY/NO_PROXY
// environment applies.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	cfg := &httpproxy.Config{
		HTTPProxy:  httpProxy,
		HTTPSProxy: httpsProxy,
		NoProxy:    noProxy,
	}
	fromCfg := cfg.ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return fromCfg(req.URL)
	}
}
