// Package httpclient provides a small JSON-oriented HTTP client with
// configurable authentication, TLS and retry behavior. The remote
// processor uses it for handshake and process calls against serving
// endpoints.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:8008",
//	    Timeout: 30 * time.Second,
//	    Auth:    httpclient.BearerAuth("my-token"),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "/service",
//	})
//
// # With Retries
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:8008",
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
package httpclient
