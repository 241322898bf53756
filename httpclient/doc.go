// Package httpclient is the outbound HTTP client used by sidecar-backed
// providers. It resolves paths against a base URL, encodes JSON and
// multipart bodies and classifies failures into typed errors.
//
// Retries and circuit breaking are left to the caller so they can wrap a
// whole provider call rather than a single request.
//
//	client, _ := httpclient.New(httpclient.Config{BaseURL: "http://localhost:8387"})
//	resp, err := client.Do(ctx, httpclient.Request{
//		Method: http.MethodPost,
//		Path:   "/transcribe",
//		Body: &httpclient.MultipartBody{
//			Fields: map[string]string{"model": "base"},
//			Files:  []httpclient.FileField{{FieldName: "audio", FileName: "run.wav", Reader: f}},
//		},
//	})
package httpclient
