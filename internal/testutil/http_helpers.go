package testutil

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"testing"
)

// NewRequestWithQueryParams creates an HTTP request with query parameters.
// Repeated keys are supported by passing several values.
//
// Example:
//
//	req := testutil.NewRequestWithQueryParams(
//	    http.MethodGet,
//	    "/api/prices",
//	    map[string][]string{
//	        "class": {"stock"},
//	        "key":   {"AAPL", "MSFT"},
//	    },
//	)
func NewRequestWithQueryParams(method, path string, queryParams map[string][]string) *http.Request {
	req := httptest.NewRequest(method, path, nil)

	if len(queryParams) > 0 {
		q := url.Values{}
		for key, values := range queryParams {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}

	return req
}

// NewMultipartRequest creates a multipart/form-data request with one file per
// form field. Fields are written in sorted order.
//
// Example:
//
//	req := testutil.NewMultipartRequest(t, "/api/portfolio/summary", map[string]string{
//	    "kuvera": "Date,Name of the Fund,Order,Units,Amount (INR)\n...",
//	})
func NewMultipartRequest(t *testing.T, path string, files map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := make([]string, 0, len(files))
	for field := range files {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	for _, field := range fields {
		part, err := writer.CreateFormFile(field, field+".csv")
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		if _, err := part.Write([]byte(files[field])); err != nil {
			t.Fatalf("Failed to write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
