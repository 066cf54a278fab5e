// Package s3test provides an in-process S3 endpoint for tests. It accepts
// path-style PutObject requests, records what it receives and can be told to
// reject individual keys.
package s3test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Object is a stored PutObject request.
type Object struct {
	Bucket          string
	Key             string
	Body            []byte
	ContentType     string
	ContentEncoding string
	ACL             string
}

// Server is a fake S3 endpoint.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	objects map[string]Object
	reject  map[string]int
}

// NewServer starts a plain HTTP fake.
func NewServer() *Server {
	s := newServer()
	s.Server = httptest.NewServer(s)
	return s
}

// NewTLSServer starts a fake that serves a self-signed certificate.
func NewTLSServer() *Server {
	s := newServer()
	s.Server = httptest.NewTLSServer(s)
	return s
}

func newServer() *Server {
	return &Server{
		objects: make(map[string]Object),
		reject:  make(map[string]int),
	}
}

// Reject makes every PutObject for key fail with status.
func (s *Server) Reject(key string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject[key] = status
}

// Object returns the object stored under bucket/key.
func (s *Server) Object(bucket, key string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[bucket+"/"+key]
	return o, ok
}

// Len returns the number of stored objects.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", r.Method)
		return
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if !ok || key == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "expected /bucket/key")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "IncompleteBody", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if status, rejected := s.reject[key]; rejected {
		writeError(w, status, "AccessDenied", "Access Denied")
		return
	}

	s.objects[bucket+"/"+key] = Object{
		Bucket:          bucket,
		Key:             key,
		Body:            body,
		ContentType:     r.Header.Get("Content-Type"),
		ContentEncoding: r.Header.Get("Content-Encoding"),
		ACL:             r.Header.Get("X-Amz-Acl"),
	}

	w.Header().Set("ETag", fmt.Sprintf("%q", fmt.Sprintf("%x", len(body))))
	w.WriteHeader(http.StatusOK)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, msg)
}
