// Package httpapi exposes a pictdb.Container over HTTP, mirroring
// original_source/pictDBM/pictDBM_server.c's four routes: list, read,
// insert, delete. It uses only the standard library's net/http and
// mime/multipart for the transport, the way the original's libmongoose
// shell is a thin routing layer over the same db_* core operations.
package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/droduit/pictDBM"
)

// Server serializes every request against a single open Container: the
// core assumes single-threaded access (spec.md §5), so Server is the sole
// point allowing concurrent HTTP clients to share one database safely.
type Server struct {
	mu  sync.Mutex
	db  *pictdb.Container
	log *logrus.Entry
}

// New wraps db for HTTP access.
func New(db *pictdb.Container, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{db: db, log: log.WithField("component", "httpapi")}
}

// Handler returns the http.Handler exposing /pictDB/list, /pictDB/read,
// /pictDB/insert, and /pictDB/delete.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/pictDB/list", s.handleList)
	mux.HandleFunc("/pictDB/read", s.handleRead)
	mux.HandleFunc("/pictDB/insert", s.handleInsert)
	mux.HandleFunc("/pictDB/delete", s.handleDelete)
	return mux
}

// failRedirect sends the failure back to "/" with the numeric ErrKind in
// the "error" query parameter, the wire contract original_source's
// JavaScript front-end expects.
func (s *Server) failRedirect(w http.ResponseWriter, r *http.Request, err error) {
	code := pictdb.KindOf(err)
	s.log.WithError(err).WithField("code", code).Warn("request failed")
	http.Redirect(w, r, fmt.Sprintf("/?error=%d", code), http.StatusFound)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := s.db.ListJSON()
	if err != nil {
		s.failRedirect(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("pict_id")
	res, ok := pictdb.ResolutionFromString(r.URL.Query().Get("res"))
	if id == "" || !ok {
		s.failRedirect(w, r, pictdb.NewArgError("read", "missing pict_id or bad res"))
		return
	}

	s.mu.Lock()
	data, err := s.db.Read(id, res)
	s.mu.Unlock()
	if err != nil {
		s.failRedirect(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.failRedirect(w, r, pictdb.NewArgError("insert", err.Error()))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		s.failRedirect(w, r, pictdb.NewArgError("insert", err.Error()))
		return
	}
	defer file.Close()

	stagingID := uuid.NewV4()

	staged, err := stageUpload(stagingID.String(), file)
	if err != nil {
		s.failRedirect(w, r, pictdb.NewArgError("insert", err.Error()))
		return
	}
	defer os.Remove(staged)

	data, err := os.ReadFile(staged)
	if err != nil {
		s.failRedirect(w, r, pictdb.NewArgError("insert", err.Error()))
		return
	}

	id := r.FormValue("pict_id")
	if id == "" {
		// The original generates a name from the upload itself when the
		// caller supplies none; fall back to the staging id.
		id = stagingID.String()
	}

	s.mu.Lock()
	err = s.db.Insert(data, id)
	s.mu.Unlock()
	if err != nil {
		s.failRedirect(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// stageUpload copies r to a uuid-named temporary file, the way the original
// server writes an upload to disk before handing it to the core: a crash or
// oversized body is caught by a normal file write rather than an unbounded
// in-memory buffer.
func stageUpload(name string, r io.Reader) (string, error) {
	path := filepath.Join(os.TempDir(), "pictdb-upload-"+name+".jpg")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("pict_id")
	if id == "" {
		s.failRedirect(w, r, pictdb.NewArgError("delete", "missing pict_id"))
		return
	}

	s.mu.Lock()
	err := s.db.Delete(id)
	s.mu.Unlock()
	if err != nil {
		s.failRedirect(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
