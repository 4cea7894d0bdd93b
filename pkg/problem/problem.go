// Package problem writes RFC 7807 problem details responses.
package problem

import (
	"fmt"
	"net/http"

	"github.com/go-faster/jx"
)

// ContentType is the media type of problem responses.
const ContentType = "application/problem+json"

// Details is an RFC 7807 problem.
type Details struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string
}

// New returns Details with Type "about:blank" and Title derived from status.
func New(status int, detail, instance string) *Details {
	return &Details{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

func (d *Details) Error() string {
	return fmt.Sprintf("%d %s: %s", d.Status, d.Title, d.Detail)
}

// Encode writes d as a JSON object.
func (d *Details) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("type", func(e *jx.Encoder) { e.Str(d.Type) })
		e.Field("title", func(e *jx.Encoder) { e.Str(d.Title) })
		e.Field("status", func(e *jx.Encoder) { e.Int(d.Status) })
		if d.Detail != "" {
			e.Field("detail", func(e *jx.Encoder) { e.Str(d.Detail) })
		}
		if d.Instance != "" {
			e.Field("instance", func(e *jx.Encoder) { e.Str(d.Instance) })
		}
	})
}

// Write sends d with its status code.
func (d *Details) Write(w http.ResponseWriter) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	d.Encode(e)

	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(d.Status)
	_, _ = w.Write(e.Bytes())
}

// Write sends a problem for status with the given detail.
func Write(w http.ResponseWriter, r *http.Request, status int, detail string) {
	instance := ""
	if r != nil {
		instance = r.URL.Path
	}
	New(status, detail, instance).Write(w)
}

// NotFound sends a 404 problem.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Write(w, r, http.StatusNotFound, detail)
}

// BadRequest sends a 400 problem.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	Write(w, r, http.StatusBadRequest, detail)
}

// Internal sends a 500 problem. The error text is not exposed.
func Internal(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusInternalServerError, "internal error")
}
