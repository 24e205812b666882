package preview

import (
	"bytes"
	"net/http"
	"strings"
)

const (
	scriptTag     = `<script async src="/livereload.js"></script>`
	maxInjectSize = 2 << 20
)

// injectLiveReload adds the client script to HTML pages served by next.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isHTMLPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		inj := &injector{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

// injector buffers an HTML response so the script can be placed before
// </body>. Non-HTML and oversized bodies pass straight through.
type injector struct {
	http.ResponseWriter
	status        int
	buf           bytes.Buffer
	started       bool
	passthrough   bool
	headerWritten bool
}

func (i *injector) WriteHeader(code int) {
	i.status = code
	if i.passthrough {
		i.ResponseWriter.WriteHeader(code)
		i.headerWritten = true
	}
}

func (i *injector) Write(data []byte) (int, error) {
	if !i.started {
		i.started = true
		ct := i.Header().Get("Content-Type")
		if (ct != "" && !strings.Contains(ct, "text/html")) || i.status != http.StatusOK {
			i.passthrough = true
		}
	}
	if !i.passthrough && i.buf.Len()+len(data) > maxInjectSize {
		i.passthrough = true
		i.Header().Del("Content-Length")
		if i.buf.Len() > 0 {
			i.ResponseWriter.WriteHeader(i.status)
			i.headerWritten = true
			if _, err := i.ResponseWriter.Write(i.buf.Bytes()); err != nil {
				return 0, err
			}
			i.buf.Reset()
		}
	}
	if i.passthrough {
		if !i.headerWritten {
			i.ResponseWriter.WriteHeader(i.status)
			i.headerWritten = true
		}
		return i.ResponseWriter.Write(data)
	}
	return i.buf.Write(data)
}

func (i *injector) finalize() {
	if i.headerWritten {
		return
	}
	if i.passthrough || i.buf.Len() == 0 {
		i.ResponseWriter.WriteHeader(i.status)
		return
	}
	body := i.buf.Bytes()
	if idx := bytes.LastIndex(body, []byte("</body>")); idx >= 0 {
		out := make([]byte, 0, len(body)+len(scriptTag))
		out = append(out, body[:idx]...)
		out = append(out, scriptTag...)
		out = append(out, body[idx:]...)
		body = out
	}
	i.Header().Del("Content-Length")
	i.ResponseWriter.WriteHeader(i.status)
	_, _ = i.ResponseWriter.Write(body)
}

// isHTMLPath reports whether p would be answered with an HTML page.
func isHTMLPath(p string) bool {
	return p == "" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, ".html")
}
