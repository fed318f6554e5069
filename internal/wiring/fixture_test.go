package wiring

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/jakim54/cii-best-practices-badge/internal/config"
)

const (
	repoURL  = "https://github.com/linuxfoundation/cii-best-practices-badge"
	repoPath = "/repos/linuxfoundation/cii-best-practices-badge"
)

// fakeGitHub serves canned bodies per path. A path mapped to hang blocks
// until the client gives up.
type fakeGitHub struct {
	*httptest.Server

	mu     sync.Mutex
	bodies map[string]string
	hits   []string
}

const hang = "\x00hang"

func newFakeGitHub(bodies map[string]string) *fakeGitHub {
	f := &fakeGitHub{bodies: bodies}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits = append(f.hits, r.URL.Path)
		body, ok := f.bodies[r.URL.Path]
		f.mu.Unlock()

		switch {
		case !ok:
			http.NotFound(w, r)
		case body == hang:
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}
	}))
	return f
}

func (f *fakeGitHub) Hits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hits...)
}

// testConfig returns the defaults pointed at api.
func testConfig(api string) *config.Config {
	cfg, err := config.Default()
	if err != nil {
		panic(err)
	}
	cfg.Evidence.GitHubAPI = api
	cfg.Evidence.Token = ""
	cfg.Evidence.Timeout = config.Duration(200 * time.Millisecond)
	return cfg
}
