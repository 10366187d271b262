package jsonld

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danmuck/dspctl/internal/testutil/testlog"
	"github.com/rs/zerolog/log"
)

func TestGoldProcessorBoundsRemoteContextFetch(t *testing.T) {
	testlog.Start(t)

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	p := NewGoldProcessorWithClient(&http.Client{Timeout: 50 * time.Millisecond})
	doc := map[string]any{
		KeywordContext: srv.URL + "/context.jsonld",
		"name":         "asset-1",
	}

	start := time.Now()
	_, err := p.Expand(doc)
	elapsed := time.Since(start)
	log.Info().Msgf("elapsed=%s err=%v", elapsed, err)
	if err == nil {
		t.Fatalf("expected remote context failure")
	}
	if elapsed > 2*time.Second {
		t.Fatalf("context fetch not bounded: %s", elapsed)
	}
}
