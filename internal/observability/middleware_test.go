package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestRequestLoggerUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestLogger("stub-consumer", logger), RequestMetricsMiddleware("stub-consumer"))
	r.GET("/v2/contractnegotiations/:id/state", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown"})
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v2/contractnegotiations/n-1/state", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", rr.Code)
	}

	line := buf.String()
	for _, want := range []string{`"level":"warn"`, `"path":"/v2/contractnegotiations/:id/state"`, `"node":"stub-consumer"`, `"status":404`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %s", want, line)
		}
	}
}
