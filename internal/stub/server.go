// Package stub serves an in-memory connector that plays both the consumer
// and the provider side of a dataspace exchange. Remote state advances only
// when it is polled, so tests can script exactly how many observations each
// transition takes.
package stub

import (
	"net/http"
	"sync"
	"time"

	"github.com/danmuck/dspctl/internal/jsonld"
	"github.com/danmuck/dspctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	DefaultManagementPath = "/api/management"
	DefaultPublicPath     = "/public"
	CallbackPath          = "/api/consumer/dataReference"
)

var defaultPayload = []byte(`{"message":"some information"}`)

type Options struct {
	Name        string
	Identity    string
	CORSOrigins []string

	ManagementPath string
	PublicPath     string
	// PublicURL is advertised in data references. When empty it is derived
	// from the request host.
	PublicURL string

	// EmptyCatalogPolls catalog requests answer with no datasets.
	EmptyCatalogPolls int
	// FinalizeAfterPolls is the state poll on which a negotiation reports
	// FINALIZED.
	FinalizeAfterPolls int
	// AgreementAfterPolls is the detail poll on which a finalized
	// negotiation carries its agreement id.
	AgreementAfterPolls int
	// TerminateNegotiation makes every negotiation TERMINATED at once.
	TerminateNegotiation bool
	// TransferAfterPolls is the state poll on which a transfer starts.
	TransferAfterPolls int

	Payload []byte
}

func DefaultOptions() Options {
	return Options{
		Name:                "stub",
		Identity:            "urn:connector:stub",
		ManagementPath:      DefaultManagementPath,
		PublicPath:          DefaultPublicPath,
		FinalizeAfterPolls:  1,
		AgreementAfterPolls: 1,
		TransferAfterPolls:  1,
		Payload:             defaultPayload,
	}
}

func (o Options) WithDefaults() Options {
	def := DefaultOptions()
	if o.Name == "" {
		o.Name = def.Name
	}
	if o.Identity == "" {
		o.Identity = def.Identity
	}
	if o.ManagementPath == "" {
		o.ManagementPath = def.ManagementPath
	}
	if o.PublicPath == "" {
		o.PublicPath = def.PublicPath
	}
	if len(o.Payload) == 0 {
		o.Payload = def.Payload
	}
	return o
}

// Server is one stub participant.
type Server struct {
	opts     Options
	router   *gin.Engine
	resolver *jsonld.Resolver
	started  time.Time

	mu    sync.Mutex
	state *store
}

func New(opts Options) *Server {
	opts = opts.WithDefaults()
	observability.RegisterMetrics()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(opts.Name, log.Logger))
	r.Use(observability.RequestMetricsMiddleware(opts.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(opts.CORSOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		opts:     opts,
		router:   r,
		resolver: jsonld.NewResolver(nil),
		started:  time.Now(),
		state:    newStore(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Options() Options {
	return s.opts
}

func (s *Server) Serve(addr string) error {
	log.Info().Str("stub", s.opts.Name).Str("addr", addr).Msg("stub participant listening")
	return s.router.Run(addr)
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"uptime":   time.Since(s.started).String(),
			"stub":     s.opts.Name,
			"identity": s.opts.Identity,
		})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	mgmt := s.router.Group(s.opts.ManagementPath)
	mgmt.POST("/v2/assets", s.createAsset)
	mgmt.POST("/v2/policydefinitions", s.createPolicyDefinition)
	mgmt.POST("/v2/contractdefinitions", s.createContractDefinition)
	mgmt.POST("/instances", s.registerDataPlane)
	mgmt.POST("/v2/catalog/request", s.requestCatalog)
	mgmt.POST("/v2/contractnegotiations", s.initiateNegotiation)
	mgmt.GET("/v2/contractnegotiations/:id", s.getNegotiation)
	mgmt.GET("/v2/contractnegotiations/:id/state", s.getNegotiationState)
	mgmt.POST("/v2/transferprocesses", s.initiateTransfer)
	mgmt.GET("/transferprocess/:id/state", s.getTransferState)

	s.router.GET(CallbackPath+"/:id", s.getDataReference)
	s.router.GET(s.opts.PublicPath, s.pullData)
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func notFound(c *gin.Context, kind, id string) {
	c.JSON(http.StatusNotFound, gin.H{"error": kind + " not found", "id": id})
}
