package stub

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/dspctl/internal/auth"
	"github.com/danmuck/dspctl/internal/jsonld"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownOffer     = errors.New("stub: unknown offer")
	ErrPolicyMismatch   = errors.New("stub: policy does not match offer")
	ErrUnknownAgreement = errors.New("stub: unknown agreement")
	ErrDuplicate        = errors.New("stub: already exists")
)

func edcContext() jsonld.Object {
	return jsonld.Object{jsonld.EDCPrefix: jsonld.String(jsonld.EDCNamespace)}
}

func idResponse(id string) jsonld.Object {
	return jsonld.Object{
		jsonld.KeywordContext: edcContext(),
		jsonld.KeywordID:      jsonld.String(id),
		jsonld.KeywordType:    jsonld.String("edc:IdResponseDto"),
		"edc:createdAt":       jsonld.Number(time.Now().UnixMilli()),
	}
}

func readObject(c *gin.Context) (jsonld.Object, error) {
	data, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	return jsonld.ParseObject(data)
}

func (s *Server) createAsset(c *gin.Context) {
	body, err := readObject(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	props := firstObject(body, "properties")
	id := body.ID()
	if id == "" {
		id, _ = props.PropertyText("id")
	}
	if id == "" {
		badRequest(c, fmt.Errorf("asset has no id"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.state.assets[id]; exists {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("%v: asset %s", ErrDuplicate, id)})
		return
	}
	s.state.assets[id] = asset{id: id, properties: props, dataAddress: firstObject(body, "dataAddress")}
	s.state.assetOrder = append(s.state.assetOrder, id)
	log.Info().Str("stub", s.opts.Name).Str("asset", id).Msg("asset created")
	c.JSON(http.StatusOK, idResponse(id))
}

func (s *Server) createPolicyDefinition(c *gin.Context) {
	body, err := readObject(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	policy := firstObject(body, "policy")
	if policy == nil {
		badRequest(c, fmt.Errorf("policy definition has no policy"))
		return
	}
	id := body.ID()
	if id == "" {
		id = "policy-" + uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.state.policies[id]; exists {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("%v: policy %s", ErrDuplicate, id)})
		return
	}
	s.state.policies[id] = policy
	c.JSON(http.StatusOK, idResponse(id))
}

func (s *Server) createContractDefinition(c *gin.Context) {
	body, err := readObject(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	def := contractDefinition{id: body.ID()}
	def.accessPolicyID, _ = body.PropertyText("accessPolicyId")
	def.contractPolicyID, _ = body.PropertyText("contractPolicyId")
	if raw, ok := body.Property("criteria"); ok {
		for _, criterion := range jsonld.Objects(raw) {
			left, _ := criterion.PropertyText("operandLeft")
			op, _ := criterion.PropertyText("operator")
			right, _ := criterion.PropertyText("operandRight")
			if op == "=" && isIDOperand(left) && right != "" {
				def.assetIDs = append(def.assetIDs, right)
			}
		}
	}
	if def.id == "" {
		def.id = "def-" + uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, policyID := range []string{def.accessPolicyID, def.contractPolicyID} {
		if _, ok := s.state.policies[policyID]; !ok {
			badRequest(c, fmt.Errorf("contract definition %s references unknown policy %q", def.id, policyID))
			return
		}
	}
	for _, existing := range s.state.definitions {
		if existing.id == def.id {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("%v: contract definition %s", ErrDuplicate, def.id)})
			return
		}
	}
	s.state.definitions = append(s.state.definitions, def)
	c.JSON(http.StatusOK, idResponse(def.id))
}

func isIDOperand(left string) bool {
	switch left {
	case "id", "edc:id", jsonld.EDC("id"):
		return true
	default:
		return false
	}
}

func (s *Server) registerDataPlane(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	target, _ := body["url"].(string)
	if strings.TrimSpace(target) == "" {
		badRequest(c, fmt.Errorf("data plane instance has no url"))
		return
	}
	id, _ := body["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	s.state.dataPlanes[id] = body
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func (s *Server) requestCatalog(c *gin.Context) {
	body, err := readObject(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if providerURL, _ := body.PropertyText("providerUrl"); providerURL == "" {
		badRequest(c, fmt.Errorf("catalog request has no providerUrl"))
		return
	}

	s.mu.Lock()
	s.state.catalogPolls++
	datasets := jsonld.Array{}
	if s.state.catalogPolls > s.opts.EmptyCatalogPolls {
		datasets = s.state.datasets()
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, jsonld.Object{
		jsonld.KeywordContext:  jsonld.DefaultContext(),
		jsonld.KeywordID:       jsonld.String("urn:uuid:" + uuid.NewString()),
		jsonld.KeywordType:     jsonld.String("dcat:Catalog"),
		"dcat:dataset":         datasets,
		"dspace:participantId": jsonld.String(s.opts.Identity),
	})
}

func (s *Server) initiateNegotiation(c *gin.Context) {
	body, err := readObject(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	req := firstObject(body, "offer")
	offerID, _ := req.PropertyText("offerId")
	policy := firstObject(req, "policy")

	s.mu.Lock()
	advertised, ok := s.state.offers[offerID]
	s.mu.Unlock()
	if !ok {
		badRequest(c, fmt.Errorf("%w: %q", ErrUnknownOffer, offerID))
		return
	}
	if err := s.samePolicy(policy, offerNode(offerID, advertised.policy)); err != nil {
		badRequest(c, err)
		return
	}

	n := &negotiation{
		id:      uuid.NewString(),
		offerID: offerID,
		assetID: advertised.ref.Asset,
		state:   stateRequested,
	}
	if s.opts.TerminateNegotiation {
		n.state = stateTerminated
		n.errorDetail = "provider rejected the contract request"
	}

	s.mu.Lock()
	s.state.negotiations[n.id] = n
	s.mu.Unlock()
	log.Info().Str("stub", s.opts.Name).Str("negotiation", n.id).Str("offer", offerID).Msg("negotiation requested")
	c.JSON(http.StatusOK, idResponse(n.id))
}

// samePolicy compares the received policy with the advertised one after
// expanding both.
func (s *Server) samePolicy(received, advertised jsonld.Object) error {
	if received == nil {
		return fmt.Errorf("%w: request carries no policy", ErrPolicyMismatch)
	}
	if _, ok := advertised[jsonld.KeywordContext]; !ok {
		advertised[jsonld.KeywordContext] = jsonld.DefaultContext()
	}
	got, err := s.resolver.Expand(received)
	if err != nil {
		return err
	}
	want, err := s.resolver.Expand(advertised)
	if err != nil {
		return err
	}
	if !jsonld.Equivalent(objectArray(got), objectArray(want)) {
		return ErrPolicyMismatch
	}
	return nil
}

func (s *Server) getNegotiationState(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.state.negotiations[id]
	if !ok {
		notFound(c, "negotiation", id)
		return
	}
	n.statePolls++
	if n.state == stateRequested && n.statePolls >= s.opts.FinalizeAfterPolls {
		n.state = stateFinalized
	}
	c.JSON(http.StatusOK, jsonld.Object{
		jsonld.KeywordContext: edcContext(),
		jsonld.KeywordType:    jsonld.String("edc:NegotiationState"),
		"edc:state":           jsonld.String(n.state),
	})
}

func (s *Server) getNegotiation(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.state.negotiations[id]
	if !ok {
		notFound(c, "negotiation", id)
		return
	}
	n.detailPolls++
	if n.state == stateFinalized && n.agreementID == "" && n.detailPolls >= s.opts.AgreementAfterPolls {
		n.agreementID = uuid.NewString()
		s.state.agreements[n.agreementID] = n.assetID
	}

	resp := jsonld.Object{
		jsonld.KeywordContext: edcContext(),
		jsonld.KeywordID:      jsonld.String(n.id),
		jsonld.KeywordType:    jsonld.String("edc:ContractNegotiation"),
		"edc:type":            jsonld.String("CONSUMER"),
		"edc:protocol":        jsonld.String("dataspace-protocol-http"),
		"edc:state":           jsonld.String(n.state),
		"edc:counterPartyId":  jsonld.String(s.opts.Identity),
	}
	if n.agreementID != "" {
		resp["edc:contractAgreementId"] = jsonld.String(n.agreementID)
	}
	if n.errorDetail != "" {
		resp["edc:errorDetail"] = jsonld.String(n.errorDetail)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) initiateTransfer(c *gin.Context) {
	body, err := readObject(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	agreementID, _ := body.PropertyText("contractId")
	dest := firstObject(body, "dataDestination")
	kind, _ := dest.PropertyText("type")

	s.mu.Lock()
	defer s.mu.Unlock()
	assetID, ok := s.state.agreements[agreementID]
	if !ok {
		badRequest(c, fmt.Errorf("%w: %q", ErrUnknownAgreement, agreementID))
		return
	}
	if requested, _ := body.PropertyText("assetId"); requested != "" && requested != assetID {
		badRequest(c, fmt.Errorf("agreement %s covers asset %s, not %s", agreementID, assetID, requested))
		return
	}
	t := &transfer{
		id:          uuid.NewString(),
		agreementID: agreementID,
		assetID:     assetID,
		pull:        kind == destinationHTTPProxy,
		state:       stateRequested,
	}
	s.state.transfers[t.id] = t
	log.Info().Str("stub", s.opts.Name).Str("transfer", t.id).Str("destination", kind).Msg("transfer requested")
	c.JSON(http.StatusOK, idResponse(t.id))
}

func (s *Server) getTransferState(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.state.transfers[id]
	if !ok {
		notFound(c, "transfer", id)
		return
	}
	t.polls++
	if t.state == stateRequested && t.polls >= s.opts.TransferAfterPolls {
		if t.pull {
			t.state = stateStarted
			cred := auth.Issue(auth.DefaultHeader)
			t.credential = &cred
			t.endpoint = s.publicURL(c)
		} else {
			t.state = stateCompleted
		}
	}
	c.JSON(http.StatusOK, gin.H{"id": t.id, "state": t.state})
}

func (s *Server) publicURL(c *gin.Context) string {
	if s.opts.PublicURL != "" {
		return s.opts.PublicURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + s.opts.PublicPath
}

func (s *Server) getDataReference(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	t, ok := s.state.transfers[id]
	var resp gin.H
	if ok && t.credential != nil {
		resp = gin.H{
			"id":         t.id,
			"endpoint":   t.endpoint,
			"authKey":    t.credential.Key,
			"authCode":   t.credential.Code,
			"properties": map[string]string{"assetId": t.assetID, "agreementId": t.agreementID},
		}
	}
	s.mu.Unlock()
	if resp == nil {
		notFound(c, "data reference", id)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) pullData(c *gin.Context) {
	s.mu.Lock()
	var granted *transfer
	for _, t := range s.state.transfers {
		if t.credential != nil && t.credential.Check(c.Request.Header) == nil {
			granted = t
			break
		}
	}
	s.mu.Unlock()
	if granted == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": auth.ErrUnauthorized.Error()})
		return
	}
	log.Debug().Str("stub", s.opts.Name).Str("transfer", granted.id).Msg("data pulled")
	c.Data(http.StatusOK, "application/json", s.opts.Payload)
}

// firstObject returns the first object under term, or nil.
func firstObject(o jsonld.Object, term string) jsonld.Object {
	raw, ok := o.Property(term)
	if !ok {
		return nil
	}
	objs := jsonld.Objects(raw)
	if len(objs) == 0 {
		return nil
	}
	return objs[0]
}

func objectArray(objs []jsonld.Object) jsonld.Array {
	out := make(jsonld.Array, len(objs))
	for i, o := range objs {
		out[i] = o
	}
	return out
}
