package leads

import (
	"context"

	"github.com/hazyhaar/leadscout/kit"
)

// endpoints are the read operations shared by the HTTP and MCP surfaces.
type endpoints struct {
	ranked kit.Endpoint
	get    kit.Endpoint
	stats  kit.Endpoint
	runs   kit.Endpoint
	run    kit.Endpoint
}

func (s *Service) newEndpoints() *endpoints {
	return &endpoints{
		ranked: s.endpoint("leads_ranked", s.rankedEndpoint),
		get:    s.endpoint("leads_get", s.getEndpoint),
		stats:  s.endpoint("leads_stats", s.statsEndpoint),
		runs:   s.endpoint("leads_runs", s.runsEndpoint),
		run:    s.endpoint("leads_run", s.runEndpoint),
	}
}

func (s *Service) endpoint(name string, ep kit.Endpoint) kit.Endpoint {
	return kit.Chain(kit.Logging(s.logger, name), kit.Recover())(ep)
}

type rankedRequest struct {
	MinScore int `json:"min_score"`
	Limit    int `json:"limit,omitempty"`
}

type getRequest struct {
	URL string `json:"url"`
}

type statsRequest struct{}

type runsRequest struct {
	Limit int `json:"limit,omitempty"`
}

type runRequest struct {
	ID string `json:"id"`
}

func (s *Service) rankedEndpoint(ctx context.Context, req any) (any, error) {
	r := req.(*rankedRequest)
	leads, err := s.Ranked(ctx, r.MinScore)
	if err != nil {
		return nil, err
	}
	if r.Limit > 0 && len(leads) > r.Limit {
		leads = leads[:r.Limit]
	}
	if leads == nil {
		leads = []*Lead{}
	}
	return leads, nil
}

func (s *Service) getEndpoint(ctx context.Context, req any) (any, error) {
	return s.Lead(ctx, req.(*getRequest).URL)
}

func (s *Service) statsEndpoint(ctx context.Context, _ any) (any, error) {
	return s.Stats(ctx)
}

func (s *Service) runsEndpoint(ctx context.Context, req any) (any, error) {
	runs, err := s.Runs(ctx, req.(*runsRequest).Limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []*Run{}
	}
	return runs, nil
}

func (s *Service) runEndpoint(ctx context.Context, req any) (any, error) {
	return s.GetRun(ctx, req.(*runRequest).ID)
}
