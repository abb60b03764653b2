package pas

import (
	"context"
	"fmt"
	"strings"

	"pasbridge/internal/transactions/domain"
)

// ProducerService implements ports.ProducerService.
type ProducerService struct {
	rpc invoker
}

type producerSearchRequest struct {
	SearchString string `xml:"searchString"`
	StartWith    bool   `xml:"startWith"`
}

type producerLocationXML struct {
	LocationGUID string `xml:"ProducerLocationGuid"`
	ContactGUID  string `xml:"ProducerContactGuid"`
	Name         string `xml:"ProducerName"`
	Code         string `xml:"ProducerCode"`
}

type producerSearchResponse struct {
	Results []producerLocationXML `xml:"ProducerSearchResult>ProducerLocation"`
}

type underwriterRequest struct {
	Name string `xml:"underwriterName"`
}

type underwriterResponse struct {
	Result string `xml:"GetUnderwriterByNameResult"`
}

// FindProducer searches by name and picks the location whose code matches.
// Without a code match it accepts an exact name match, then a sole result.
func (s *ProducerService) FindProducer(ctx context.Context, name, code string) (domain.ProducerRef, error) {
	var resp producerSearchResponse
	if err := s.rpc.Invoke(ctx, producerService, "ProducerSearch", producerSearchRequest{SearchString: name}, &resp); err != nil {
		return domain.ProducerRef{}, err
	}

	match, ok := pickProducer(resp.Results, name, code)
	if !ok {
		return domain.ProducerRef{}, fmt.Errorf("producer %q (%s): %w", name, code, domain.ErrNotFound)
	}
	return domain.ProducerRef{
		ContactGUID:  normalizeGUID(match.ContactGUID),
		LocationGUID: normalizeGUID(match.LocationGUID),
	}, nil
}

func pickProducer(results []producerLocationXML, name, code string) (producerLocationXML, bool) {
	code = strings.TrimSpace(code)
	if code != "" {
		for _, r := range results {
			if strings.EqualFold(strings.TrimSpace(r.Code), code) && normalizeGUID(r.LocationGUID) != "" {
				return r, true
			}
		}
	}
	for _, r := range results {
		if strings.EqualFold(strings.TrimSpace(r.Name), strings.TrimSpace(name)) && normalizeGUID(r.LocationGUID) != "" {
			return r, true
		}
	}
	if len(results) == 1 && normalizeGUID(results[0].LocationGUID) != "" {
		return results[0], true
	}
	return producerLocationXML{}, false
}

func (s *ProducerService) FindUnderwriter(ctx context.Context, name string) (string, error) {
	var resp underwriterResponse
	if err := s.rpc.Invoke(ctx, underwriterService, "GetUnderwriterByName", underwriterRequest{Name: name}, &resp); err != nil {
		return "", err
	}
	guid := normalizeGUID(resp.Result)
	if guid == "" {
		return "", fmt.Errorf("underwriter %q: %w", name, domain.ErrNotFound)
	}
	return guid, nil
}
