package pas

import (
	"context"

	"pasbridge/internal/transactions/domain"
)

// InsuredService implements ports.InsuredService.
type InsuredService struct {
	rpc invoker
}

type findInsuredRequest struct {
	InsuredName string `xml:"insuredName"`
	City        string `xml:"city"`
	State       string `xml:"state"`
	Zip         string `xml:"zip"`
}

type findInsuredResponse struct {
	Result string `xml:"FindInsuredByNameResult"`
}

type insuredXML struct {
	CorporationName string `xml:"CorporationName"`
	NameOnPolicy    string `xml:"NameOnPolicy"`
	DBA             string `xml:"DBA,omitempty"`
	BusinessType    string `xml:"BusinessType,omitempty"`
}

type locationXML struct {
	LocationName string `xml:"LocationName"`
	Address1     string `xml:"Address1"`
	Address2     string `xml:"Address2,omitempty"`
	City         string `xml:"City"`
	State        string `xml:"State"`
	Zip          string `xml:"Zip"`
	Country      string `xml:"ISOCountryCode"`
	Phone        string `xml:"Phone,omitempty"`
	Email        string `xml:"Email,omitempty"`
}

type addInsuredRequest struct {
	Insured  insuredXML  `xml:"insured"`
	Location locationXML `xml:"location"`
}

type addInsuredResponse struct {
	Result string `xml:"AddInsuredWithLocationResult"`
}

func (s *InsuredService) FindInsured(ctx context.Context, in domain.Insured) (string, bool, error) {
	var resp findInsuredResponse
	err := s.rpc.Invoke(ctx, insuredService, "FindInsuredByName", findInsuredRequest{
		InsuredName: in.Name,
		City:        in.Address.City,
		State:       in.Address.State,
		Zip:         in.Address.Zip,
	}, &resp)
	if err != nil {
		return "", false, err
	}
	guid := normalizeGUID(resp.Result)
	return guid, guid != "", nil
}

func (s *InsuredService) CreateInsured(ctx context.Context, in domain.Insured) (string, error) {
	var resp addInsuredResponse
	err := s.rpc.Invoke(ctx, insuredService, "AddInsuredWithLocation", addInsuredRequest{
		Insured: insuredXML{
			CorporationName: in.Name,
			NameOnPolicy:    in.Name,
			DBA:             in.DBA,
			BusinessType:    in.BusinessType,
		},
		Location: locationXML{
			LocationName: in.Name,
			Address1:     in.Address.Line1,
			Address2:     in.Address.Line2,
			City:         in.Address.City,
			State:        in.Address.State,
			Zip:          in.Address.Zip,
			Country:      "USA",
			Phone:        in.Phone,
			Email:        in.Email,
		},
	}, &resp)
	if err != nil {
		return "", err
	}
	return requireGUID(resp.Result, "insured")
}
