package pas

import (
	"context"

	"pasbridge/internal/transactions/domain"
)

// DocumentService implements ports.DocumentService.
type DocumentService struct {
	rpc invoker
}

type documentRequest struct {
	PolicyNumber string `xml:"policyNumber"`
}

type documentResponse struct {
	Result struct {
		DocumentGUID string `xml:"DocumentGuid"`
		FileName     string `xml:"FileName"`
	} `xml:"GeneratePolicyDocumentResult"`
}

func (s *DocumentService) GeneratePolicyDocument(ctx context.Context, policyNumber string) (domain.PolicyDocument, error) {
	var resp documentResponse
	if err := s.rpc.Invoke(ctx, documentService, "GeneratePolicyDocument", documentRequest{PolicyNumber: policyNumber}, &resp); err != nil {
		return domain.PolicyDocument{}, err
	}
	guid, err := requireGUID(resp.Result.DocumentGUID, "document")
	if err != nil {
		return domain.PolicyDocument{}, err
	}
	return domain.PolicyDocument{DocumentGUID: guid, FileName: resp.Result.FileName}, nil
}
