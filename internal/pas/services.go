package pas

import (
	"context"
)

type invoker interface {
	Invoke(ctx context.Context, service, method string, req, resp any) error
}

const (
	insuredService     = "InsuredFunctions"
	producerService    = "ProducerFunctions"
	underwriterService = "UnderwriterFunctions"
	quoteService       = "QuoteFunctions"
	invoiceService     = "InvoiceFactory"
	documentService    = "DocumentFunctions"
	dataAccessService  = "DataAccess"

	externalSystemID = "pasbridge"
)

// Services bundles the PAS adapters behind one session.
type Services struct {
	Session   *Session
	Insureds  *InsuredService
	Producers *ProducerService
	Quotes    *QuoteService
	Policies  *PolicyService
	Invoices  *InvoiceService
	Documents *DocumentService
	Data      *DataAccess
}

// NewServices wires every adapter to session.
func NewServices(session *Session) *Services {
	return &Services{
		Session:   session,
		Insureds:  &InsuredService{rpc: session},
		Producers: &ProducerService{rpc: session},
		Quotes:    &QuoteService{rpc: session},
		Policies:  &PolicyService{rpc: session},
		Invoices:  &InvoiceService{rpc: session},
		Documents: &DocumentService{rpc: session},
		Data:      &DataAccess{rpc: session},
	}
}
