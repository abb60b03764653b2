package pas

import (
	"context"
	"fmt"
	"strings"

	"pasbridge/internal/transactions/domain"
)

// InvoiceService implements ports.InvoiceService.
type InvoiceService struct {
	rpc invoker
}

type invoiceLineXML struct {
	Description string `xml:"Description"`
	Amount      string `xml:"Amount"`
}

type invoiceXML struct {
	InvoiceNumber string           `xml:"InvoiceNumber"`
	InvoiceDate   string           `xml:"InvoiceDate"`
	DueDate       string           `xml:"DueDate"`
	Total         string           `xml:"Total"`
	Lines         []invoiceLineXML `xml:"Lines>Line"`
}

type invoiceResponse struct {
	Result *invoiceXML `xml:"GetInvoiceDataResult"`
}

// GetInvoice reports found=false while the PAS has not generated the invoice.
func (s *InvoiceService) GetInvoice(ctx context.Context, quoteGUID string) (domain.Invoice, bool, error) {
	var resp invoiceResponse
	if err := s.rpc.Invoke(ctx, invoiceService, "GetInvoiceData", quoteGUIDRequest{QuoteGUID: quoteGUID}, &resp); err != nil {
		return domain.Invoice{}, false, err
	}
	if resp.Result == nil || strings.TrimSpace(resp.Result.InvoiceNumber) == "" {
		return domain.Invoice{}, false, nil
	}
	inv, err := resp.Result.toDomain()
	if err != nil {
		return domain.Invoice{}, false, err
	}
	return inv, true, nil
}

func (x invoiceXML) toDomain() (domain.Invoice, error) {
	total, err := parseAmount(x.Total)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("invoice %s total: %w", x.InvoiceNumber, err)
	}
	inv := domain.Invoice{
		InvoiceNumber: strings.TrimSpace(x.InvoiceNumber),
		InvoiceDate:   normalizeDate(x.InvoiceDate),
		DueDate:       normalizeDate(x.DueDate),
		Total:         total,
	}
	for _, line := range x.Lines {
		amount, err := parseAmount(line.Amount)
		if err != nil {
			return domain.Invoice{}, fmt.Errorf("invoice %s line %q: %w", x.InvoiceNumber, line.Description, err)
		}
		inv.Lines = append(inv.Lines, domain.InvoiceLine{
			Description: strings.TrimSpace(line.Description),
			Amount:      amount,
		})
	}
	return inv, nil
}

func parseAmount(raw string) (domain.Money, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return domain.ParseMoney(raw)
}

func normalizeDate(raw string) string {
	if t, ok := domain.ParseDate(raw); ok {
		return domain.FormatDate(t)
	}
	return strings.TrimSpace(raw)
}
