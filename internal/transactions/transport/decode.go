package transport

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"pasbridge/internal/transactions/domain"
	"pasbridge/platform/apperr"
	"pasbridge/platform/sanitize"
	"pasbridge/platform/validator"
)

const maxCommentRunes = 2000

// Decode parses raw into the request variant named by its transactionType.
// Shape errors are KindValidation; the variant's own Validate runs later in
// the orchestrator.
func Decode(raw []byte, val *validator.Validator, receivedAt time.Time) (domain.Request, error) {
	var dto TransactionRequest
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&dto); err != nil {
		return nil, apperr.Validation("invalid transaction payload").WithDetails([]string{err.Error()})
	}
	if err := val.Struct(dto); err != nil {
		return nil, apperr.Validation("invalid transaction payload").WithDetails(validator.Describe(err))
	}
	txType, err := domain.ParseTransactionType(dto.TransactionType)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil, apperr.Validation("invalid transaction payload").WithDetails([]string{err.Error()})
	}

	env := domain.Envelope{
		TransactionID: trimmed(dto.TransactionID),
		Type:          txType,
		Keys: domain.LookupKeys{
			OpportunityID: dto.OpportunityID,
			OptionID:      dto.OptionID,
			PolicyNumber:  trimmed(dto.PolicyNumber),
		},
		TransactionDate: trimmed(dto.TransactionDate),
		Comment:         sanitize.Truncate(dto.Comment, maxCommentRunes),
		ReceivedAt:      receivedAt.UTC(),
		Raw:             json.RawMessage(compact.Bytes()),
	}

	return dto.Data.toRequest(env), nil
}

func (d TransactionData) toRequest(env domain.Envelope) domain.Request {
	switch env.Type {
	case domain.TypeBind:
		req := &domain.BindRequest{
			Envelope: env,
			Insured: domain.Insured{
				Name: trimmed(d.InsuredName),
				DBA:  trimmed(d.InsuredDBA),
				Address: domain.Address{
					Line1: trimmed(d.AddressLine1),
					Line2: trimmed(d.AddressLine2),
					City:  trimmed(d.City),
					State: strings.ToUpper(trimmed(d.AddressState)),
					Zip:   trimmed(d.Zip),
				},
				Phone:        trimmed(d.Phone),
				Email:        trimmed(d.Email),
				BusinessType: trimmed(d.BusinessType),
			},
			ProducerName:    trimmed(d.ProducerName),
			ProducerCode:    trimmed(d.ProducerCode),
			UnderwriterName: trimmed(d.UnderwriterName),
			LineOfBusiness:  trimmed(d.LineOfBusiness),
			State:           strings.ToUpper(trimmed(d.State)),
			EffectiveDate:   trimmed(d.EffectiveDate),
			ExpirationDate:  trimmed(d.ExpirationDate),
			GrossPremium:    d.GrossPremium,
		}
		if d.PolicyFee != nil {
			req.PolicyFee = *d.PolicyFee
		}
		return req

	case domain.TypeUnbind:
		return &domain.UnbindRequest{Envelope: env, Reason: sanitize.Text(d.UnbindReason)}

	case domain.TypeIssue:
		return &domain.IssueRequest{Envelope: env}

	case domain.TypeMidtermEndorsement:
		return &domain.EndorsementRequest{
			Envelope:      env,
			EffectiveFrom: firstValidDate(d.MidtermEndtEffectiveFrom, d.EffectiveDate),
			Premium:       preferSpecific(d.MidtermEndtPremium, d.GrossPremium),
			Description:   sanitize.Text(d.MidtermEndtDescription),
		}

	case domain.TypeCancellation:
		req := &domain.CancellationRequest{
			Envelope:      env,
			EffectiveDate: firstValidDate(d.CancellationDate, d.EffectiveDate),
			ReasonCode:    d.CancellationReasonCode,
		}
		if d.RefundAmount != nil {
			req.RefundAmount = *d.RefundAmount
		}
		return req

	default:
		req := &domain.ReinstatementRequest{
			Envelope:      env,
			EffectiveDate: firstValidDate(d.ReinstatementDate, d.EffectiveDate),
		}
		if p := preferSpecific(d.ReinstatementPremium, d.GrossPremium); p != nil {
			req.Premium = *p
		}
		return req
	}
}

// preferSpecific returns the type-specific premium when present and falls
// back to the deprecated gross_premium alias.
func preferSpecific(specific, alias *domain.Money) *domain.Money {
	if specific != nil {
		return specific
	}
	return alias
}

func trimmed(s string) string { return strings.TrimSpace(s) }

// firstValidDate returns the first value that parses as a date. When none
// does, the first non-empty value is kept so the orchestrator can report it
// and fall back to the transaction date.
func firstValidDate(values ...string) string {
	for _, v := range values {
		if _, ok := domain.ParseDate(v); ok {
			return strings.TrimSpace(v)
		}
	}
	return firstNonEmpty(values...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
