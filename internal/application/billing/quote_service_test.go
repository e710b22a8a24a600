package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newQuoteService(quoteRepo *MockQuoteRepository, productRepo *MockProductRepository) *QuoteService {
	scope := NewNoOpTransactionScope(nil, quoteRepo, productRepo)
	return NewQuoteService(quoteRepo, NewLineResolver(productRepo, zap.NewNop()), scope, zap.NewNop())
}

func storedQuote(t *testing.T, orgID uuid.UUID) *billing.Quote {
	t.Helper()
	issue := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	quote, err := billing.NewQuote(orgID, uuid.New(), "QUO-ABCDEF-202608-001", uuid.New(), issue, issue.AddDate(0, 1, 0))
	require.NoError(t, err)
	line, err := billing.NewLineData(nil, "Consulting day", "", decimal.NewFromInt(2), decimal.NewFromInt(50), "20", "day")
	require.NoError(t, err)
	require.NoError(t, quote.ReplaceLines([]billing.LineData{line}))
	return quote
}

func TestQuoteServiceCreate(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	customerID := uuid.New()
	issue := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	quoteRepo := new(MockQuoteRepository)
	quoteRepo.On("GenerateReference", mock.Anything, orgID).Return("QUO-ABCDEF-202608-007", nil)
	quoteRepo.On("Save", mock.Anything, mock.MatchedBy(func(q *billing.Quote) bool {
		return q.OrganizationID == orgID &&
			q.Reference == "QUO-ABCDEF-202608-007" &&
			q.Status == billing.QuoteStatusDraft
	})).Return(nil)

	service := newQuoteService(quoteRepo, new(MockProductRepository))

	resp, err := service.Create(context.Background(), orgID, userID, CreateQuoteRequest{
		CustomerID: customerID,
		IssueDate:  issue,
		ValidUntil: issue.AddDate(0, 1, 0),
		Lines:      []DocumentLineInput{adHocLineInput("Consulting day", 2, 50, "20")},
	})
	require.NoError(t, err)

	assert.Equal(t, "QUO-ABCDEF-202608-007", resp.Reference)
	assert.Equal(t, "DRAFT", resp.Status)
	assert.True(t, resp.AmountInclTax.Equal(decimal.NewFromInt(120)))
	quoteRepo.AssertExpectations(t)
}

func TestQuoteServiceList(t *testing.T) {
	orgID := uuid.New()
	quote := storedQuote(t, orgID)

	quoteRepo := new(MockQuoteRepository)
	quoteRepo.On("FindAllForOrganization", mock.Anything, orgID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 2 && f.PageSize == 5 && f.Filters["status"] == "SENT"
	})).Return([]billing.Quote{*quote}, nil)
	quoteRepo.On("CountForOrganization", mock.Anything, orgID, mock.Anything).Return(int64(6), nil)
	quoteRepo.On("CountByStatus", mock.Anything, orgID).Return(billing.QuoteStatusCounts{
		billing.QuoteStatusSent:  6,
		billing.QuoteStatusDraft: 1,
	}, nil)

	service := newQuoteService(quoteRepo, new(MockProductRepository))

	status := billing.QuoteStatusSent
	result, err := service.List(context.Background(), orgID, QuoteListFilter{Page: 2, PageSize: 5, Status: &status})
	require.NoError(t, err)

	assert.Len(t, result.Items, 1)
	assert.Equal(t, int64(6), result.Total)
	assert.Equal(t, 2, result.TotalPages)
	assert.Equal(t, int64(6), result.Summary.Sent)
	assert.Equal(t, int64(1), result.Summary.Draft)
	assert.Equal(t, int64(7), result.Summary.Total)
}

func TestQuoteServiceStatusSummary(t *testing.T) {
	orgID := uuid.New()

	quoteRepo := new(MockQuoteRepository)
	quoteRepo.On("CountByStatus", mock.Anything, orgID).Return(billing.QuoteStatusCounts{
		billing.QuoteStatusDraft:    2,
		billing.QuoteStatusAccepted: 4,
	}, nil)

	service := newQuoteService(quoteRepo, new(MockProductRepository))

	summary, err := service.StatusSummary(context.Background(), orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Draft)
	assert.Equal(t, int64(4), summary.Accepted)
	assert.Equal(t, int64(6), summary.Total)
}

func TestQuoteServiceUpdate(t *testing.T) {
	orgID := uuid.New()
	quote := storedQuote(t, orgID)
	conditions := "Valid for 60 days"

	quoteRepo := new(MockQuoteRepository)
	quoteRepo.On("FindByIDForOrganization", mock.Anything, orgID, quote.ID).Return(quote, nil)
	quoteRepo.On("SaveWithLock", mock.Anything, quote).Return(nil)

	service := newQuoteService(quoteRepo, new(MockProductRepository))

	resp, err := service.Update(context.Background(), orgID, quote.ID, UpdateQuoteRequest{Conditions: &conditions})
	require.NoError(t, err)
	assert.Equal(t, conditions, resp.Conditions)
	quoteRepo.AssertExpectations(t)
}

func TestQuoteServiceUpdateAcceptedQuoteRejected(t *testing.T) {
	orgID := uuid.New()
	quote := storedQuote(t, orgID)
	quote.Status = billing.QuoteStatusAccepted
	notes := "nope"

	quoteRepo := new(MockQuoteRepository)
	quoteRepo.On("FindByIDForOrganization", mock.Anything, orgID, quote.ID).Return(quote, nil)

	service := newQuoteService(quoteRepo, new(MockProductRepository))

	_, err := service.Update(context.Background(), orgID, quote.ID, UpdateQuoteRequest{Notes: &notes})
	require.Error(t, err)
	domainErr, ok := shared.IsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "QUOTE_ACCEPTED", domainErr.Code)
	quoteRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestQuoteServiceAccept(t *testing.T) {
	orgID := uuid.New()
	quote := storedQuote(t, orgID)
	quote.MarkSent()

	quoteRepo := new(MockQuoteRepository)
	quoteRepo.On("FindByIDForOrganization", mock.Anything, orgID, quote.ID).Return(quote, nil)
	quoteRepo.On("SaveWithLock", mock.Anything, quote).Return(nil)

	service := newQuoteService(quoteRepo, new(MockProductRepository))

	resp, err := service.Accept(context.Background(), orgID, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACCEPTED", resp.Status)
	assert.NotNil(t, resp.AcceptedAt)
}

func TestQuoteServiceAcceptMasksRepositoryFailure(t *testing.T) {
	orgID := uuid.New()
	quote := storedQuote(t, orgID)
	quote.MarkSent()

	quoteRepo := new(MockQuoteRepository)
	quoteRepo.On("FindByIDForOrganization", mock.Anything, orgID, quote.ID).Return(quote, nil)
	quoteRepo.On("SaveWithLock", mock.Anything, quote).Return(errors.New("pq: deadlock detected"))

	service := newQuoteService(quoteRepo, new(MockProductRepository))

	_, err := service.Accept(context.Background(), orgID, quote.ID)
	assert.ErrorIs(t, err, shared.ErrInternal)
}

func TestQuoteServiceRejectExpiredQuote(t *testing.T) {
	orgID := uuid.New()
	quote := storedQuote(t, orgID)
	quote.Status = billing.QuoteStatusExpired

	quoteRepo := new(MockQuoteRepository)
	quoteRepo.On("FindByIDForOrganization", mock.Anything, orgID, quote.ID).Return(quote, nil)

	service := newQuoteService(quoteRepo, new(MockProductRepository))

	_, err := service.Reject(context.Background(), orgID, quote.ID)
	require.Error(t, err)
	domainErr, ok := shared.IsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "QUOTE_EXPIRED", domainErr.Code)
}

func TestQuoteServiceDeleteAcceptedQuoteRejected(t *testing.T) {
	orgID := uuid.New()
	quote := storedQuote(t, orgID)
	quote.Status = billing.QuoteStatusAccepted

	quoteRepo := new(MockQuoteRepository)
	quoteRepo.On("FindByIDForOrganization", mock.Anything, orgID, quote.ID).Return(quote, nil)

	service := newQuoteService(quoteRepo, new(MockProductRepository))

	err := service.Delete(context.Background(), orgID, quote.ID)
	require.Error(t, err)
	domainErr, ok := shared.IsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "QUOTE_ACCEPTED", domainErr.Code)
	quoteRepo.AssertNotCalled(t, "DeleteForOrganization", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuoteServiceDelete(t *testing.T) {
	orgID := uuid.New()
	quote := storedQuote(t, orgID)

	quoteRepo := new(MockQuoteRepository)
	quoteRepo.On("FindByIDForOrganization", mock.Anything, orgID, quote.ID).Return(quote, nil)
	quoteRepo.On("DeleteForOrganization", mock.Anything, orgID, quote.ID).Return(nil)

	service := newQuoteService(quoteRepo, new(MockProductRepository))

	require.NoError(t, service.Delete(context.Background(), orgID, quote.ID))
	quoteRepo.AssertExpectations(t)
}
