package billing

import (
	"context"

	"github.com/facturio/backend/internal/domain/billing"
	"github.com/facturio/backend/internal/domain/catalog"
	"github.com/facturio/backend/internal/domain/shared"
	"github.com/facturio/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LineResolver turns request line inputs into authoritative line data.
// Product-referencing lines are resolved against the catalog in one batch
// lookup; their price, VAT rate and unit always come from the product, never
// from the request. Ad-hoc lines are validated as-is and can optionally be
// promoted to catalog products.
type LineResolver struct {
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewLineResolver creates a new LineResolver
func NewLineResolver(productRepo catalog.ProductRepository, logger *zap.Logger) *LineResolver {
	return &LineResolver{
		productRepo: productRepo,
		logger:      logger,
	}
}

// withRepository returns a resolver bound to the given product repository.
// Services use it to resolve lines through the transaction-bound repository
// of their scope, so product promotions roll back with the document write.
func (r *LineResolver) withRepository(productRepo catalog.ProductRepository) *LineResolver {
	return &LineResolver{
		productRepo: productRepo,
		logger:      r.logger,
	}
}

// Resolve validates and resolves all lines of a document request. The whole
// batch fails when any referenced product is missing or belongs to another
// organization.
func (r *LineResolver) Resolve(ctx context.Context, organizationID uuid.UUID, inputs []DocumentLineInput) ([]billing.LineData, error) {
	if len(inputs) == 0 {
		return nil, shared.NewDomainError("INVALID_LINES", "A document needs at least one line")
	}

	products, err := r.lookupProducts(ctx, organizationID, inputs)
	if err != nil {
		return nil, err
	}

	lines := make([]billing.LineData, 0, len(inputs))
	for _, input := range inputs {
		var line billing.LineData
		var err error
		if input.ProductID != nil {
			line, err = r.resolveProductLine(input, products[*input.ProductID])
		} else {
			line, err = r.resolveAdHocLine(ctx, organizationID, input)
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// lookupProducts batch-fetches every referenced product and verifies that
// all of them exist within the organization
func (r *LineResolver) lookupProducts(ctx context.Context, organizationID uuid.UUID, inputs []DocumentLineInput) (map[uuid.UUID]*catalog.Product, error) {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, input := range inputs {
		if input.ProductID == nil {
			continue
		}
		if _, ok := seen[*input.ProductID]; ok {
			continue
		}
		seen[*input.ProductID] = struct{}{}
		ids = append(ids, *input.ProductID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	products, err := r.productRepo.FindByIDsForOrganization(ctx, organizationID, ids)
	if err != nil {
		return nil, err
	}
	if len(products) != len(ids) {
		return nil, shared.NewDomainError("NOT_FOUND", "Some products do not exist or do not belong to your organization")
	}

	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}

func (r *LineResolver) resolveProductLine(input DocumentLineInput, product *catalog.Product) (billing.LineData, error) {
	name := input.Name
	if name == "" {
		name = product.Name
	}
	description := input.Description
	if description == "" {
		description = product.Description
	}
	return billing.NewLineData(&product.ID, name, description, input.Quantity, product.UnitPrice, product.VATRate, product.Unit)
}

func (r *LineResolver) resolveAdHocLine(ctx context.Context, organizationID uuid.UUID, input DocumentLineInput) (billing.LineData, error) {
	if input.UnitPrice == nil {
		return billing.LineData{}, shared.NewDomainError("INVALID_PRICE", "Unit price is required for ad-hoc lines")
	}
	rate, err := valueobject.ParseVATRate(input.VATRate)
	if err != nil {
		return billing.LineData{}, shared.NewDomainError("INVALID_VAT_RATE", "VAT rate is not an allowed rate")
	}

	line, err := billing.NewLineData(nil, input.Name, input.Description, input.Quantity, *input.UnitPrice, rate, input.Unit)
	if err != nil {
		return billing.LineData{}, err
	}

	if input.SaveAsProduct {
		product, err := catalog.NewProduct(organizationID, line.Name, valueobject.NewMoneyEUR(line.UnitPrice), line.VATRate, line.Unit)
		if err != nil {
			return billing.LineData{}, err
		}
		product.Description = line.Description
		if err := r.productRepo.Save(ctx, product); err != nil {
			return billing.LineData{}, err
		}
		line.ProductID = &product.ID
		r.logger.Info("promoted ad-hoc line to catalog product",
			zap.String("organization_id", organizationID.String()),
			zap.String("product_id", product.ID.String()),
			zap.String("name", product.Name))
	}
	return line, nil
}
