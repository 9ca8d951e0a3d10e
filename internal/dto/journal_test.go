package dto

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/mma_ledger/internal/apperrors"
	"github.com/SscSPs/mma_ledger/internal/core/domain"
)

func TestCreateEntryRequest_ToDraft(t *testing.T) {
	req := CreateEntryRequest{
		Date:        time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
		Description: "Cash sale",
		Lines: []CreateLineRequest{
			{AccountCode: "1000-Cash", Amount: decimal.NewFromInt(1000), Side: domain.Debit},
			{AccountCode: "4000-Revenue", Amount: decimal.NewFromInt(1000), Side: domain.Credit},
		},
	}
	require.NoError(t, validator.New().Struct(req))

	draft, err := req.ToDraft()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), draft.Date())
	assert.Len(t, draft.Lines(), 2)
}

func TestCreateEntryRequest_TagsRejectBadSide(t *testing.T) {
	req := CreateEntryRequest{Lines: []CreateLineRequest{{AccountCode: "1000", Amount: decimal.NewFromInt(1), Side: "LEFT"}}}
	assert.Error(t, validator.New().Struct(req))
}

func TestCreateEntryRequest_ToDraftPropagatesBuilderErrors(t *testing.T) {
	req := CreateEntryRequest{Lines: []CreateLineRequest{
		{AccountCode: "1000", Amount: decimal.RequireFromString("0.005"), Side: domain.Debit},
		{AccountCode: "4000", Amount: decimal.RequireFromString("0.005"), Side: domain.Credit},
	}}

	_, err := req.ToDraft()
	var invalid *apperrors.InvalidAmountError
	require.ErrorAs(t, err, &invalid)

	_, err = req.ToDraft(domain.WithMinorUnitScale(3))
	assert.NoError(t, err)
}

func TestCreateAccountRequest_Tags(t *testing.T) {
	v := validator.New()
	assert.NoError(t, v.Struct(CreateAccountRequest{Code: "1000", Name: "Cash", AccountType: domain.Asset}))
	assert.Error(t, v.Struct(CreateAccountRequest{Code: "1000", Name: "Cash", AccountType: "CONTRA"}))
	assert.Error(t, v.Struct(CreateAccountRequest{Name: "Cash", AccountType: domain.Asset}))
}
