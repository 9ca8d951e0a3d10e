package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/SscSPs/mma_ledger/internal/apperrors"
	"github.com/SscSPs/mma_ledger/internal/core/domain"
	"github.com/SscSPs/mma_ledger/internal/core/ports"
	portsrepo "github.com/SscSPs/mma_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mma_ledger/internal/core/ports/services"
	"github.com/SscSPs/mma_ledger/internal/dto"
)

// accountService is the account registry: the authoritative store of the
// chart of accounts and the only holder of the balance mutation path.
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	balances    portssvc.BalanceReaderSvc
	clock       ports.Clock
	validate    *validator.Validate
}

// NewAccountService creates a new account registry backed by store.
func NewAccountService(store portsrepo.Store, opts ...ServiceOption) portssvc.AccountSvcFacade {
	o := newServiceOptions(opts)
	return newAccountService(store, newQueryService(store, o), o)
}

func newAccountService(store portsrepo.Store, balances portssvc.BalanceReaderSvc, o serviceOptions) *accountService {
	return &accountService{
		BaseService: newBaseService(o),
		accountRepo: store,
		balances:    balances,
		clock:       o.clock,
		validate:    validator.New(),
	}
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount registers a new account with a zero balance.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)

	ctx, span := s.startSpan(ctx, "ledger.account.create", attribute.String("account_code", req.Code))
	account, err := s.createAccount(ctx, req)
	endSpan(span, err)
	return account, err
}

func (s *accountService) createAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	now := s.clock.Now()
	account := domain.Account{
		Code:     req.Code,
		Name:     req.Name,
		Type:     req.AccountType,
		SubType:  strings.TrimSpace(req.SubType),
		Category: strings.TrimSpace(req.Category),
		Balance:  decimal.Zero,
		Timestamps: domain.Timestamps{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		var dup *apperrors.DuplicateCodeError
		if errors.As(err, &dup) {
			s.LogWarn(ctx, "Account code already exists", slog.String("account_code", account.Code))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to save account", slog.String("account_code", account.Code))
		return nil, fmt.Errorf("failed to save account %s: %w", account.Code, err)
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_code", account.Code),
		slog.String("account_type", string(account.Type)))
	return &account, nil
}

// GetAccount retrieves a specific account by its code.
func (s *accountService) GetAccount(ctx context.Context, code string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account", slog.String("account_code", code))
		}
		return nil, err
	}
	s.LogDebug(ctx, "Account retrieved successfully", slog.String("account_code", code))
	return account, nil
}

// ListAccounts retrieves every account ordered by code.
func (s *accountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	s.LogDebug(ctx, "Accounts listed successfully", slog.Int("count", len(accounts)))
	return accounts, nil
}

// GetBalance returns the live running balance, or the balance as of a date.
func (s *accountService) GetBalance(ctx context.Context, code string, asOf *time.Time) (decimal.Decimal, error) {
	if asOf != nil {
		return s.balances.BalanceAsOf(ctx, code, *asOf)
	}
	account, err := s.GetAccount(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// applyDelta mutates a running balance. Only the posting engine calls it, and
// only with a tx obtained from the store's transactional scope.
func (s *accountService) applyDelta(ctx context.Context, tx portsrepo.StoreTx, code string, delta decimal.Decimal, at time.Time) error {
	if delta.IsZero() {
		return nil
	}
	if err := tx.ApplyBalanceDelta(ctx, code, delta, at); err != nil {
		return fmt.Errorf("failed to apply balance delta to account %s: %w", code, err)
	}
	return nil
}
