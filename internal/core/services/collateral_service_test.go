package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
	"github.com/stablelend/micro_lending_app/internal/core/domain"
	portschain "github.com/stablelend/micro_lending_app/internal/core/ports/chain"
	portssvc "github.com/stablelend/micro_lending_app/internal/core/ports/services"
	"github.com/stablelend/micro_lending_app/internal/core/services"
	"github.com/stablelend/micro_lending_app/internal/dto"
	"github.com/stablelend/micro_lending_app/internal/utils/userlock"
)

// --- Mock CollateralContract ---
type MockCollateralContract struct {
	mock.Mock
}

func (m *MockCollateralContract) AccountSnapshot(ctx context.Context, userID string) (*domain.CollateralAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollateralAccount), args.Error(1)
}

func (m *MockCollateralContract) WalletBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockCollateralContract) IsTransactionConfirmed(ctx context.Context, txRef string) (bool, error) {
	args := m.Called(ctx, txRef)
	return args.Bool(0), args.Error(1)
}

func (m *MockCollateralContract) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*portschain.MutationResult, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portschain.MutationResult), args.Error(1)
}

func (m *MockCollateralContract) Withdraw(ctx context.Context, userID string, amount, rate decimal.Decimal) (*portschain.MutationResult, error) {
	args := m.Called(ctx, userID, amount, rate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portschain.MutationResult), args.Error(1)
}

func (m *MockCollateralContract) RequestLoan(ctx context.Context, userID string, amount, rate decimal.Decimal) (*portschain.LoanResult, error) {
	args := m.Called(ctx, userID, amount, rate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portschain.LoanResult), args.Error(1)
}

func (m *MockCollateralContract) MaxBorrowable(ctx context.Context, balance, rate decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, balance, rate)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockCollateralContract) RequiredCollateral(ctx context.Context, amount, rate decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, amount, rate)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock RateFeedReader ---
type MockRateFeedReader struct {
	mock.Mock
}

func (m *MockRateFeedReader) LatestRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, baseCurrencyCode, quoteCurrencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}

func (m *MockRateFeedReader) LatestFreshRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, maxAge time.Duration) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, baseCurrencyCode, quoteCurrencyCode, maxAge)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}

func (m *MockRateFeedReader) RateHistory(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, since time.Time) ([]domain.ExchangeRate, error) {
	args := m.Called(ctx, baseCurrencyCode, quoteCurrencyCode, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExchangeRate), args.Error(1)
}

func (m *MockRateFeedReader) RateAnalytics(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, since time.Time) (*domain.RateAnalytics, error) {
	args := m.Called(ctx, baseCurrencyCode, quoteCurrencyCode, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateAnalytics), args.Error(1)
}

// --- Mock LoanSvc ---
type MockLoanSvc struct {
	mock.Mock
}

func (m *MockLoanSvc) GetLoan(ctx context.Context, loanID, userID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanSvc) ListUserLoans(ctx context.Context, userID string, limit, offset int) ([]domain.Loan, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Loan), args.Error(1)
}

func (m *MockLoanSvc) ListPendingLoans(ctx context.Context, page, limit int) ([]domain.Loan, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Loan), args.Error(1)
}

func (m *MockLoanSvc) AggregateLoansByStatus(ctx context.Context, userID string) ([]domain.LoanStatusSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LoanStatusSummary), args.Error(1)
}

func (m *MockLoanSvc) CreateLoan(ctx context.Context, params portssvc.CreateLoanParams) (*domain.Loan, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanSvc) TransitionLoan(ctx context.Context, loanID string, target domain.LoanStatus, payload portssvc.TransitionPayload) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, target, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanSvc) CancelLoan(ctx context.Context, loanID, userID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

// --- Test Suite ---
type CollateralServiceTestSuite struct {
	suite.Suite
	mockContract *MockCollateralContract
	mockRates    *MockRateFeedReader
	mockLoans    *MockLoanSvc
	service      portssvc.CollateralSvcFacade
	cfg          services.CollateralConfig
}

func (suite *CollateralServiceTestSuite) SetupTest() {
	suite.mockContract = new(MockCollateralContract)
	suite.mockRates = new(MockRateFeedReader)
	suite.mockLoans = new(MockLoanSvc)
	suite.cfg = services.CollateralConfig{
		BaseCurrencyCode:  "GLD",
		QuoteCurrencyCode: "IDR",
		LTVRatio:          decimal.RequireFromString("0.5"),
		MaxRateAge:        5 * time.Minute,
		CollateralScale:   6,
		LoanScale:         2,
	}
	suite.service = services.NewCollateralService(
		suite.mockContract, suite.mockRates, suite.mockLoans, userlock.NewRegistry(), suite.cfg)
}

func (suite *CollateralServiceTestSuite) freshRate(value string) *domain.ExchangeRate {
	return &domain.ExchangeRate{
		Rate:        decimal.RequireFromString(value),
		Active:      true,
		AuditFields: domain.AuditFields{CreatedAt: time.Now()},
	}
}

func account(balance, debt string, active bool) *domain.CollateralAccount {
	return &domain.CollateralAccount{
		UserID:  "u1",
		Balance: decimal.RequireFromString(balance),
		Debt:    decimal.RequireFromString(debt),
		Active:  active,
	}
}

// --- Deposit ---

func (suite *CollateralServiceTestSuite) TestDeposit_Success() {
	ctx := context.Background()
	amount := decimal.RequireFromString("100")

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("500", "0", true), nil).Once()
	suite.mockContract.On("WalletBalance", ctx, "u1").Return(decimal.RequireFromString("250"), nil).Once()
	suite.mockContract.On("Deposit", ctx, "u1", amount).Return(&portschain.MutationResult{ConfirmationRef: "0xabc"}, nil).Once()
	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("600", "0", true), nil).Once()

	updated, err := suite.service.Deposit(ctx, "u1", amount, "")

	suite.Require().NoError(err)
	suite.True(updated.Balance.Equal(decimal.RequireFromString("600")))
	suite.mockContract.AssertExpectations(suite.T())
}

func (suite *CollateralServiceTestSuite) TestDeposit_InsufficientWallet() {
	ctx := context.Background()

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("500", "0", true), nil).Once()
	suite.mockContract.On("WalletBalance", ctx, "u1").Return(decimal.RequireFromString("50"), nil).Once()

	updated, err := suite.service.Deposit(ctx, "u1", decimal.RequireFromString("100"), "")

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrInsufficientBalance)
	suite.mockContract.AssertNotCalled(suite.T(), "Deposit", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CollateralServiceTestSuite) TestDeposit_InactiveAccount() {
	ctx := context.Background()

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("500", "0", false), nil).Once()

	updated, err := suite.service.Deposit(ctx, "u1", decimal.RequireFromString("100"), "")

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrAccountNotActive)
}

func (suite *CollateralServiceTestSuite) TestDeposit_UnconfirmedTransaction() {
	ctx := context.Background()

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("500", "0", true), nil).Once()
	suite.mockContract.On("WalletBalance", ctx, "u1").Return(decimal.RequireFromString("250"), nil).Once()
	suite.mockContract.On("IsTransactionConfirmed", ctx, "0xdead").Return(false, nil).Once()

	updated, err := suite.service.Deposit(ctx, "u1", decimal.RequireFromString("100"), "0xdead")

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrTransactionNotConfirmed)
	suite.mockContract.AssertNotCalled(suite.T(), "Deposit", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CollateralServiceTestSuite) TestDeposit_RejectsNonPositiveAmount() {
	ctx := context.Background()

	updated, err := suite.service.Deposit(ctx, "u1", decimal.Zero, "")

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

// --- Withdraw ---

func (suite *CollateralServiceTestSuite) TestWithdraw_ShortfallOfOneUnitRejected() {
	ctx := context.Background()
	// Debt 100 at rate 0.0025 and LTV 0.5 requires 80000 collateral. A balance
	// of 80000 leaves zero headroom, so withdrawing the smallest unit fails
	// with a shortfall equal to the withdrawal.
	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("80000", "100", true), nil).Once()
	suite.mockRates.On("LatestFreshRate", ctx, "GLD", "IDR", 5*time.Minute).Return(suite.freshRate("0.0025"), nil).Once()

	updated, err := suite.service.Withdraw(ctx, "u1", decimal.RequireFromString("1"))

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrInsufficientCollateralAfterWithdrawal)

	var shortfall *apperrors.CollateralShortfallError
	suite.Require().True(errors.As(err, &shortfall))
	suite.True(shortfall.Required.Equal(decimal.RequireFromString("80000")))
	suite.True(shortfall.Shortfall.Equal(decimal.RequireFromString("1")))
	suite.mockContract.AssertNotCalled(suite.T(), "Withdraw", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CollateralServiceTestSuite) TestWithdraw_WithHeadroom() {
	ctx := context.Background()
	rate := decimal.RequireFromString("0.0025")
	amount := decimal.RequireFromString("1000")

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("81000", "100", true), nil).Once()
	suite.mockRates.On("LatestFreshRate", ctx, "GLD", "IDR", 5*time.Minute).Return(suite.freshRate("0.0025"), nil).Once()
	suite.mockContract.On("Withdraw", ctx, "u1", amount, rate).Return(&portschain.MutationResult{ConfirmationRef: "0xok"}, nil).Once()
	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("80000", "100", true), nil).Once()

	updated, err := suite.service.Withdraw(ctx, "u1", amount)

	suite.Require().NoError(err)
	suite.True(updated.Balance.Equal(decimal.RequireFromString("80000")))
	suite.mockContract.AssertExpectations(suite.T())
}

func (suite *CollateralServiceTestSuite) TestWithdraw_NoDebtProceedsWithoutFreshRate() {
	ctx := context.Background()
	amount := decimal.RequireFromString("10")

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("500", "0", true), nil).Once()
	suite.mockRates.On("LatestFreshRate", ctx, "GLD", "IDR", 5*time.Minute).Return(nil, apperrors.ErrRateStale).Once()
	suite.mockContract.On("Withdraw", ctx, "u1", amount, decimal.Zero).Return(&portschain.MutationResult{ConfirmationRef: "0xok"}, nil).Once()
	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("490", "0", true), nil).Once()

	updated, err := suite.service.Withdraw(ctx, "u1", amount)

	suite.Require().NoError(err)
	suite.True(updated.Balance.Equal(decimal.RequireFromString("490")))
}

func (suite *CollateralServiceTestSuite) TestWithdraw_WithDebtBlockedByStaleRate() {
	ctx := context.Background()

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("80000", "100", true), nil).Once()
	suite.mockRates.On("LatestFreshRate", ctx, "GLD", "IDR", 5*time.Minute).Return(nil, apperrors.ErrRateStale).Once()

	updated, err := suite.service.Withdraw(ctx, "u1", decimal.RequireFromString("1"))

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrRateStale)
	suite.mockContract.AssertNotCalled(suite.T(), "Withdraw", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CollateralServiceTestSuite) TestWithdraw_ExceedsBalance() {
	ctx := context.Background()

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("500", "0", true), nil).Once()

	updated, err := suite.service.Withdraw(ctx, "u1", decimal.RequireFromString("501"))

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrInsufficientBalance)
}

// --- RequestLoan ---

func (suite *CollateralServiceTestSuite) loanRequest(amount string) dto.RequestLoanRequest {
	return dto.RequestLoanRequest{
		Amount: decimal.RequireFromString(amount),
		BankDestination: dto.BankDestinationRequest{
			BankCode:      "BCA",
			AccountNumber: "1234567890",
			AccountName:   "Test Account",
		},
	}
}

func (suite *CollateralServiceTestSuite) TestRequestLoan_Success() {
	ctx := context.Background()
	rate := decimal.RequireFromString("0.0025")

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("1000", "0", true), nil).Once()
	suite.mockRates.On("LatestFreshRate", ctx, "GLD", "IDR", 5*time.Minute).Return(suite.freshRate("0.0025"), nil).Once()
	suite.mockContract.On("MaxBorrowable", ctx, decimal.RequireFromString("1000"), rate).Return(decimal.RequireFromString("1.25"), nil).Once()
	suite.mockContract.On("RequestLoan", ctx, "u1", decimal.RequireFromString("1.25"), rate).
		Return(&portschain.LoanResult{ConfirmationRef: "0xloan", ChainLoanID: "7"}, nil).Once()
	suite.mockLoans.On("CreateLoan", ctx, mock.MatchedBy(func(p portssvc.CreateLoanParams) bool {
		return p.UserID == "u1" && p.ChainLoanID == "7" &&
			p.Amount.Equal(decimal.RequireFromString("1.25")) &&
			p.Collateral.Equal(decimal.RequireFromString("1000")) &&
			p.RateAtRequest.Equal(rate)
	})).Return(&domain.Loan{LoanID: "LN-1", UserID: "u1", Status: domain.LoanPending}, nil).Once()

	loan, err := suite.service.RequestLoan(ctx, "u1", suite.loanRequest("1.25"))

	suite.Require().NoError(err)
	suite.Require().NotNil(loan)
	suite.Equal(domain.LoanPending, loan.Status)
	suite.mockContract.AssertExpectations(suite.T())
	suite.mockLoans.AssertExpectations(suite.T())
}

func (suite *CollateralServiceTestSuite) TestRequestLoan_ExceedsCapacity() {
	ctx := context.Background()

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("1000", "0", true), nil).Once()
	suite.mockRates.On("LatestFreshRate", ctx, "GLD", "IDR", 5*time.Minute).Return(suite.freshRate("0.0025"), nil).Once()

	loan, err := suite.service.RequestLoan(ctx, "u1", suite.loanRequest("1.26"))

	suite.Require().Error(err)
	suite.Nil(loan)
	suite.ErrorIs(err, apperrors.ErrExceedsBorrowingCapacity)
	suite.mockContract.AssertNotCalled(suite.T(), "RequestLoan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CollateralServiceTestSuite) TestRequestLoan_ExistingDebtShrinksHeadroom() {
	ctx := context.Background()

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("1000", "1", true), nil).Once()
	suite.mockRates.On("LatestFreshRate", ctx, "GLD", "IDR", 5*time.Minute).Return(suite.freshRate("0.0025"), nil).Once()

	loan, err := suite.service.RequestLoan(ctx, "u1", suite.loanRequest("0.26"))

	suite.Require().Error(err)
	suite.Nil(loan)
	suite.ErrorIs(err, apperrors.ErrExceedsBorrowingCapacity)
}

func (suite *CollateralServiceTestSuite) TestRequestLoan_StaleRateBlocks() {
	ctx := context.Background()

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("1000", "0", true), nil).Once()
	suite.mockRates.On("LatestFreshRate", ctx, "GLD", "IDR", 5*time.Minute).Return(nil, apperrors.ErrRateStale).Once()

	loan, err := suite.service.RequestLoan(ctx, "u1", suite.loanRequest("1"))

	suite.Require().Error(err)
	suite.Nil(loan)
	suite.ErrorIs(err, apperrors.ErrRateStale)
}

func (suite *CollateralServiceTestSuite) TestRequestLoan_ContractLimitIsAuthoritativeWhenSmaller() {
	ctx := context.Background()
	rate := decimal.RequireFromString("0.0025")

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("1000", "0", true), nil).Once()
	suite.mockRates.On("LatestFreshRate", ctx, "GLD", "IDR", 5*time.Minute).Return(suite.freshRate("0.0025"), nil).Once()
	suite.mockContract.On("MaxBorrowable", ctx, decimal.RequireFromString("1000"), rate).Return(decimal.RequireFromString("1.00"), nil).Once()

	loan, err := suite.service.RequestLoan(ctx, "u1", suite.loanRequest("1.25"))

	suite.Require().Error(err)
	suite.Nil(loan)
	suite.ErrorIs(err, apperrors.ErrExceedsBorrowingCapacity)
	suite.mockContract.AssertNotCalled(suite.T(), "RequestLoan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CollateralServiceTestSuite) TestRequestLoan_ContractFailureIsReported() {
	ctx := context.Background()
	rate := decimal.RequireFromString("0.0025")

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("1000", "0", true), nil)
	suite.mockRates.On("LatestFreshRate", ctx, "GLD", "IDR", 5*time.Minute).Return(suite.freshRate("0.0025"), nil).Once()
	suite.mockContract.On("MaxBorrowable", ctx, decimal.RequireFromString("1000"), rate).Return(decimal.RequireFromString("1.25"), nil).Once()
	suite.mockContract.On("RequestLoan", ctx, "u1", decimal.RequireFromString("1.25"), rate).
		Return(nil, apperrors.ErrContractCallFailed).Once()

	loan, err := suite.service.RequestLoan(ctx, "u1", suite.loanRequest("1.25"))

	suite.Require().Error(err)
	suite.Nil(loan)
	suite.ErrorIs(err, apperrors.ErrContractCallFailed)
	suite.mockLoans.AssertNotCalled(suite.T(), "CreateLoan", mock.Anything, mock.Anything)
}

// --- Quote / capacity / summary ---

func (suite *CollateralServiceTestSuite) TestQuote() {
	ctx := context.Background()

	suite.mockRates.On("LatestFreshRate", ctx, "GLD", "IDR", 5*time.Minute).Return(suite.freshRate("0.0025"), nil).Once()

	quote, err := suite.service.Quote(ctx, decimal.RequireFromString("1000"))

	suite.Require().NoError(err)
	suite.True(quote.MaxBorrowable.Equal(decimal.RequireFromString("1.25")))
	suite.True(quote.LTVRatio.Equal(decimal.RequireFromString("0.5")))
}

func (suite *CollateralServiceTestSuite) TestBorrowingCapacity() {
	ctx := context.Background()

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("1000", "1", true), nil).Once()
	suite.mockRates.On("LatestFreshRate", ctx, "GLD", "IDR", 5*time.Minute).Return(suite.freshRate("0.0025"), nil).Once()

	capacity, err := suite.service.BorrowingCapacity(ctx, "u1")

	suite.Require().NoError(err)
	suite.True(capacity.MaxBorrowable.Equal(decimal.RequireFromString("1.25")))
	suite.True(capacity.AvailableToBorrow.Equal(decimal.RequireFromString("0.25")))
}

func (suite *CollateralServiceTestSuite) TestDebtSummary() {
	ctx := context.Background()

	suite.mockContract.On("AccountSnapshot", ctx, "u1").Return(account("1000", "1.25", true), nil).Once()
	suite.mockLoans.On("AggregateLoansByStatus", ctx, "u1").Return([]domain.LoanStatusSummary{
		{Status: domain.LoanFunded, Count: 1, TotalAmount: decimal.RequireFromString("1.25"), TotalCollateral: decimal.RequireFromString("500")},
		{Status: domain.LoanRepaid, Count: 2, TotalAmount: decimal.RequireFromString("3"), TotalCollateral: decimal.RequireFromString("2400")},
	}, nil).Once()
	suite.mockRates.On("LatestRate", ctx, "GLD", "IDR").Return(suite.freshRate("0.0025"), nil).Once()

	summary, err := suite.service.DebtSummary(ctx, "u1")

	suite.Require().NoError(err)
	suite.True(summary.LockedCollateral.Equal(decimal.RequireFromString("500")))
	suite.True(summary.AvailableCollateral.Equal(decimal.RequireFromString("500")))
	suite.True(summary.AvailableToBorrow.IsZero())
	suite.Len(summary.ByStatus, 2)
}

// --- Concurrency ---

// fakeContract is a stateful in-memory contract used to exercise the per-user
// serialization: debt moves when a loan lands, so the second admission must
// observe the first.
type fakeContract struct {
	mu      sync.Mutex
	balance decimal.Decimal
	debt    decimal.Decimal
}

func (f *fakeContract) AccountSnapshot(ctx context.Context, userID string) (*domain.CollateralAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &domain.CollateralAccount{UserID: userID, Balance: f.balance, Debt: f.debt, Active: true}, nil
}

func (f *fakeContract) WalletBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeContract) IsTransactionConfirmed(ctx context.Context, txRef string) (bool, error) {
	return true, nil
}

func (f *fakeContract) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*portschain.MutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance = f.balance.Add(amount)
	return &portschain.MutationResult{ConfirmationRef: "0xdep"}, nil
}

func (f *fakeContract) Withdraw(ctx context.Context, userID string, amount, rate decimal.Decimal) (*portschain.MutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance = f.balance.Sub(amount)
	return &portschain.MutationResult{ConfirmationRef: "0xwd"}, nil
}

func (f *fakeContract) RequestLoan(ctx context.Context, userID string, amount, rate decimal.Decimal) (*portschain.LoanResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.debt = f.debt.Add(amount)
	return &portschain.LoanResult{ConfirmationRef: "0xloan", ChainLoanID: "1"}, nil
}

func (f *fakeContract) MaxBorrowable(ctx context.Context, balance, rate decimal.Decimal) (decimal.Decimal, error) {
	return balance.Mul(rate).Mul(decimal.RequireFromString("0.5")).RoundFloor(2), nil
}

func (f *fakeContract) RequiredCollateral(ctx context.Context, amount, rate decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (suite *CollateralServiceTestSuite) TestRequestLoan_ConcurrentRequestsAdmitExactlyOne() {
	ctx := context.Background()
	contract := &fakeContract{
		balance: decimal.RequireFromString("1000"),
		debt:    decimal.Zero,
	}
	suite.mockRates.On("LatestFreshRate", mock.Anything, "GLD", "IDR", 5*time.Minute).Return(suite.freshRate("0.0025"), nil)
	suite.mockLoans.On("CreateLoan", mock.Anything, mock.AnythingOfType("services.CreateLoanParams")).
		Return(&domain.Loan{LoanID: "LN-1", Status: domain.LoanPending}, nil)

	service := services.NewCollateralService(contract, suite.mockRates, suite.mockLoans, userlock.NewRegistry(), suite.cfg)

	// Both requests ask for the full 1.25 limit. Serialization means the
	// second admission sees the first loan's debt and must be rejected.
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := service.RequestLoan(ctx, "u1", suite.loanRequest("1.25"))
			results <- err
		}()
	}

	var successes, rejections int
	for i := 0; i < 2; i++ {
		err := <-results
		if err == nil {
			successes++
		} else {
			suite.ErrorIs(err, apperrors.ErrExceedsBorrowingCapacity)
			rejections++
		}
	}

	suite.Equal(1, successes)
	suite.Equal(1, rejections)
	suite.True(contract.debt.Equal(decimal.RequireFromString("1.25")))
}

// --- Run Suite ---
func TestCollateralService(t *testing.T) {
	suite.Run(t, new(CollateralServiceTestSuite))
}
