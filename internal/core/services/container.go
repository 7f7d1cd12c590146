package services

import (
	portschain "github.com/stablelend/micro_lending_app/internal/core/ports/chain"
	portsrate "github.com/stablelend/micro_lending_app/internal/core/ports/ratesource"
	portsrepo "github.com/stablelend/micro_lending_app/internal/core/ports/repositories"
	portssvc "github.com/stablelend/micro_lending_app/internal/core/ports/services"
	"github.com/stablelend/micro_lending_app/internal/utils/userlock"
)

// NewContainer creates the service container with properly initialized
// dependencies. The orchestrator sits on top of the rate feed and the loan
// lifecycle, so those are built first.
func NewContainer(repos *portsrepo.RepositoryProvider, contract portschain.CollateralContract, source portsrate.RateSource, loanTermDays int, collateralCfg CollateralConfig) *portssvc.ServiceContainer {
	rateFeed := NewRateFeedService(repos.ExchangeRateRepo, source)
	loan := NewLoanService(repos.LoanRepo, loanTermDays, collateralCfg.LoanScale, collateralCfg.CollateralScale)
	collateral := NewCollateralService(contract, rateFeed, loan, userlock.NewRegistry(), collateralCfg)
	user := NewUserService(repos.UserRepo)

	return &portssvc.ServiceContainer{
		RateFeed:   rateFeed,
		Loan:       loan,
		Collateral: collateral,
		User:       user,
	}
}

// Compile-time checks that each service satisfies its facade.
var (
	_ portssvc.RateFeedSvcFacade   = (*RateFeedService)(nil)
	_ portssvc.LoanSvcFacade       = (*LoanService)(nil)
	_ portssvc.CollateralSvcFacade = (*CollateralService)(nil)
	_ portssvc.UserSvcFacade       = (*UserService)(nil)
)
