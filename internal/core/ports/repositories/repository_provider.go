package repositories

// RepositoryProvider holds instances of all repository facades. It is built
// once at startup and handed to the service container.
type RepositoryProvider struct {
	ExchangeRateRepo ExchangeRateRepositoryFacade
	LoanRepo         LoanRepositoryFacade
	UserRepo         UserRepositoryFacade
}
