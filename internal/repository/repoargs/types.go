package repoargs

type RepositoryName string

const (
	OrderRepoName         RepositoryName = "order"
	StatusHistoryRepoName RepositoryName = "order_status_history"
	PaymentIntentRepoName RepositoryName = "payment_intent"
	FeeScheduleRepoName   RepositoryName = "fee_schedule"
	WalletRepoName        RepositoryName = "wallet_transaction"
)
