package storage

// GlobalLedgerKey addresses the ledger holding every recorded trade.
const GlobalLedgerKey = "ledger"

// CoinLedgerKey returns the ledger key for a coin's trades.
// The coin must already be normalized (uppercase).
func CoinLedgerKey(coin string) string {
	return "coin:" + coin
}

// PersonLedgerKey returns the ledger key for a person's trades.
// The person must already be normalized (lowercase).
func PersonLedgerKey(person string) string {
	return "person:" + person
}
