package domain

// AccountRow is the balance-sheet view of one account.
type AccountRow struct {
	AccountID        string         `json:"account_id"`
	Name             string         `json:"name"`
	Type             AccountType    `json:"type"`
	Classification   Classification `json:"classification"`
	Currency         string         `json:"currency"`
	Balance          Money          `json:"balance"`
	ConvertedBalance Money          `json:"converted_balance"`
	Syncing          bool           `json:"syncing"`
}

// NewAccountRow copies the fields the balance sheet needs.
func NewAccountRow(a *Account, converted Money) AccountRow {
	return AccountRow{
		AccountID:        a.ID,
		Name:             a.Name,
		Type:             a.Type,
		Classification:   a.Classification(),
		Currency:         a.Currency,
		Balance:          a.BalanceMoney(),
		ConvertedBalance: converted,
	}
}

// AccountTotals groups rows by classification.
type AccountTotals struct {
	Currency          string       `json:"currency"`
	AssetAccounts     []AccountRow `json:"asset_accounts"`
	LiabilityAccounts []AccountRow `json:"liability_accounts"`
}

// GroupAccountRows splits rows into assets and liabilities, keeping order.
func GroupAccountRows(currency string, rows []AccountRow) *AccountTotals {
	t := &AccountTotals{
		Currency:          currency,
		AssetAccounts:     []AccountRow{},
		LiabilityAccounts: []AccountRow{},
	}
	for _, r := range rows {
		if r.Classification == ClassificationLiability {
			t.LiabilityAccounts = append(t.LiabilityAccounts, r)
		} else {
			t.AssetAccounts = append(t.AssetAccounts, r)
		}
	}
	return t
}

// MarkSyncing sets the syncing flag on rows whose account is in syncing.
func (t *AccountTotals) MarkSyncing(syncing map[string]bool) {
	for i := range t.AssetAccounts {
		t.AssetAccounts[i].Syncing = syncing[t.AssetAccounts[i].AccountID]
	}
	for i := range t.LiabilityAccounts {
		t.LiabilityAccounts[i].Syncing = syncing[t.LiabilityAccounts[i].AccountID]
	}
}
