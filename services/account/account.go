// Package account implements the Cash and Margin account variants, one
// per venue, holding the per-currency balance table. Grounded on the
// source's Account/CashAccount/MarginAccount.
package account

import (
	"github.com/shopspring/decimal"

	"github.com/mrhb33/nautilus-backtest-go/services/enums"
	"github.com/mrhb33/nautilus-backtest-go/services/ids"
	"github.com/mrhb33/nautilus-backtest-go/services/value"
)

type Account struct {
	Id            ids.AccountId
	Type          enums.AccountType
	BaseCurrency  value.Currency
	Leverage      decimal.Decimal
	balances      map[string]value.AccountBalance
	commissions   map[string]decimal.Decimal
}

func NewCash(id ids.AccountId, baseCurrency value.Currency, starting ...value.AccountBalance) *Account {
	return newAccount(id, enums.AccountTypeCash, baseCurrency, decimal.NewFromInt(1), starting)
}

func NewMargin(id ids.AccountId, baseCurrency value.Currency, leverage decimal.Decimal, starting ...value.AccountBalance) *Account {
	return newAccount(id, enums.AccountTypeMargin, baseCurrency, leverage, starting)
}

func newAccount(id ids.AccountId, accType enums.AccountType, baseCurrency value.Currency, leverage decimal.Decimal, starting []value.AccountBalance) *Account {
	a := &Account{
		Id: id, Type: accType, BaseCurrency: baseCurrency, Leverage: leverage,
		balances:    make(map[string]value.AccountBalance),
		commissions: make(map[string]decimal.Decimal),
	}
	for _, bal := range starting {
		a.balances[bal.Currency.Code] = bal
	}
	return a
}

func (a *Account) BalanceTotal(currency value.Currency) (value.Money, bool) {
	bal, ok := a.balances[currency.Code]
	if !ok {
		return value.Money{}, false
	}
	return bal.Total, true
}

func (a *Account) BalanceFree(currency value.Currency) (value.Money, bool) {
	bal, ok := a.balances[currency.Code]
	if !ok {
		return value.Money{}, false
	}
	return bal.Free, true
}

func (a *Account) Balance(currency value.Currency) (value.AccountBalance, bool) {
	bal, ok := a.balances[currency.Code]
	return bal, ok
}

// UpdateBalance sets total/locked for currency, creating the entry with a
// zero starting point if it does not already exist, matching the
// source's update_balance, which unconditionally assigns a fresh
// AccountBalance. This resolves the design note's open question about a
// currency absent from the balance table: it is created lazily, not
// rejected.
func (a *Account) UpdateBalance(currency value.Currency, total, locked decimal.Decimal) error {
	bal, err := value.NewAccountBalance(value.NewMoney(total, currency), value.NewMoney(locked, currency))
	if err != nil {
		return err
	}
	a.balances[currency.Code] = bal
	return nil
}

// ApplyFillDelta adjusts an existing (or lazily-created) balance's total by
// signedNotional minus commissionAmount, recomputing free while locked is
// held fixed, the simulated exchange's update rule from §4.5.
func (a *Account) ApplyFillDelta(currency value.Currency, signedNotional, commissionAmount decimal.Decimal) error {
	bal, ok := a.balances[currency.Code]
	if !ok {
		bal, _ = value.NewAccountBalance(value.ZeroMoney(currency), value.ZeroMoney(currency))
	}
	newTotal := bal.Total.Amount.Add(signedNotional).Sub(commissionAmount)
	updated, err := bal.WithTotal(value.NewMoney(newTotal, currency))
	if err != nil {
		return err
	}
	a.balances[currency.Code] = updated
	return nil
}

func (a *Account) UpdateCommission(currency value.Currency, amount decimal.Decimal) {
	a.commissions[currency.Code] = a.commissions[currency.Code].Add(amount)
}

func (a *Account) TotalCommissions() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(a.commissions))
	for k, v := range a.commissions {
		out[k] = v
	}
	return out
}

func (a *Account) Balances() map[string]value.AccountBalance {
	out := make(map[string]value.AccountBalance, len(a.balances))
	for k, v := range a.balances {
		out[k] = v
	}
	return out
}
