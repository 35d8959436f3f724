// Package vesting provides a time-locked token release ledger for Go
// applications.
//
// A Vault holds tokens on behalf of beneficiaries and releases them in
// equal periods along each beneficiary's schedule. It is a library, not a
// service: embed it in your process, back it with a store, and hand it a
// transfer service that moves tokens on its behalf. It provides:
//
//   - Per-beneficiary schedules with start time, period length and count
//   - Two funding modes: tagged per-account deposits or a pool-wide release curve
//   - A claim saga that debits first and compensates exactly on transfer failure
//   - Administrator payments that never eat into claimable amounts
//   - Versioned records with in-place upgrades of legacy layouts
//   - Memory, Redis and PostgreSQL stores, plus plugin hooks for audit and metrics
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/vesting"
//	    "github.com/xraph/vesting/store/memory"
//	    "github.com/xraph/vesting/transfer/token"
//	)
//
//	tok := token.New("token.example")
//	transfers := token.NewDispatcher(tok, "vault.example")
//
//	v := vesting.New(memory.New(), transfers, vesting.WithSelf("vault.example"))
//	transfers.Bind(v.Reconciler())
//	transfers.Start(ctx)
//	defer transfers.Stop()
//
//	if err := v.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer v.Stop()
//
// # Core Concepts
//
// Every call takes an Env naming the caller and the current time in
// seconds. The vault never reads a clock on its own:
//
//	env := vesting.Env{Caller: "admin.example", Now: vesting.FromTime(time.Now())}
//
// Initialization fixes the administrator, the token and the funding mode:
//
//	err := v.Init(ctx, env, vesting.InitParams{
//	    Administrator: "admin.example",
//	    Token:         "token.example",
//	    Mode:          vesting.ModePerAccount,
//	})
//
// Schedules are created by the administrator and funded by deposits tagged
// with the beneficiary:
//
//	_, err = v.AddOrReplaceSchedule(ctx, env, schedule.Params{
//	    Beneficiary:     "alice.example",
//	    StartTime:       env.Now,
//	    PeriodLength:    86400,
//	    PeriodCount:     30,
//	    AmountPerPeriod: vesting.NewAmount(100),
//	})
//	err = tok.TransferCall(ctx, "admin.example", "vault.example", vesting.NewAmount(3000), "alice.example", v)
//
// Claims release every due period at once. The returned claim is pending
// until the transfer outcome is reconciled:
//
//	c, err := v.Claim(ctx, vesting.Env{Caller: "alice.example", Now: now}, "")
//
// # Funding Modes
//
// In per-account mode each schedule carries its own balance and a claim
// can never exceed it. In pool-wide mode a single funded total unlocks in
// equal rounds, and claims draw on whatever has unlocked and not yet been
// claimed by anyone.
//
// # Errors
//
// Every rejection carries a stable reason string, available through Reason:
//
//	if _, err := v.Claim(ctx, env, ""); err != nil {
//	    switch vesting.Reason(err) {
//	    case "ERR_NOT_ENOUGH_BALANCE":
//	        // wait for funding
//	    }
//	}
//
// # Plugins
//
// Plugins observe lifecycle events without being able to change them:
//
//	v := vesting.New(s, transfers,
//	    vesting.WithPlugin(audithook.New(recorder)),
//	    vesting.WithPlugin(observability.NewMetricsExtension(observability.NewOTelFactory(meter))),
//	)
package vesting
