package vesting_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/transfer/token"
)

// TestDocumentationExamples runs the package documentation walkthrough end to end.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()
		now := time.Unix(1_700_000_000, 0)

		tok := token.New("token.example")
		transfers := token.NewDispatcher(tok, "vault.example", token.WithLogger(slog.Default()))

		v := vesting.New(memory.New(), transfers,
			vesting.WithSelf("vault.example"),
			vesting.WithLogger(slog.Default()),
			vesting.WithClock(func() time.Time { return now }),
		)
		transfers.Bind(v.Reconciler())
		transfers.Start(ctx)
		defer transfers.Stop()

		if err := v.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer v.Stop()

		tok.Register("vault.example")
		tok.Register("alice.example")
		tok.Mint("admin.example", vesting.NewAmount(5000))

		env := vesting.Env{Caller: "admin.example", Now: vesting.FromTime(now)}
		err := v.Init(ctx, env, vesting.InitParams{
			Administrator: "admin.example",
			Token:         "token.example",
			Mode:          vesting.ModePerAccount,
		})
		if err != nil {
			t.Fatal(err)
		}

		_, err = v.AddOrReplaceSchedule(ctx, env, schedule.Params{
			Beneficiary:     "alice.example",
			StartTime:       env.Now,
			PeriodLength:    86400,
			PeriodCount:     30,
			AmountPerPeriod: vesting.NewAmount(100),
		})
		if err != nil {
			t.Fatal(err)
		}

		err = tok.TransferCall(ctx, "admin.example", "vault.example", vesting.NewAmount(3000), "alice.example", v)
		if err != nil {
			t.Fatal(err)
		}

		// A deposit the vault rejects is refunded by the token.
		err = tok.TransferCall(ctx, "admin.example", "vault.example", vesting.NewAmount(10), "", v)
		if vesting.Reason(err) != "ERR_MISSING_ACCOUNT_ID" {
			t.Fatalf("expected ERR_MISSING_ACCOUNT_ID, got %v", err)
		}
		if !tok.BalanceOf("admin.example").Equal(vesting.NewAmount(2000)) {
			t.Fatalf("expected refund, admin holds %s", tok.BalanceOf("admin.example"))
		}

		later := env.Now + 3*86400
		c, err := v.Claim(ctx, vesting.Env{Caller: "alice.example", Now: later}, "")
		if err != nil {
			t.Fatal(err)
		}
		if c == nil || c.Periods != 3 {
			t.Fatalf("expected a three period claim, got %+v", c)
		}

		transfers.Flush()

		if got := tok.BalanceOf("alice.example"); !got.Equal(vesting.NewAmount(300)) {
			t.Errorf("expected alice to hold 300, got %s", got)
		}
		pending, err := v.ListPendingClaims(ctx, claim.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(pending) != 0 {
			t.Errorf("expected no pending claims, got %d", len(pending))
		}
	})

	t.Run("FailedTransferRollsBack", func(t *testing.T) {
		ctx := context.Background()

		tok := token.New("token.example")
		transfers := token.NewDispatcher(tok, "vault.example")
		v := vesting.New(memory.New(), transfers, vesting.WithSelf("vault.example"))
		transfers.Bind(v.Reconciler())
		transfers.Start(ctx)
		defer transfers.Stop()

		if err := v.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer v.Stop()

		tok.Register("vault.example")
		tok.Mint("admin.example", vesting.NewAmount(400))

		env := vesting.Env{Caller: "admin.example", Now: 0}
		err := v.Init(ctx, env, vesting.InitParams{
			Administrator: "admin.example",
			Token:         "token.example",
			Mode:          vesting.ModePerAccount,
			Schedules: []schedule.Params{{
				Beneficiary:     "bob.example",
				StartTime:       0,
				PeriodLength:    10,
				PeriodCount:     4,
				AmountPerPeriod: vesting.NewAmount(100),
			}},
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := tok.TransferCall(ctx, "admin.example", "vault.example", vesting.NewAmount(400), "bob.example", v); err != nil {
			t.Fatal(err)
		}

		// bob never registered with the token, so the transfer fails.
		if _, err := v.Claim(ctx, vesting.Env{Caller: "bob.example", Now: 40}, ""); err != nil {
			t.Fatal(err)
		}
		transfers.Flush()

		view, err := v.GetSchedule(ctx, "bob.example", 40)
		if err != nil {
			t.Fatal(err)
		}
		if view.PeriodsClaimed != 0 || !view.Funding.Balance.Equal(vesting.NewAmount(400)) {
			t.Errorf("expected a full rollback, got %s with balance %s", view.Schedule, view.Funding.Balance)
		}
		if got := tok.BalanceOf("vault.example"); !got.Equal(vesting.NewAmount(400)) {
			t.Errorf("expected the vault to keep 400, got %s", got)
		}
	})

	t.Run("ErrorReasons", func(t *testing.T) {
		if vesting.Reason(vesting.ErrInsufficientLiquidity) != "ERR_NOT_ENOUGH_BALANCE" {
			t.Error("unexpected reason for ErrInsufficientLiquidity")
		}
		if vesting.Reason(vesting.ErrAmountTooSmall) != "ERR_AMOUNT_TOO_SMALL" {
			t.Error("unexpected reason for ErrAmountTooSmall")
		}
	})
}
