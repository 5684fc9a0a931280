package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2025, 3, n, 0, 0, 0, 0, time.UTC)
}

func purchase(id, supplier string, amount string, at time.Time) Movement {
	return Movement{
		ID:         id,
		SupplierID: supplier,
		Date:       at,
		Type:       TypePurchase,
		Amount:     decimal.RequireFromString(amount),
	}
}

func payment(id, supplier, refID string, amount string, at time.Time) Movement {
	return Movement{
		ID:         id,
		SupplierID: supplier,
		Date:       at,
		Type:       TypePayment,
		Amount:     decimal.RequireFromString(amount),
		RefID:      refID,
	}
}

func TestEngine_ComputeBalance(t *testing.T) {
	engine := NewEngine()

	t.Run("purchases minus payments", func(t *testing.T) {
		// Setup
		movements := []Movement{
			purchase("p1", "sup1", "1000", day(1)),
			payment("m1", "sup1", "p1", "400", day(2)),
			payment("m2", "sup1", "", "300", day(3)),
		}

		// Act
		balance := engine.ComputeBalance(movements)

		// Assert
		assert.True(t, balance.Equal(decimal.RequireFromString("300")), "got %s", balance)
	})

	t.Run("empty movement set balances to zero", func(t *testing.T) {
		assert.True(t, engine.ComputeBalance(nil).IsZero())
	})

	t.Run("unlinked payments count against the balance", func(t *testing.T) {
		// Setup
		movements := []Movement{
			purchase("p1", "sup1", "100", day(1)),
			payment("m1", "sup1", "", "100", day(2)),
		}

		// Act & Assert
		assert.True(t, engine.ComputeBalance(movements).IsZero())
	})

	t.Run("two decimal amounts settle exactly", func(t *testing.T) {
		// Setup
		movements := []Movement{
			purchase("p1", "sup1", "10.10", day(1)),
			payment("m1", "sup1", "p1", "0.10", day(2)),
			payment("m2", "sup1", "p1", "10.00", day(3)),
		}

		// Act & Assert
		assert.True(t, engine.ComputeBalance(movements).IsZero())
	})

	t.Run("invariant under permutation", func(t *testing.T) {
		// Setup
		movements := []Movement{
			purchase("p1", "sup1", "250.75", day(1)),
			purchase("p2", "sup1", "99.25", day(2)),
			payment("m1", "sup1", "p1", "100", day(3)),
			payment("m2", "sup1", "", "50.50", day(4)),
		}
		want := engine.ComputeBalance(movements)

		// Act & Assert
		for i := 0; i < 10; i++ {
			shuffled := make([]Movement, len(movements))
			copy(shuffled, movements)
			rand.Shuffle(len(shuffled), func(a, b int) {
				shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
			})
			assert.True(t, engine.ComputeBalance(shuffled).Equal(want))
		}
	})
}

func TestEngine_EnrichPurchases(t *testing.T) {
	engine := NewEngine()

	t.Run("allocates linked payments per invoice", func(t *testing.T) {
		// Setup
		movements := []Movement{
			purchase("p1", "sup1", "1000", day(1)),
			purchase("p2", "sup1", "500", day(2)),
			payment("m1", "sup1", "p1", "400", day(3)),
			payment("m2", "sup1", "p1", "100", day(4)),
			payment("m3", "sup1", "", "50", day(5)),
		}

		// Act
		invoices := engine.EnrichPurchases(movements)

		// Assert
		require.Len(t, invoices, 2)
		byID := map[string]Invoice{}
		for _, inv := range invoices {
			byID[inv.ID] = inv
		}
		assert.True(t, byID["p1"].PaidAmount.Equal(decimal.RequireFromString("500")))
		assert.True(t, byID["p1"].RemainingBalance.Equal(decimal.RequireFromString("500")))
		assert.True(t, byID["p2"].PaidAmount.IsZero())
		assert.True(t, byID["p2"].RemainingBalance.Equal(decimal.RequireFromString("500")))
	})

	t.Run("overpayment yields negative remaining balance", func(t *testing.T) {
		// Setup
		movements := []Movement{
			purchase("p1", "sup1", "100", day(1)),
			payment("m1", "sup1", "p1", "150", day(2)),
		}

		// Act
		invoices := engine.EnrichPurchases(movements)

		// Assert
		require.Len(t, invoices, 1)
		assert.True(t, invoices[0].RemainingBalance.Equal(decimal.RequireFromString("-50")),
			"credit must be reported, not clamped; got %s", invoices[0].RemainingBalance)
	})

	t.Run("payment referencing a missing purchase enriches nothing", func(t *testing.T) {
		// Setup
		movements := []Movement{
			purchase("p1", "sup1", "100", day(1)),
			payment("m1", "sup1", "ghost", "40", day(2)),
		}

		// Act
		invoices := engine.EnrichPurchases(movements)

		// Assert
		require.Len(t, invoices, 1)
		assert.True(t, invoices[0].PaidAmount.IsZero())
	})
}

func TestEngine_Statement(t *testing.T) {
	engine := NewEngine()

	t.Run("orders most recent first", func(t *testing.T) {
		// Setup
		movements := []Movement{
			purchase("p1", "sup1", "100", day(1)),
			payment("m1", "sup1", "p1", "40", day(3)),
			purchase("p2", "sup1", "200", day(2)),
		}

		// Act
		entries := engine.Statement(movements)

		// Assert
		require.Len(t, entries, 3)
		assert.Equal(t, "m1", entries[0].ID)
		assert.Equal(t, "p2", entries[1].ID)
		assert.Equal(t, "p1", entries[2].ID)
	})

	t.Run("equal dates break ties by id descending", func(t *testing.T) {
		// Setup
		movements := []Movement{
			purchase("a", "sup1", "10", day(1)),
			purchase("b", "sup1", "20", day(1)),
			purchase("c", "sup1", "30", day(1)),
		}

		// Act
		entries := engine.Statement(movements)

		// Assert
		require.Len(t, entries, 3)
		assert.Equal(t, "c", entries[0].ID)
		assert.Equal(t, "b", entries[1].ID)
		assert.Equal(t, "a", entries[2].ID)
	})

	t.Run("purchases carry allocations, payments pass through", func(t *testing.T) {
		// Setup
		movements := []Movement{
			purchase("p1", "sup1", "100", day(1)),
			payment("m1", "sup1", "p1", "60", day(2)),
		}

		// Act
		entries := engine.Statement(movements)

		// Assert
		require.Len(t, entries, 2)
		assert.Nil(t, entries[0].PaidAmount)
		require.NotNil(t, entries[1].PaidAmount)
		assert.True(t, entries[1].PaidAmount.Equal(decimal.RequireFromString("60")))
		require.NotNil(t, entries[1].RemainingBalance)
		assert.True(t, entries[1].RemainingBalance.Equal(decimal.RequireFromString("40")))
	})

	t.Run("deterministic under permutation", func(t *testing.T) {
		// Setup
		movements := []Movement{
			purchase("p1", "sup1", "100", day(1)),
			purchase("p2", "sup1", "200", day(1)),
			payment("m1", "sup1", "p1", "60", day(2)),
			payment("m2", "sup1", "", "10", day(3)),
		}
		want := engine.Statement(movements)

		// Act & Assert
		for i := 0; i < 10; i++ {
			shuffled := make([]Movement, len(movements))
			copy(shuffled, movements)
			rand.Shuffle(len(shuffled), func(a, b int) {
				shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
			})
			got := engine.Statement(shuffled)
			require.Len(t, got, len(want))
			for j := range want {
				assert.Equal(t, want[j].ID, got[j].ID)
			}
		}
	})
}

func TestEngine_BalancesBySupplier(t *testing.T) {
	// Setup
	engine := NewEngine()
	movements := []Movement{
		purchase("p1", "sup1", "1000", day(1)),
		payment("m1", "sup1", "p1", "400", day(2)),
		purchase("p2", "sup2", "50", day(3)),
		payment("m2", "sup3", "", "25", day(4)),
	}

	// Act
	balances := engine.BalancesBySupplier(movements)

	// Assert
	require.Len(t, balances, 3)
	assert.True(t, balances["sup1"].Equal(decimal.RequireFromString("600")))
	assert.True(t, balances["sup2"].Equal(decimal.RequireFromString("50")))
	assert.True(t, balances["sup3"].Equal(decimal.RequireFromString("-25")))
}
