package service

import (
	"context"
	"testing"

	"erp-admin/internal/model"

	"github.com/stretchr/testify/require"
)

func TestDashboardEmptyDatabase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stats, err := env.dashboard.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.TotalOrders)
	require.True(t, stats.TotalRevenue.IsZero())

	top, err := env.dashboard.TopProducts(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, top)

	sales, err := env.dashboard.SalesByCategory(ctx)
	require.NoError(t, err)
	require.Empty(t, sales)
}

func TestDashboardAggregates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	shoes, err := env.categories.Create(ctx, &NamedInput{Name: "Shoes"})
	require.NoError(t, err)
	shirts, err := env.categories.Create(ctx, &NamedInput{Name: "Shirts"})
	require.NoError(t, err)
	hats, err := env.categories.Create(ctx, &NamedInput{Name: "Hats"})
	require.NoError(t, err)

	c := env.customer(t, "Acme", "acme@x.com")
	shoe := env.product(t, "Shoe", "SHOE-1", "50", &shoes.ID)
	shirt := env.product(t, "Shirt", "SHIRT-1", "25", &shirts.ID)
	env.product(t, "Cap", "CAP-1", "15", &hats.ID)

	env.order(t, c.ID, model.OrderPaid, "150",
		OrderLineInput{ProductID: shoe.ID, Quantity: 1, Price: money("50")},
		OrderLineInput{ProductID: shirt.ID, Quantity: 4, Price: money("25")},
	)
	env.order(t, c.ID, model.OrderDelivered, "100",
		OrderLineInput{ProductID: shoe.ID, Quantity: 2, Price: money("50")},
	)
	// 取消済みの注文はすべての集計から除外される
	env.order(t, c.ID, model.OrderCancelled, "500",
		OrderLineInput{ProductID: shirt.ID, Quantity: 20, Price: money("25")},
	)

	stats, err := env.dashboard.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.TotalCustomers)
	require.EqualValues(t, 3, stats.TotalProducts)
	require.EqualValues(t, 3, stats.TotalOrders)
	require.True(t, money("250").Equal(stats.TotalRevenue), stats.TotalRevenue.String())

	top, err := env.dashboard.TopProducts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, shirt.ID, top[0].ProductID)
	require.EqualValues(t, 4, top[0].Quantity)
	require.True(t, money("100").Equal(top[0].Total))
	require.Equal(t, shoe.ID, top[1].ProductID)
	require.EqualValues(t, 3, top[1].Quantity)
	require.True(t, money("150").Equal(top[1].Total))

	top, err = env.dashboard.TopProducts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)

	sales, err := env.dashboard.SalesByCategory(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 3)

	byName := map[string]CategorySales{}
	for _, s := range sales {
		byName[s.Name] = s
	}
	require.True(t, money("0").Equal(byName["Hats"].Amount))
	require.True(t, money("0").Equal(byName["Hats"].Percentage))
	require.True(t, money("150").Equal(byName["Shoes"].Amount))
	require.True(t, money("60").Equal(byName["Shoes"].Percentage))
	require.True(t, money("100").Equal(byName["Shirts"].Amount))
	require.True(t, money("40").Equal(byName["Shirts"].Percentage))

	recent, err := env.dashboard.RecentOrders(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, model.OrderCancelled, recent[0].Status)
	require.NotNil(t, recent[0].Customer)
}
