package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderItemsColumnShape(t *testing.T) {
	items := OrderItems{{ProductID: 7, Name: "Yoga Mat", Price: decimal.RequireFromString("39.99"), Quantity: 2}}
	v, err := items.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"productId":7,"name":"Yoga Mat","price":"39.99","quantity":2}]`, v.(string))

	var back OrderItems
	require.NoError(t, back.Scan([]byte(v.(string))))
	require.Len(t, back, 1)
	assert.True(t, back[0].Price.Equal(decimal.RequireFromString("39.99")))
}

func TestImageListNilAndEmpty(t *testing.T) {
	var l ImageList
	v, err := l.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	require.NoError(t, l.Scan(nil))
	assert.Empty(t, l)
	assert.Error(t, l.Scan(42))
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderPending.Valid())
	assert.True(t, OrderCancelled.Valid())
	assert.False(t, OrderStatus("shipped").Valid())
}

func TestProductOwnedBy(t *testing.T) {
	admin := int64(3)
	assert.True(t, Product{AddedBy: &admin}.OwnedBy(3))
	assert.False(t, Product{AddedBy: &admin}.OwnedBy(4))
	assert.False(t, Product{}.OwnedBy(3))
}
