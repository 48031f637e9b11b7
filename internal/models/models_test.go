package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoneyConversions(t *testing.T) {
	m := NewMoney(49.99, "USD")
	assert.Equal(t, int64(4999), m.Amount)
	assert.Equal(t, 49.99, m.ToFloat())
	assert.Equal(t, "49.99 USD", m.String())

	assert.Equal(t, int64(14997), m.MulQty(3).Amount)
}

func TestMoneyAddAdoptsCurrency(t *testing.T) {
	var total Money
	total = total.Add(NewMoney(10, "USD"))
	total = total.Add(NewMoney(5, "USD"))
	assert.Equal(t, int64(1500), total.Amount)
	assert.Equal(t, "USD", total.Currency)
}

func TestOrderCalculateTotal(t *testing.T) {
	order := Order{
		Lines: []OrderLine{
			{Quantity: 2, UnitPrice: NewMoney(10, "USD")},
			{Quantity: 1, UnitPrice: NewMoney(5.50, "USD")},
		},
	}
	order.CalculateTotal()
	assert.Equal(t, int64(2550), order.Total.Amount)
}

func TestParseOrderStatus(t *testing.T) {
	for _, valid := range []string{"pending", "processing", "shipped", "delivered", "cancelled"} {
		status, ok := ParseOrderStatus(valid)
		assert.True(t, ok)
		assert.Equal(t, OrderStatus(valid), status)
	}

	_, ok := ParseOrderStatus("returned")
	assert.False(t, ok)
}

func TestProductInStock(t *testing.T) {
	assert.True(t, (&Product{Available: true, Stock: 1}).InStock())
	assert.False(t, (&Product{Available: true, Stock: 0}).InStock())
	assert.False(t, (&Product{Available: false, Stock: 5}).InStock())
}

func TestCartLineTotal(t *testing.T) {
	line := &CartLine{Quantity: 3, Product: &Product{Price: NewMoney(2.50, "USD")}}
	assert.Equal(t, int64(750), line.LineTotal().Amount)

	detached := &CartLine{Quantity: 3}
	assert.Equal(t, int64(0), detached.LineTotal().Amount)
}
