package sales

import "github.com/shopspring/decimal"

// Stats is the dashboard summary from GET /api/stats.
type Stats struct {
	Revenue   decimal.Decimal `mapstructure:"revenue"`
	Orders    int             `mapstructure:"orders"`
	Customers int             `mapstructure:"customers"`
	LowStock  int             `mapstructure:"lowStock"`
}
