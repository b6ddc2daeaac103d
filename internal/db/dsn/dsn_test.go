package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/db2fs/db2fs/internal/config"
)

func TestCreate(t *testing.T) {
	testCases := []struct {
		name string
		db   config.DB
		want string
	}{
		{
			name: "nothing configured",
			db:   config.DB{Port: 5432, SSLMode: "disable"},
			want: "",
		},
		{
			name: "literal dsn wins",
			db:   config.DB{DSN: "dbname=yup port=5432 host=localhost", Name: "other"},
			want: "dbname=yup port=5432 host=localhost",
		},
		{
			name: "discrete fields",
			db: config.DB{
				Name:     "prod",
				Host:     "db.internal",
				Port:     5433,
				User:     "odoo",
				Password: "it's secret",
				SSLMode:  "require",
				Extras:   "connect_timeout=10",
			},
			want: `dbname=prod host=db.internal port=5433 user=odoo password='it\'s secret' sslmode=require connect_timeout=10`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Create(&config.Config{DB: tc.db}))
		})
	}
}
