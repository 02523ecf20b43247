package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/complaint-desk-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "desk", Password: "pw", Name: "complaint_desk", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=desk password=pw dbname=complaint_desk sslmode=disable", dsn)
}
