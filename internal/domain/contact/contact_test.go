package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContact_Name(t *testing.T) {
	assert.Equal(t, "Chris Buyer", Contact{DisplayName: "Chris Buyer", CompanyName: "Buyer Ltd"}.Name())
	assert.Equal(t, "Northern Motor Finance", Contact{CompanyName: "Northern Motor Finance"}.Name())
}
