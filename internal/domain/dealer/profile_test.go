package dealer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfile_PrintableVATNumber(t *testing.T) {
	assert.Equal(t, "GB123456789", Profile{VATRegistered: true, VATNumber: "GB123456789"}.PrintableVATNumber())
	assert.Empty(t, Profile{VATRegistered: false, VATNumber: "GB123456789"}.PrintableVATNumber())
}
