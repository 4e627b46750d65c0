package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTenantID(t *testing.T) {
	assert.NoError(t, ValidateTenantID("acme"))
	assert.NoError(t, ValidateTenantID("acme-corp_01"))
	assert.Error(t, ValidateTenantID(""))
	assert.Error(t, ValidateTenantID("has space"))
	assert.Error(t, ValidateTenantID("dots.not.allowed"))
}

func TestValidateFilename(t *testing.T) {
	assert.NoError(t, ValidateFilename("report.pdf"))
	assert.NoError(t, ValidateFilename("Q3 results (final).xlsx"))
	assert.Error(t, ValidateFilename(""))
	assert.Error(t, ValidateFilename("../../etc/passwd"))
	assert.Error(t, ValidateFilename("dir/file.pdf"))
	assert.Error(t, ValidateFilename("dir\\file.pdf"))
	assert.Error(t, ValidateFilename("bad\x00name.pdf"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "clean", SanitizeString("  clean \x00"))
	assert.Equal(t, "a\tb", SanitizeString("a\tb\x07"))
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, 10, ValidateLimit(0))
	assert.Equal(t, 10, ValidateLimit(-5))
	assert.Equal(t, 42, ValidateLimit(42))
	assert.Equal(t, 100, ValidateLimit(5000))
}

func TestValidateDays(t *testing.T) {
	assert.Equal(t, 7, ValidateDays(0))
	assert.Equal(t, 30, ValidateDays(30))
	assert.Equal(t, 365, ValidateDays(4000))
}

func TestTenantFromPath(t *testing.T) {
	assert.Equal(t, "acme", tenantFromPath("/v1/acme/analyze"))
	assert.Equal(t, "acme", tenantFromPath("/v1/acme/analyses/latest"))
	assert.Equal(t, "", tenantFromPath("/health"))
	assert.Equal(t, "", tenantFromPath("/"))
}
