package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateS3BucketName(t *testing.T) {
	assert.NoError(t, ValidateS3BucketName("piclabel-shares"))
	assert.NoError(t, ValidateS3BucketName("photos.example"))
	assert.Error(t, ValidateS3BucketName("ab"))
	assert.Error(t, ValidateS3BucketName("has space"))
	assert.Error(t, ValidateS3BucketName("Upper"))
}

func TestParseServiceURL(t *testing.T) {
	u, err := ParseServiceURL("https://nominatim.openstreetmap.org")
	assert.NoError(t, err)
	assert.Equal(t, "nominatim.openstreetmap.org", u.Host)

	_, err = ParseServiceURL("ftp://example.com")
	assert.Error(t, err)

	_, err = ParseServiceURL("http://")
	assert.Error(t, err)
}
