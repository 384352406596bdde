package storage

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:9000", normalizeEndpoint("localhost:9000", false))
	assert.Equal(t, "https://minio.internal", normalizeEndpoint("minio.internal", true))
	assert.Equal(t, "http://already:9000", normalizeEndpoint("http://already:9000", true))
}

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no such key", &types.NoSuchKey{}, true},
		{"wrapped no such key", fmt.Errorf("get: %w", &types.NoSuchKey{}), true},
		{"head not found", &smithy.GenericAPIError{Code: "NotFound"}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain", errors.New("timeout"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNotFoundError(tt.err))
		})
	}
}

func TestIsAzureNotFoundError(t *testing.T) {
	assert.False(t, isAzureNotFoundError(nil))
	assert.True(t, isAzureNotFoundError(&azcore.ResponseError{StatusCode: http.StatusNotFound}))
	assert.True(t, isAzureNotFoundError(fmt.Errorf("x: %w", &azcore.ResponseError{ErrorCode: "BlobNotFound", StatusCode: http.StatusNotFound})))
	assert.False(t, isAzureNotFoundError(&azcore.ResponseError{StatusCode: http.StatusForbidden}))
	assert.False(t, isAzureNotFoundError(errors.New("BlobNotFound")))
}
