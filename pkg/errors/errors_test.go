package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, MetadataFor(CodeValidation).HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, MetadataFor(CodePrecondition).HTTPStatus)
	assert.Equal(t, http.StatusConflict, MetadataFor(CodeConflict).HTTPStatus)
	assert.Equal(t, http.StatusNotFound, MetadataFor(CodeNotFound).HTTPStatus)
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_NEW"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("db timeout")
	err := Wrap(CodeDependency, cause, "load order")

	typed := As(fmt.Errorf("handler: %w", err))
	require.NotNil(t, typed)
	assert.Equal(t, CodeDependency, typed.Code())
	assert.ErrorIs(t, typed, cause)
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodePrecondition, fmt.Errorf("tag not bound"), "resolve order")
	dump := Dump(err)
	assert.Equal(t, CodePrecondition, dump.Code)
	assert.Len(t, dump.Chain, 2)
}
